package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/campusflow/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.courses {
		if strings.EqualFold(existing.Code, c.Code) {
			return course.Course{}, course.ErrCodeExists
		}
	}
	c.ID = newID()
	repo.db.courses = append(repo.db.courses, &c)
	return c, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.courses {
		if c.ID == id {
			return *c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) findRegistration(userID, courseID string) *course.Registration {
	for _, r := range repo.db.registrations {
		if r.UserID == userID && r.CourseID == courseID {
			return r
		}
	}
	return nil
}

func (repo *courseRepository) CreateRegistration(_ context.Context, r course.Registration) (course.Registration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findRegistration(r.UserID, r.CourseID) != nil {
		return course.Registration{}, course.ErrAlreadyRegistered
	}
	r.ID = newID()
	repo.db.registrations = append(repo.db.registrations, &r)
	return r, nil
}

func (repo *courseRepository) QueryRegistrations(_ context.Context, userID string) ([]course.Registration, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	regs := make([]course.Registration, 0)
	for _, r := range repo.db.registrations {
		if r.UserID == userID {
			regs = append(regs, *r)
		}
	}
	return regs, nil
}

func (repo *courseRepository) ActivateLMS(_ context.Context, userID, courseID string) (course.Registration, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r := repo.findRegistration(userID, courseID)
	if r == nil {
		return course.Registration{}, course.ErrRegistrationNotFound
	}
	r.LMSActivated = true
	return *r, nil
}
