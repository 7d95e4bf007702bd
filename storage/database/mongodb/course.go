package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/course"
)

type (
	courseRecord struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		Code        string             `bson:"course_code"`
		Name        string             `bson:"course_name"`
		Credits     int                `bson:"credits"`
		Description string             `bson:"description"`
		CreatedAt   time.Time          `bson:"created_at"`
	}

	registrationRecord struct {
		ID           primitive.ObjectID `bson:"_id,omitempty"`
		UserID       string             `bson:"user_id"`
		CourseID     string             `bson:"course_id"`
		RegisteredAt time.Time          `bson:"registered_at"`
		LMSActivated bool               `bson:"lms_activated"`
	}
)

func (r courseRecord) toCourse() course.Course {
	return course.Course{
		ID:          r.ID.Hex(),
		Code:        r.Code,
		Name:        r.Name,
		Credits:     r.Credits,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (r registrationRecord) toRegistration() course.Registration {
	return course.Registration{
		ID:           r.ID.Hex(),
		UserID:       r.UserID,
		CourseID:     r.CourseID,
		RegisteredAt: r.RegisteredAt.UTC(),
		LMSActivated: r.LMSActivated,
	}
}

type courseRepository struct {
	courses       *mongo.Collection
	registrations *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{
		courses:       db.collection(coursesCollection),
		registrations: db.collection(registrationsCollection),
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	rec := courseRecord{
		Code:        c.Code,
		Name:        c.Name,
		Credits:     c.Credits,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
	res, err := repo.courses.InsertOne(ctx, rec)
	if err != nil {
		if isDuplicateKey(err) {
			return course.Course{}, course.ErrCodeExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context) ([]course.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "course_code", Value: 1}})
	cur, err := repo.courses.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}
	var recs []courseRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	courses := make([]course.Course, 0, len(recs))
	for _, rec := range recs {
		courses = append(courses, rec.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	oid, ok := objectID(id)
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	var rec courseRecord
	if err := repo.courses.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return rec.toCourse(), nil
}

func (repo *courseRepository) CreateRegistration(ctx context.Context, r course.Registration) (course.Registration, error) {
	rec := registrationRecord{
		UserID:       r.UserID,
		CourseID:     r.CourseID,
		RegisteredAt: r.RegisteredAt,
		LMSActivated: r.LMSActivated,
	}
	res, err := repo.registrations.InsertOne(ctx, rec)
	if err != nil {
		if isDuplicateKey(err) {
			return course.Registration{}, course.ErrAlreadyRegistered
		}
		return course.Registration{}, errors.Wrap(err, "inserting registration")
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec.toRegistration(), nil
}

func (repo *courseRepository) QueryRegistrations(ctx context.Context, userID string) ([]course.Registration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.registrations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding registrations")
	}
	var recs []registrationRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	regs := make([]course.Registration, 0, len(recs))
	for _, rec := range recs {
		regs = append(regs, rec.toRegistration())
	}
	return regs, nil
}

func (repo *courseRepository) ActivateLMS(ctx context.Context, userID, courseID string) (course.Registration, error) {
	filter := bson.M{"user_id": userID, "course_id": courseID}
	update := bson.M{"$set": bson.M{"lms_activated": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec registrationRecord
	if err := repo.registrations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return course.Registration{}, course.ErrRegistrationNotFound
		}
		return course.Registration{}, errors.Wrap(err, "activating lms")
	}
	return rec.toRegistration(), nil
}
