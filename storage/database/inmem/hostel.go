package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/campusflow/core/hostel"
)

type hostelRepository struct {
	db *hostelTable
}

var _ hostel.Repository = (*hostelRepository)(nil)

func NewHostelRepository(db *DB) hostel.Repository {
	return &hostelRepository{db: db.hostel}
}

func copyApplication(a *hostel.Application) hostel.Application {
	c := *a
	if a.AllocatedAt != nil {
		at := *a.AllocatedAt
		c.AllocatedAt = &at
	}
	return c
}

func (repo *hostelRepository) CreateHostel(_ context.Context, h hostel.Hostel) (hostel.Hostel, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.hostels {
		if strings.EqualFold(existing.Name, h.Name) {
			return hostel.Hostel{}, hostel.ErrHostelExists
		}
	}
	h.ID = newID()
	repo.db.hostels = append(repo.db.hostels, &h)
	return h, nil
}

func (repo *hostelRepository) QueryHostels(_ context.Context) ([]hostel.Hostel, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	hostels := make([]hostel.Hostel, 0, len(repo.db.hostels))
	for _, h := range repo.db.hostels {
		hostels = append(hostels, *h)
	}
	return hostels, nil
}

func (repo *hostelRepository) findApplication(match func(a *hostel.Application) bool) *hostel.Application {
	for _, a := range repo.db.applications {
		if match(a) {
			return a
		}
	}
	return nil
}

func (repo *hostelRepository) CreateApplication(_ context.Context, a hostel.Application) (hostel.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findApplication(func(existing *hostel.Application) bool { return existing.UserID == a.UserID }) != nil {
		return hostel.Application{}, hostel.ErrAlreadyApplied
	}
	a.ID = newID()
	row := copyApplication(&a)
	repo.db.applications = append(repo.db.applications, &row)
	return a, nil
}

func (repo *hostelRepository) GetApplicationByID(_ context.Context, id string) (hostel.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a := repo.findApplication(func(a *hostel.Application) bool { return a.ID == id }); a != nil {
		return copyApplication(a), nil
	}
	return hostel.Application{}, hostel.ErrApplicationNotFound
}

func (repo *hostelRepository) GetApplicationByUserID(_ context.Context, userID string) (hostel.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a := repo.findApplication(func(a *hostel.Application) bool { return a.UserID == userID }); a != nil {
		return copyApplication(a), nil
	}
	return hostel.Application{}, hostel.ErrApplicationNotFound
}

func (repo *hostelRepository) QueryApplications(_ context.Context, status hostel.Status) ([]hostel.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]hostel.Application, 0, len(repo.db.applications))
	for _, a := range repo.db.applications {
		if status == "" || a.Status == status {
			apps = append(apps, copyApplication(a))
		}
	}
	return apps, nil
}

func (repo *hostelRepository) DecideApplication(
	_ context.Context,
	id string,
	to hostel.Status,
	al hostel.Allocation,
	now time.Time,
) (hostel.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a := repo.findApplication(func(a *hostel.Application) bool { return a.ID == id })
	if a == nil {
		return hostel.Application{}, hostel.ErrApplicationNotFound
	}
	if a.Status != hostel.StatusPending {
		return hostel.Application{}, hostel.ErrStateChanged
	}
	a.Status = to
	if to == hostel.StatusAllocated {
		a.AllocatedHostel = al.HostelName
		a.AllocatedRoom = al.RoomNumber
		a.AllocatedAt = &now
	}
	return copyApplication(a), nil
}

func (repo *hostelRepository) RegisterMess(_ context.Context, userID string) (hostel.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a := repo.findApplication(func(a *hostel.Application) bool { return a.UserID == userID })
	if a == nil {
		return hostel.Application{}, hostel.ErrApplicationNotFound
	}
	if a.Status != hostel.StatusAllocated || a.MessRegistration != hostel.MessNotRegistered {
		return hostel.Application{}, hostel.ErrStateChanged
	}
	a.MessRegistration = hostel.MessRegistered
	return copyApplication(a), nil
}

func (repo *hostelRepository) UpsertAttendance(_ context.Context, rec hostel.AttendanceRecord) (hostel.AttendanceRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.attendance {
		if existing.UserID == rec.UserID && existing.Date == rec.Date {
			existing.Status = rec.Status
			existing.MarkedAt = rec.MarkedAt
			return *existing, nil
		}
	}
	rec.ID = newID()
	repo.db.attendance = append(repo.db.attendance, &rec)
	return rec, nil
}

func (repo *hostelRepository) QueryAttendance(_ context.Context, userID, since string, limit int) ([]hostel.AttendanceRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]hostel.AttendanceRecord, 0)
	for _, rec := range repo.db.attendance {
		if rec.UserID == userID && rec.Date >= since {
			records = append(records, *rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
