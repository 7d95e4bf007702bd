package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/hostel"
)

type (
	hostelRecord struct {
		ID             primitive.ObjectID `bson:"_id,omitempty"`
		Name           string             `bson:"name"`
		Capacity       int                `bson:"capacity"`
		AvailableRooms int                `bson:"available_rooms"`
		CreatedAt      time.Time          `bson:"created_at"`
	}

	applicationRecord struct {
		ID               primitive.ObjectID `bson:"_id,omitempty"`
		UserID           string             `bson:"user_id"`
		Preference1      string             `bson:"preference_1"`
		Preference2      string             `bson:"preference_2"`
		Preference3      string             `bson:"preference_3"`
		AllocatedHostel  string             `bson:"allocated_hostel"`
		AllocatedRoom    string             `bson:"allocated_room"`
		Status           string             `bson:"status"`
		MessRegistration string             `bson:"mess_registration"`
		AppliedAt        time.Time          `bson:"applied_at"`
		AllocatedAt      *time.Time         `bson:"allocated_at"`
	}

	attendanceRecord struct {
		ID       primitive.ObjectID `bson:"_id,omitempty"`
		UserID   string             `bson:"user_id"`
		Date     string             `bson:"date"`
		Status   string             `bson:"status"`
		MarkedAt time.Time          `bson:"marked_at"`
	}
)

func (r hostelRecord) toHostel() hostel.Hostel {
	return hostel.Hostel{
		ID:             r.ID.Hex(),
		Name:           r.Name,
		Capacity:       r.Capacity,
		AvailableRooms: r.AvailableRooms,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

func (r applicationRecord) toApplication() hostel.Application {
	a := hostel.Application{
		ID:     r.ID.Hex(),
		UserID: r.UserID,
		Preferences: hostel.Preferences{
			Preference1: r.Preference1,
			Preference2: r.Preference2,
			Preference3: r.Preference3,
		},
		AllocatedHostel:  r.AllocatedHostel,
		AllocatedRoom:    r.AllocatedRoom,
		Status:           hostel.Status(r.Status),
		MessRegistration: hostel.MessStatus(r.MessRegistration),
		AppliedAt:        r.AppliedAt.UTC(),
	}
	if r.AllocatedAt != nil {
		at := r.AllocatedAt.UTC()
		a.AllocatedAt = &at
	}
	return a
}

func (r attendanceRecord) toAttendance() hostel.AttendanceRecord {
	return hostel.AttendanceRecord{
		ID:       r.ID.Hex(),
		UserID:   r.UserID,
		Date:     r.Date,
		Status:   hostel.AttendanceStatus(r.Status),
		MarkedAt: r.MarkedAt.UTC(),
	}
}

type hostelRepository struct {
	hostels      *mongo.Collection
	applications *mongo.Collection
	attendance   *mongo.Collection
}

var _ hostel.Repository = (*hostelRepository)(nil)

func NewHostelRepository(db *DB) hostel.Repository {
	return &hostelRepository{
		hostels:      db.collection(hostelsCollection),
		applications: db.collection(applicationsCollection),
		attendance:   db.collection(attendanceCollection),
	}
}

func (repo *hostelRepository) CreateHostel(ctx context.Context, h hostel.Hostel) (hostel.Hostel, error) {
	rec := hostelRecord{
		Name:           h.Name,
		Capacity:       h.Capacity,
		AvailableRooms: h.AvailableRooms,
		CreatedAt:      h.CreatedAt,
	}
	res, err := repo.hostels.InsertOne(ctx, rec)
	if err != nil {
		if isDuplicateKey(err) {
			return hostel.Hostel{}, hostel.ErrHostelExists
		}
		return hostel.Hostel{}, errors.Wrap(err, "inserting hostel")
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec.toHostel(), nil
}

func (repo *hostelRepository) QueryHostels(ctx context.Context) ([]hostel.Hostel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := repo.hostels.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding hostels")
	}
	var recs []hostelRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	hostels := make([]hostel.Hostel, 0, len(recs))
	for _, rec := range recs {
		hostels = append(hostels, rec.toHostel())
	}
	return hostels, nil
}

func (repo *hostelRepository) CreateApplication(ctx context.Context, a hostel.Application) (hostel.Application, error) {
	rec := applicationRecord{
		UserID:           a.UserID,
		Preference1:      a.Preferences.Preference1,
		Preference2:      a.Preferences.Preference2,
		Preference3:      a.Preferences.Preference3,
		AllocatedHostel:  a.AllocatedHostel,
		AllocatedRoom:    a.AllocatedRoom,
		Status:           string(a.Status),
		MessRegistration: string(a.MessRegistration),
		AppliedAt:        a.AppliedAt,
		AllocatedAt:      a.AllocatedAt,
	}
	res, err := repo.applications.InsertOne(ctx, rec)
	if err != nil {
		if isDuplicateKey(err) {
			return hostel.Application{}, hostel.ErrAlreadyApplied
		}
		return hostel.Application{}, errors.Wrap(err, "inserting application")
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec.toApplication(), nil
}

func (repo *hostelRepository) findApplication(ctx context.Context, filter bson.M) (hostel.Application, error) {
	var rec applicationRecord
	if err := repo.applications.FindOne(ctx, filter).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return hostel.Application{}, hostel.ErrApplicationNotFound
		}
		return hostel.Application{}, errors.Wrap(err, "finding application")
	}
	return rec.toApplication(), nil
}

func (repo *hostelRepository) GetApplicationByID(ctx context.Context, id string) (hostel.Application, error) {
	oid, ok := objectID(id)
	if !ok {
		return hostel.Application{}, hostel.ErrApplicationNotFound
	}
	return repo.findApplication(ctx, bson.M{"_id": oid})
}

func (repo *hostelRepository) GetApplicationByUserID(ctx context.Context, userID string) (hostel.Application, error) {
	return repo.findApplication(ctx, bson.M{"user_id": userID})
}

func (repo *hostelRepository) QueryApplications(ctx context.Context, status hostel.Status) ([]hostel.Application, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "applied_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.applications.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding applications")
	}
	var recs []applicationRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	apps := make([]hostel.Application, 0, len(recs))
	for _, rec := range recs {
		apps = append(apps, rec.toApplication())
	}
	return apps, nil
}

func (repo *hostelRepository) DecideApplication(
	ctx context.Context,
	id string,
	to hostel.Status,
	al hostel.Allocation,
	now time.Time,
) (hostel.Application, error) {
	oid, ok := objectID(id)
	if !ok {
		return hostel.Application{}, hostel.ErrApplicationNotFound
	}

	set := bson.M{"status": string(to)}
	if to == hostel.StatusAllocated {
		set["allocated_hostel"] = al.HostelName
		set["allocated_room"] = al.RoomNumber
		set["allocated_at"] = now
	}
	filter := bson.M{"_id": oid, "status": string(hostel.StatusPending)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec applicationRecord
	err := repo.applications.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&rec)
	if err == nil {
		return rec.toApplication(), nil
	}
	if !isNoDocuments(err) {
		return hostel.Application{}, errors.Wrap(err, "deciding application")
	}
	if _, err := repo.findApplication(ctx, bson.M{"_id": oid}); err != nil {
		return hostel.Application{}, err
	}
	return hostel.Application{}, hostel.ErrStateChanged
}

func (repo *hostelRepository) RegisterMess(ctx context.Context, userID string) (hostel.Application, error) {
	filter := bson.M{
		"user_id":           userID,
		"status":            string(hostel.StatusAllocated),
		"mess_registration": string(hostel.MessNotRegistered),
	}
	update := bson.M{"$set": bson.M{"mess_registration": string(hostel.MessRegistered)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec applicationRecord
	err := repo.applications.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err == nil {
		return rec.toApplication(), nil
	}
	if !isNoDocuments(err) {
		return hostel.Application{}, errors.Wrap(err, "registering mess")
	}
	if _, err := repo.GetApplicationByUserID(ctx, userID); err != nil {
		return hostel.Application{}, err
	}
	return hostel.Application{}, hostel.ErrStateChanged
}

func (repo *hostelRepository) UpsertAttendance(ctx context.Context, rec hostel.AttendanceRecord) (hostel.AttendanceRecord, error) {
	filter := bson.M{"user_id": rec.UserID, "date": rec.Date}
	update := bson.M{"$set": bson.M{"status": string(rec.Status), "marked_at": rec.MarkedAt}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored attendanceRecord
	if err := repo.attendance.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return hostel.AttendanceRecord{}, errors.Wrap(err, "upserting attendance")
	}
	return stored.toAttendance(), nil
}

func (repo *hostelRepository) QueryAttendance(ctx context.Context, userID, since string, limit int) ([]hostel.AttendanceRecord, error) {
	filter := bson.M{"user_id": userID}
	if since != "" {
		filter["date"] = bson.M{"$gte": since}
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := repo.attendance.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding attendance")
	}
	var recs []attendanceRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	records := make([]hostel.AttendanceRecord, 0, len(recs))
	for _, r := range recs {
		records = append(records, r.toAttendance())
	}
	return records, nil
}
