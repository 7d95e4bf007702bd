package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/campusflow/core"
)

// collections
const (
	usersCollection         = "users"
	documentsCollection     = "documents"
	feesCollection          = "fees"
	coursesCollection       = "courses"
	registrationsCollection = "student_courses"
	hostelsCollection       = "hostels"
	applicationsCollection  = "hostel_applications"
	attendanceCollection    = "attendance"
	notificationsCollection = "notifications"
	conversationsCollection = "ai_conversations"
)

// DB is a connected client and the application database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the configured server and waits for it to answer.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	return OpenDatabase(ctx, conf.Database.URI, conf.Database.Name, conf.Database.ConnectTimeout)
}

func OpenDatabase(ctx context.Context, uri, name string, timeout time.Duration) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err := ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &DB{client: client, db: client.Database(name)}, nil
}

// ping waits for the server to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "pinging mongodb")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "mongodb ping timeout")
}

// Ping checks once that the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return errors.Wrap(d.client.Ping(ctx, readpref.Primary()), "pinging mongodb")
}

func (d *DB) Close(ctx context.Context) error {
	return errors.Wrap(d.client.Disconnect(ctx), "disconnecting from mongodb")
}

// Drop deletes the whole database; used by tests.
func (d *DB) Drop(ctx context.Context) error {
	return errors.Wrap(d.db.Drop(ctx), "dropping database")
}

func (d *DB) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// EnsureIndexes creates the indexes the repositories rely on for uniqueness and ordering.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		documentsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "document_type", Value: 1}}, Options: unique},
		},
		feesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "course_code", Value: 1}}, Options: unique},
		},
		registrationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "course_id", Value: 1}}, Options: unique},
		},
		hostelsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		applicationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		attendanceCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}, Options: unique},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		conversationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := d.collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// objectID parses a hex id; ok is false for anything that cannot be a stored id.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func isDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// decodeAll decodes every document of the cursor into records.
func decodeAll(ctx context.Context, cur *mongo.Cursor, records interface{}) error {
	defer func() { _ = cur.Close(ctx) }()
	return errors.Wrap(cur.All(ctx, records), "decoding cursor")
}
