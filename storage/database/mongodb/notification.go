package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/notification"
)

type notificationRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	Type      string             `bson:"notification_type"`
	Link      string             `bson:"link,omitempty"`
	IsRead    bool               `bson:"is_read"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r notificationRecord) toNotification() notification.Notification {
	return notification.Notification{
		ID:        r.ID.Hex(),
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      notification.Type(r.Type),
		Link:      r.Link,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	coll *mongo.Collection
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{coll: db.collection(notificationsCollection)}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	rec := notificationRecord{
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	res, err := repo.coll.InsertOne(ctx, rec)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec.toNotification(), nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding notifications")
	}
	var recs []notificationRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	nn := make([]notification.Notification, 0, len(recs))
	for _, rec := range recs {
		nn = append(nn, rec.toNotification())
	}
	return nn, nil
}

func (repo *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := repo.coll.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return int(count), nil
}

func (repo *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return notification.ErrNotFound
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid, "user_id": userID}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	if res.MatchedCount == 0 {
		return notification.ErrNotFound
	}
	return nil
}
