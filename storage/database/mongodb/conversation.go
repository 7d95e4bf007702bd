package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/assistant"
)

type conversationRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Question  string             `bson:"question"`
	Answer    string             `bson:"answer"`
	Context   string             `bson:"context"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r conversationRecord) toConversation() assistant.Conversation {
	return assistant.Conversation{
		ID:        r.ID.Hex(),
		UserID:    r.UserID,
		Question:  r.Question,
		Answer:    r.Answer,
		Context:   r.Context,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type conversationRepository struct {
	coll *mongo.Collection
}

var _ assistant.Repository = (*conversationRepository)(nil)

func NewConversationRepository(db *DB) assistant.Repository {
	return &conversationRepository{coll: db.collection(conversationsCollection)}
}

func (repo *conversationRepository) CreateConversation(ctx context.Context, c assistant.Conversation) (assistant.Conversation, error) {
	rec := conversationRecord{
		UserID:    c.UserID,
		Question:  c.Question,
		Answer:    c.Answer,
		Context:   c.Context,
		CreatedAt: c.CreatedAt,
	}
	res, err := repo.coll.InsertOne(ctx, rec)
	if err != nil {
		return assistant.Conversation{}, errors.Wrap(err, "inserting conversation")
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec.toConversation(), nil
}

func (repo *conversationRepository) QueryConversations(ctx context.Context, userID string, limit int) ([]assistant.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := repo.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding conversations")
	}
	var recs []conversationRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}

	convs := make([]assistant.Conversation, 0, len(recs))
	for _, rec := range recs {
		convs = append(convs, rec.toConversation())
	}
	return convs, nil
}
