package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/campusflow/core/document"
)

type documentRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"user_id"`
	Type       string             `bson:"document_type"`
	FileURL    string             `bson:"file_url,omitempty"`
	FileName   string             `bson:"file_name,omitempty"`
	Status     string             `bson:"status"`
	VerifiedBy string             `bson:"verified_by,omitempty"`
	VerifiedAt *time.Time         `bson:"verified_at,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (r documentRecord) toDocument() document.Document {
	doc := document.Document{
		ID:         r.ID.Hex(),
		UserID:     r.UserID,
		Type:       document.Type(r.Type),
		FileURL:    r.FileURL,
		FileName:   r.FileName,
		Status:     document.Status(r.Status),
		VerifiedBy: r.VerifiedBy,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if r.VerifiedAt != nil {
		at := r.VerifiedAt.UTC()
		doc.VerifiedAt = &at
	}
	return doc
}

type documentRepository struct {
	coll *mongo.Collection
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{coll: db.collection(documentsCollection)}
}

func (repo *documentRepository) EnsureDocuments(ctx context.Context, userID string, types []document.Type, now time.Time) error {
	opts := options.Update().SetUpsert(true)
	for _, typ := range types {
		filter := bson.M{"user_id": userID, "document_type": string(typ)}
		update := bson.M{"$setOnInsert": bson.M{
			"status":     string(document.StatusPending),
			"created_at": now,
			"updated_at": now,
		}}
		// a concurrent upsert of the same placeholder loses on the unique index
		if _, err := repo.coll.UpdateOne(ctx, filter, update, opts); err != nil && !isDuplicateKey(err) {
			return errors.Wrap(err, "ensuring document")
		}
	}
	return nil
}

func (repo *documentRepository) QueryDocuments(ctx context.Context, userID string) ([]document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying documents")
	}
	var recs []documentRecord
	if err := decodeAll(ctx, cur, &recs); err != nil {
		return nil, err
	}
	docs := make([]document.Document, 0, len(recs))
	for _, r := range recs {
		docs = append(docs, r.toDocument())
	}
	return docs, nil
}

// MarkUploaded upserts on the uploadable statuses only: a verified document makes
// the upsert collide with the (user_id, document_type) unique index.
func (repo *documentRepository) MarkUploaded(ctx context.Context, userID string, up document.Upload, now time.Time) (document.Document, error) {
	filter := bson.M{
		"user_id":       userID,
		"document_type": string(up.Type),
		"status":        bson.M{"$in": bson.A{string(document.StatusPending), string(document.StatusUploaded)}},
	}
	update := bson.M{
		"$set": bson.M{
			"file_url":   up.FileURL,
			"file_name":  up.FileName,
			"status":     string(document.StatusUploaded),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec documentRecord
	if err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		if isDuplicateKey(err) {
			return document.Document{}, document.ErrAlreadyVerified
		}
		return document.Document{}, errors.Wrap(err, "marking document uploaded")
	}
	return rec.toDocument(), nil
}

func (repo *documentRepository) MarkVerified(ctx context.Context, id, verifierID string, now time.Time) (document.Document, error) {
	oid, ok := objectID(id)
	if !ok {
		return document.Document{}, document.ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"status":      string(document.StatusVerified),
		"verified_by": verifierID,
		"verified_at": now,
		"updated_at":  now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec documentRecord
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&rec); err != nil {
		if isNoDocuments(err) {
			return document.Document{}, document.ErrNotFound
		}
		return document.Document{}, errors.Wrap(err, "marking document verified")
	}
	return rec.toDocument(), nil
}
