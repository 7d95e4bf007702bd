package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/campusflow/core/document"
)

type documentRepository struct {
	db *documentTable
}

var _ document.Repository = (*documentRepository)(nil)

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) find(userID string, typ document.Type) *document.Document {
	for _, doc := range repo.db.rows {
		if doc.UserID == userID && doc.Type == typ {
			return doc
		}
	}
	return nil
}

func (repo *documentRepository) EnsureDocuments(_ context.Context, userID string, types []document.Type, now time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, typ := range types {
		if repo.find(userID, typ) != nil {
			continue
		}
		repo.db.rows = append(repo.db.rows, &document.Document{
			ID:        newID(),
			UserID:    userID,
			Type:      typ,
			Status:    document.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return nil
}

func (repo *documentRepository) QueryDocuments(_ context.Context, userID string) ([]document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	docs := make([]document.Document, 0, len(document.Requirements))
	for _, doc := range repo.db.rows {
		if doc.UserID == userID {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (repo *documentRepository) MarkUploaded(_ context.Context, userID string, up document.Upload, now time.Time) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	doc := repo.find(userID, up.Type)
	if doc == nil {
		doc = &document.Document{ID: newID(), UserID: userID, Type: up.Type, Status: document.StatusPending, CreatedAt: now}
		repo.db.rows = append(repo.db.rows, doc)
	}
	if !doc.Status.CanUpload() {
		return document.Document{}, document.ErrAlreadyVerified
	}
	doc.FileURL = up.FileURL
	doc.FileName = up.FileName
	doc.Status = document.StatusUploaded
	doc.UpdatedAt = now
	return *doc, nil
}

func (repo *documentRepository) MarkVerified(_ context.Context, id, verifierID string, now time.Time) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, doc := range repo.db.rows {
		if doc.ID == id {
			verifiedAt := now
			doc.Status = document.StatusVerified
			doc.VerifiedBy = verifierID
			doc.VerifiedAt = &verifiedAt
			doc.UpdatedAt = now
			return *doc, nil
		}
	}
	return document.Document{}, document.ErrNotFound
}
