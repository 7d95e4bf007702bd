package document

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewError(core.ErrNotFound, "document not found")
	ErrAlreadyVerified = core.NewError(core.ErrInvalidState, "document already verified")

	link = "/documents"
)

type (
	Repository interface {
		// EnsureDocuments inserts a pending Document for each type the User does not have yet.
		EnsureDocuments(ctx context.Context, userID string, types []Type, now time.Time) error
		QueryDocuments(ctx context.Context, userID string) ([]Document, error)
		// MarkUploaded attaches the file and moves the document to uploaded, only from pending|uploaded.
		// It fails with ErrAlreadyVerified otherwise.
		MarkUploaded(ctx context.Context, userID string, up Upload, now time.Time) (Document, error)
		// MarkVerified moves the document to verified from any status; fails with ErrNotFound.
		MarkVerified(ctx context.Context, id, verifierID string, now time.Time) (Document, error)
	}

	Service struct {
		repo     Repository
		notifier notification.Notifier
	}
)

var _ user.Provisioner = (*Service)(nil)

func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Provision creates the pending placeholders of a new User.
func (svc *Service) Provision(ctx context.Context, usr user.User) error {
	return svc.repo.EnsureDocuments(ctx, usr.ID, RequiredTypes, time.Now().UTC())
}

// Query returns the User's documents, creating any missing placeholder first.
func (svc *Service) Query(ctx context.Context, userID string) ([]Document, error) {
	if err := svc.repo.EnsureDocuments(ctx, userID, RequiredTypes, time.Now().UTC()); err != nil {
		return nil, errors.Wrap(err, "ensuring documents")
	}
	docs, err := svc.repo.QueryDocuments(ctx, userID)
	return docs, errors.Wrap(err, "querying documents")
}

func (svc *Service) Checklist(ctx context.Context, userID string) (Checklist, error) {
	docs, err := svc.Query(ctx, userID)
	if err != nil {
		return Checklist{}, err
	}
	byType := make(map[Type]Document, len(docs))
	for _, doc := range docs {
		byType[doc.Type] = doc
	}

	cl := Checklist{
		Documents:         make([]Item, 0, len(Requirements)),
		RequiredDocuments: Requirements,
	}
	for _, req := range Requirements {
		doc, ok := byType[req.Type]
		if !ok {
			doc = Document{UserID: userID, Type: req.Type, Status: StatusPending}
		}
		if doc.Status == StatusVerified {
			cl.Stats.Completed++
		}
		cl.Documents = append(cl.Documents, Item{Document: doc, Label: req.Label, Description: req.Description})
	}
	cl.Stats.Total = len(cl.Documents)
	cl.Stats.Percentage = core.Round(core.Percentage(float64(cl.Stats.Completed), float64(cl.Stats.Total)), 1)
	return cl, nil
}

// Counts returns the number of verified and of pending (pending|uploaded) documents of the User.
func (svc *Service) Counts(ctx context.Context, userID string) (verified, pending int, err error) {
	docs, err := svc.repo.QueryDocuments(ctx, userID)
	if err != nil {
		return 0, 0, errors.Wrap(err, "querying documents")
	}
	for _, doc := range docs {
		switch {
		case doc.Status == StatusVerified:
			verified++
		case doc.Status.IsPending():
			pending++
		}
	}
	return verified, pending, nil
}

// Upload attaches a file to one of the User's documents: pending|uploaded -> uploaded.
func (svc *Service) Upload(ctx context.Context, userID string, up Upload) (Document, error) {
	if err := up.Clean(); err != nil {
		return Document{}, err
	}
	doc, err := svc.repo.MarkUploaded(ctx, userID, up, time.Now().UTC())
	if err != nil {
		return Document{}, errors.Wrap(err, "marking document uploaded")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  userID,
		Title:   "Document Uploaded",
		Message: "Your " + doc.Type.Name() + " has been uploaded successfully.",
		Type:    notification.TypeTaskCompletion,
		Link:    link,
	})
	return doc, nil
}

// Verify marks a document verified by the given admin.
func (svc *Service) Verify(ctx context.Context, id string, verifier user.User) (Document, error) {
	if !verifier.IsAdmin() {
		return Document{}, core.NewError(core.ErrForbidden, "permission denied")
	}
	doc, err := svc.repo.MarkVerified(ctx, id, verifier.ID, time.Now().UTC())
	if err != nil {
		return Document{}, errors.Wrap(err, "marking document verified")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  doc.UserID,
		Title:   "Document Verified",
		Message: "Your " + doc.Type.Name() + " has been verified.",
		Type:    notification.TypeTaskCompletion,
		Link:    link,
	})
	return doc, nil
}
