package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/user"
)

var ErrNotFound = core.NewError(core.ErrNotFound, "notification not found")

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryNotifications returns the notifications of a User, newest first.
		QueryNotifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
		CountUnread(ctx context.Context, userID string) (int, error)
		// MarkRead fails with ErrNotFound unless the notification belongs to the User.
		MarkRead(ctx context.Context, userID, id string) error
	}

	// Notifier is implemented by anything that can deliver a notification to a User.
	Notifier interface {
		Notify(ctx context.Context, nn NewNotification)
	}

	Service struct {
		repo    Repository
		users   user.Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Notifier = (*Service)(nil)

func NewService(repo Repository, users user.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc, logger: logger}
}

// Notify stores the notification and mirrors it to the User's email.
// The state change being notified is already committed: failures are logged, not returned.
func (svc *Service) Notify(ctx context.Context, nn NewNotification) {
	if !nn.Type.Valid() {
		nn.Type = TypeInfo
	}
	n, err := svc.repo.CreateNotification(ctx, Notification{
		UserID:    nn.UserID,
		Title:     nn.Title,
		Message:   nn.Message,
		Type:      nn.Type,
		Link:      nn.Link,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		svc.logger.Error("creating notification", errors.Wrap(err, "creating notification"), map[string]interface{}{"user_id": nn.UserID})
		return
	}

	if svc.mailSvc == nil {
		return
	}
	usr, err := svc.users.GetUserByID(ctx, n.UserID)
	if err != nil {
		svc.logger.Warn("notification email not sent", errors.Wrap(err, "finding user by ID"))
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject: n.Title,
		BodyStr: n.Message,
	})
}

func (svc *Service) Query(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, userID, unreadOnly)
}

func (svc *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}

func (svc *Service) MarkRead(ctx context.Context, userID, id string) error {
	return svc.repo.MarkRead(ctx, userID, id)
}
