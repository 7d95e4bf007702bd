package notification_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core/notification"
	emailsvc "github.com/trezcool/campusflow/services/email"
	"github.com/trezcool/campusflow/tests"
)

func TestNotify(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mail := emailsvc.NewConsoleServiceMock(env.Conf, env.Logger)
	svc := notification.NewService(env.NotificationRepo, env.UserRepo, mail, env.Logger)
	usr := testutil.CreateUser(t, env.UserRepo, "Jane Doe", "jane@example.com", "", "student")
	other := testutil.CreateUser(t, env.UserRepo, "John Doe", "john@example.com", "", "student")

	svc.Notify(ctx, notification.NewNotification{UserID: usr.ID, Title: "First", Message: "one", Type: notification.TypeRisk})
	svc.Notify(ctx, notification.NewNotification{UserID: usr.ID, Title: "Second", Message: "two", Type: "bogus"})
	svc.Notify(ctx, notification.NewNotification{UserID: other.ID, Title: "Other", Message: "three"})

	nn, err := svc.Query(ctx, usr.ID, false)
	require.NoError(t, err)
	require.Len(t, nn, 2)
	assert.Equal(t, "Second", nn[0].Title)
	assert.Equal(t, notification.TypeInfo, nn[0].Type)
	assert.Equal(t, notification.TypeRisk, nn[1].Type)
	assert.False(t, nn[0].IsRead)

	sent := mail.SentMessages()
	require.Len(t, sent, 3)
	assert.Equal(t, "jane@example.com", sent[0].To[0].Address)
	assert.Equal(t, "First", sent[0].Subject)
	assert.Equal(t, "one", sent[0].TextContent)

	count, err := svc.UnreadCount(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = svc.MarkRead(ctx, other.ID, nn[0].ID)
	assert.True(t, errors.Is(err, notification.ErrNotFound))

	require.NoError(t, svc.MarkRead(ctx, usr.ID, nn[0].ID))
	require.NoError(t, svc.MarkRead(ctx, usr.ID, nn[0].ID))

	unread, err := svc.Query(ctx, usr.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "First", unread[0].Title)

	count, err = svc.UnreadCount(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotifyUnknownUser(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mail := emailsvc.NewConsoleServiceMock(env.Conf, env.Logger)
	svc := notification.NewService(env.NotificationRepo, env.UserRepo, mail, env.Logger)

	svc.Notify(ctx, notification.NewNotification{UserID: "ghost", Title: "Hello", Message: "anyone?"})

	nn, err := svc.Query(ctx, "ghost", false)
	require.NoError(t, err)
	assert.Len(t, nn, 1)
	assert.Empty(t, mail.SentMessages())
}
