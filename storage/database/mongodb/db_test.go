package mongodb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core/course"
	"github.com/trezcool/campusflow/core/document"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/user"
)

// openTestDB connects to the server named by TEST_MONGO_URI, in a database of its own.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := fmt.Sprintf("campusflow_test_%d", time.Now().UnixNano())
	db, err := OpenDatabase(ctx, uri, name, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, db.EnsureIndexes(ctx))

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Close(context.Background())
	})
	return db
}

func testTransaction(amount float64) fee.Transaction {
	return fee.Transaction{
		ID:            uuid.New().String(),
		Amount:        amount,
		PaymentMethod: "online",
		TransactionID: "TXN" + uuid.New().String()[:8],
		Status:        fee.TransactionCompleted,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	now := time.Now().UTC().Truncate(time.Millisecond)

	usr, err := repo.CreateUser(ctx, user.User{Email: "Jane@Example.com", FullName: "Jane", Role: user.RoleStudent, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)

	_, err = repo.CreateUser(ctx, user.User{Email: "jane@example.com", FullName: "Other", Role: user.RoleStudent})
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := repo.GetUserByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = repo.GetUserByID(ctx, "not-an-id")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestFeeAddPayment(t *testing.T) {
	ctx := context.Background()
	repo := NewFeeRepository(openTestDB(t))
	userID := uuid.New().String()
	now := time.Now().UTC()

	_, err := repo.AddPayment(ctx, userID, testTransaction(10), now)
	assert.Equal(t, fee.ErrNotFound, err)

	f, err := repo.EnsureFee(ctx, fee.Fee{UserID: userID, TotalAmount: 1000, RemainingAmount: 1000, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	again, err := repo.EnsureFee(ctx, fee.Fee{UserID: userID, TotalAmount: 5, RemainingAmount: 5})
	require.NoError(t, err)
	assert.Equal(t, f.ID, again.ID)
	assert.Equal(t, 1000.0, again.TotalAmount)

	f, err = repo.AddPayment(ctx, userID, testTransaction(100.1), now)
	require.NoError(t, err)
	assert.Equal(t, 100.1, f.PaidAmount)
	assert.Equal(t, 899.9, f.RemainingAmount)
	require.Len(t, f.Transactions, 1)

	_, err = repo.AddPayment(ctx, userID, testTransaction(900), now)
	assert.Equal(t, fee.ErrOverpayment, err)

	f, err = repo.GetFeeByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 100.1, f.PaidAmount)
	assert.Len(t, f.Transactions, 1)
}

func TestFeeAddPaymentConcurrently(t *testing.T) {
	ctx := context.Background()
	repo := NewFeeRepository(openTestDB(t))
	userID := uuid.New().String()
	now := time.Now().UTC()

	_, err := repo.EnsureFee(ctx, fee.Fee{UserID: userID, TotalAmount: 1000, RemainingAmount: 1000, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AddPayment(ctx, userID, testTransaction(100), now); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	f, err := repo.GetFeeByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, ok)
	assert.Equal(t, 1000.0, f.PaidAmount)
	assert.Equal(t, 0.0, f.RemainingAmount)
	assert.Len(t, f.Transactions, 10)
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(openTestDB(t))
	userID := uuid.New().String()
	now := time.Now().UTC()

	require.NoError(t, repo.EnsureDocuments(ctx, userID, document.RequiredTypes, now))
	require.NoError(t, repo.EnsureDocuments(ctx, userID, document.RequiredTypes, now))
	docs, err := repo.QueryDocuments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, docs, len(document.RequiredTypes))

	up := document.Upload{Type: document.TypePhoto, FileURL: "/uploads/x/photo.png", FileName: "photo.png"}
	doc, err := repo.MarkUploaded(ctx, userID, up, now)
	require.NoError(t, err)
	assert.Equal(t, document.StatusUploaded, doc.Status)

	doc, err = repo.MarkVerified(ctx, doc.ID, "admin", now)
	require.NoError(t, err)
	assert.Equal(t, document.StatusVerified, doc.Status)

	_, err = repo.MarkUploaded(ctx, userID, up, now)
	assert.Equal(t, document.ErrAlreadyVerified, err)

	_, err = repo.MarkVerified(ctx, "000000000000000000000000", "admin", now)
	assert.Equal(t, document.ErrNotFound, err)
}

func TestCourseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(openTestDB(t))
	now := time.Now().UTC()

	c, err := repo.CreateCourse(ctx, course.Course{Code: "CS101", Name: "Intro", Credits: 3, CreatedAt: now})
	require.NoError(t, err)
	_, err = repo.CreateCourse(ctx, course.Course{Code: "CS101", Name: "Dup", Credits: 3, CreatedAt: now})
	assert.Equal(t, course.ErrCodeExists, err)

	r := course.Registration{UserID: "u1", CourseID: c.ID, RegisteredAt: now}
	_, err = repo.CreateRegistration(ctx, r)
	require.NoError(t, err)
	_, err = repo.CreateRegistration(ctx, r)
	assert.Equal(t, course.ErrAlreadyRegistered, err)

	reg, err := repo.ActivateLMS(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.True(t, reg.LMSActivated)

	_, err = repo.ActivateLMS(ctx, "u2", c.ID)
	assert.Equal(t, course.ErrRegistrationNotFound, err)
}

func TestHostelRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewHostelRepository(openTestDB(t))
	now := time.Now().UTC()

	a := hostel.Application{UserID: "u1", Status: hostel.StatusPending, MessRegistration: hostel.MessNotRegistered, AppliedAt: now}
	app, err := repo.CreateApplication(ctx, a)
	require.NoError(t, err)
	_, err = repo.CreateApplication(ctx, a)
	assert.Equal(t, hostel.ErrAlreadyApplied, err)

	_, err = repo.RegisterMess(ctx, "u1")
	assert.Equal(t, hostel.ErrStateChanged, err)

	al := hostel.Allocation{HostelName: "North Hostel", RoomNumber: "101"}
	app, err = repo.DecideApplication(ctx, app.ID, hostel.StatusAllocated, al, now)
	require.NoError(t, err)
	assert.Equal(t, hostel.StatusAllocated, app.Status)
	assert.Equal(t, "101", app.AllocatedRoom)
	assert.NotNil(t, app.AllocatedAt)

	_, err = repo.DecideApplication(ctx, app.ID, hostel.StatusRejected, hostel.Allocation{}, now)
	assert.Equal(t, hostel.ErrStateChanged, err)
	_, err = repo.DecideApplication(ctx, "000000000000000000000000", hostel.StatusRejected, hostel.Allocation{}, now)
	assert.Equal(t, hostel.ErrApplicationNotFound, err)

	app, err = repo.RegisterMess(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, hostel.MessRegistered, app.MessRegistration)

	for _, rec := range []hostel.AttendanceRecord{
		{UserID: "u1", Date: "2026-01-01", Status: hostel.AttendancePresent, MarkedAt: now},
		{UserID: "u1", Date: "2026-01-02", Status: hostel.AttendanceAbsent, MarkedAt: now},
		{UserID: "u1", Date: "2026-01-01", Status: hostel.AttendanceLeave, MarkedAt: now},
	} {
		_, err := repo.UpsertAttendance(ctx, rec)
		require.NoError(t, err)
	}
	records, err := repo.QueryAttendance(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-01-02", records[0].Date)
	assert.Equal(t, hostel.AttendanceLeave, records[1].Status)
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openTestDB(t))
	now := time.Now().UTC()

	first, err := repo.CreateNotification(ctx, notification.Notification{UserID: "u1", Title: "first", Type: notification.TypeInfo, CreatedAt: now})
	require.NoError(t, err)
	_, err = repo.CreateNotification(ctx, notification.Notification{UserID: "u1", Title: "second", Type: notification.TypeInfo, CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)

	nn, err := repo.QueryNotifications(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, nn, 2)
	assert.Equal(t, "second", nn[0].Title)

	assert.Equal(t, notification.ErrNotFound, repo.MarkRead(ctx, "u2", first.ID))
	require.NoError(t, repo.MarkRead(ctx, "u1", first.ID))

	count, err := repo.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
