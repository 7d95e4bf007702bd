package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/campusflow/core/assistant"
	"github.com/trezcool/campusflow/core/course"
	"github.com/trezcool/campusflow/core/document"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/user"
)

// DB keeps every collection in memory, in insertion order.
// Each table has its own lock; rows are copied in and out.
type DB struct {
	user         *userTable
	document     *documentTable
	fee          *feeTable
	course       *courseTable
	hostel       *hostelTable
	notification *notificationTable
	conversation *conversationTable
}

type (
	userTable struct {
		rows  []*user.User
		mutex sync.RWMutex
	}

	documentTable struct {
		rows  []*document.Document
		mutex sync.RWMutex
	}

	feeTable struct {
		rows  []*fee.Fee
		mutex sync.RWMutex
	}

	courseTable struct {
		courses       []*course.Course
		registrations []*course.Registration
		mutex         sync.RWMutex
	}

	hostelTable struct {
		hostels      []*hostel.Hostel
		applications []*hostel.Application
		attendance   []*hostel.AttendanceRecord
		mutex        sync.RWMutex
	}

	notificationTable struct {
		rows  []*notification.Notification
		mutex sync.RWMutex
	}

	conversationTable struct {
		rows  []*assistant.Conversation
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{},
		document:     &documentTable{},
		fee:          &feeTable{},
		course:       &courseTable{},
		hostel:       &hostelTable{},
		notification: &notificationTable{},
		conversation: &conversationTable{},
	}
}

func newID() string {
	return uuid.New().String()
}
