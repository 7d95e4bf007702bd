package hostel

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusflow/core"
)

// NotApplied is the status reported for a User without an Application.
const NotApplied = "not_applied"

type Status string

const (
	StatusPending   Status = "pending"
	StatusAllocated Status = "allocated"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAllocated, StatusRejected:
		return true
	}
	return false
}

// CanDecide reports whether an admin may still allocate or reject the application.
func (s Status) CanDecide() bool {
	switch s {
	case StatusPending:
		return true
	case StatusAllocated, StatusRejected:
		return false
	}
	return false
}

type MessStatus string

const (
	MessNotRegistered MessStatus = "not_registered"
	MessRegistered    MessStatus = "registered"
)

func (s MessStatus) Valid() bool {
	switch s {
	case MessNotRegistered, MessRegistered:
		return true
	}
	return false
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLeave   AttendanceStatus = "leave"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLeave:
		return true
	}
	return false
}

type Hostel struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Capacity       int       `json:"capacity"`
	AvailableRooms int       `json:"available_rooms"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewHostel contains information needed to add a Hostel to the catalog.
type NewHostel struct {
	Name           string `json:"name" yaml:"name" validate:"required,notblank,max=128"`
	Capacity       int    `json:"capacity" yaml:"capacity" validate:"required,min=1"`
	AvailableRooms int    `json:"available_rooms" yaml:"available_rooms" validate:"min=0,ltefield=Capacity"`
}

func (nh *NewHostel) Validate(validate *validator.Validate) error {
	nh.Name = core.CleanString(nh.Name)
	return validate.Struct(nh)
}

type Preferences struct {
	Preference1 string `json:"preference_1,omitempty" validate:"omitempty,max=128"`
	Preference2 string `json:"preference_2,omitempty" validate:"omitempty,max=128"`
	Preference3 string `json:"preference_3,omitempty" validate:"omitempty,max=128"`
}

func (p *Preferences) Validate(validate *validator.Validate) error {
	p.Preference1 = core.CleanString(p.Preference1)
	p.Preference2 = core.CleanString(p.Preference2)
	p.Preference3 = core.CleanString(p.Preference3)
	return validate.Struct(p)
}

// Application is a User's request for accommodation; at most one per User.
type Application struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	Preferences      Preferences `json:"preferences"`
	AllocatedHostel  string      `json:"allocated_hostel,omitempty"`
	AllocatedRoom    string      `json:"allocated_room,omitempty"`
	Status           Status      `json:"status"`
	MessRegistration MessStatus  `json:"mess_registration"`
	AppliedAt        time.Time   `json:"applied_at"`   // UTC
	AllocatedAt      *time.Time  `json:"allocated_at"` // UTC
}

func (a *Application) IsHosteller() bool {
	return a != nil && a.Status == StatusAllocated
}

// Allocation contains the hostel & room an admin assigns to an Application.
type Allocation struct {
	HostelName string `query:"hostel_name" json:"hostel_name" validate:"required,notblank,max=128"`
	RoomNumber string `query:"room_number" json:"room_number" validate:"required,notblank,max=32"`
}

func (al *Allocation) Validate(validate *validator.Validate) error {
	al.HostelName = core.CleanString(al.HostelName)
	al.RoomNumber = core.CleanString(al.RoomNumber)
	return validate.Struct(al)
}

type AttendanceRecord struct {
	ID       string           `json:"id"`
	UserID   string           `json:"user_id"`
	Date     string           `json:"date"` // YYYY-MM-DD
	Status   AttendanceStatus `json:"status"`
	MarkedAt time.Time        `json:"marked_at"` // UTC
}

type MarkAttendance struct {
	Date   string           `json:"date" query:"date" validate:"required"`
	Status AttendanceStatus `json:"status" query:"status" validate:"required"`
}

func (ma *MarkAttendance) Clean() error {
	ma.Date = core.CleanString(ma.Date)
	ma.Status = AttendanceStatus(core.CleanString(string(ma.Status), true /* lower */))
	if _, err := time.Parse(dateLayout, ma.Date); err != nil {
		return core.NewError(core.ErrInvalidArgument, "date must be formatted as YYYY-MM-DD")
	}
	if !ma.Status.Valid() {
		return core.NewError(core.ErrInvalidArgument, "status must be one of present, absent, leave")
	}
	return nil
}

// View is the hostel section as shown to its owner.
type View struct {
	Application *Application       `json:"application"`
	Status      string             `json:"status"`
	IsHosteller bool               `json:"is_hosteller"`
	Attendance  []AttendanceRecord `json:"attendance"`
}
