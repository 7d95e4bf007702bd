package notification

import "time"

type Type string

const (
	TypeRisk           Type = "risk"
	TypeTaskCompletion Type = "task_completion"
	TypeDeadline       Type = "deadline"
	TypeInfo           Type = "info"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRisk, TypeTaskCompletion, TypeDeadline, TypeInfo:
		return true
	}
	return false
}

// Notification is immutable except for IsRead.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"notification_type"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewNotification contains information needed to notify a User.
type NewNotification struct {
	UserID  string
	Title   string
	Message string
	Type    Type
	Link    string
}
