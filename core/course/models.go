package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campusflow/core"
)

// MinFeePercentage is the share of the fee a student must have paid to register for courses.
const MinFeePercentage = 50

type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"course_code"`
	Name        string    `json:"course_name"`
	Credits     int       `json:"credits"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// NewCourse contains information needed to add a Course to the catalog.
type NewCourse struct {
	Code        string `json:"course_code" yaml:"course_code" validate:"required,notblank,max=16"`
	Name        string `json:"course_name" yaml:"course_name" validate:"required,notblank,max=128"`
	Credits     int    `json:"credits" yaml:"credits" validate:"required,min=1,max=12"`
	Description string `json:"description" yaml:"description" validate:"omitempty,max=1024"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = core.CleanString(nc.Code)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// Registration links a User to a Course; only LMSActivated ever changes.
type Registration struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CourseID     string    `json:"course_id"`
	RegisteredAt time.Time `json:"registered_at"` // UTC
	LMSActivated bool      `json:"lms_activated"`
}

type RegisterCourses struct {
	CourseIDs []string `json:"course_ids" validate:"required,min=1,dive,required"`
}

type (
	Enrolment struct {
		Registration
		Course Course `json:"course"`
	}

	MyCourses struct {
		Courses       []Enrolment `json:"courses"`
		Locked        bool        `json:"locked"`
		Message       string      `json:"message,omitempty"`
		FeePercentage float64     `json:"fee_percentage,omitempty"`
	}

	RegisterResult struct {
		Message string   `json:"message"`
		Courses []string `json:"courses"`
	}
)
