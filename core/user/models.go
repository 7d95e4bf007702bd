package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/campusflow/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	StudentID    string    `json:"student_id,omitempty"`
	Role         Role      `json:"role"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// ProfileCompletion gives 25 points for each of full name, student ID, avatar and email.
func (u *User) ProfileCompletion() int {
	var score int
	for _, fld := range []string{u.FullName, u.StudentID, u.AvatarURL, u.Email} {
		if fld != "" {
			score += 25
		}
	}
	return score
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FullName  string `json:"full_name" validate:"required,notblank"`
	StudentID string `json:"student_id" validate:"omitempty,max=32"`
	Role      Role   `json:"-"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FullName = core.CleanString(nu.FullName)
	nu.StudentID = core.CleanString(nu.StudentID)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// UpdateProfile defines what information may be provided by a User to modify their profile.
type UpdateProfile struct {
	FullName  string `json:"full_name" validate:"omitempty,notblank"`
	StudentID string `json:"student_id" validate:"omitempty,max=32"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,max=512"`
}

func (up *UpdateProfile) Validate(origUsr User, validate *validator.Validate) error {
	if name := core.CleanString(up.FullName); name != "" {
		up.FullName = name
	} else {
		up.FullName = origUsr.FullName
	}
	if sid := core.CleanString(up.StudentID); sid != "" {
		up.StudentID = sid
	} else {
		up.StudentID = origUsr.StudentID
	}
	if url := core.CleanString(up.AvatarURL); url != "" {
		up.AvatarURL = url
	} else {
		up.AvatarURL = origUsr.AvatarURL
	}
	return validate.Struct(up)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }
