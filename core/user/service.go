package user

import (
	"context"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.ErrNotFound, "user not found")
	ErrEmailExists        = core.NewError(core.ErrAlreadyExists, "a user with this email already exists")
	ErrInvalidCredentials = core.NewError(core.ErrUnauthenticated, "invalid email or password")

	invalidValue = "invalid value"

	pwdResetSubject = "Password Reset"
	pwdResetText    = texttmpl.Must(texttmpl.New("password_reset.txt").Parse(
		"Hi {{.Name}},\n\n" +
			"You're receiving this email because you requested a password reset for your account.\n" +
			"Please go to the following page and choose a new password:\n\n" +
			"{{.URL}}\n\n" +
			"If you did not request it, you can safely ignore this email.\n"))
	pwdResetHTML = htmltmpl.Must(htmltmpl.New("password_reset.gohtml").Parse(
		`<p>Hi {{.Name}},</p>` +
			`<p>You're receiving this email because you requested a password reset for your account.</p>` +
			`<p>Please go to the following page and choose a new password: <a href="{{.URL}}">{{.URL}}</a></p>` +
			`<p>If you did not request it, you can safely ignore this email.</p>`))
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists if the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsers returns the users with the given role (all users if role is empty), oldest first.
		QueryUsers(ctx context.Context, role Role) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// Provisioner creates the records a freshly registered User starts with.
	Provisioner interface {
		Provision(ctx context.Context, usr User) error
	}

	Service struct {
		repo            Repository
		mailSvc         core.EmailService
		tokens          *tokenGenerator
		frontendBaseURL string
		provisioners    []Provisioner
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, provisioners ...Provisioner) *Service {
	return &Service{
		repo:            repo,
		mailSvc:         mailSvc,
		tokens:          newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		frontendBaseURL: conf.FrontendBaseURL,
		provisioners:    provisioners,
	}
}

func (svc *Service) checkUniqueness(email string) error {
	_, err := svc.repo.GetUserByEmail(context.Background(), email)
	switch {
	case err == nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

// Register creates a User (a student unless NewUser.Role says otherwise) and provisions their onboarding records.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	role := nu.Role
	if role == "" {
		role = RoleStudent
	}
	if !role.Valid() {
		return User{}, core.NewError(core.ErrInvalidArgument, "invalid role")
	}

	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		FullName:  nu.FullName,
		StudentID: nu.StudentID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	if usr.IsStudent() {
		for _, p := range svc.provisioners {
			if err := p.Provision(ctx, usr); err != nil {
				return usr, errors.Wrap(err, "provisioning user")
			}
		}
	}
	return usr, nil
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryStudents(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx, RoleStudent)
}

func (svc *Service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	usr.FullName = up.FullName
	usr.StudentID = up.StudentID
	usr.AvatarURL = up.AvatarURL
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetAvatar(ctx context.Context, usr User, url string) (User, error) {
	usr.AvatarURL = url
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a password reset link to the User with the given email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	url := svc.frontendBaseURL + "/password-reset/" + EncodeUID(usr) + "/" + svc.tokens.makeToken(usr)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      pwdResetSubject,
		TextTemplate: pwdResetText,
		HTMLTemplate: pwdResetHTML,
		TemplateData: map[string]string{"Name": usr.FullName, "URL": url},
	})
	return nil
}

// ResetPassword sets a new password if the reset token is valid.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	invalidUID := core.NewValidationError(errors.New("invalid uid"), core.FieldError{Field: "uid", Error: invalidValue})

	id, err := decodeUID(rp.UID)
	if err != nil {
		return invalidUID
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return invalidUID
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err := svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: invalidValue})
	}

	_, err = svc.SetPassword(ctx, usr, rp.Password)
	return errors.Wrap(err, "setting password")
}

// MakeResetToken returns the current password reset token of a User.
func (svc *Service) MakeResetToken(usr User) string {
	return svc.tokens.makeToken(usr)
}
