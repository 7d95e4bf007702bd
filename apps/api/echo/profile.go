package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/onboarding"
	"github.com/trezcool/campusflow/core/user"
	filesvc "github.com/trezcool/campusflow/services/files"
)

type profileApi struct {
	conf       *core.Config
	svc        *user.Service
	onboarding *onboarding.Service
	files      *filesvc.LocalStore
	validate   *validator.Validate
}

func registerProfileAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := profileApi{
		conf:       deps.Conf,
		svc:        deps.UserSvc,
		onboarding: deps.OnboardingSvc,
		files:      deps.Files,
		validate:   deps.Validate,
	}

	pg := g.Group("/profile", auth...)
	pg.GET("", api.retrieve)
	pg.PUT("", api.update)
	pg.POST("/avatar", api.uploadAvatar)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	c, err := api.onboarding.Score(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "scoring onboarding")
	}
	return ctx.JSON(http.StatusOK, Profile{
		ID:                   usr.ID,
		Email:                usr.Email,
		FullName:             usr.FullName,
		StudentID:            usr.StudentID,
		AvatarURL:            usr.AvatarURL,
		Role:                 usr.Role,
		CreatedAt:            usr.CreatedAt,
		ProfileCompletion:    usr.ProfileCompletion(),
		OnboardingCompletion: c.Total,
	})
}

func (api *profileApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to user.UpdateProfile")
	}
	if err = data.Validate(usr, api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": usr})
}

// uploadAvatar crops the multipart `file` image to a square thumbnail and sets it as the User's avatar.
func (api *profileApi) uploadAvatar(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return errFileMissing
	}
	if fh.Size > api.conf.MaxUploadSize {
		return core.NewError(core.ErrInvalidArgument, "file too large")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	stored, err := api.files.SaveAvatar(usr.ID, fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing avatar")
	}
	if _, err = api.svc.SetAvatar(ctx.Request().Context(), usr, stored.URL); err != nil {
		api.files.Remove(stored)
		return errors.Wrap(err, "setting avatar")
	}
	return ctx.JSON(http.StatusOK, UploadResponse{Message: "Avatar uploaded successfully", FileURL: stored.URL})
}

type Profile struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FullName             string    `json:"full_name"`
	StudentID            string    `json:"student_id"`
	AvatarURL            string    `json:"avatar_url"`
	Role                 user.Role `json:"role"`
	CreatedAt            time.Time `json:"created_at"`
	ProfileCompletion    int       `json:"profile_completion"`
	OnboardingCompletion float64   `json:"onboarding_completion"`
}
