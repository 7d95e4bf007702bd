package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core/course"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := courseApi{svc: deps.CourseSvc, validate: deps.Validate}

	cg := g.Group("/courses", auth...)
	cg.GET("", api.list)
	cg.GET("/my-courses", api.myCourses)
	cg.POST("/register", api.register)
	cg.PUT("/:id/activate-lms", api.activateLMS)

	// admin endpoints
	cg.POST("/create", api.create, adminMiddleware())
}

func (api *courseApi) list(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"courses": courses})
}

func (api *courseApi) myCourses(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	mc, err := api.svc.MyCourses(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting user courses")
	}
	return ctx.JSON(http.StatusOK, mc)
}

func (api *courseApi) register(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.RegisterCourses
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to course.RegisterCourses")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	res, err := api.svc.Register(ctx.Request().Context(), usr.ID, data.CourseIDs)
	if err != nil {
		return errors.Wrap(err, "registering courses")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) activateLMS(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.ActivateLMS(ctx.Request().Context(), usr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "activating LMS")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "LMS activated successfully"})
}

func (api *courseApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to course.NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}
