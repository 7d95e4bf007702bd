package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core/hostel"
)

type hostelApi struct {
	svc      *hostel.Service
	validate *validator.Validate
}

func registerHostelAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := hostelApi{svc: deps.HostelSvc, validate: deps.Validate}

	hg := g.Group("/hostel", auth...)
	hg.GET("", api.view)
	hg.GET("/available", api.available)
	hg.POST("/apply", api.apply)
	hg.PUT("/mess-register", api.registerMess)
	hg.GET("/attendance", api.attendance)
	hg.POST("/attendance/mark", api.markAttendance)

	// admin endpoints
	admin := adminMiddleware()
	hg.POST("/create", api.create, admin)
	hg.GET("/applications", api.applications, admin)
	hg.PUT("/:id/allocate", api.allocate, admin)
	hg.PUT("/:id/reject", api.reject, admin)
}

func (api *hostelApi) view(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	v, err := api.svc.View(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting hostel view")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *hostelApi) available(ctx echo.Context) error {
	hostels, err := api.svc.QueryHostels(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying hostels")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"hostels": hostels})
}

func (api *hostelApi) apply(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data hostel.Preferences
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to hostel.Preferences")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Apply(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "applying for hostel")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Hostel application submitted", "application": app})
}

func (api *hostelApi) registerMess(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.RegisterMess(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "registering mess")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Mess registration successful"})
}

func (api *hostelApi) attendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.Attendance(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"attendance": records})
}

// markAttendance accepts `date` & `status` from the JSON body or the query string.
func (api *hostelApi) markAttendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data hostel.MarkAttendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to hostel.MarkAttendance")
	}
	if data.Date == "" {
		data.Date = ctx.QueryParam("date")
	}
	if data.Status == "" {
		data.Status = hostel.AttendanceStatus(ctx.QueryParam("status"))
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	rec, err := api.svc.MarkAttendance(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Attendance marked", "date": rec.Date, "status": rec.Status})
}

func (api *hostelApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data hostel.NewHostel
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to hostel.NewHostel")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	h, err := api.svc.CreateHostel(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating hostel")
	}
	return ctx.JSON(http.StatusCreated, h)
}

func (api *hostelApi) applications(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	status := hostel.Status(ctx.QueryParam("status"))
	apps, err := api.svc.QueryApplications(ctx.Request().Context(), usr, status)
	if err != nil {
		return errors.Wrap(err, "querying hostel applications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"applications": apps})
}

// allocate reads the allocation from the query string; the body is ignored.
func (api *hostelApi) allocate(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	data := hostel.Allocation{
		HostelName: ctx.QueryParam("hostel_name"),
		RoomNumber: ctx.QueryParam("room_number"),
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if _, err = api.svc.Allocate(ctx.Request().Context(), usr, ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "allocating hostel")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Hostel allocated successfully"})
}

func (api *hostelApi) reject(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Reject(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "rejecting hostel application")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Hostel application rejected"})
}
