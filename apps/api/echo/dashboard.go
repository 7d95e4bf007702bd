package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core/onboarding"
)

type dashboardApi struct {
	svc *onboarding.Service
}

func registerDashboardAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := dashboardApi{svc: deps.OnboardingSvc}

	g.GET("/dashboard/overview", api.overview, auth...)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.Overview(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting dashboard overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

type adminApi struct {
	svc *onboarding.Service
}

func registerAdminAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := adminApi{svc: deps.OnboardingSvc}

	ag := g.Group("/admin", append(auth, adminMiddleware())...)
	ag.GET("/dashboard", api.dashboard)
	ag.GET("/students", api.students)
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	dash, err := api.svc.AdminDashboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting admin dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *adminApi) students(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying student summaries")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": students})
}
