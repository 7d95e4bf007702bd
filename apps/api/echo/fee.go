package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core/fee"
)

type feeApi struct {
	svc      *fee.Service
	validate *validator.Validate
}

func registerFeeAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := feeApi{svc: deps.FeeSvc, validate: deps.Validate}

	fg := g.Group("/fees", auth...)
	fg.GET("", api.view)
	fg.POST("/pay", api.pay)
	fg.GET("/transactions", api.transactions)
}

func (api *feeApi) view(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	f, err := api.svc.Get(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting fee")
	}
	return ctx.JSON(http.StatusOK, f.View())
}

func (api *feeApi) pay(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data fee.Payment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to fee.Payment")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	rcpt, err := api.svc.Pay(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "paying fee")
	}
	return ctx.JSON(http.StatusOK, rcpt)
}

func (api *feeApi) transactions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	txs, err := api.svc.Transactions(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting fee transactions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
