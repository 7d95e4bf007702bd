package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core/assistant"
)

type assistantApi struct {
	svc      *assistant.Service
	validate *validator.Validate
}

func registerAssistantAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps *Deps) {
	api := assistantApi{svc: deps.AssistantSvc, validate: deps.Validate}

	ag := g.Group("/ai", auth...)
	ag.POST("/chat", api.chat)
	ag.GET("/history", api.history)
}

func (api *assistantApi) chat(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data assistant.Question
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to assistant.Question")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	reply, err := api.svc.Chat(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "chatting with assistant")
	}
	return ctx.JSON(http.StatusOK, reply)
}

func (api *assistantApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	convs, err := api.svc.History(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting assistant history")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"conversations": convs})
}
