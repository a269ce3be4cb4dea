package handler

import (
	"net/http"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/labstack/echo/v4"
)

func (h *Handler) Register(c echo.Context) error {
	var req model.UserCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authSvc.Register(c.Request().Context(), req); err != nil {
		return newHTTPError(err)
	}
	return c.String(http.StatusCreated, "ok")
}

func (h *Handler) Authorize(c echo.Context) error {
	var req model.AuthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.authSvc.Authorize(c.Request().Context(), req)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the bearer token the request came in with.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	token := auth.Token(ctx)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "No Authorization Header")
	}
	if err := h.authSvc.Revoke(ctx, token); err != nil {
		return newHTTPError(err)
	}
	return c.NoContent(http.StatusOK)
}
