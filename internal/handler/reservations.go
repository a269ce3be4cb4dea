package handler

import (
	"net/http"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	username := auth.UserName(ctx)
	if username == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.New("username is required"))
	}

	rsv, err := h.reservationSvc.Reserve(ctx, username, req.BookUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rsv)
}

func (h *Handler) GetReservations(c echo.Context) error {
	ctx := c.Request().Context()
	username := auth.UserName(ctx)
	if username == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.New("username is required"))
	}

	items, err := h.reservationSvc.List(ctx, username)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CancelReservation(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty reservationUid"))
	}

	if err := h.reservationSvc.Cancel(c.Request().Context(), reservationUid); err != nil {
		return newHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
