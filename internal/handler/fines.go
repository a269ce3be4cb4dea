package handler

import (
	"net/http"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (h *Handler) CreateFine(c echo.Context) error {
	var req model.CreateFineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fine, err := h.fineSvc.Issue(c.Request().Context(), req)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusCreated, fine)
}

func (h *Handler) GetFine(c echo.Context) error {
	fineUid := c.Param("fineUid")
	fine, err := h.fineSvc.Get(c.Request().Context(), fineUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, fine)
}

func (h *Handler) ListFines(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	fines, err := h.fineSvc.List(c.Request().Context(), page, size)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, fines)
}

func (h *Handler) ListMyFines(c echo.Context) error {
	ctx := c.Request().Context()
	username := auth.UserName(ctx)
	if username == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, errors.New("username is required"))
	}

	fines, err := h.fineSvc.ListUserFines(ctx, username)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, fines)
}

func (h *Handler) PayFine(c echo.Context) error {
	fineUid := c.Param("fineUid")
	if err := h.fineSvc.Pay(c.Request().Context(), fineUid); err != nil {
		return newHTTPError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) RefreshFines(c echo.Context) error {
	refreshed, err := h.fineSvc.RefreshOverdue(c.Request().Context())
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"refreshed": refreshed})
}
