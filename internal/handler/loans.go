package handler

import (
	"net/http"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (h *Handler) Checkout(c echo.Context) error {
	var req model.CreateLoanRequest
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

	loan, err := h.loanSvc.Checkout(ctx, username, req.BookUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	loanUid := c.Param("loanUid")
	if loanUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty loanUid"))
	}

	resp, err := h.loanSvc.Return(c.Request().Context(), loanUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetLoan(c echo.Context) error {
	loanUid := c.Param("loanUid")
	loan, err := h.loanSvc.GetLoan(c.Request().Context(), loanUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) ListLoans(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	loans, err := h.loanSvc.ListLoans(c.Request().Context(), page, size)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) ListLoanHistory(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	history, err := h.loanSvc.ListHistory(c.Request().Context(), page, size)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) LateFee(c echo.Context) error {
	loanUid := c.Param("loanUid")
	fee, err := h.loanSvc.CalculateLateFee(c.Request().Context(), loanUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.LateFeeResponse{
		LoanUid: loanUid,
		LateFee: fee,
	})
}
