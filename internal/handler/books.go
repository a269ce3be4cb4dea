package handler

import (
	"net/http"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.BookCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.catalogSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookUid := c.Param("bookUid")
	book, err := h.catalogSvc.GetBook(c.Request().Context(), bookUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ListBooks(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	books, err := h.catalogSvc.ListBooks(c.Request().Context(), page, size)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	bookUid := c.Param("bookUid")
	if bookUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errors.New("empty bookUid"))
	}
	var req model.BookUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.catalogSvc.UpdateBook(c.Request().Context(), bookUid, req)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	bookUid := c.Param("bookUid")
	if err := h.catalogSvc.DeleteBook(c.Request().Context(), bookUid); err != nil {
		return newHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetBookAvailability(c echo.Context) error {
	bookUid := c.Param("bookUid")
	available, err := h.catalogSvc.GetAvailability(c.Request().Context(), bookUid)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.AvailabilityResponse{
		BookUid:         bookUid,
		CopiesAvailable: available,
	})
}

func (h *Handler) ListCategories(c echo.Context) error {
	categories, err := h.catalogSvc.ListCategories(c.Request().Context())
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var req model.CategoryCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	category, err := h.catalogSvc.CreateCategory(c.Request().Context(), req)
	if err != nil {
		return newHTTPError(err)
	}
	return c.JSON(http.StatusCreated, category)
}
