package handler

import (
	"net/http"
	"strconv"

	md "github.com/bibliotech/library-service/pkg/middleware"

	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/bibliotech/library-service/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	authSvc        AuthService
	catalogSvc     CatalogService
	loanSvc        LoanService
	reservationSvc ReservationService
	fineSvc        FineService
	log            *zap.Logger
}

func New(authSvc AuthService, catalogSvc CatalogService, loanSvc LoanService,
	reservationSvc ReservationService, fineSvc FineService, log *zap.Logger) *Handler {
	return &Handler{
		authSvc:        authSvc,
		catalogSvc:     catalogSvc,
		loanSvc:        loanSvc,
		reservationSvc: reservationSvc,
		fineSvc:        fineSvc,
		log:            log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/register", h.Register)
	api.POST("/auth", h.Authorize)

	authorized := api.Group("", md.JwtAuthentication(h.authSvc))
	authorized.POST("/logout", h.Logout)

	authorized.GET("/books", h.ListBooks)
	authorized.GET("/books/:bookUid", h.GetBook)
	authorized.GET("/books/:bookUid/availability", h.GetBookAvailability)
	authorized.POST("/books", h.CreateBook, md.RequireRole(auth.RoleAdmin, auth.RoleLibrarian))
	authorized.PUT("/books/:bookUid", h.UpdateBook, md.RequireRole(auth.RoleAdmin, auth.RoleLibrarian))
	authorized.DELETE("/books/:bookUid", h.DeleteBook, md.RequireRole(auth.RoleAdmin, auth.RoleLibrarian))
	authorized.GET("/categories", h.ListCategories)
	authorized.POST("/categories", h.CreateCategory, md.RequireRole(auth.RoleAdmin, auth.RoleLibrarian))

	authorized.POST("/loans", h.Checkout)
	authorized.GET("/loans", h.ListLoans)
	authorized.GET("/loans/:loanUid", h.GetLoan)
	authorized.POST("/loans/:loanUid/return", h.ReturnLoan)
	authorized.GET("/loans/:loanUid/late-fee", h.LateFee)
	authorized.GET("/loan-history", h.ListLoanHistory)

	authorized.POST("/reservations", h.CreateReservation)
	authorized.GET("/reservations", h.GetReservations)
	authorized.DELETE("/reservations/:reservationUid", h.CancelReservation)

	authorized.POST("/fines", h.CreateFine, md.RequireRole(auth.RoleAdmin, auth.RoleLibrarian))
	authorized.GET("/fines", h.ListFines)
	authorized.GET("/fines/my", h.ListMyFines)
	authorized.GET("/fines/:fineUid", h.GetFine)
	authorized.POST("/fines/:fineUid/pay", h.PayFine)
	authorized.POST("/fines/refresh", h.RefreshFines, md.RequireRole(auth.RoleAdmin, auth.RoleLibrarian))

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func pageParams(c echo.Context) (page, size int, err error) {
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return 0, 0, errors.New("page is invalid")
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil {
			return 0, 0, errors.New("size is invalid")
		}
	}
	return page, size, nil
}
