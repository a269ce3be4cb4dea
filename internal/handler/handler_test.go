package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/handler"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/auth"
	"github.com/bibliotech/library-service/pkg/validate"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	service_mocks "github.com/bibliotech/library-service/internal/handler/mocks"
)

func newTestHandler(c *gomock.Controller) (*handler.Handler, *service_mocks.MockCatalogService, *service_mocks.MockLoanService, *service_mocks.MockFineService) {
	catalogSvc := service_mocks.NewMockCatalogService(c)
	loanSvc := service_mocks.NewMockLoanService(c)
	fineSvc := service_mocks.NewMockFineService(c)
	log := zap.NewExample().Named("test")
	h := handler.New(
		service_mocks.NewMockAuthService(c),
		catalogSvc,
		loanSvc,
		service_mocks.NewMockReservationService(c),
		fineSvc,
		log,
	)
	return h, catalogSvc, loanSvc, fineSvc
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	type input struct {
		page, size string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockCatalogService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockCatalogService, req input) {
				r.EXPECT().
					ListBooks(context.Background(), 1, 10).
					Return(model.ListBooks{
						Paging: model.Paging{
							Page:          1,
							PageSize:      10,
							TotalElements: 1,
						},
						Items: []model.Book{
							{
								BookUid:         "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
								Title:           "The Go Programming Language",
								Author:          "Alan A. A. Donovan",
								ISBN:            "978-0134190440",
								Category:        "Programming",
								CopiesTotal:     3,
								CopiesAvailable: 2,
							},
						},
					}, nil)
			},
			input: input{page: "1", size: "10"},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"page":1,"pageSize":10,"totalElements":1,"items":[{"bookUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","title":"The Go Programming Language","author":"Alan A. A. Donovan","isbn":"978-0134190440","category":"Programming","copiesTotal":3,"copiesAvailable":2}]}`,
			},
			wantErr: false,
		},
		{
			name:         "err. invalid page",
			mockBehavior: func(r *service_mocks.MockCatalogService, req input) {},
			input:        input{page: "abc", size: "10"},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"page is invalid"}`,
			},
			wantErr: true,
		},
		{
			name: "err. internal",
			mockBehavior: func(r *service_mocks.MockCatalogService, req input) {
				r.EXPECT().
					ListBooks(context.Background(), 1, 10).
					Return(model.ListBooks{}, errors.New("db internal"))
			},
			input: input{page: "1", size: "10"},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			h, catalogSvc, _, _ := newTestHandler(c)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/books", h.ListBooks)

			r := httptest.NewRequest(
				http.MethodGet, fmt.Sprintf("/books?page=%s&size=%s", tt.input.page, tt.input.size), http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(catalogSvc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Checkout(t *testing.T) {
	t.Parallel()
	const bookUid = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	type input struct {
		username string
		body     string
	}
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLoanService, req input)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		input        input
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLoanService, req input) {
				r.EXPECT().
					Checkout(gomock.Any(), req.username, bookUid).
					Return(model.Loan{
						LoanUid:  "2c5a3f9e-1b4d-4e6f-8a7b-9c0d1e2f3a4b",
						Username: req.username,
						BookUid:  bookUid,
						LoanDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
						DueDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
					}, nil)
			},
			input: input{
				username: "reader",
				body:     fmt.Sprintf(`{"bookUid":%q}`, bookUid),
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"loanUid":"2c5a3f9e-1b4d-4e6f-8a7b-9c0d1e2f3a4b","username":"reader","bookUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","loanDate":"2024-01-01T00:00:00Z","dueDate":"2024-01-15T00:00:00Z","returned":false}`,
			},
			wantErr: false,
		},
		{
			name: "err. no copies",
			mockBehavior: func(r *service_mocks.MockLoanService, req input) {
				r.EXPECT().
					Checkout(gomock.Any(), req.username, bookUid).
					Return(model.Loan{}, errs.ErrUnavailable)
			},
			input: input{
				username: "reader",
				body:     fmt.Sprintf(`{"bookUid":%q}`, bookUid),
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no copies available"}`,
			},
			wantErr: true,
		},
		{
			name: "err. busy",
			mockBehavior: func(r *service_mocks.MockLoanService, req input) {
				r.EXPECT().
					Checkout(gomock.Any(), req.username, bookUid).
					Return(model.Loan{}, errs.ErrBusy)
			},
			input: input{
				username: "reader",
				body:     fmt.Sprintf(`{"bookUid":%q}`, bookUid),
			},
			response: response{
				expectedCode: http.StatusServiceUnavailable,
				expectedBody: `{"message":"busy, retry later"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. no username",
			mockBehavior: func(r *service_mocks.MockLoanService, req input) {},
			input: input{
				username: "",
				body:     fmt.Sprintf(`{"bookUid":%q}`, bookUid),
			},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"username is required"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			h, _, loanSvc, _ := newTestHandler(c)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/loans", h.Checkout, withUser(tt.input.username))

			r := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(tt.input.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(loanSvc, tt.input)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_PayFine(t *testing.T) {
	t.Parallel()
	const fineUid = "7b8c9d0e-1f2a-4b3c-8d4e-5f6a7b8c9d0e"
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockFineService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockFineService) {
				r.EXPECT().
					Pay(context.Background(), fineUid).
					Return(nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: ``,
			},
		},
		{
			name: "err. not found",
			mockBehavior: func(r *service_mocks.MockFineService) {
				r.EXPECT().
					Pay(context.Background(), fineUid).
					Return(errs.ErrNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"not found"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			h, _, _, fineSvc := newTestHandler(c)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/fines/:fineUid/pay", h.PayFine)

			r := httptest.NewRequest(http.MethodPost, "/fines/"+fineUid+"/pay", http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(fineSvc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

// withUser injects the auth context the jwt middleware would set.
func withUser(username string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if username == "" {
				return next(c)
			}
			ctx := auth.SetAuthContext(c.Request().Context(), username, auth.RoleReader)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
