package handler

import (
	"context"

	"github.com/bibliotech/library-service/internal/model"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=service_mocks

type AuthService interface {
	Register(ctx context.Context, req model.UserCreateRequest) error
	Authorize(ctx context.Context, req model.AuthRequest) (model.AuthResponse, error)
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type CatalogService interface {
	CreateBook(ctx context.Context, req model.BookCreateRequest) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	UpdateBook(ctx context.Context, bookUid string, req model.BookUpdateRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	GetAvailability(ctx context.Context, bookUid string) (int, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, req model.CategoryCreateRequest) (model.Category, error)
}

type LoanService interface {
	Checkout(ctx context.Context, username, bookUid string) (model.Loan, error)
	Return(ctx context.Context, loanUid string) (model.ReturnLoanResponse, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	ListLoans(ctx context.Context, page, size int) (model.ListLoans, error)
	ListHistory(ctx context.Context, page, size int) (model.ListLoanHistory, error)
	CalculateLateFee(ctx context.Context, loanUid string) (float64, error)
}

type ReservationService interface {
	Reserve(ctx context.Context, username, bookUid string) (model.Reservation, error)
	Cancel(ctx context.Context, reservationUid string) error
	List(ctx context.Context, username string) ([]model.Reservation, error)
}

type FineService interface {
	Issue(ctx context.Context, req model.CreateFineRequest) (model.Fine, error)
	Pay(ctx context.Context, fineUid string) error
	Get(ctx context.Context, fineUid string) (model.Fine, error)
	List(ctx context.Context, page, size int) (model.ListFines, error)
	ListUserFines(ctx context.Context, username string) ([]model.Fine, error)
	RefreshOverdue(ctx context.Context) (int, error)
}
