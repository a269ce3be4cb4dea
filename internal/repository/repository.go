package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/kafka"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type CatalogRepository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context, page, size int) (model.ListBooks, error)
	UpdateBook(ctx context.Context, bookUid string, req model.BookUpdateRequest) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	GetAvailability(ctx context.Context, bookUid string) (int, error)
	AdjustAvailability(ctx context.Context, bookUid string, delta int) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (model.Category, error)
}

type LoanRepository interface {
	CreateLoan(ctx context.Context, username, bookUid string, loanDate, dueDate time.Time, consumeReservation bool) (model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	GetLoanHistory(ctx context.Context, loanUid string) (model.LoanHistory, error)
	ListLoans(ctx context.Context, page, size int) (model.ListLoans, error)
	ListLoanHistory(ctx context.Context, page, size int) (model.ListLoanHistory, error)
	ReturnLoan(ctx context.Context, loanUid string, returnDate time.Time) (model.LoanHistory, error)
	ListOverdueLoans(ctx context.Context, before time.Time) ([]model.Loan, error)
}

type ReservationRepository interface {
	CreateReservation(ctx context.Context, username, bookUid string, at time.Time) (model.Reservation, error)
	GetReservation(ctx context.Context, reservationUid string) (model.Reservation, error)
	GetActiveReservation(ctx context.Context, username, bookUid string) (model.Reservation, error)
	CancelReservation(ctx context.Context, reservationUid string) error
	ListReservations(ctx context.Context, username string) ([]model.Reservation, error)
}

type FineRepository interface {
	CreateFine(ctx context.Context, fine model.Fine) (model.Fine, error)
	GetFine(ctx context.Context, fineUid string) (model.Fine, error)
	ListFines(ctx context.Context, page, size int) (model.ListFines, error)
	ListUserFines(ctx context.Context, username string) ([]model.Fine, error)
	PayFine(ctx context.Context, fineUid string) (alreadyPaid bool, err error)
	UpsertOverdueFine(ctx context.Context, fine model.Fine) error
}

type AuthRepository interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, username string) (model.User, error)
	RevokeToken(ctx context.Context, token string, at time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type EventsRepository interface {
	RecordEvent(ctx context.Context, event kafka.Event) error
}

type Repository interface {
	CatalogRepository
	LoanRepository
	ReservationRepository
	FineRepository
	AuthRepository
	EventsRepository
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName        = `books`
	categoriesTableName   = `categories`
	loansTableName        = `loans`
	loanHistoryTableName  = `loan_history`
	reservationsTableName = `book_reservations`
	finesTableName        = `fines`
	usersTableName        = `users`
	rolesTableName        = `roles`
	tokensTableName       = `invalidated_tokens`
	eventsTableName       = `events`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// withTx runs fn in a single transaction; any error rolls everything back so
// partial multi-row updates are never observable.
func (r *repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Error("tx rollback", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

// wrapPgErr maps low-level postgres failures onto the service error taxonomy.
func wrapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return errs.ErrConflict
		case pgErr.Code == pgerrcode.CheckViolation:
			return errs.ErrInvariant
		case pgErr.Code == pgerrcode.ForeignKeyViolation:
			return errs.ErrNotFound
		case pgerrcode.IsTransactionRollback(pgErr.Code):
			return errs.ErrBusy
		}
	}
	return err
}

func paging(page, size, total int) model.Paging {
	return model.Paging{
		Page:          page,
		PageSize:      size,
		TotalElements: total,
	}
}

func withPaging(q sq.SelectBuilder, page, size int) sq.SelectBuilder {
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}
	return q
}
