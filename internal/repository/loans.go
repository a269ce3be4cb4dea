package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CreateLoan decrements availability (or consumes the caller's active hold)
// and inserts the loan in one transaction.
func (r *repository) CreateLoan(ctx context.Context, username, bookUid string, loanDate, dueDate time.Time, consumeReservation bool) (model.Loan, error) {
	var loan model.Loan
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if consumeReservation {
			// the hold already holds one unit of availability, so no
			// second decrement here
			res, err := tx.ExecContext(ctx, `
	update book_reservations set active = false
	where username = $1 and book_uid = $2 and active`, username, bookUid)
			if err != nil {
				return wrapPgErr(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return errs.ErrInvariant
			}
		} else if err := adjustAvailability(ctx, tx, bookUid, -1); err != nil {
			return err
		}

		q, args, err := qb.Insert(loansTableName).
			Columns("loan_uid", "username", "book_uid", "loan_date", "due_date", "returned").
			Values(uuid.New(), username, bookUid, loanDate, dueDate, false).
			Suffix("returning id, loan_uid, username, book_uid, loan_date, due_date, returned").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &loan, q, args...); err != nil {
			r.log.Error("CreateLoan", zap.String("q", q), zap.Any("args", args))
			return wrapPgErr(err)
		}
		return nil
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// ReturnLoan closes the loan, archives it and restores availability as one
// atomic unit.
func (r *repository) ReturnLoan(ctx context.Context, loanUid string, returnDate time.Time) (model.LoanHistory, error) {
	var hist model.LoanHistory
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var loan model.Loan
		q := `
	delete from loans
	where loan_uid = $1 and not returned
	returning id, loan_uid, username, book_uid, loan_date, due_date, returned`
		if err := tx.GetContext(ctx, &loan, q, loanUid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		q, args, err := qb.Insert(loanHistoryTableName).
			Columns("loan_uid", "username", "book_uid", "loan_date", "due_date", "return_date", "returned").
			Values(loan.LoanUid, loan.Username, loan.BookUid, loan.LoanDate, loan.DueDate, returnDate, true).
			Suffix("returning id, loan_uid, username, book_uid, loan_date, due_date, return_date, returned").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &hist, q, args...); err != nil {
			return wrapPgErr(err)
		}

		return adjustAvailability(ctx, tx, loan.BookUid, +1)
	})
	if err != nil {
		return model.LoanHistory{}, err
	}
	return hist, nil
}

func (r *repository) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	query, args, err := qb.Select("id", "loan_uid", "username", "book_uid", "loan_date", "due_date", "returned").
		From(loansTableName).
		Where(sq.Eq{"loan_uid": loanUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) GetLoanHistory(ctx context.Context, loanUid string) (model.LoanHistory, error) {
	query, args, err := qb.Select("id", "loan_uid", "username", "book_uid", "loan_date", "due_date", "return_date", "returned").
		From(loanHistoryTableName).
		Where(sq.Eq{"loan_uid": loanUid}).
		OrderBy("id desc").
		Limit(1).
		ToSql()
	if err != nil {
		return model.LoanHistory{}, err
	}

	var hist model.LoanHistory
	if err := r.db.GetContext(ctx, &hist, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LoanHistory{}, errs.ErrNotFound
		}
		return model.LoanHistory{}, err
	}
	return hist, nil
}

func (r *repository) ListLoans(ctx context.Context, page, size int) (model.ListLoans, error) {
	q := withPaging(
		qb.Select("id", "loan_uid", "username", "book_uid", "loan_date", "due_date", "returned").
			From(loansTableName).
			OrderBy("id"),
		page, size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}

	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return model.ListLoans{}, err
	}

	return model.ListLoans{
		Paging: paging(page, size, len(loans)),
		Items:  loans,
	}, nil
}

func (r *repository) ListLoanHistory(ctx context.Context, page, size int) (model.ListLoanHistory, error) {
	q := withPaging(
		qb.Select("id", "loan_uid", "username", "book_uid", "loan_date", "due_date", "return_date", "returned").
			From(loanHistoryTableName).
			OrderBy("id"),
		page, size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListLoanHistory{}, err
	}

	var items []model.LoanHistory
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return model.ListLoanHistory{}, err
	}

	return model.ListLoanHistory{
		Paging: paging(page, size, len(items)),
		Items:  items,
	}, nil
}

func (r *repository) ListOverdueLoans(ctx context.Context, before time.Time) ([]model.Loan, error) {
	query, args, err := qb.Select("id", "loan_uid", "username", "book_uid", "loan_date", "due_date", "returned").
		From(loansTableName).
		Where(sq.Eq{"returned": false}).
		Where(sq.Lt{"due_date": before}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var loans []model.Loan
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}
