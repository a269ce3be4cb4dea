package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const fineColumns = "id, fine_uid, username, loan_uid, amount, description, paid, fine_date"

func (r *repository) CreateFine(ctx context.Context, fine model.Fine) (model.Fine, error) {
	q, args, err := qb.Insert(finesTableName).
		Columns("fine_uid", "username", "loan_uid", "amount", "description", "paid", "fine_date").
		Values(fine.FineUid, fine.Username, fine.LoanUid, fine.Amount, fine.Description, false, fine.FineDate).
		Suffix("returning " + fineColumns).
		ToSql()
	if err != nil {
		return model.Fine{}, err
	}

	var created model.Fine
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		r.log.Error("CreateFine", zap.String("q", q), zap.Any("args", args))
		return model.Fine{}, wrapPgErr(err)
	}
	return created, nil
}

func (r *repository) GetFine(ctx context.Context, fineUid string) (model.Fine, error) {
	q := `select ` + fineColumns + ` from fines where fine_uid = $1`

	var fine model.Fine
	if err := r.db.GetContext(ctx, &fine, q, fineUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Fine{}, errs.ErrNotFound
		}
		return model.Fine{}, err
	}
	return fine, nil
}

func (r *repository) ListFines(ctx context.Context, page, size int) (model.ListFines, error) {
	q := withPaging(
		qb.Select("id", "fine_uid", "username", "loan_uid", "amount", "description", "paid", "fine_date").
			From(finesTableName).
			OrderBy("id"),
		page, size)

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListFines{}, err
	}

	var fines []model.Fine
	if err := r.db.SelectContext(ctx, &fines, query, args...); err != nil {
		return model.ListFines{}, err
	}

	return model.ListFines{
		Paging: paging(page, size, len(fines)),
		Items:  fines,
	}, nil
}

func (r *repository) ListUserFines(ctx context.Context, username string) ([]model.Fine, error) {
	query, args, err := qb.Select("id", "fine_uid", "username", "loan_uid", "amount", "description", "paid", "fine_date").
		From(finesTableName).
		Where(sq.Eq{"username": username}).
		OrderBy("fine_date desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	var fines []model.Fine
	if err := r.db.SelectContext(ctx, &fines, query, args...); err != nil {
		return nil, err
	}
	return fines, nil
}

// PayFine settles a fine. Settling an already-paid fine reports
// alreadyPaid=true and no error; fines are never deleted.
func (r *repository) PayFine(ctx context.Context, fineUid string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`update fines set paid = true where fine_uid = $1 and not paid`, fineUid)
	if err != nil {
		return false, wrapPgErr(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`select exists (select 1 from fines where fine_uid = $1)`, fineUid); err != nil {
		return false, err
	}
	if !exists {
		return false, errs.ErrNotFound
	}
	return true, nil
}

// UpsertOverdueFine recalculates the open fine for a loan or creates one.
func (r *repository) UpsertOverdueFine(ctx context.Context, fine model.Fine) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var id int
		err := tx.GetContext(ctx, &id, `
	select id from fines
	where loan_uid = $1 and not paid
	order by fine_date desc
	limit 1`, fine.LoanUid)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			q, args, err := qb.Insert(finesTableName).
				Columns("fine_uid", "username", "loan_uid", "amount", "description", "paid", "fine_date").
				Values(fine.FineUid, fine.Username, fine.LoanUid, fine.Amount, fine.Description, false, fine.FineDate).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return wrapPgErr(err)
			}
			return nil
		}

		_, err = tx.ExecContext(ctx, `
	update fines set amount = $2, description = $3, fine_date = $4
	where id = $1`, id, fine.Amount, fine.Description, fine.FineDate)
		return err
	})
}
