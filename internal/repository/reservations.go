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

const reservationColumns = "id, reservation_uid, username, book_uid, reservation_date, active"

// CreateReservation takes one unit of availability and inserts the active
// hold in one transaction. A duplicate active hold for the same user and
// book surfaces as ErrConflict via the partial unique index.
func (r *repository) CreateReservation(ctx context.Context, username, bookUid string, at time.Time) (model.Reservation, error) {
	var rsv model.Reservation
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := adjustAvailability(ctx, tx, bookUid, -1); err != nil {
			return err
		}

		q, args, err := qb.Insert(reservationsTableName).
			Columns("reservation_uid", "username", "book_uid", "reservation_date", "active").
			Values(uuid.New(), username, bookUid, at, true).
			Suffix("returning " + reservationColumns).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &rsv, q, args...); err != nil {
			r.log.Error("CreateReservation", zap.String("q", q), zap.Any("args", args))
			return wrapPgErr(err)
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return rsv, nil
}

// CancelReservation deactivates the hold and gives its unit of availability
// back. An already-inactive or missing reservation is ErrNotFound, so a
// double cancel can never double-restore the counter.
func (r *repository) CancelReservation(ctx context.Context, reservationUid string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var bookUid string
		q := `
	update book_reservations set active = false
	where reservation_uid = $1 and active
	returning book_uid`
		if err := tx.GetContext(ctx, &bookUid, q, reservationUid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}

		return adjustAvailability(ctx, tx, bookUid, +1)
	})
}

func (r *repository) GetReservation(ctx context.Context, reservationUid string) (model.Reservation, error) {
	q := `select ` + reservationColumns + ` from book_reservations where reservation_uid = $1`

	var rsv model.Reservation
	if err := r.db.GetContext(ctx, &rsv, q, reservationUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return rsv, nil
}

func (r *repository) GetActiveReservation(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	query, args, err := qb.Select("id", "reservation_uid", "username", "book_uid", "reservation_date", "active").
		From(reservationsTableName).
		Where(sq.Eq{"username": username}).
		Where(sq.Eq{"book_uid": bookUid}).
		Where(sq.Eq{"active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}

	var rsv model.Reservation
	if err := r.db.GetContext(ctx, &rsv, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return rsv, nil
}

func (r *repository) ListReservations(ctx context.Context, username string) ([]model.Reservation, error) {
	query, args, err := qb.Select("id", "reservation_uid", "username", "book_uid", "reservation_date", "active").
		From(reservationsTableName).
		Where(sq.Eq{"username": username}).
		Where(sq.Eq{"active": true}).
		OrderBy("reservation_date").
		ToSql()
	if err != nil {
		return nil, err
	}

	var items []model.Reservation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}
