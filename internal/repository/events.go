package repository

import (
	"context"
	"fmt"

	"github.com/bibliotech/library-service/pkg/kafka"
)

func (r *repository) RecordEvent(ctx context.Context, event kafka.Event) error {
	q := fmt.Sprintf(`
	insert into %s (timestamp, username, book_uid, loan_uid, reservation_uid, fine_uid, amount, event_type)
	values ($1, $2, nullif($3, ''), nullif($4, ''), nullif($5, ''), nullif($6, ''), $7, $8)`,
		eventsTableName)
	_, err := r.db.ExecContext(ctx, q,
		event.Timestamp, event.Username, event.BookUid, event.LoanUid,
		event.ReservationUid, event.FineUid, event.Amount, event.EventType)
	return err
}
