package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bibliotech/library-service/internal/config"
	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/pkg/kafka"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const lockWait = 100 * time.Millisecond

func testPolicy() config.Policy {
	return config.Policy{
		LoanPeriodDays: 14,
		DailyFeeRate:   1.0,
		FineGraceDays:  0,
		LockWait:       lockWait,
	}
}

func newLoanService(store *fakeStore, pub Publisher) *LoanService {
	return NewLoanService(store, store, store, NewBookGuard(lockWait), pub, testPolicy(), zap.NewNop())
}

func TestLoanService_CheckoutLastCopyConcurrent(t *testing.T) {
	t.Parallel()
	const bookUid = "3a3c6c3d-15d7-47b8-a6a4-8e49f1c0b000"

	store := newFakeStore()
	store.addBook(bookUid, 1)
	svc := newLoanService(store, &recordPublisher{})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, username := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(i int, username string) {
			defer wg.Done()
			_, results[i] = svc.Checkout(context.Background(), username, bookUid)
		}(i, username)
	}
	wg.Wait()

	var ok, unavailable int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errs.ErrUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, unavailable)
	require.Equal(t, 0, store.availableCopies(bookUid))
}

func TestLoanService_CheckoutReturnRoundTrip(t *testing.T) {
	t.Parallel()
	const bookUid = "83575e12-7ce0-48ee-9931-51919ff3c9ee"
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookUid, 2)
	pub := &recordPublisher{}
	svc := newLoanService(store, pub)

	loanDate := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loanDate }

	loan, err := svc.Checkout(ctx, "reader", bookUid)
	require.NoError(t, err)
	require.Equal(t, 1, store.availableCopies(bookUid))
	require.Equal(t, loanDate.AddDate(0, 0, 14), loan.DueDate)

	svc.now = func() time.Time { return loanDate.AddDate(0, 0, 7) }
	resp, err := svc.Return(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.Nil(t, resp.Fine)
	require.True(t, resp.Loan.Returned)
	require.Equal(t, 2, store.availableCopies(bookUid))

	// the live loan is gone, exactly one archive record remains
	_, err = svc.GetLoan(ctx, loan.LoanUid)
	require.ErrorIs(t, err, errs.ErrNotFound)
	history, err := svc.ListHistory(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	require.Equal(t, loan.LoanUid, history.Items[0].LoanUid)

	require.Len(t, pub.byType(kafka.EventCheckout), 1)
	require.Len(t, pub.byType(kafka.EventReturn), 1)
}

func TestLoanService_ReturnOverdueIssuesFine(t *testing.T) {
	t.Parallel()
	const bookUid = "f7cdc58f-2caf-4b15-9727-f89dcc629b27"
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookUid, 1)
	pub := &recordPublisher{}
	svc := newLoanService(store, pub)

	loanDate := time.Date(2023, 12, 27, 0, 0, 0, 0, time.UTC) // due 2024-01-10
	svc.now = func() time.Time { return loanDate }
	loan, err := svc.Checkout(ctx, "reader", bookUid)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), loan.DueDate)

	svc.now = func() time.Time { return time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC) }
	resp, err := svc.Return(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.NotNil(t, resp.Fine)
	require.Equal(t, 3.0, resp.Fine.Amount)
	require.Equal(t, "reader", resp.Fine.Username)
	require.False(t, resp.Fine.Paid)
	require.Contains(t, resp.Fine.Description, "overdue by 3 day(s)")
	require.Len(t, pub.byType(kafka.EventFineIssued), 1)
}

func TestLoanService_ReturnTwice(t *testing.T) {
	t.Parallel()
	const bookUid = "1c2e6f00-9f3b-4f32-8a07-54b2a3d5c901"
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookUid, 1)
	svc := newLoanService(store, &recordPublisher{})

	loan, err := svc.Checkout(ctx, "reader", bookUid)
	require.NoError(t, err)
	_, err = svc.Return(ctx, loan.LoanUid)
	require.NoError(t, err)

	_, err = svc.Return(ctx, loan.LoanUid)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, 1, store.availableCopies(bookUid))
}

func TestLoanService_CheckoutConvertsReservation(t *testing.T) {
	t.Parallel()
	const bookUid = "9d3f1d2e-6a54-4c8e-b7d1-0f2f6f3a1b22"
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookUid, 1)
	guard := NewBookGuard(lockWait)
	pub := &recordPublisher{}
	loanSvc := NewLoanService(store, store, store, guard, pub, testPolicy(), zap.NewNop())
	rsvSvc := NewReservationService(store, guard, pub, zap.NewNop())

	rsv, err := rsvSvc.Reserve(ctx, "reader", bookUid)
	require.NoError(t, err)
	require.Equal(t, 0, store.availableCopies(bookUid))

	// the last copy is held by the same reader, so checkout converts the
	// hold instead of failing on an empty pool
	_, err = loanSvc.Checkout(ctx, "reader", bookUid)
	require.NoError(t, err)
	require.Equal(t, 0, store.availableCopies(bookUid))

	got, err := store.GetReservation(ctx, rsv.ReservationUid)
	require.NoError(t, err)
	require.False(t, got.Active)

	// another reader is still out of luck
	_, err = loanSvc.Checkout(ctx, "other", bookUid)
	require.ErrorIs(t, err, errs.ErrUnavailable)
}

func TestLoanService_CalculateLateFee(t *testing.T) {
	t.Parallel()
	const bookUid = "2b8a4a77-5d69-49e2-93c0-1f0dd4a3e811"
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookUid, 1)
	svc := newLoanService(store, &recordPublisher{})

	loanDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loanDate }
	loan, err := svc.Checkout(ctx, "reader", bookUid)
	require.NoError(t, err)

	// not due yet
	fee, err := svc.CalculateLateFee(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.Equal(t, 0.0, fee)

	// five days past due
	svc.now = func() time.Time { return loan.DueDate.AddDate(0, 0, 5) }
	fee, err = svc.CalculateLateFee(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.Equal(t, 5.0, fee)

	// a returned loan stops accruing
	_, err = svc.Return(ctx, loan.LoanUid)
	require.NoError(t, err)
	fee, err = svc.CalculateLateFee(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.Equal(t, 0.0, fee)

	_, err = svc.CalculateLateFee(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
