package service

import (
	"context"
	"testing"
	"time"

	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/kafka"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFineService(store *fakeStore, pub Publisher) *FineService {
	return NewFineService(store, store, pub, testPolicy(), zap.NewNop())
}

func TestFineService_PayIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeStore()
	pub := &recordPublisher{}
	svc := newFineService(store, pub)

	fine, err := svc.Issue(ctx, model.CreateFineRequest{
		Username:    "reader",
		LoanUid:     "5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c8d",
		Amount:      3.0,
		Description: "damaged cover",
	})
	require.NoError(t, err)
	require.False(t, fine.Paid)
	require.Len(t, pub.byType(kafka.EventFineIssued), 1)

	require.NoError(t, svc.Pay(ctx, fine.FineUid))
	got, err := svc.Get(ctx, fine.FineUid)
	require.NoError(t, err)
	require.True(t, got.Paid)

	// the second pay succeeds without publishing a second settlement
	require.NoError(t, svc.Pay(ctx, fine.FineUid))
	require.Len(t, pub.byType(kafka.EventFinePaid), 1)

	err = svc.Pay(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFineService_RefreshOverdue(t *testing.T) {
	t.Parallel()
	const (
		bookA = "11111111-2222-4333-8444-555555555555"
		bookB = "66666666-7777-4888-9999-aaaaaaaaaaaa"
	)
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookA, 1)
	store.addBook(bookB, 1)
	pub := &recordPublisher{}
	loanSvc := NewLoanService(store, store, store, NewBookGuard(lockWait), pub, testPolicy(), zap.NewNop())
	fineSvc := newFineService(store, pub)

	loanDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	loanSvc.now = func() time.Time { return loanDate }
	overdueLoan, err := loanSvc.Checkout(ctx, "alice", bookA)
	require.NoError(t, err)

	// bob's loan is fresh and must not be fined
	loanSvc.now = func() time.Time { return loanDate.AddDate(0, 0, 16) }
	_, err = loanSvc.Checkout(ctx, "bob", bookB)
	require.NoError(t, err)

	// two days past alice's due date
	fineSvc.now = func() time.Time { return loanDate.AddDate(0, 0, 16) }
	refreshed, err := fineSvc.RefreshOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	fines, err := fineSvc.ListUserFines(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, fines, 1)
	require.Equal(t, overdueLoan.LoanUid, fines[0].LoanUid)
	require.Equal(t, 2.0, fines[0].Amount)

	// a later run grows the open fine instead of stacking a new one
	fineSvc.now = func() time.Time { return loanDate.AddDate(0, 0, 19) }
	refreshed, err = fineSvc.RefreshOverdue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)

	fines, err = fineSvc.ListUserFines(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, fines, 1)
	require.Equal(t, 5.0, fines[0].Amount)
}

func TestFineService_GraceDays(t *testing.T) {
	t.Parallel()
	const bookUid = "bbbbbbbb-cccc-4ddd-8eee-ffffffffffff"
	ctx := context.Background()

	store := newFakeStore()
	store.addBook(bookUid, 1)
	policy := testPolicy()
	policy.FineGraceDays = 3
	svc := NewLoanService(store, store, store, NewBookGuard(lockWait), &recordPublisher{}, policy, zap.NewNop())

	loanDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return loanDate }
	loan, err := svc.Checkout(ctx, "reader", bookUid)
	require.NoError(t, err)

	// two days late is inside the grace window
	svc.now = func() time.Time { return loan.DueDate.AddDate(0, 0, 2) }
	resp, err := svc.Return(ctx, loan.LoanUid)
	require.NoError(t, err)
	require.Nil(t, resp.Fine)
}
