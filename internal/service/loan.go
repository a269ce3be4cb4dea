package service

import (
	"context"
	"time"

	"github.com/bibliotech/library-service/internal/config"
	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/internal/repository"
	"github.com/bibliotech/library-service/pkg/kafka"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type LoanService struct {
	log          *zap.Logger
	repo         repository.LoanRepository
	reservations repository.ReservationRepository
	fines        repository.FineRepository
	guard        *BookGuard
	pub          Publisher
	policy       config.Policy
	now          func() time.Time
}

func NewLoanService(
	repo repository.LoanRepository,
	reservations repository.ReservationRepository,
	fines repository.FineRepository,
	guard *BookGuard,
	pub Publisher,
	policy config.Policy,
	log *zap.Logger,
) *LoanService {
	return &LoanService{
		log:          log,
		repo:         repo,
		reservations: reservations,
		fines:        fines,
		guard:        guard,
		pub:          pub,
		policy:       policy,
		now:          time.Now,
	}
}

// Checkout lends a copy to the user. If the user holds an active reservation
// for the book, the hold is converted into the loan instead of drawing a
// second unit from the pool.
func (s *LoanService) Checkout(ctx context.Context, username, bookUid string) (model.Loan, error) {
	unlock, err := s.guard.Lock(ctx, bookUid)
	if err != nil {
		return model.Loan{}, err
	}
	defer unlock()

	consume := false
	if _, err := s.reservations.GetActiveReservation(ctx, username, bookUid); err == nil {
		consume = true
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.Loan{}, err
	}

	now := s.now().UTC()
	due := now.AddDate(0, 0, s.policy.LoanPeriodDays)
	loan, err := s.repo.CreateLoan(ctx, username, bookUid, now, due, consume)
	if err != nil {
		if errors.Is(err, errs.ErrInvariant) {
			s.log.Error("checkout invariant", zap.String("book", bookUid), zap.Error(err))
		}
		return model.Loan{}, err
	}

	s.pub.Publish(kafka.Event{
		Timestamp: now,
		Username:  username,
		BookUid:   bookUid,
		LoanUid:   loan.LoanUid,
		EventType: kafka.EventCheckout,
	})
	return loan, nil
}

// Return closes the loan, archives it, restores availability and, when the
// loan came back late, issues the overdue fine.
func (s *LoanService) Return(ctx context.Context, loanUid string) (model.ReturnLoanResponse, error) {
	loan, err := s.repo.GetLoan(ctx, loanUid)
	if err != nil {
		return model.ReturnLoanResponse{}, err
	}

	unlock, err := s.guard.Lock(ctx, loan.BookUid)
	if err != nil {
		return model.ReturnLoanResponse{}, err
	}
	defer unlock()

	now := s.now().UTC()
	hist, err := s.repo.ReturnLoan(ctx, loanUid, now)
	if err != nil {
		if errors.Is(err, errs.ErrInvariant) {
			s.log.Error("return invariant", zap.String("loan", loanUid), zap.Error(err))
		}
		return model.ReturnLoanResponse{}, err
	}

	s.pub.Publish(kafka.Event{
		Timestamp: now,
		Username:  hist.Username,
		BookUid:   hist.BookUid,
		LoanUid:   hist.LoanUid,
		EventType: kafka.EventReturn,
	})

	resp := model.ReturnLoanResponse{Loan: hist}
	if amount := s.lateFee(hist.DueDate, hist.ReturnDate); amount > 0 {
		fine, err := s.issueLateFine(ctx, hist, amount, now)
		if err != nil {
			// the return itself is committed; surface the fine failure
			return resp, err
		}
		resp.Fine = &fine
	}
	return resp, nil
}

func (s *LoanService) issueLateFine(ctx context.Context, hist model.LoanHistory, amount float64, now time.Time) (model.Fine, error) {
	fine, err := s.fines.CreateFine(ctx, model.Fine{
		FineUid:     newUid(),
		Username:    hist.Username,
		LoanUid:     hist.LoanUid,
		Amount:      amount,
		Description: overdueDescription(hist.DueDate, hist.ReturnDate),
		FineDate:    now,
	})
	if err != nil {
		return model.Fine{}, err
	}
	s.pub.Publish(kafka.Event{
		Timestamp: now,
		Username:  fine.Username,
		LoanUid:   fine.LoanUid,
		FineUid:   fine.FineUid,
		Amount:    fine.Amount,
		EventType: kafka.EventFineIssued,
	})
	return fine, nil
}

// CalculateLateFee reports the fee the loan would accrue if returned now.
// A loan that already went through return is found in history and owes 0.
func (s *LoanService) CalculateLateFee(ctx context.Context, loanUid string) (float64, error) {
	loan, err := s.repo.GetLoan(ctx, loanUid)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return 0, err
		}
		if _, histErr := s.repo.GetLoanHistory(ctx, loanUid); histErr != nil {
			return 0, histErr
		}
		return 0, nil
	}
	return s.lateFee(loan.DueDate, s.now().UTC()), nil
}

// lateFee is overdue whole days past the grace period times the daily rate.
func (s *LoanService) lateFee(due, returned time.Time) float64 {
	days := int(returned.Sub(due).Hours() / 24)
	days -= s.policy.FineGraceDays
	if days <= 0 {
		return 0
	}
	return float64(days) * s.policy.DailyFeeRate
}

func (s *LoanService) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	return s.repo.GetLoan(ctx, loanUid)
}

func (s *LoanService) ListLoans(ctx context.Context, page, size int) (model.ListLoans, error) {
	return s.repo.ListLoans(ctx, page, size)
}

func (s *LoanService) ListHistory(ctx context.Context, page, size int) (model.ListLoanHistory, error) {
	return s.repo.ListLoanHistory(ctx, page, size)
}
