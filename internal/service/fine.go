package service

import (
	"context"
	"time"

	"github.com/bibliotech/library-service/internal/config"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/internal/repository"
	"github.com/bibliotech/library-service/pkg/kafka"
	"go.uber.org/zap"
)

type FineService struct {
	log    *zap.Logger
	repo   repository.FineRepository
	loans  repository.LoanRepository
	pub    Publisher
	policy config.Policy
	now    func() time.Time
}

func NewFineService(repo repository.FineRepository, loans repository.LoanRepository, pub Publisher, policy config.Policy, log *zap.Logger) *FineService {
	return &FineService{
		log:    log,
		repo:   repo,
		loans:  loans,
		pub:    pub,
		policy: policy,
		now:    time.Now,
	}
}

// Issue creates an unpaid fine. It has no side effect on loan state.
func (s *FineService) Issue(ctx context.Context, req model.CreateFineRequest) (model.Fine, error) {
	now := s.now().UTC()
	fine, err := s.repo.CreateFine(ctx, model.Fine{
		FineUid:     newUid(),
		Username:    req.Username,
		LoanUid:     req.LoanUid,
		Amount:      req.Amount,
		Description: req.Description,
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

// Pay settles a fine. Paying an already-paid fine is a no-op success.
func (s *FineService) Pay(ctx context.Context, fineUid string) error {
	alreadyPaid, err := s.repo.PayFine(ctx, fineUid)
	if err != nil {
		return err
	}
	if alreadyPaid {
		return nil
	}

	fine, err := s.repo.GetFine(ctx, fineUid)
	if err != nil {
		return err
	}
	s.pub.Publish(kafka.Event{
		Timestamp: s.now().UTC(),
		Username:  fine.Username,
		LoanUid:   fine.LoanUid,
		FineUid:   fine.FineUid,
		Amount:    fine.Amount,
		EventType: kafka.EventFinePaid,
	})
	return nil
}

func (s *FineService) Get(ctx context.Context, fineUid string) (model.Fine, error) {
	return s.repo.GetFine(ctx, fineUid)
}

func (s *FineService) List(ctx context.Context, page, size int) (model.ListFines, error) {
	return s.repo.ListFines(ctx, page, size)
}

func (s *FineService) ListUserFines(ctx context.Context, username string) ([]model.Fine, error) {
	return s.repo.ListUserFines(ctx, username)
}

// RefreshOverdue recalculates the open fine for every overdue loan that has
// not been returned yet and reports how many loans were touched.
func (s *FineService) RefreshOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -s.policy.FineGraceDays)
	overdue, err := s.loans.ListOverdueLoans(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, loan := range overdue {
		days := int(now.Sub(loan.DueDate).Hours()/24) - s.policy.FineGraceDays
		if days <= 0 {
			continue
		}
		amount := float64(days) * s.policy.DailyFeeRate
		err := s.repo.UpsertOverdueFine(ctx, model.Fine{
			FineUid:     newUid(),
			Username:    loan.Username,
			LoanUid:     loan.LoanUid,
			Amount:      amount,
			Description: overdueDescription(loan.DueDate, now),
			FineDate:    now,
		})
		if err != nil {
			s.log.Error("refresh fine", zap.String("loan", loan.LoanUid), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
