package service

import (
	"context"
	"time"

	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/internal/repository"
	"github.com/bibliotech/library-service/pkg/kafka"
	"go.uber.org/zap"
)

type ReservationService struct {
	log   *zap.Logger
	repo  repository.ReservationRepository
	guard *BookGuard
	pub   Publisher
	now   func() time.Time
}

func NewReservationService(repo repository.ReservationRepository, guard *BookGuard, pub Publisher, log *zap.Logger) *ReservationService {
	return &ReservationService{
		log:   log,
		repo:  repo,
		guard: guard,
		pub:   pub,
		now:   time.Now,
	}
}

// Reserve places a hold on one available copy. A hold consumes a unit of
// availability, so reservations and loans compete for the same pool.
func (s *ReservationService) Reserve(ctx context.Context, username, bookUid string) (model.Reservation, error) {
	unlock, err := s.guard.Lock(ctx, bookUid)
	if err != nil {
		return model.Reservation{}, err
	}
	defer unlock()

	now := s.now().UTC()
	rsv, err := s.repo.CreateReservation(ctx, username, bookUid, now)
	if err != nil {
		return model.Reservation{}, err
	}

	s.pub.Publish(kafka.Event{
		Timestamp:      now,
		Username:       username,
		BookUid:        bookUid,
		ReservationUid: rsv.ReservationUid,
		EventType:      kafka.EventReserve,
	})
	return rsv, nil
}

func (s *ReservationService) Cancel(ctx context.Context, reservationUid string) error {
	rsv, err := s.repo.GetReservation(ctx, reservationUid)
	if err != nil {
		return err
	}

	unlock, err := s.guard.Lock(ctx, rsv.BookUid)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.CancelReservation(ctx, reservationUid); err != nil {
		return err
	}

	s.pub.Publish(kafka.Event{
		Timestamp:      s.now().UTC(),
		Username:       rsv.Username,
		BookUid:        rsv.BookUid,
		ReservationUid: rsv.ReservationUid,
		EventType:      kafka.EventCancel,
	})
	return nil
}

func (s *ReservationService) List(ctx context.Context, username string) ([]model.Reservation, error) {
	return s.repo.ListReservations(ctx, username)
}
