package service

import (
	"context"
	"sync"
	"time"

	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/bibliotech/library-service/pkg/kafka"
)

// fakeStore is an in-memory stand-in for the postgres repository. It keeps
// the same availability accounting as the real one: a checkout or a hold
// draws one unit, a return or a cancel gives it back, and the counter never
// leaves [0, total].
type fakeStore struct {
	mu           sync.Mutex
	total        map[string]int
	available    map[string]int
	loans        map[string]model.Loan
	history      []model.LoanHistory
	reservations map[string]model.Reservation
	fines        map[string]model.Fine
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		total:        make(map[string]int),
		available:    make(map[string]int),
		loans:        make(map[string]model.Loan),
		reservations: make(map[string]model.Reservation),
		fines:        make(map[string]model.Fine),
	}
}

func (f *fakeStore) addBook(bookUid string, copies int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total[bookUid] = copies
	f.available[bookUid] = copies
}

func (f *fakeStore) availableCopies(bookUid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available[bookUid]
}

func (f *fakeStore) adjust(bookUid string, delta int) error {
	total, ok := f.total[bookUid]
	if !ok {
		return errs.ErrNotFound
	}
	next := f.available[bookUid] + delta
	if next < 0 {
		return errs.ErrUnavailable
	}
	if next > total {
		return errs.ErrInvariant
	}
	f.available[bookUid] = next
	return nil
}

func (f *fakeStore) CreateLoan(_ context.Context, username, bookUid string, loanDate, dueDate time.Time, consumeReservation bool) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if consumeReservation {
		converted := false
		for uid, rsv := range f.reservations {
			if rsv.Active && rsv.Username == username && rsv.BookUid == bookUid {
				rsv.Active = false
				f.reservations[uid] = rsv
				converted = true
				break
			}
		}
		if !converted {
			return model.Loan{}, errs.ErrInvariant
		}
	} else if err := f.adjust(bookUid, -1); err != nil {
		return model.Loan{}, err
	}

	loan := model.Loan{
		LoanUid:  newUid(),
		Username: username,
		BookUid:  bookUid,
		LoanDate: loanDate,
		DueDate:  dueDate,
	}
	f.loans[loan.LoanUid] = loan
	return loan, nil
}

func (f *fakeStore) GetLoan(_ context.Context, loanUid string) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan, ok := f.loans[loanUid]
	if !ok {
		return model.Loan{}, errs.ErrNotFound
	}
	return loan, nil
}

func (f *fakeStore) GetLoanHistory(_ context.Context, loanUid string) (model.LoanHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].LoanUid == loanUid {
			return f.history[i], nil
		}
	}
	return model.LoanHistory{}, errs.ErrNotFound
}

func (f *fakeStore) ListLoans(_ context.Context, page, size int) (model.ListLoans, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]model.Loan, 0, len(f.loans))
	for _, loan := range f.loans {
		items = append(items, loan)
	}
	return model.ListLoans{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: len(items)},
		Items:  items,
	}, nil
}

func (f *fakeStore) ListLoanHistory(_ context.Context, page, size int) (model.ListLoanHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]model.LoanHistory(nil), f.history...)
	return model.ListLoanHistory{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: len(items)},
		Items:  items,
	}, nil
}

func (f *fakeStore) ReturnLoan(_ context.Context, loanUid string, returnDate time.Time) (model.LoanHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan, ok := f.loans[loanUid]
	if !ok {
		return model.LoanHistory{}, errs.ErrNotFound
	}
	if err := f.adjust(loan.BookUid, 1); err != nil {
		return model.LoanHistory{}, err
	}
	delete(f.loans, loanUid)
	hist := model.LoanHistory{
		LoanUid:    loan.LoanUid,
		Username:   loan.Username,
		BookUid:    loan.BookUid,
		LoanDate:   loan.LoanDate,
		DueDate:    loan.DueDate,
		ReturnDate: returnDate,
		Returned:   true,
	}
	f.history = append(f.history, hist)
	return hist, nil
}

func (f *fakeStore) ListOverdueLoans(_ context.Context, before time.Time) ([]model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var overdue []model.Loan
	for _, loan := range f.loans {
		if loan.DueDate.Before(before) {
			overdue = append(overdue, loan)
		}
	}
	return overdue, nil
}

func (f *fakeStore) CreateReservation(_ context.Context, username, bookUid string, at time.Time) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rsv := range f.reservations {
		if rsv.Active && rsv.Username == username && rsv.BookUid == bookUid {
			return model.Reservation{}, errs.ErrConflict
		}
	}
	if err := f.adjust(bookUid, -1); err != nil {
		return model.Reservation{}, err
	}
	rsv := model.Reservation{
		ReservationUid:  newUid(),
		Username:        username,
		BookUid:         bookUid,
		ReservationDate: at,
		Active:          true,
	}
	f.reservations[rsv.ReservationUid] = rsv
	return rsv, nil
}

func (f *fakeStore) GetReservation(_ context.Context, reservationUid string) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rsv, ok := f.reservations[reservationUid]
	if !ok {
		return model.Reservation{}, errs.ErrNotFound
	}
	return rsv, nil
}

func (f *fakeStore) GetActiveReservation(_ context.Context, username, bookUid string) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rsv := range f.reservations {
		if rsv.Active && rsv.Username == username && rsv.BookUid == bookUid {
			return rsv, nil
		}
	}
	return model.Reservation{}, errs.ErrNotFound
}

func (f *fakeStore) CancelReservation(_ context.Context, reservationUid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rsv, ok := f.reservations[reservationUid]
	if !ok || !rsv.Active {
		return errs.ErrNotFound
	}
	if err := f.adjust(rsv.BookUid, 1); err != nil {
		return err
	}
	rsv.Active = false
	f.reservations[reservationUid] = rsv
	return nil
}

func (f *fakeStore) ListReservations(_ context.Context, username string) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.Reservation
	for _, rsv := range f.reservations {
		if rsv.Username == username {
			items = append(items, rsv)
		}
	}
	return items, nil
}

func (f *fakeStore) CreateFine(_ context.Context, fine model.Fine) (model.Fine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fines[fine.FineUid] = fine
	return fine, nil
}

func (f *fakeStore) GetFine(_ context.Context, fineUid string) (model.Fine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fine, ok := f.fines[fineUid]
	if !ok {
		return model.Fine{}, errs.ErrNotFound
	}
	return fine, nil
}

func (f *fakeStore) ListFines(_ context.Context, page, size int) (model.ListFines, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]model.Fine, 0, len(f.fines))
	for _, fine := range f.fines {
		items = append(items, fine)
	}
	return model.ListFines{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: len(items)},
		Items:  items,
	}, nil
}

func (f *fakeStore) ListUserFines(_ context.Context, username string) ([]model.Fine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.Fine
	for _, fine := range f.fines {
		if fine.Username == username {
			items = append(items, fine)
		}
	}
	return items, nil
}

func (f *fakeStore) PayFine(_ context.Context, fineUid string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fine, ok := f.fines[fineUid]
	if !ok {
		return false, errs.ErrNotFound
	}
	if fine.Paid {
		return true, nil
	}
	fine.Paid = true
	f.fines[fineUid] = fine
	return false, nil
}

func (f *fakeStore) UpsertOverdueFine(_ context.Context, fine model.Fine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for uid, existing := range f.fines {
		if existing.LoanUid == fine.LoanUid && !existing.Paid {
			existing.Amount = fine.Amount
			existing.Description = fine.Description
			f.fines[uid] = existing
			return nil
		}
	}
	f.fines[fine.FineUid] = fine
	return nil
}

// recordPublisher captures published events for assertions.
type recordPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordPublisher) Publish(event kafka.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordPublisher) byType(eventType kafka.EventType) []kafka.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []kafka.Event
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
