package rental

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"machinery-rental-backend/internal/model"
	"machinery-rental-backend/internal/store"
)

// Notifier dispatches a fire-and-forget confirmation for a created rental.
// Implementations must never block the admission path.
type Notifier interface {
	Dispatch(rentalID uuid.UUID)
}

// Request carries the inputs of an admission attempt.
type Request struct {
	MachineryID int64
	CustomerID  uuid.UUID
	StartAt     time.Time
	EndAt       time.Time
	Notes       string
}

// RentalStatus pairs a rental with its derived lifecycle state for reporting.
type RentalStatus struct {
	model.Rental
	Status Status `json:"status"`
}

// Service is the only mutating entry point of the rental engine. Admission
// (availability check + insert) runs under a per-machinery mutex so two
// concurrent requests cannot both see the last unit free.
type Service struct {
	store    store.Store
	notifier Notifier

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	now func() time.Time
}

// NewService creates a rental service. notifier may be nil.
func NewService(s store.Store, notifier Notifier) *Service {
	return &Service{
		store:    s,
		notifier: notifier,
		locks:    make(map[int64]*sync.Mutex),
		now:      time.Now,
	}
}

// machineryLock returns the mutex serializing writes for one machinery.
func (s *Service) machineryLock(machineryID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[machineryID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[machineryID] = lock
	}
	return lock
}

// RequestRental admits or rejects a booking request. On admission it persists
// a new rental with the machinery's current rate captured and the total
// computed from whole billable days.
func (s *Service) RequestRental(ctx context.Context, req Request) (model.Rental, error) {
	if !req.EndAt.After(req.StartAt) {
		return model.Rental{}, NewError(KindInvalidInterval, "end must be after start")
	}

	machinery, err := s.store.MachineryByID(ctx, req.MachineryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Rental{}, NewError(KindMachineryNotFound, "machinery does not exist")
		}
		return model.Rental{}, WrapError(KindStoreUnavailable, err, "could not load machinery")
	}
	if !machinery.IsActive {
		return model.Rental{}, NewError(KindMachineryInactive, "machinery is not rentable")
	}

	lock := s.machineryLock(req.MachineryID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.ActiveRentalsForMachinery(ctx, req.MachineryID)
	if err != nil {
		return model.Rental{}, WrapError(KindStoreUnavailable, err, "could not load active rentals")
	}

	decision := Check(machinery.Stock, existing, req.StartAt, req.EndAt, uuid.Nil)
	if !decision.Admit {
		return model.Rental{}, NewError(KindNoAvailability, "no unit available for the requested dates").
			WithDetails(decision)
	}

	rental := model.Rental{
		ID:          uuid.New(),
		MachineryID: req.MachineryID,
		CustomerID:  req.CustomerID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		PricePerDay: machinery.PricePerDay,
		TotalAmount: Quote(machinery.PricePerDay, req.StartAt, req.EndAt),
		IsActive:    true,
		Notes:       req.Notes,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.store.CreateRental(ctx, &rental); err != nil {
		return model.Rental{}, WrapError(KindStoreUnavailable, err, "could not persist rental")
	}

	if s.notifier != nil {
		s.notifier.Dispatch(rental.ID)
	}

	rental.Machinery = machinery
	return rental, nil
}

// ReturnRental closes an open rental. A return instant earlier than the
// rental's start is clamped up to the start; a nil returnAt defaults to the
// current time. Closed rentals are never reopened.
func (s *Service) ReturnRental(ctx context.Context, id uuid.UUID, returnAt *time.Time) (model.Rental, error) {
	rental, err := s.store.RentalByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Rental{}, NewError(KindRentalNotFound, "rental does not exist")
		}
		return model.Rental{}, WrapError(KindStoreUnavailable, err, "could not load rental")
	}

	lock := s.machineryLock(rental.MachineryID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so a racing return sees the closed state.
	rental, err = s.store.RentalByID(ctx, id)
	if err != nil {
		return model.Rental{}, WrapError(KindStoreUnavailable, err, "could not load rental")
	}
	if !rental.IsActive {
		return model.Rental{}, NewError(KindAlreadyReturned, "rental is already closed")
	}

	at := s.now().UTC()
	if returnAt != nil {
		at = returnAt.UTC()
	}
	if at.Before(rental.StartAt) {
		at = rental.StartAt
	}

	rental.IsActive = false
	rental.ActualReturnAt = &at

	if err := s.store.SaveRental(ctx, &rental); err != nil {
		return model.Rental{}, WrapError(KindStoreUnavailable, err, "could not persist return")
	}
	return rental, nil
}

// CheckAvailability runs the admission predicate without creating anything.
// excludeID (non-nil) removes a rental being edited from the conflict count.
func (s *Service) CheckAvailability(ctx context.Context, machineryID int64, start, end time.Time, excludeID uuid.UUID) (Decision, error) {
	if !end.After(start) {
		return Decision{}, NewError(KindInvalidInterval, "end must be after start")
	}

	machinery, err := s.store.MachineryByID(ctx, machineryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, NewError(KindMachineryNotFound, "machinery does not exist")
		}
		return Decision{}, WrapError(KindStoreUnavailable, err, "could not load machinery")
	}

	existing, err := s.store.ActiveRentalsForMachinery(ctx, machineryID)
	if err != nil {
		return Decision{}, WrapError(KindStoreUnavailable, err, "could not load active rentals")
	}

	return Check(machinery.Stock, existing, start, end, excludeID), nil
}

// ListActiveAndOverdue returns every open rental with its derived status,
// recomputed against the clock on each call.
func (s *Service) ListActiveAndOverdue(ctx context.Context) ([]RentalStatus, error) {
	rentals, err := s.store.ActiveRentals(ctx)
	if err != nil {
		return nil, WrapError(KindStoreUnavailable, err, "could not list rentals")
	}

	now := s.now()
	statuses := make([]RentalStatus, 0, len(rentals))
	for _, r := range rentals {
		statuses = append(statuses, RentalStatus{Rental: r, Status: StatusAt(r, now)})
	}
	return statuses, nil
}
