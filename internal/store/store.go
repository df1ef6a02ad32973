package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"machinery-rental-backend/internal/model"
)

// Store defines the interface for all database operations the rental
// engine performs: catalog reads plus the rental repository.
type Store interface {
	DB() *gorm.DB

	MachineryByID(ctx context.Context, id int64) (model.Machinery, error)
	ActiveMachinery(ctx context.Context) ([]model.Machinery, error)
	ActiveRentalCounts(ctx context.Context) (map[int64]int64, error)

	ActiveRentalsForMachinery(ctx context.Context, machineryID int64) ([]model.Rental, error)
	CreateRental(ctx context.Context, rental *model.Rental) error
	RentalByID(ctx context.Context, id uuid.UUID) (model.Rental, error)
	SaveRental(ctx context.Context, rental *model.Rental) error
	ActiveRentals(ctx context.Context) ([]model.Rental, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// MachineryByID loads a single machinery row. gorm.ErrRecordNotFound is
// returned unwrapped so callers can classify it.
func (s *gormStore) MachineryByID(ctx context.Context, id int64) (model.Machinery, error) {
	var m model.Machinery
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.Machinery{}, err
		}
		return model.Machinery{}, fmt.Errorf("failed to load machinery %d: %w", id, err)
	}
	return m, nil
}

// ActiveMachinery returns the rentable part of the catalog.
func (s *gormStore) ActiveMachinery(ctx context.Context) ([]model.Machinery, error) {
	var machinery []model.Machinery
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name").
		Find(&machinery).Error; err != nil {
		return nil, fmt.Errorf("failed to list machinery: %w", err)
	}
	return machinery, nil
}

// ActiveRentalCounts aggregates open rentals per machinery in one query.
func (s *gormStore) ActiveRentalCounts(ctx context.Context) (map[int64]int64, error) {
	type aggRow struct {
		MachineryID int64
		Total       int64
	}
	var aggs []aggRow
	if err := s.db.WithContext(ctx).
		Model(&model.Rental{}).
		Select("machinery_id as machinery_id, COUNT(*) as total").
		Where("is_active = ?", true).
		Group("machinery_id").
		Scan(&aggs).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate active rentals: %w", err)
	}

	counts := make(map[int64]int64, len(aggs))
	for _, a := range aggs {
		counts[a.MachineryID] = a.Total
	}
	return counts, nil
}

// ActiveRentalsForMachinery returns every open rental for one machinery.
// This is the read the availability check runs over.
func (s *gormStore) ActiveRentalsForMachinery(ctx context.Context, machineryID int64) ([]model.Rental, error) {
	var rentals []model.Rental
	if err := s.db.WithContext(ctx).
		Where("machinery_id = ? AND is_active = ?", machineryID, true).
		Find(&rentals).Error; err != nil {
		return nil, fmt.Errorf("failed to load active rentals for machinery %d: %w", machineryID, err)
	}
	return rentals, nil
}

// CreateRental persists a freshly admitted rental inside a transaction.
func (s *gormStore) CreateRental(ctx context.Context, rental *model.Rental) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Machinery", "Customer").Create(rental).Error; err != nil {
			return fmt.Errorf("failed to create rental %s: %w", rental.ID, err)
		}
		return nil
	})
}

// RentalByID loads a rental with its machinery and customer.
func (s *gormStore) RentalByID(ctx context.Context, id uuid.UUID) (model.Rental, error) {
	var rental model.Rental
	if err := s.db.WithContext(ctx).
		Preload("Machinery").
		Preload("Customer").
		First(&rental, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return model.Rental{}, err
		}
		return model.Rental{}, fmt.Errorf("failed to load rental %s: %w", id, err)
	}
	return rental, nil
}

// SaveRental writes back a mutated rental (the return operation).
func (s *gormStore) SaveRental(ctx context.Context, rental *model.Rental) error {
	if err := s.db.WithContext(ctx).
		Omit("Machinery", "Customer").
		Save(rental).Error; err != nil {
		return fmt.Errorf("failed to save rental %s: %w", rental.ID, err)
	}
	return nil
}

// ActiveRentals returns all open rentals with associations preloaded,
// ordered the way the dashboard lists them.
func (s *gormStore) ActiveRentals(ctx context.Context) ([]model.Rental, error) {
	var rentals []model.Rental
	if err := s.db.WithContext(ctx).
		Preload("Machinery").
		Preload("Customer").
		Where("is_active = ?", true).
		Order("start_at DESC").
		Find(&rentals).Error; err != nil {
		return nil, fmt.Errorf("failed to list active rentals: %w", err)
	}
	return rentals, nil
}
