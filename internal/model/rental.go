package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rental is a booking of one machinery unit for the half-open interval
// [StartAt, EndAt). PricePerDay is a copy of the machinery rate taken at
// creation so historical invoices survive later price changes. Once a
// return is recorded IsActive flips to false and ActualReturnAt is set
// exactly once; no other field mutates after creation.
type Rental struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MachineryID    int64           `gorm:"index;not null" json:"machineryId"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"customerId"`
	StartAt        time.Time       `gorm:"not null;index" json:"startAt"`
	EndAt          time.Time       `gorm:"not null;index" json:"endAt"`
	PricePerDay    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"pricePerDay"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	IsActive       bool            `gorm:"not null;index" json:"isActive"`
	ActualReturnAt *time.Time      `json:"actualReturnAt,omitempty"`
	Notes          string          `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"createdAt"`

	// Associations
	Machinery Machinery `gorm:"constraint:OnDelete:RESTRICT" json:"machinery,omitempty"`
	Customer  Customer  `gorm:"constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
}
