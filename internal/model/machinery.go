package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Machinery represents a rentable machine type in the catalog.
// Stock is the number of interchangeable physical units; it is read
// at decision time and may change out-of-band (e.g. a unit retired).
type Machinery struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:256;not null" json:"name"`
	Category     string          `gorm:"size:128" json:"category"`
	Brand        string          `gorm:"size:128" json:"brand"`
	Model        string          `gorm:"size:128" json:"model"`
	Year         int             `json:"year"`
	SerialNumber string          `gorm:"size:64;uniqueIndex" json:"serialNumber"`
	PricePerDay  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"pricePerDay"`
	Stock        int             `gorm:"not null" json:"stock"`
	IsActive     bool            `gorm:"not null" json:"isActive"`
	ImageURL     string          `gorm:"size:512" json:"imageUrl,omitempty"`
	Description  string          `gorm:"size:1024" json:"description,omitempty"`
	CreatedAt    time.Time       `json:"-"`
	UpdatedAt    time.Time       `json:"-"`
}
