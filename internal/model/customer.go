package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the renter reference stored with each rental. The customer
// CRUD lives in the surrounding admin application; the engine only reads it.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Email     string    `gorm:"size:256" json:"email"`
	Phone     string    `gorm:"size:64" json:"phone,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
