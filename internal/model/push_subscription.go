package model

import "time"

// PushSubscription holds a browser push subscription. Subscribers pick the
// machinery they want rental alerts for.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Machinery []*Machinery `gorm:"many2many:subscription_machinery_mapping;"`
}
