package models

import (
	"time"
)

// HandleReservation maps a lowercase handle to the identity holding it.
// Uniqueness of the handle itself is enforced by the primary key; "one active
// handle per identity" is enforced by the registry service, which releases the
// old reservation in the same transaction that creates the new one.
type HandleReservation struct {
	Handle    string    `gorm:"primaryKey;size:20" json:"handle"`
	Identity  string    `gorm:"not null;index;size:64" json:"identity"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (HandleReservation) TableName() string {
	return "handle_reservations"
}
