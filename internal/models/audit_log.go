package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Identity  string    `gorm:"size:64;index" json:"identity"`
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g., "CLAIM_HANDLE", "ADD_LINK", "REORDER_LINKS"
	EntityID  string    `gorm:"size:64" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}
