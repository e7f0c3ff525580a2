package domain

import "time"

// RefreshToken is a revocable credential record. The opaque secret handed
// to the client is never stored; only its peppered SHA-256 hash is. A user
// may hold many concurrently valid records (one per device). Records are
// deleted on logout, rotation, lazy expiry, and withdrawal, never flagged.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	UserAgent string    `gorm:"size:512" json:"user_agent,omitempty"`
	IP        string    `gorm:"size:64" json:"ip,omitempty"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
