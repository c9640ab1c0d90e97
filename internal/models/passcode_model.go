package models

import "time"

const (
	PurposeRegistration  = "registration"
	PurposePasswordReset = "password_reset"
)

// Passcode stores one-time verification codes. Only the bcrypt hash of the
// code is kept; the plaintext goes out via email and is never persisted.
type Passcode struct {
	ID          uint      `gorm:"primaryKey"`
	Destination string    `gorm:"index:idx_passcodes_dest_purpose;size:100;not null"`
	Purpose     string    `gorm:"index:idx_passcodes_dest_purpose;size:20;not null"`
	CodeHash    string    `gorm:"size:255;not null"`
	Consumed    bool      `gorm:"default:false"`
	CreatedAt   time.Time
	ExpiresAt   time.Time `gorm:"index;not null"`
}
