package domain

import "time"

// Admin represents a dashboard account.
type Admin struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
