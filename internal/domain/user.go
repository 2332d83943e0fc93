package domain

import "time"

// User represents a registered member of the platform.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	Bio          string
	AvatarURL    string
	CreatedAt    time.Time
}
