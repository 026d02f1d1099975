// Package model defines domain entities for the application.
package model

import "time"

// User is an account created on the first successful OAuth login.
// The email functions as the external identity key and is never
// updated after creation.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
}
