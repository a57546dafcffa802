// Package model defines domain entities for the application.
package model

import "time"

// User is a person known to the backend.
// UserID is either the identity provider's subject id (users created on first
// authenticated request) or a random UUID (legacy direct-create endpoint).
type User struct {
	UserID    string    `json:"userId" dynamodbav:"userId"`
	Username  string    `json:"username,omitempty" dynamodbav:"username,omitempty"`
	Email     string    `json:"email" dynamodbav:"email"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
}
