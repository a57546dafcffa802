package model

import "time"

// MaxListNameLength is the maximum number of runes in a list name.
const MaxListNameLength = 100

// List is a named movie watchlist owned by a single user.
type List struct {
	ListID    string    `json:"listId" dynamodbav:"listId"`
	OwnerID   string    `json:"ownerId" dynamodbav:"ownerId"`
	Name      string    `json:"name" dynamodbav:"name"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt"`
}
