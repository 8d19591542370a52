package models

import "time"

// APIKey represents an API key document in the key store
type APIKey struct {
	Key       string    `bson:"key" json:"key"`
	Name      string    `bson:"name" json:"name"`
	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
