package models

import (
	"time"
)

// Clip length bounds in seconds. A note's clip duration always lands in
// [MinClipDuration, MaxClipDuration] inclusive.
const (
	MinClipDuration = 14.0
	MaxClipDuration = 114.0
)

// Model defines the base interface for all persistent models in the seranote service.
// Implementations include User, Note, Message and ReadWatermark.
type Model interface {
	Key() string     // Key returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error     // Create inserts a new model into the database
	Get(id string) (T, error) // Get retrieves a model by its ID
	Delete(id string) error   // Delete removes a model from the database by its ID
}

// UserSummary is the sender projection nested in message payloads.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Epoch is the watermark used for viewers who have never marked a note read.
var Epoch = time.Unix(0, 0).UTC()
