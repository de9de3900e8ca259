package database

import (
	"errors"
	"time"
)

// ErrDuplicateFace is returned when a new user's face embedding matches an
// already enrolled user closer than the configured threshold.
var ErrDuplicateFace = errors.New("face already enrolled for another user")

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// User represents an enrolled person with their face embedding.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Embedding []float32
	ImagePath string // path of the enrollment image relative to the volume
	CreatedAt time.Time
}

// FullName returns the display name of the user.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HistoryEntry is an audit record of an API request.
type HistoryEntry struct {
	ID        int64
	Action    string // e.g. "user_created", "face_recognized", "face_rejected"
	Method    string
	Endpoint  string
	IP        string
	UserAgent string
	CreatedAt time.Time
}
