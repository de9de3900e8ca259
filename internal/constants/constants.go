// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// DefaultDistanceThreshold is the default maximum cosine distance for face matching
	// Lower values = stricter matching
	DefaultDistanceThreshold = 0.33

	// EmbeddingDim is the dimension of Facenet512 face embeddings
	EmbeddingDim = 512
)

// Upload constants
const (
	// MaxUploadSize is the maximum accepted image upload in bytes
	MaxUploadSize = 10 << 20

	// MaxImageSize is the maximum dimension (width or height) sent to the face engine
	MaxImageSize = 1920
)

// History constants
const (
	// DefaultHistoryLimit is the default number of audit entries returned
	DefaultHistoryLimit = 100

	// MaxHistoryLimit is the maximum number of audit entries per request
	MaxHistoryLimit = 1000
)

// Token constants
const (
	// TokenLength is the number of digits in a verification token
	TokenLength = 6

	// TokenTTLMinutes is how long a verification token stays valid
	TokenTTLMinutes = 10
)
