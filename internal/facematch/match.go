// Package facematch decides whether a face embedding belongs to an enrolled
// user. Matching runs against the in-memory user index; the database is only
// the source of truth for rebuilds.
package facematch

import (
	"github.com/facegate/facegate/internal/database"
)

// Matcher compares probe embeddings against enrolled users.
type Matcher struct {
	index     *database.UserIndex
	threshold float64
}

// NewMatcher creates a matcher over the given index. The threshold is the
// maximum cosine distance for two faces to count as the same person.
func NewMatcher(index *database.UserIndex, threshold float64) *Matcher {
	return &Matcher{index: index, threshold: threshold}
}

// Threshold returns the configured distance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the closest enrolled user and the cosine distance when it
// falls within the threshold. The boolean reports whether a match was found.
func (m *Matcher) Match(embedding []float32) (*database.User, float64, bool) {
	user, distance := m.index.Nearest(embedding)
	if user == nil || distance > m.threshold {
		return nil, distance, false
	}
	return user, distance, true
}

// IsDuplicate reports whether the embedding already belongs to an enrolled
// user. Used during enrollment to refuse registering the same face twice.
func (m *Matcher) IsDuplicate(embedding []float32) (*database.User, bool) {
	user, _, ok := m.Match(embedding)
	return user, ok
}
