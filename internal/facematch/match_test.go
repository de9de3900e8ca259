package facematch

import (
	"testing"

	"github.com/facegate/facegate/internal/database"
)

func buildTestIndex(t *testing.T) *database.UserIndex {
	t.Helper()
	idx := database.NewUserIndex()
	err := idx.Build([]database.User{
		{ID: 1, FirstName: "Alice", Embedding: []float32{1, 0, 0}},
		{ID: 2, FirstName: "Bob", Embedding: []float32{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	return idx
}

func TestMatcher_MatchWithinThreshold(t *testing.T) {
	matcher := NewMatcher(buildTestIndex(t), 0.33)

	user, distance, ok := matcher.Match([]float32{0.95, 0.05, 0})
	if !ok {
		t.Fatal("expected a match")
	}
	if user.ID != 1 {
		t.Errorf("expected user 1, got %d", user.ID)
	}
	if distance > 0.33 {
		t.Errorf("distance %f exceeds threshold", distance)
	}
}

func TestMatcher_NoMatchBeyondThreshold(t *testing.T) {
	matcher := NewMatcher(buildTestIndex(t), 0.33)

	// Orthogonal to both enrolled faces, distance 1.0.
	user, _, ok := matcher.Match([]float32{0, 0, 1})
	if ok {
		t.Errorf("expected no match, got user %v", user)
	}
}

func TestMatcher_EmptyIndex(t *testing.T) {
	matcher := NewMatcher(database.NewUserIndex(), 0.33)

	if _, _, ok := matcher.Match([]float32{1, 0, 0}); ok {
		t.Error("expected no match on empty index")
	}
}

func TestMatcher_IsDuplicate(t *testing.T) {
	matcher := NewMatcher(buildTestIndex(t), 0.33)

	if user, dup := matcher.IsDuplicate([]float32{1, 0, 0}); !dup || user.ID != 1 {
		t.Errorf("expected duplicate of user 1, got %v %v", user, dup)
	}
	if _, dup := matcher.IsDuplicate([]float32{0, 0, 1}); dup {
		t.Error("expected no duplicate for unseen face")
	}
}
