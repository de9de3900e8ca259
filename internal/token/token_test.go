package token

import (
	"testing"
	"time"
)

func TestStore_IssueAndRedeem(t *testing.T) {
	store := NewStore(time.Minute)

	code, err := store.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("expected 6-digit token, got %q", code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("expected numeric token, got %q", code)
		}
	}

	userID, ok := store.Redeem(code)
	if !ok {
		t.Fatal("expected token to redeem")
	}
	if userID != 42 {
		t.Errorf("expected user 42, got %d", userID)
	}
}

func TestStore_TokensAreSingleUse(t *testing.T) {
	store := NewStore(time.Minute)

	code, err := store.Issue(1)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, ok := store.Redeem(code); !ok {
		t.Fatal("first redeem failed")
	}
	if _, ok := store.Redeem(code); ok {
		t.Error("expected second redeem to fail")
	}
}

func TestStore_UnknownToken(t *testing.T) {
	store := NewStore(time.Minute)

	if _, ok := store.Redeem("000000"); ok {
		t.Error("expected unknown token to fail")
	}
}

func TestStore_Expiry(t *testing.T) {
	store := NewStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	code, err := store.Issue(7)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if _, ok := store.Redeem(code); ok {
		t.Error("expected expired token to fail")
	}
}

func TestStore_CountEvictsExpired(t *testing.T) {
	store := NewStore(time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	if _, err := store.Issue(1); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 live token, got %d", store.Count())
	}

	current = current.Add(2 * time.Minute)

	if store.Count() != 0 {
		t.Errorf("expected expired token evicted, got %d", store.Count())
	}
}

func TestStore_Revoke(t *testing.T) {
	store := NewStore(time.Minute)

	code, err := store.Issue(9)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	store.Revoke(code)

	if _, ok := store.Redeem(code); ok {
		t.Error("expected revoked token to fail")
	}
}
