package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/mock"
	"github.com/facegate/facegate/internal/facematch"
	"github.com/facegate/facegate/internal/storage"
	"github.com/facegate/facegate/internal/token"
)

type stubEngine struct{}

func (stubEngine) Represent(ctx context.Context, imageData []byte) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEngine) Detect(ctx context.Context, imageData []byte) (bool, error) {
	return true, nil
}

func newTestServer(t *testing.T, apiToken string) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8000, Host: "127.0.0.1", APIToken: apiToken},
	}
	index := database.NewUserIndex()
	return NewServer(cfg, Dependencies{
		Store:   mock.NewMockStore(),
		Index:   index,
		Matcher: facematch.NewMatcher(index, 0.33),
		Engine:  stubEngine{},
		Images:  storage.NewImageStore(t.TempDir()),
		Tokens:  token.NewStore(time.Minute),
	})
}

func TestServer_HealthIsPublic(t *testing.T) {
	server := newTestServer(t, "secret")

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestServer_ManagementRoutesRequireToken(t *testing.T) {
	server := newTestServer(t, "secret")

	paths := []struct{ method, path string }{
		{"GET", "/api/v1/users"},
		{"GET", "/api/v1/users/1"},
		{"DELETE", "/api/v1/users/1"},
		{"GET", "/api/v1/history"},
		{"GET", "/api/v1/images/images/users/x.jpg"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestServer_ManagementRoutesAcceptToken(t *testing.T) {
	server := newTestServer(t, "secret")

	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func TestServer_RequestsAreAudited(t *testing.T) {
	store := mock.NewMockStore()
	cfg := &config.Config{Server: config.ServerConfig{Port: 8000, Host: "127.0.0.1"}}
	index := database.NewUserIndex()
	server := NewServer(cfg, Dependencies{
		Store:   store,
		Index:   index,
		Matcher: facematch.NewMatcher(index, 0.33),
		Engine:  stubEngine{},
		Images:  storage.NewImageStore(t.TempDir()),
		Tokens:  token.NewStore(time.Minute),
	})

	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	entries, err := store.HistoryRepo.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Endpoint != "/api/v1/users" {
		t.Errorf("unexpected endpoint: %s", entries[0].Endpoint)
	}
}

func TestServer_HealthIsNotAudited(t *testing.T) {
	store := mock.NewMockStore()
	cfg := &config.Config{Server: config.ServerConfig{Port: 8000, Host: "127.0.0.1"}}
	index := database.NewUserIndex()
	server := NewServer(cfg, Dependencies{
		Store:   store,
		Index:   index,
		Matcher: facematch.NewMatcher(index, 0.33),
		Engine:  stubEngine{},
		Images:  storage.NewImageStore(t.TempDir()),
		Tokens:  token.NewStore(time.Minute),
	})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	count, err := store.HistoryRepo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected health check unaudited, got %d entries", count)
	}
}
