package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

func TestRepresent_ReturnsEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/represent" {
			t.Errorf("expected path /represent, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 1,
			"embedding":   []float32{0.1, 0.2, 0.3},
			"dim":         3,
			"model":       "Facenet512",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	emb, err := client.Represent(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb) != 3 {
		t.Errorf("expected 3-dim embedding, got %d", len(emb))
	}
}

func TestRepresent_NoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 0,
			"embedding":   []float32{},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Represent(context.Background(), jpegHeader)
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("expected ErrNoFace, got %v", err)
	}
}

func TestRepresent_EngineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Represent(context.Background(), jpegHeader)
	if err == nil {
		t.Fatal("expected error for engine failure")
	}
}

func TestDetect_ReportsFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("expected path /detect, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]bool{"face_detected": true})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	found, err := client.Detect(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected face_detected true")
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"JPEG", jpegHeader, "image/jpeg"},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"Unknown", []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, "application/octet-stream"},
		{"TooShort", []byte{0xFF}, "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectMIMEType(tc.data); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}
