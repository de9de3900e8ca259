package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/embedder"
)

func enrollFields() map[string]string {
	return map[string]string{
		"first_name": "Jan",
		"last_name":  "Novak",
		"email":      "jan@example.com",
	}
}

func TestUsersCreate_Success(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{embedding: []float32{1, 0, 0}})

	req := multipartRequest(t, "/api/v1/users", enrollFields(), testJPEG(t))
	rec := httptest.NewRecorder()

	f.handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.ID == 0 || resp.Email != "jan@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if f.index.Count() != 1 {
		t.Errorf("expected user in index, count %d", f.index.Count())
	}

	// The enrollment image must land on the volume.
	if _, err := os.Stat(filepath.Join(f.volume, resp.ImagePath)); err != nil {
		t.Errorf("expected stored image at %s: %v", resp.ImagePath, err)
	}
}

func TestUsersCreate_NoFace(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{representErr: embedder.ErrNoFace})

	req := multipartRequest(t, "/api/v1/users", enrollFields(), testJPEG(t))
	rec := httptest.NewRecorder()

	f.handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no face detected") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestUsersCreate_DuplicateFace(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{embedding: []float32{1, 0, 0}})
	f.enroll(t, database.User{
		FirstName: "First", LastName: "User", Email: "first@example.com",
		Embedding: []float32{1, 0, 0},
	})

	req := multipartRequest(t, "/api/v1/users", enrollFields(), testJPEG(t))
	rec := httptest.NewRecorder()

	f.handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate face, got %d", rec.Code)
	}
}

func TestUsersCreate_DuplicateEmail(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{embedding: []float32{0, 1, 0}})
	f.enroll(t, database.User{
		FirstName: "Jan", LastName: "Novak", Email: "jan@example.com",
		Embedding: []float32{1, 0, 0},
	})

	req := multipartRequest(t, "/api/v1/users", enrollFields(), testJPEG(t))
	rec := httptest.NewRecorder()

	f.handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestUsersCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing first name", map[string]string{"last_name": "N", "email": "a@b.cz"}},
		{"missing last name", map[string]string{"first_name": "J", "email": "a@b.cz"}},
		{"bad email", map[string]string{"first_name": "J", "last_name": "N", "email": "not-an-email"}},
		{"name too long", map[string]string{
			"first_name": strings.Repeat("x", 101), "last_name": "N", "email": "a@b.cz",
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newUsersFixture(t, &fakeEngine{embedding: []float32{1, 0, 0}})
			req := multipartRequest(t, "/api/v1/users", tc.fields, testJPEG(t))
			rec := httptest.NewRecorder()

			f.handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestUsersCreate_RejectsNonImageUpload(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{embedding: []float32{1, 0, 0}})

	req := multipartRequest(t, "/api/v1/users", enrollFields(), []byte("definitely not an image"))
	rec := httptest.NewRecorder()

	f.handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-image data, got %d", rec.Code)
	}
}

func TestUsersCreate_MissingImage(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{embedding: []float32{1, 0, 0}})

	req := multipartRequest(t, "/api/v1/users", enrollFields(), nil)
	rec := httptest.NewRecorder()

	f.handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing image, got %d", rec.Code)
	}
}

func TestUsersList_FiltersByName(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{})
	f.enroll(t, database.User{FirstName: "Jiří", LastName: "Dvořák", Email: "jiri@example.com", Embedding: []float32{1, 0, 0}})
	f.enroll(t, database.User{FirstName: "Anna", LastName: "Svobodová", Email: "anna@example.com", Embedding: []float32{0, 1, 0}})

	req := httptest.NewRequest("GET", "/api/v1/users?q=jiri+dvorak", nil)
	rec := httptest.NewRecorder()

	f.handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Users []userResponse `json:"users"`
		Count int            `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Count != 1 || resp.Users[0].Email != "jiri@example.com" {
		t.Errorf("expected diacritics-insensitive match, got %+v", resp)
	}
}

func TestUsersGet_NotFound(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{})

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/users/999", nil),
		map[string]string{"id": "999"},
	)
	rec := httptest.NewRecorder()

	f.handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUsersGet_InvalidID(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{})

	req := requestWithChiParams(
		httptest.NewRequest("GET", "/api/v1/users/abc", nil),
		map[string]string{"id": "abc"},
	)
	rec := httptest.NewRecorder()

	f.handler.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUsersUpdate(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{})
	user := f.enroll(t, database.User{
		FirstName: "Jan", LastName: "Novak", Email: "jan@example.com",
		Embedding: []float32{1, 0, 0},
	})

	body := strings.NewReader(`{"first_name":"Honza","last_name":"Novak","email":"honza@example.com"}`)
	req := requestWithChiParams(
		httptest.NewRequest("PUT", "/api/v1/users/1", body),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()

	f.handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, _ := f.users.Get(context.Background(), user.ID)
	if updated.FirstName != "Honza" || updated.Email != "honza@example.com" {
		t.Errorf("update not persisted: %+v", updated)
	}
}

func TestUsersDelete_RemovesImageAndIndexEntry(t *testing.T) {
	f := newUsersFixture(t, &fakeEngine{})

	imagePath, err := f.images.Save([]byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("failed to seed image: %v", err)
	}
	user := f.enroll(t, database.User{
		FirstName: "Jan", LastName: "Novak", Email: "jan@example.com",
		Embedding: []float32{1, 0, 0}, ImagePath: imagePath,
	})

	req := requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/users/1", nil),
		map[string]string{"id": "1"},
	)
	rec := httptest.NewRecorder()

	f.handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, _ := f.users.Get(context.Background(), user.ID); got != nil {
		t.Error("expected user removed from repository")
	}
	if f.index.Count() != 0 {
		t.Error("expected user removed from index")
	}
	if _, err := os.Stat(filepath.Join(f.volume, imagePath)); !os.IsNotExist(err) {
		t.Error("expected enrollment image deleted")
	}
}
