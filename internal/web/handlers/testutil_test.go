package handlers

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/mock"
	"github.com/facegate/facegate/internal/facematch"
	"github.com/facegate/facegate/internal/storage"
)

// fakeEngine is a FaceEngine stub with configurable results.
type fakeEngine struct {
	embedding    []float32
	detected     bool
	representErr error
	detectErr    error
}

func (f *fakeEngine) Represent(ctx context.Context, imageData []byte) ([]float32, error) {
	if f.representErr != nil {
		return nil, f.representErr
	}
	return f.embedding, nil
}

func (f *fakeEngine) Detect(ctx context.Context, imageData []byte) (bool, error) {
	if f.detectErr != nil {
		return false, f.detectErr
	}
	return f.detected, nil
}

// testJPEG returns a small valid JPEG image.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart request with form fields and an image file.
func multipartRequest(t *testing.T, path string, fields map[string]string, imageData []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if imageData != nil {
		part, err := writer.CreateFormFile("image", "face.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(imageData); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// usersFixture bundles a users handler with its backing fakes.
type usersFixture struct {
	handler *UsersHandler
	users   *mock.MockUserRepository
	index   *database.UserIndex
	engine  *fakeEngine
	images  *storage.ImageStore
	volume  string
}

func newUsersFixture(t *testing.T, engine *fakeEngine) *usersFixture {
	t.Helper()
	users := mock.NewMockUserRepository()
	index := database.NewUserIndex()
	matcher := facematch.NewMatcher(index, 0.33)
	volume := t.TempDir()
	images := storage.NewImageStore(volume)

	return &usersFixture{
		handler: NewUsersHandler(users, index, matcher, engine, images),
		users:   users,
		index:   index,
		engine:  engine,
		images:  images,
		volume:  volume,
	}
}

// enroll seeds a user through the repository and index directly.
func (f *usersFixture) enroll(t *testing.T, user database.User) *database.User {
	t.Helper()
	created := f.users.AddUser(user)
	f.index.Add(created)
	return created
}
