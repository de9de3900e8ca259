// Package embedder talks to the face engine sidecar. Detection and embedding
// happen entirely inside the engine; this client only moves bytes.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const defaultEngineURL = "http://localhost:5000"

// ErrNoFace is returned when the engine finds no face in the image.
var ErrNoFace = errors.New("no face detected")

// Client computes face embeddings using the face engine service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new face engine client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultEngineURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// representResponse is the engine's answer to an embedding request.
type representResponse struct {
	FacesCount int       `json:"faces_count"`
	Embedding  []float32 `json:"embedding"`
	Dim        int       `json:"dim"`
	Model      string    `json:"model"`
}

// detectResponse is the engine's answer to a detection-only request.
type detectResponse struct {
	FaceDetected bool `json:"face_detected"`
}

// postMultipartImage posts the image as a multipart form to the given
// endpoint. The part carries an explicit Content-Type from magic byte
// detection so the engine does not have to sniff.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", DetectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Represent computes the face embedding for an image. Returns ErrNoFace when
// the engine detects no face.
func (c *Client) Represent(ctx context.Context, imageData []byte) ([]float32, error) {
	body, err := c.postMultipartImage(ctx, "/represent", imageData)
	if err != nil {
		return nil, err
	}

	var rep representResponse
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if rep.FacesCount == 0 || len(rep.Embedding) == 0 {
		return nil, ErrNoFace
	}

	return rep.Embedding, nil
}

// Detect runs the engine's fast face detector without computing an
// embedding. Used by the quick pre-check endpoint.
func (c *Client) Detect(ctx context.Context, imageData []byte) (bool, error) {
	body, err := c.postMultipartImage(ctx, "/detect", imageData)
	if err != nil {
		return false, err
	}

	var det detectResponse
	if err := json.Unmarshal(body, &det); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}

	return det.FaceDetected, nil
}

// DetectMIMEType detects the MIME type from image data.
func DetectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	return "application/octet-stream"
}
