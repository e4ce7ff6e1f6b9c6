package imagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Store uploads product images to the binary object store and returns the
// public URL to serve them from.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type HTTPStore struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *HTTPStore {
	return &HTTPStore{BaseURL: baseURL, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

func (s *HTTPStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	u := fmt.Sprintf("%s/upload?name=%s", s.BaseURL, url.QueryEscape(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("image store returned %d", resp.StatusCode)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("image store returned no url")
	}
	return out.SecureURL, nil
}
