package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	financeapp "github.com/oneflow/backend/internal/application/finance"
)

var _ financeapp.ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage keeps objects in memory and issues unsigned links under
// BaseURL. It is meant for development and tests.
type StubObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
	now     func() time.Time
}

// NewStubObjectStorage creates a stub serving links under baseURL
func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &StubObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

// PutObject keeps a copy of body under key
func (s *StubObjectStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	if key == "" {
		return errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

// Object returns a stored object
func (s *StubObjectStorage) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.objects[key]
	return body, ok
}

// GenerateDownloadURL returns BaseURL/download/{key}?expires=...
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := s.now().Add(expiresIn)
	link := s.BaseURL + "/download/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}
