package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/infrastructure/config"
)

func validS3Config() *config.StorageConfig {
	return &config.StorageConfig{
		Provider:        "s3",
		Bucket:          "finance-docs",
		Region:          "eu-west-1",
		Endpoint:        "localhost:9000",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKeyID = "" }, "access key"},
		{"missing secret", func(c *config.StorageConfig) { c.SecretAccessKey = "" }, "secret access key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validS3Config()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(ctx, cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := NewS3ObjectStorage(ctx, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3ObjectStorage(ctx, validS3Config(), zap.NewNop())
	require.NoError(t, err)

	link, expiresAt, err := s.GenerateDownloadURL(ctx, "documents/invoice/REQ-2025-001.pdf", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:9000/finance-docs/documents/invoice/REQ-2025-001.pdf?"), link)
	assert.Contains(t, link, "X-Amz-Expires=600")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 5*time.Second)

	_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
	assert.Error(t, err)
	assert.Error(t, s.PutObject(ctx, "", "application/pdf", nil))
}

func TestStubObjectStorage(t *testing.T) {
	ctx := context.Background()
	s := NewStubObjectStorage("http://files.local/")
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, s.PutObject(ctx, "documents/receipt/REQ-2025-002.pdf", "application/pdf", []byte("%PDF")))
	body, ok := s.Object("documents/receipt/REQ-2025-002.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(body))

	link, expiresAt, err := s.GenerateDownloadURL(ctx, "documents/receipt/REQ-2025-002.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/download/documents/receipt/REQ-2025-002.pdf?expires=2025-03-01T12%3A15%3A00Z", link)
	assert.Equal(t, 12, expiresAt.Hour())
	assert.Equal(t, 15, expiresAt.Minute())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, &config.StorageConfig{Provider: "stub"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &StubObjectStorage{}, s)

	_, err = New(ctx, &config.StorageConfig{Provider: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
