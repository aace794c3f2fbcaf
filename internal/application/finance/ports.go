package finance

import (
	"context"
	"time"

	"github.com/oneflow/backend/internal/domain/finance"
)

// ObjectStorage stores rendered request documents and hands out download links
type ObjectStorage interface {
	PutObject(ctx context.Context, storageKey, contentType string, body []byte) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// DocumentRenderer turns records into printable PDF bytes
type DocumentRenderer interface {
	RenderDocument(doc *finance.Document) ([]byte, error)
	RenderRequest(req *finance.DocumentRequest) ([]byte, error)
}
