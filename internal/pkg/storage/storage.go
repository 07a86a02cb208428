// Package storage archives analysis documents in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/zahlentech/str8up_server/config"
)

var ErrNotFound = errors.New("object not found")

// ObjectStore is implemented by the OSS, S3 and local backends.
type ObjectStore interface {
	// Put stores data under key and returns its URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ReportKey is the object key of a session's analysis document.
func ReportKey(sessionID string) string {
	return path.Join("reports", sessionID, "analysis.json")
}

// New builds the backend selected by cfg.Storage.Provider.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Provider {
	case "oss":
		return NewOSS(&cfg.OSS)
	case "s3":
		return NewS3(ctx, &cfg.S3)
	case "local", "":
		return NewLocal(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}

func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
