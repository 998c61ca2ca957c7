// Package backend selects the document store named by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/moment-tensor-etl/internal/config"
	"github.com/couchcryptid/moment-tensor-etl/internal/storage"
	"github.com/couchcryptid/moment-tensor-etl/internal/storage/fs"
	"github.com/couchcryptid/moment-tensor-etl/internal/storage/s3"
)

// Open returns the store for cfg.StorageBackend rooted at dir. For the S3
// backend dir becomes the key prefix.
func Open(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageFS, "":
		return fs.New(dir, logger), nil
	case config.StorageS3:
		return s3.New(ctx, s3.Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   dir,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
