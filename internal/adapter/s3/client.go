// internal/adapter/s3/client.go
package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client reads photos from S3-compatible object storage
type Client struct {
	client *minio.Client
	config config.StorageConfig
}

// NewClient creates a new S3 client
func NewClient(cfg config.StorageConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &Client{
		client: client,
		config: cfg,
	}, nil
}

// Open returns a reader for an object. Missing objects are reported here
// rather than on the first read.
func (c *Client) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	info, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object s3://%s/%s does not exist", bucket, key)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	logger.Debug("Opened s3://%s/%s (%d bytes)", bucket, key, info.Size)
	return obj, nil
}
