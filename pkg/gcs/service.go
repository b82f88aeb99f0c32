package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// GCSConfig holds the export archive settings
type GCSConfig struct {
	BucketName string        `yaml:"bucket"`
	Prefix     string        `yaml:"prefix"`
	URLExpiry  time.Duration `yaml:"url_expiry"`
}

type GCSClient struct {
	client     *storage.Client
	bucketName string
	prefix     string
	urlExpiry  time.Duration
}

func NewGCSClient(ctx context.Context, cfg GCSConfig) (*GCSClient, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %v", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &GCSClient{
		client:     client,
		bucketName: cfg.BucketName,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		urlExpiry:  expiry,
	}, nil
}

// ObjectPath places name under the configured prefix
func (g *GCSClient) ObjectPath(name string) string {
	if g.prefix == "" {
		return name
	}
	return path.Join(g.prefix, name)
}

// Upload writes content to name under the prefix and returns a download URL.
// A signed URL is returned when the credentials can sign, the public object URL otherwise.
func (g *GCSClient) Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error) {
	objectPath := g.ObjectPath(name)
	writer := g.client.Bucket(g.bucketName).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to copy content: %v", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if url, err := g.SignedURL(objectPath, time.Now().Add(g.urlExpiry)); err == nil {
		return url, nil
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, objectPath), nil
}

// SignedURL returns a V4 GET URL for an object in the bucket
func (g *GCSClient) SignedURL(objectPath string, expiresAt time.Time) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: expiresAt,
	}

	url, err := g.client.Bucket(g.bucketName).SignedURL(objectPath, opts)
	if err != nil {
		return "", fmt.Errorf("failed to get presigned url: %v", err)
	}
	return url, nil
}

// Ping checks that the bucket is reachable
func (g *GCSClient) Ping(ctx context.Context) error {
	if _, err := g.client.Bucket(g.bucketName).Attrs(ctx); err != nil {
		return fmt.Errorf("failed to read bucket attrs: %v", err)
	}
	return nil
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}
