package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/pkg/common"
	"github.com/bstardust/photo-timeline/pkg/models"
)

// ErrTooLarge is returned when a source exceeds the configured size limit
var ErrTooLarge = errors.New("source exceeds size limit")

// ObjectStore opens objects of S3-compatible storage for s3:// sources
type ObjectStore interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Payload is the raw content of a source
type Payload struct {
	Data        []byte
	ContentType string
}

// Loader reads the bytes of photo sources
type Loader struct {
	client   *http.Client
	objects  ObjectStore
	maxBytes int64
}

// NewLoader creates a new Loader. objects may be nil, in which case s3:// sources fail to load.
func NewLoader(timeout time.Duration, maxBytes int64, objects ObjectStore) *Loader {
	return &Loader{
		client:   &http.Client{Timeout: timeout},
		objects:  objects,
		maxBytes: maxBytes,
	}
}

// Load returns the bytes of src. Errors are wrapped in a common.SourceError.
func (l *Loader) Load(ctx context.Context, src models.PhotoSource) (*Payload, error) {
	data, declared, err := l.load(ctx, src)
	if err != nil {
		return nil, common.NewSourceError(src.Name, err)
	}

	if src.MediaType != "" {
		declared = src.MediaType
	}

	return &Payload{
		Data:        data,
		ContentType: ContentType(src.Name, declared, data),
	}, nil
}

func (l *Loader) load(ctx context.Context, src models.PhotoSource) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	switch {
	case src.Data != nil:
		return src.Data, "", nil
	case src.Open != nil:
		rc, err := src.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open source: %w", err)
		}
		defer rc.Close()
		data, err := l.readAll(rc)
		return data, "", err
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		data, err := l.readAll(f)
		return data, "", err
	case src.URL != "":
		return l.fetch(ctx, src.URL)
	default:
		return nil, "", errors.New("source has no content")
	}
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	if u.Scheme == "s3" {
		if l.objects == nil {
			return nil, "", fmt.Errorf("no object storage configured for %s", rawURL)
		}
		rc, err := l.objects.Open(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
		if err != nil {
			return nil, "", err
		}
		defer rc.Close()
		data, err := l.readAll(rc)
		return data, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "photo-timeline/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := l.readAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	logger.Debug("Fetched %s (%d bytes)", rawURL, len(data))
	return data, resp.Header.Get("Content-Type"), nil
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if n > l.maxBytes {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

// IsURL checks if a string looks like a supported remote source
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "s3://")
}

// ParseURL validates a remote source URL
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("URL %s has no host", rawURL)
		}
	case "s3":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return nil, fmt.Errorf("URL %s must have the form s3://bucket/key", rawURL)
		}
	default:
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	return u, nil
}
