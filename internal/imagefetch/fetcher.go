package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"doroending/internal/logging"
)

const userAgent = "doroending/0.1"

// DefaultMaxBytes bounds accepted image payloads when no limit is configured.
const DefaultMaxBytes = 10 * 1024 * 1024

// DefaultTimeout bounds image downloads when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrTooLarge reports a payload exceeding the configured size limit, either
// by declared Content-Length or by actual size.
var ErrTooLarge = errors.New("image too large")

// FixedExtension is the suffix applied to stored images unless the fetcher
// is configured to honor the detected format.
const FixedExtension = ".jpg"

// Fetcher downloads image bytes from URLs under size and time limits.
type Fetcher struct {
	client         *http.Client
	maxBytes       int64
	useDetectedExt bool
	logger         *slog.Logger
}

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	MaxBytes int64
	Timeout  time.Duration
	// UseDetectedExt stores images under the extension matching their
	// sniffed format. Off by default: historically every image is written
	// as ".jpg" regardless of content, and existing catalogs rely on that.
	UseDetectedExt bool
}

// New constructs a Fetcher. A nil logger disables logging.
func New(opts Options, logger *slog.Logger) *Fetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Fetcher{
		client:         &http.Client{Timeout: opts.Timeout},
		maxBytes:       opts.MaxBytes,
		useDetectedExt: opts.UseDetectedExt,
		logger:         logging.NewComponentLogger(logger, "imagefetch"),
	}
}

// MaxBytes returns the configured payload limit.
func (f *Fetcher) MaxBytes() int64 {
	return f.maxBytes
}

// Fetch retrieves the image at url. The declared Content-Length is checked
// before the body is read and the actual size is re-checked afterwards;
// both violations return ErrTooLarge.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %s", resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	// Read one byte past the limit so an undeclared oversize is detected
	// without buffering an unbounded body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, f.maxBytes)
	}

	f.logger.Debug("image downloaded",
		logging.String("url", url),
		logging.Int("bytes", len(body)))
	return body, nil
}

// Download fetches url and persists the bytes under the extension-less stem
// path. It returns the full path written.
func (f *Fetcher) Download(ctx context.Context, url, stem string) (string, error) {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return f.Write(stem, body)
}

// Write persists image bytes under the extension-less stem path and returns
// the full path written. The extension is FixedExtension unless the fetcher
// was configured to honor the detected format.
func (f *Fetcher) Write(stem string, data []byte) (string, error) {
	if int64(len(data)) > f.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), f.maxBytes)
	}

	ext := FixedExtension
	if f.useDetectedExt {
		if format := DetectFormat(data); format != "" {
			ext = ExtensionFor(format)
		}
	}

	path := stem + ext
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	f.logger.Debug("image saved",
		logging.String(logging.FieldPath, path),
		logging.Int("bytes", len(data)))
	return path, nil
}
