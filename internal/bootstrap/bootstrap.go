package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doroending/internal/logging"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "DoroEndingDownloader/1.0"

	// catalogFileName and picDirName are the fixed layout of the asset repo.
	catalogFileName = "doroendings.json"
	picDirName      = "DoroEndingPic"

	// skipThreshold: local files at or below this size are re-downloaded,
	// larger ones are assumed intact and skipped.
	skipThreshold = 100
)

// ErrUnreachable reports that neither the primary nor the mirror host
// answered usably.
var ErrUnreachable = errors.New("asset hosts unreachable")

// Source names a remote host pair of contents API and raw file base.
type Source struct {
	Name    string
	APIBase string
	RawBase string
}

// GithubSource builds the primary source for an owner/repo pair.
func GithubSource(owner, repo string) Source {
	return Source{
		Name:    "github",
		APIBase: fmt.Sprintf("https://api.github.com/repos/%s/%s/contents", owner, repo),
		RawBase: fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main", owner, repo),
	}
}

// GiteeSource builds the mirror source for an owner/repo pair.
func GiteeSource(owner, repo string) Source {
	return Source{
		Name:    "gitee",
		APIBase: fmt.Sprintf("https://gitee.com/api/v5/repos/%s/%s/contents", owner, repo),
		RawBase: fmt.Sprintf("https://gitee.com/%s/%s/raw/main", owner, repo),
	}
}

// Options configures a Downloader.
type Options struct {
	Primary Source
	// Mirror is tried when the primary fails with a connection error,
	// 403, or a 5xx. Leave empty to disable the fallback.
	Mirror    Source
	TargetDir string
	// Token is sent as an Authorization header on primary requests only.
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Result summarizes a bootstrap run.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Source      string `json:"source"`
	RecordCount int    `json:"record_count"`
	Path        string `json:"path"`
}

// Downloader mirrors the asset repository into the local data directory.
type Downloader struct {
	primary Source
	mirror  Source
	target  string
	token   string
	http    *http.Client
	logger  *slog.Logger

	downloaded int
	skipped    int
	failed     int
}

// New creates a Downloader from the supplied options.
func New(opts Options, logger *slog.Logger) (*Downloader, error) {
	if opts.Primary.APIBase == "" || opts.Primary.RawBase == "" {
		return nil, errors.New("bootstrap: primary source required")
	}
	if strings.TrimSpace(opts.TargetDir) == "" {
		return nil, errors.New("bootstrap: target directory required")
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Downloader{
		primary: opts.Primary,
		mirror:  opts.Mirror,
		target:  opts.TargetDir,
		token:   strings.TrimSpace(opts.Token),
		http:    client,
		logger:  logging.NewComponentLogger(logger, "bootstrap"),
	}, nil
}

// contentItem is the subset of a contents API listing entry both hosts share.
type contentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func (it contentItem) isDir() bool {
	if it.Type != "" {
		return it.Type == "dir"
	}
	// The mirror's API omits type on files but sets download_url.
	return it.DownloadURL == ""
}

// Run downloads the picture directory and catalog file, trying the mirror
// when the primary host fails.
func (d *Downloader) Run(ctx context.Context) Result {
	if err := os.MkdirAll(d.target, 0o755); err != nil {
		return Result{Message: fmt.Sprintf("create target directory: %v", err), Path: d.target}
	}

	sources := []Source{d.primary}
	if d.mirror.APIBase != "" {
		sources = append(sources, d.mirror)
	}

	var lastErr error
	for i, src := range sources {
		if i > 0 {
			d.logger.Warn("primary host failed, switching to mirror",
				logging.String("mirror", src.Name),
				logging.Error(lastErr))
		}
		result, err := d.runFrom(ctx, src)
		if err == nil {
			return result
		}
		lastErr = err
	}

	return Result{
		Message: fmt.Sprintf("%v: %v", ErrUnreachable, lastErr),
		Source:  sources[len(sources)-1].Name,
		Path:    d.target,
	}
}

func (d *Downloader) runFrom(ctx context.Context, src Source) (Result, error) {
	start := time.Now()
	d.downloaded, d.skipped, d.failed = 0, 0, 0

	d.logger.Info("bootstrap started",
		logging.String("source", src.Name),
		logging.String(logging.FieldPath, d.target))

	root, err := d.listDirectory(ctx, src, "")
	if err != nil {
		return Result{}, fmt.Errorf("list repository root: %w", err)
	}

	hasPics, hasCatalog := false, false
	for _, item := range root {
		switch {
		case item.Name == picDirName && item.isDir():
			hasPics = true
		case item.Name == catalogFileName:
			hasCatalog = true
		}
	}

	if hasPics {
		if err := d.downloadDirectory(ctx, src, picDirName, filepath.Join(d.target, picDirName)); err != nil {
			return Result{}, fmt.Errorf("download picture directory: %w", err)
		}
	}

	recordCount := 0
	if hasCatalog {
		count, err := d.downloadCatalog(ctx, src)
		if err != nil {
			return Result{}, fmt.Errorf("download catalog: %w", err)
		}
		recordCount = count
	}

	elapsed := time.Since(start)
	d.logger.Info("bootstrap finished",
		logging.String("source", src.Name),
		logging.Int("downloaded", d.downloaded),
		logging.Int("skipped", d.skipped),
		logging.Int("failed", d.failed),
		logging.Duration("elapsed", elapsed))

	message := fmt.Sprintf("bootstrap complete in %.2fs from %s (%d downloaded, %d skipped)",
		elapsed.Seconds(), src.Name, d.downloaded, d.skipped)
	return Result{
		Success:     true,
		Message:     message,
		Source:      src.Name,
		RecordCount: recordCount,
		Path:        d.target,
	}, nil
}

// listDirectory fetches a contents API listing for the given repo path.
func (d *Downloader) listDirectory(ctx context.Context, src Source, dirPath string) ([]contentItem, error) {
	url := src.APIBase
	if dirPath != "" {
		url += "/" + dirPath
	}
	resp, err := d.get(ctx, src, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %d", dirPath, resp.StatusCode)
	}

	var items []contentItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", dirPath, err)
	}
	return items, nil
}

func (d *Downloader) downloadDirectory(ctx context.Context, src Source, dirPath, localDir string) error {
	items, err := d.listDirectory(ctx, src, dirPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", localDir, err)
	}

	for _, item := range items {
		remotePath := item.Name
		if dirPath != "" {
			remotePath = dirPath + "/" + item.Name
		}
		if item.isDir() {
			if err := d.downloadDirectory(ctx, src, remotePath, filepath.Join(localDir, item.Name)); err != nil {
				return err
			}
			continue
		}
		rawURL := item.DownloadURL
		if rawURL == "" {
			rawURL = src.RawBase + "/" + remotePath
		}
		if err := d.downloadFile(ctx, src, rawURL, filepath.Join(localDir, item.Name)); err != nil {
			return err
		}
	}
	return nil
}

// downloadCatalog fetches the catalog JSON, verifies it parses, and returns
// the record count.
func (d *Downloader) downloadCatalog(ctx context.Context, src Source) (int, error) {
	localPath := filepath.Join(d.target, catalogFileName)
	if err := d.downloadFile(ctx, src, src.RawBase+"/"+catalogFileName, localPath); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("read downloaded catalog: %w", err)
	}
	var doc struct {
		Datas []json.RawMessage `json:"datas"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("downloaded catalog is not valid JSON: %w", err)
	}
	return len(doc.Datas), nil
}

func (d *Downloader) downloadFile(ctx context.Context, src Source, url, localPath string) error {
	if info, err := os.Stat(localPath); err == nil && info.Size() > skipThreshold {
		d.skipped++
		d.logger.Debug("file already present, skipping",
			logging.String(logging.FieldPath, localPath))
		return nil
	}

	resp, err := d.get(ctx, src, url)
	if err != nil {
		d.failed++
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.failed++
		return fmt.Errorf("download %s: unexpected status %d", filepath.Base(localPath), resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		d.failed++
		return fmt.Errorf("create directory: %w", err)
	}
	tmpPath := localPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		d.failed++
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(tmpPath)
		d.failed++
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		d.failed++
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		d.failed++
		return fmt.Errorf("rename %s: %w", tmpPath, err)
	}

	d.downloaded++
	return nil
}

// get issues a request and converts rate-limit and server errors into
// failures so the caller can switch sources.
func (d *Downloader) get(ctx context.Context, src Source, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if d.token != "" && src.Name == d.primary.Name {
		req.Header.Set("Authorization", "token "+d.token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", src.Name, err)
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode >= 500 {
		status := resp.StatusCode
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned status %d", src.Name, status)
	}
	return resp, nil
}
