package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Normalize fills defaults and derives paths from the data directory. Load
// calls it automatically; callers building a Config by hand must call it
// before use.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizeBootstrap()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	// Everything else defaults to a well-known name under the data dir.
	derived := []struct {
		field *string
		name  string
		key   string
	}{
		{&c.Paths.CatalogFile, "doroendings.json", "paths.catalog_file"},
		{&c.Paths.PicsDir, "DoroEndingPic", "paths.pics_dir"},
		{&c.Paths.DateFile, "doro_date_record.json", "paths.date_file"},
		{&c.Paths.MapFile, "user_doro_map.json", "paths.map_file"},
		{&c.Paths.HistoryDB, "history.db", "paths.history_db"},
		{&c.Paths.LockFile, "dorod.lock", "paths.lock_file"},
		{&c.Paths.Socket, "dorod.sock", "paths.socket"},
		{&c.Paths.LogDir, "logs", "paths.log_dir"},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.field) == "" {
			*d.field = filepath.Join(c.Paths.DataDir, d.name)
			continue
		}
		if *d.field, err = expandPath(*d.field); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeImages() {
	if c.Images.MaxBytes <= 0 {
		c.Images.MaxBytes = defaultImageMaxBytes
	}
	if c.Images.TimeoutSeconds <= 0 {
		c.Images.TimeoutSeconds = defaultImageTimeout
	}
	if c.Images.MaxFilenameLength <= 0 {
		c.Images.MaxFilenameLength = defaultMaxFilenameLength
	}
}

func (c *Config) normalizeBootstrap() {
	if c.Bootstrap.Token == "" {
		if value, ok := os.LookupEnv("DORO_BOOTSTRAP_TOKEN"); ok {
			c.Bootstrap.Token = value
		}
	}
	c.Bootstrap.Owner = strings.TrimSpace(c.Bootstrap.Owner)
	c.Bootstrap.Repo = strings.TrimSpace(c.Bootstrap.Repo)
	c.Bootstrap.MirrorOwner = strings.TrimSpace(c.Bootstrap.MirrorOwner)
	c.Bootstrap.MirrorRepo = strings.TrimSpace(c.Bootstrap.MirrorRepo)
	if c.Bootstrap.TimeoutSeconds <= 0 {
		c.Bootstrap.TimeoutSeconds = defaultBootstrapTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
