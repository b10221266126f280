package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"doroending/internal/api"
	"doroending/internal/bootstrap"
	"doroending/internal/catalog"
	"doroending/internal/config"
	"doroending/internal/daily"
	"doroending/internal/history"
	"doroending/internal/imagefetch"
	"doroending/internal/logging"
)

// Daemon owns the catalog, ledger, and history stores and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Store
	ledger  *daily.Ledger
	history *history.Store
	service *api.Service

	sessionID string
	startedAt time.Time

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	SessionID     string
	StartedAt     time.Time
	CatalogPath   string
	LockFilePath  string
	SocketPath    string
	EntryCount    int
	AssignedToday int
}

// New constructs a daemon with initialized stores. Nothing is loaded or
// locked until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	fetcher := imagefetch.New(imagefetch.Options{
		MaxBytes:       cfg.Images.MaxBytes,
		Timeout:        time.Duration(cfg.Images.TimeoutSeconds) * time.Second,
		UseDetectedExt: cfg.Images.UseDetectedExt,
	}, logger)

	cat, err := catalog.New(catalog.Options{
		DataFile:          cfg.Paths.CatalogFile,
		PicDir:            cfg.Paths.PicsDir,
		MaxFilenameLength: cfg.Images.MaxFilenameLength,
		Fetcher:           fetcher,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build catalog store: %w", err)
	}

	ledger, err := daily.New(daily.Options{
		DateFile: cfg.Paths.DateFile,
		MapFile:  cfg.Paths.MapFile,
	}, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("build daily ledger: %w", err)
	}

	hist, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	service, err := api.NewService(cat, ledger, hist, logger)
	if err != nil {
		_ = hist.Close()
		return nil, fmt.Errorf("build service: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		catalog:   cat,
		ledger:    ledger,
		history:   hist,
		service:   service,
		sessionID: uuid.NewString(),
		lockPath:  cfg.Paths.LockFile,
		lock:      flock.New(cfg.Paths.LockFile),
	}, nil
}

// Service returns the operation facade backed by this daemon's stores.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// Start acquires the instance lock, loads state from disk, and bootstraps
// assets when the catalog is empty and bootstrap is enabled.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dorod instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	// An unreadable catalog is handled like a missing one: the in-memory
	// state stays empty and the bootstrap path gets a chance to restore the
	// data. The next save backs the bad file up as a .bak sibling.
	loaded, err := d.catalog.Load()
	if err != nil {
		d.logger.Warn("catalog unreadable, starting empty",
			logging.Error(err),
			logging.String(logging.FieldEventType, "catalog_load_failed"),
			logging.String(logging.FieldErrorHint, "asset bootstrap or the next save replaces the file"))
		loaded = false
	}

	if (!loaded || len(d.catalog.All()) == 0) && d.cfg.Bootstrap.Enabled {
		if err := d.bootstrap(d.ctx); err != nil {
			d.logger.Warn("asset bootstrap failed, continuing with empty catalog",
				logging.Error(err))
		} else if _, err := d.catalog.Load(); err != nil {
			d.releaseLock()
			return fmt.Errorf("load bootstrapped catalog: %w", err)
		}
	}

	if err := d.ledger.Load(); err != nil {
		d.releaseLock()
		return fmt.Errorf("load ledger: %w", err)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldCorrelationID, d.sessionID),
		logging.String("lock", d.lockPath),
		logging.Int("entries", len(d.catalog.All())))
	return nil
}

func (d *Daemon) bootstrap(ctx context.Context) error {
	bcfg := d.cfg.Bootstrap
	opts := bootstrap.Options{
		Primary:   bootstrap.GithubSource(bcfg.Owner, bcfg.Repo),
		TargetDir: d.cfg.Paths.DataDir,
		Token:     bcfg.Token,
		Timeout:   time.Duration(bcfg.TimeoutSeconds) * time.Second,
	}
	if bcfg.UseMirrorFallback {
		opts.Mirror = bootstrap.GiteeSource(bcfg.MirrorOwner, bcfg.MirrorRepo)
	}
	downloader, err := bootstrap.New(opts, d.logger)
	if err != nil {
		return err
	}
	result := downloader.Run(ctx)
	if !result.Success {
		return errors.New(result.Message)
	}
	d.logger.Info("assets bootstrapped",
		logging.String("source", result.Source),
		logging.Int("records", result.RecordCount))
	return nil
}

// Stop flushes pending catalog changes and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.catalog.Save(); err != nil {
		d.logger.Warn("final catalog flush failed", logging.Error(err))
	}
	d.releaseLock()
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldCorrelationID, d.sessionID))
}

// Close stops the daemon and closes the history database.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Status reports runtime information for the status command.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		SessionID:     d.sessionID,
		StartedAt:     d.startedAt,
		CatalogPath:   d.cfg.Paths.CatalogFile,
		LockFilePath:  d.lockPath,
		SocketPath:    d.cfg.Paths.Socket,
		EntryCount:    len(d.catalog.All()),
		AssignedToday: d.ledger.AssignmentCount(),
	}
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}
