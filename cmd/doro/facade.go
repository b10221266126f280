package main

import (
	"context"
	"fmt"
	"time"

	"doroending/internal/api"
	"doroending/internal/catalog"
	"doroending/internal/config"
	"doroending/internal/daily"
	"doroending/internal/history"
	"doroending/internal/imagefetch"
	"doroending/internal/ipc"
	"doroending/internal/logging"
)

// doroAPI is the command surface, served either by the daemon over IPC or
// by opening the stores in-process.
type doroAPI interface {
	DailyPick(ctx context.Context, userID string) (api.DailyResult, error)
	Add(ctx context.Context, name, englishName, imageURL string, imageBytes []byte) (api.Ending, error)
	Remove(ctx context.Context, target string) (api.Ending, error)
	Update(ctx context.Context, id int64, fields map[string]string) (api.Ending, error)
	List(ctx context.Context) ([]api.Ending, error)
	Search(ctx context.Context, keyword string) ([]api.Ending, error)
	Show(ctx context.Context, target string) (api.Ending, error)
	Stats(ctx context.Context) (api.StatsView, error)
	Cleanup(ctx context.Context) ([]string, error)
	Validate(ctx context.Context, id int64) (api.ImageCheck, error)
	History(ctx context.Context, userID, day string, limit int) ([]api.HistoryEntry, error)
	Frequency(ctx context.Context) ([]api.FrequencyRow, error)
}

// --- IPC adapter ---

type ipcAdapter struct {
	client *ipc.Client
}

func (a *ipcAdapter) DailyPick(_ context.Context, userID string) (api.DailyResult, error) {
	resp, err := a.client.DailyPick(userID)
	if err != nil {
		return api.DailyResult{}, err
	}
	return resp.Result, nil
}

func (a *ipcAdapter) Add(_ context.Context, name, englishName, imageURL string, imageBytes []byte) (api.Ending, error) {
	resp, err := a.client.Add(name, englishName, imageURL, imageBytes)
	if err != nil {
		return api.Ending{}, err
	}
	return resp.Ending, nil
}

func (a *ipcAdapter) Remove(_ context.Context, target string) (api.Ending, error) {
	resp, err := a.client.Remove(target)
	if err != nil {
		return api.Ending{}, err
	}
	return resp.Ending, nil
}

func (a *ipcAdapter) Update(_ context.Context, id int64, fields map[string]string) (api.Ending, error) {
	resp, err := a.client.Update(id, fields)
	if err != nil {
		return api.Ending{}, err
	}
	return resp.Ending, nil
}

func (a *ipcAdapter) List(_ context.Context) ([]api.Ending, error) {
	resp, err := a.client.List()
	if err != nil {
		return nil, err
	}
	return resp.Endings, nil
}

func (a *ipcAdapter) Search(_ context.Context, keyword string) ([]api.Ending, error) {
	resp, err := a.client.Search(keyword)
	if err != nil {
		return nil, err
	}
	return resp.Endings, nil
}

func (a *ipcAdapter) Show(_ context.Context, target string) (api.Ending, error) {
	resp, err := a.client.Show(target)
	if err != nil {
		return api.Ending{}, err
	}
	return resp.Ending, nil
}

func (a *ipcAdapter) Stats(_ context.Context) (api.StatsView, error) {
	resp, err := a.client.Stats()
	if err != nil {
		return api.StatsView{}, err
	}
	return resp.Stats, nil
}

func (a *ipcAdapter) Cleanup(_ context.Context) ([]string, error) {
	resp, err := a.client.Cleanup()
	if err != nil {
		return nil, err
	}
	return resp.Removed, nil
}

func (a *ipcAdapter) Validate(_ context.Context, id int64) (api.ImageCheck, error) {
	resp, err := a.client.Validate(id)
	if err != nil {
		return api.ImageCheck{}, err
	}
	return resp.Check, nil
}

func (a *ipcAdapter) History(_ context.Context, userID, day string, limit int) ([]api.HistoryEntry, error) {
	resp, err := a.client.History(userID, day, limit)
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (a *ipcAdapter) Frequency(_ context.Context) ([]api.FrequencyRow, error) {
	resp, err := a.client.Frequency()
	if err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// --- direct adapter ---

// directAdapter opens the stores in-process for use without a daemon.
type directAdapter struct {
	service *api.Service
	hist    *history.Store
}

func newDirectAdapter(cfg *config.Config) (*directAdapter, error) {
	logger := logging.NewNop()

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
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := cat.Load(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	ledger, err := daily.New(daily.Options{
		DateFile: cfg.Paths.DateFile,
		MapFile:  cfg.Paths.MapFile,
	}, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := ledger.Load(); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	hist, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	service, err := api.NewService(cat, ledger, hist, logger)
	if err != nil {
		_ = hist.Close()
		return nil, err
	}
	return &directAdapter{service: service, hist: hist}, nil
}

func (a *directAdapter) close() {
	_ = a.hist.Close()
}

func (a *directAdapter) DailyPick(ctx context.Context, userID string) (api.DailyResult, error) {
	return a.service.DailyPick(ctx, userID)
}

func (a *directAdapter) Add(ctx context.Context, name, englishName, imageURL string, imageBytes []byte) (api.Ending, error) {
	var image *catalog.ImageSource
	if imageURL != "" || len(imageBytes) > 0 {
		image = &catalog.ImageSource{URL: imageURL, Bytes: imageBytes}
	}
	return a.service.AddEntry(ctx, name, englishName, image)
}

func (a *directAdapter) Remove(ctx context.Context, target string) (api.Ending, error) {
	return a.service.RemoveEntry(ctx, target)
}

func (a *directAdapter) Update(ctx context.Context, id int64, fields map[string]string) (api.Ending, error) {
	return a.service.UpdateEntry(ctx, id, fields)
}

func (a *directAdapter) List(ctx context.Context) ([]api.Ending, error) {
	return a.service.ListEntries(ctx), nil
}

func (a *directAdapter) Search(ctx context.Context, keyword string) ([]api.Ending, error) {
	return a.service.SearchEntries(ctx, keyword), nil
}

func (a *directAdapter) Show(ctx context.Context, target string) (api.Ending, error) {
	return a.service.ShowEntry(ctx, target)
}

func (a *directAdapter) Stats(ctx context.Context) (api.StatsView, error) {
	return a.service.Stats(ctx)
}

func (a *directAdapter) Cleanup(ctx context.Context) ([]string, error) {
	return a.service.Cleanup(ctx)
}

func (a *directAdapter) Validate(ctx context.Context, id int64) (api.ImageCheck, error) {
	return a.service.ValidateImage(ctx, id)
}

func (a *directAdapter) History(ctx context.Context, userID, day string, limit int) ([]api.HistoryEntry, error) {
	return a.service.History(ctx, userID, day, limit)
}

func (a *directAdapter) Frequency(ctx context.Context) ([]api.FrequencyRow, error) {
	return a.service.EntryFrequency(ctx)
}
