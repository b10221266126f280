package testsupport

import (
	"context"
	"testing"

	"doroending/internal/catalog"
	"doroending/internal/config"
)

// MustOpenCatalog opens a catalog store rooted in the test config's paths.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.New(catalog.Options{
		DataFile:          cfg.Paths.CatalogFile,
		PicDir:            cfg.Paths.PicsDir,
		MaxFilenameLength: cfg.Images.MaxFilenameLength,
	}, nil)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return store
}

// SeedEntries adds entries named after the given display names and flushes
// the catalog.
func SeedEntries(t testing.TB, store *catalog.Store, names ...string) []catalog.Entry {
	t.Helper()

	entries := make([]catalog.Entry, 0, len(names))
	for _, name := range names {
		entry, err := store.Add(context.Background(), name, name+" End", nil)
		if err != nil {
			t.Fatalf("store.Add(%q): %v", name, err)
		}
		entries = append(entries, entry)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return entries
}
