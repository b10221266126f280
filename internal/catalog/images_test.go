package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"doroending/internal/imagefetch"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestAddWithBytesWritesImage(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.Add(context.Background(), "图片结局", "Picture End", &ImageSource{Bytes: jpegBytes})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if entry.Pic != "00000001_Picture End.jpg" {
		t.Errorf("pic = %q", entry.Pic)
	}
	if _, err := os.Stat(store.ImagePath(entry)); err != nil {
		t.Errorf("image file not written: %v", err)
	}
}

func TestAddRejectsOversizeBytes(t *testing.T) {
	base := t.TempDir()
	store, err := New(Options{
		DataFile: filepath.Join(base, "doroendings.json"),
		PicDir:   filepath.Join(base, "pics"),
		Fetcher:  imagefetch.New(imagefetch.Options{MaxBytes: 8}, nil),
	}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = store.Add(context.Background(), "大图", "Big End", &ImageSource{Bytes: make([]byte, 9)})
	if !errors.Is(err, ErrImageSave) {
		t.Fatalf("expected ErrImageSave, got %v", err)
	}
	if !errors.Is(err, imagefetch.ErrTooLarge) {
		t.Errorf("expected wrapped ErrTooLarge, got %v", err)
	}
	if stats := store.Statistics(); stats.Total != 0 || stats.MaxID != 0 {
		t.Errorf("failed add must not commit an entry: %+v", stats)
	}
}

func TestCleanupImagesRemovesOnlyOrphans(t *testing.T) {
	store := newTestStore(t)
	entry, err := store.Add(context.Background(), "存图", "Kept End", &ImageSource{Bytes: jpegBytes})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	orphans := []string{"00000042_orphan.jpg", "stray.png"}
	for _, name := range orphans {
		if err := os.WriteFile(filepath.Join(store.PicDir(), name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write orphan: %v", err)
		}
	}

	cleaned, err := store.CleanupImages()
	if err != nil {
		t.Fatalf("CleanupImages failed: %v", err)
	}
	slices.Sort(cleaned)
	slices.Sort(orphans)
	if !slices.Equal(cleaned, orphans) {
		t.Errorf("cleaned = %v, want %v", cleaned, orphans)
	}
	if _, err := os.Stat(store.ImagePath(entry)); err != nil {
		t.Errorf("referenced image was deleted: %v", err)
	}
}

func TestValidateImage(t *testing.T) {
	store := newTestStore(t)
	entry, err := store.Add(context.Background(), "验图", "Checked End", &ImageSource{Bytes: jpegBytes})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	report, err := store.ValidateImage(entry.ID)
	if err != nil {
		t.Fatalf("ValidateImage failed: %v", err)
	}
	if !report.Valid || report.Format != "jpeg" {
		t.Errorf("report = %+v", report)
	}
	if report.FileSize != int64(len(jpegBytes)) {
		t.Errorf("file size = %d, want %d", report.FileSize, len(jpegBytes))
	}
}

func TestValidateImageFailureKinds(t *testing.T) {
	store := newTestStore(t)
	noImage := mustAdd(t, store, "无图", "Bare End")
	withImage, err := store.Add(context.Background(), "有图", "Gone End", &ImageSource{Bytes: jpegBytes})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := store.ValidateImage(404); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.ValidateImage(noImage.ID); !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}

	// Manually delete the file from disk: validation reports it missing
	// instead of failing hard.
	if err := os.Remove(store.ImagePath(withImage)); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	if _, err := store.ValidateImage(withImage.ID); !errors.Is(err, ErrFileMissing) {
		t.Errorf("expected ErrFileMissing, got %v", err)
	}

	// Unrecognizable header bytes.
	if err := os.WriteFile(store.ImagePath(withImage), []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write bogus image: %v", err)
	}
	if _, err := store.ValidateImage(withImage.ID); !errors.Is(err, ErrFormatUnknown) {
		t.Errorf("expected ErrFormatUnknown, got %v", err)
	}
}
