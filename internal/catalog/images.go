package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"doroending/internal/imagefetch"
	"doroending/internal/logging"
)

// saveImage persists the image for an entry about to be created and returns
// the path written. Every failure is wrapped in ErrImageSave so Add rejects
// the whole operation. Callers hold the store mutex.
func (s *Store) saveImage(ctx context.Context, id int64, englishName string, image *ImageSource) (string, error) {
	if s.fetcher == nil {
		return "", fmt.Errorf("%w: no image fetcher configured", ErrImageSave)
	}

	stem := s.imageStem(id, englishName)
	var (
		path string
		err  error
	)
	if len(image.Bytes) > 0 {
		path, err = s.fetcher.Write(stem, image.Bytes)
	} else {
		path, err = s.fetcher.Download(ctx, image.URL, stem)
	}
	if err != nil {
		s.logger.Error("image save failed",
			logging.Int64(logging.FieldEntryID, id),
			logging.Error(err),
			logging.String(logging.FieldEventType, "image_save_failed"))
		return "", fmt.Errorf("%w: %w", ErrImageSave, err)
	}
	return path, nil
}

// CleanupImages deletes files in the pictures directory that no live entry
// references and returns their names. Individual deletion failures are
// logged and skipped; they do not abort the batch.
func (s *Store) CleanupImages() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[string]struct{}, len(s.doc.Datas))
	for _, entry := range s.doc.Datas {
		if entry.HasImage() {
			used[entry.Pic] = struct{}{}
		}
	}

	dirEntries, err := os.ReadDir(s.picDir)
	if err != nil {
		return nil, fmt.Errorf("read pictures directory: %w", err)
	}

	var cleaned []string
	failed := 0
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if _, ok := used[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.picDir, name)); err != nil {
			failed++
			s.logger.Error("image cleanup failed",
				logging.String(logging.FieldPath, name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "image_cleanup_failed"))
			continue
		}
		cleaned = append(cleaned, name)
	}

	if failed > 0 {
		s.logger.Warn("image cleanup finished with failures",
			logging.Int("cleaned", len(cleaned)),
			logging.Int("failed", failed))
	} else {
		s.logger.Info("image cleanup finished",
			logging.Int("cleaned", len(cleaned)))
	}
	return cleaned, nil
}

// ValidateImage checks the image file behind the entry with the given id:
// existence, size against the configured limit, and a recognizable format
// signature in its header bytes.
func (s *Store) ValidateImage(id int64) (Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byIDLocked(id)
	if !ok {
		return Validation{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if !entry.HasImage() {
		return Validation{}, ErrNoImage
	}

	picPath := filepath.Join(s.picDir, entry.Pic)
	info, err := os.Stat(picPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Validation{Path: picPath}, fmt.Errorf("%w: %s", ErrFileMissing, picPath)
		}
		return Validation{Path: picPath}, fmt.Errorf("stat image: %w", err)
	}

	if s.fetcher != nil && info.Size() > s.fetcher.MaxBytes() {
		return Validation{FileSize: info.Size(), Path: picPath},
			fmt.Errorf("%w: %d bytes", imagefetch.ErrTooLarge, info.Size())
	}

	header, err := readHeader(picPath, imagefetch.HeaderLen)
	if err != nil {
		return Validation{FileSize: info.Size(), Path: picPath}, fmt.Errorf("read image header: %w", err)
	}
	format := imagefetch.DetectFormat(header)
	if format == "" {
		return Validation{FileSize: info.Size(), Path: picPath}, ErrFormatUnknown
	}

	return Validation{
		Valid:    true,
		FileSize: info.Size(),
		Format:   format,
		Path:     picPath,
	}, nil
}

func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, n)
	read, err := f.Read(header)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return header[:read], nil
}
