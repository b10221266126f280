package catalog

import "errors"

var (
	// ErrDuplicateName rejects an add or update whose display name is
	// already held by another entry.
	ErrDuplicateName = errors.New("name already exists")
	// ErrDuplicateEnglishName rejects an update whose alternate name is
	// already held by another entry. Add deliberately does not perform
	// this check; see the package notes on the historical asymmetry.
	ErrDuplicateEnglishName = errors.New("english name already exists")
	// ErrNotFound reports that no entry matches the given id or name.
	ErrNotFound = errors.New("ending not found")
	// ErrNoImage reports validation of an entry without an image.
	ErrNoImage = errors.New("ending has no image")
	// ErrFileMissing reports a referenced image file absent from disk.
	ErrFileMissing = errors.New("image file missing")
	// ErrFormatUnknown reports an image whose header matches no known
	// format signature.
	ErrFormatUnknown = errors.New("image format undetectable")
	// ErrImageSave wraps any download or write failure while persisting
	// an image during Add. The add is rejected whole; no entry is kept.
	ErrImageSave = errors.New("image save failed")
)
