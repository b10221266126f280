package catalog

// Entry is one catalog record. Pic holds the image filename relative to the
// pictures directory and may be empty.
type Entry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	Pic         string `json:"pic"`
}

// HasImage reports whether the entry references an image file.
func (e Entry) HasImage() bool {
	return e.Pic != ""
}

// document is the persisted shape of the catalog.
type document struct {
	Datas []Entry `json:"datas"`
	MaxID int64   `json:"max_id"`
	Total int     `json:"total"`
}

// Stats summarizes the catalog.
type Stats struct {
	Total         int   `json:"total"`
	MaxID         int64 `json:"max_id"`
	WithImages    int   `json:"with_images"`
	WithoutImages int   `json:"without_images"`
}

// Validation reports the outcome of an image file check.
type Validation struct {
	Valid    bool   `json:"valid"`
	FileSize int64  `json:"file_size,omitempty"`
	Format   string `json:"format,omitempty"`
	Path     string `json:"path,omitempty"`
}

// ImageSource supplies image content for Add: either raw bytes or a URL to
// download. Bytes win when both are set.
type ImageSource struct {
	URL   string
	Bytes []byte
}

func (s *ImageSource) empty() bool {
	return s == nil || (s.URL == "" && len(s.Bytes) == 0)
}
