package ipc

import "doroending/internal/api"

// request carries the correlation id every call includes.
type request struct {
	CorrelationID string `json:"correlation_id"`
}

// DailyPickRequest asks for the calling user's ending of the day.
type DailyPickRequest struct {
	request
	UserID string `json:"user_id"`
}

// DailyPickResponse returns the assigned ending.
type DailyPickResponse struct {
	Result api.DailyResult `json:"result"`
}

// AddRequest creates a catalog entry. ImageURL and ImageBytes are both
// optional; bytes win when both are set.
type AddRequest struct {
	request
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageBytes  []byte `json:"image_bytes,omitempty"`
}

// AddResponse returns the created entry.
type AddResponse struct {
	Ending api.Ending `json:"ending"`
}

// RemoveRequest deletes an entry by id (all digits) or display name.
type RemoveRequest struct {
	request
	Target string `json:"target"`
}

// RemoveResponse returns the deleted entry.
type RemoveResponse struct {
	Ending api.Ending `json:"ending"`
}

// UpdateRequest changes fields on an entry.
type UpdateRequest struct {
	request
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
}

// UpdateResponse returns the entry after the change.
type UpdateResponse struct {
	Ending api.Ending `json:"ending"`
}

// ListRequest lists all entries.
type ListRequest struct {
	request
}

// ListResponse returns the entries in stored order.
type ListResponse struct {
	Endings []api.Ending `json:"endings"`
}

// SearchRequest finds entries whose names contain a keyword.
type SearchRequest struct {
	request
	Keyword string `json:"keyword"`
}

// SearchResponse returns matching entries.
type SearchResponse struct {
	Endings []api.Ending `json:"endings"`
}

// ShowRequest fetches a single entry by id or display name.
type ShowRequest struct {
	request
	Target string `json:"target"`
}

// ShowResponse returns the entry.
type ShowResponse struct {
	Ending api.Ending `json:"ending"`
}

// StatsRequest asks for catalog and assignment counters.
type StatsRequest struct {
	request
}

// StatsResponse returns the merged counters.
type StatsResponse struct {
	Stats api.StatsView `json:"stats"`
}

// CleanupRequest removes orphaned image files.
type CleanupRequest struct {
	request
}

// CleanupResponse lists the deleted filenames.
type CleanupResponse struct {
	Removed []string `json:"removed"`
}

// ValidateRequest checks the stored image of an entry.
type ValidateRequest struct {
	request
	ID int64 `json:"id"`
}

// ValidateResponse returns the validation outcome.
type ValidateResponse struct {
	Check api.ImageCheck `json:"check"`
}

// HistoryRequest queries past assignments. UserID wins over Day; with
// neither set the current day is used.
type HistoryRequest struct {
	request
	UserID string `json:"user_id,omitempty"`
	Day    string `json:"day,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// HistoryResponse returns the matching assignment rows.
type HistoryResponse struct {
	Entries []api.HistoryEntry `json:"entries"`
}

// FrequencyRequest asks for per-entry pick counts.
type FrequencyRequest struct {
	request
}

// FrequencyResponse returns pick counts, most picked first.
type FrequencyResponse struct {
	Rows []api.FrequencyRow `json:"rows"`
}

// StatusRequest asks for daemon runtime information.
type StatusRequest struct {
	request
}

// StatusResponse mirrors daemon.Status over the wire.
type StatusResponse struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	SessionID     string `json:"session_id"`
	StartedAt     string `json:"started_at"`
	CatalogPath   string `json:"catalog_path"`
	LockPath      string `json:"lock_path"`
	SocketPath    string `json:"socket_path"`
	EntryCount    int    `json:"entry_count"`
	AssignedToday int    `json:"assigned_today"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct {
	request
}

// StopResponse acknowledges the shutdown.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
