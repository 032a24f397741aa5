package ipc

import (
	"time"

	"shelver/internal/download"
)

// serviceName is the RPC receiver name registered by the server.
const serviceName = "Shelver"

// Download is the wire form of a tracked download.
type Download struct {
	DownloadID     string    `json:"download_id"`
	Client         string    `json:"client"`
	Title          string    `json:"title"`
	State          string    `json:"state"`
	Status         string    `json:"status"`
	ItemStatus     string    `json:"item_status"`
	ImportPath     string    `json:"import_path,omitempty"`
	Author         string    `json:"author,omitempty"`
	ExpectedBooks  int       `json:"expected_books"`
	StatusMessages []string  `json:"status_messages,omitempty"`
	Added          time.Time `json:"added"`
}

// FromTracked converts a tracked download snapshot.
func FromTracked(td download.TrackedDownload) Download {
	out := Download{
		DownloadID:    td.DownloadID,
		Client:        td.Item.Client,
		Title:         td.Item.Title,
		State:         string(td.State),
		Status:        string(td.Status),
		ItemStatus:    string(td.Item.Status),
		ImportPath:    td.ImportPath,
		ExpectedBooks: td.ExpectedBookCount(),
		Added:         td.Added,
	}
	if td.RemoteBook != nil && td.RemoteBook.Author != nil {
		out.Author = td.RemoteBook.Author.Name
	}
	for _, msg := range td.StatusMessages {
		out.StatusMessages = append(out.StatusMessages, msg.String())
	}
	return out
}

// StatusRequest asks for daemon status.
type StatusRequest struct{}

// StatusResponse summarises the daemon and its workflow.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	LastError    string         `json:"last_error,omitempty"`
	LastPoll     time.Time      `json:"last_poll"`
	Polls        int            `json:"polls"`
	ByState      map[string]int `json:"by_state"`
	DatabasePath string         `json:"database_path"`
	LockPath     string         `json:"lock_path"`
}

// DownloadsRequest lists tracked downloads, optionally limited to states.
type DownloadsRequest struct {
	States []string `json:"states,omitempty"`
}

// DownloadsResponse carries tracked downloads.
type DownloadsResponse struct {
	Downloads []Download `json:"downloads"`
}

// RetryRequest re-runs the import step for one download.
type RetryRequest struct {
	DownloadID string `json:"download_id"`
}

// RetryResponse reports the download state after the retry.
type RetryResponse struct {
	Download Download `json:"download"`
}
