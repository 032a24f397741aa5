package download

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// State is the lifecycle position of a tracked download.
type State string

const (
	StateDownloading   State = "downloading"
	StateImportPending State = "import_pending"
	StateImporting     State = "importing"
	StateImported      State = "imported"
	StateImportFailed  State = "import_failed"
)

var allStates = []State{
	StateDownloading,
	StateImportPending,
	StateImporting,
	StateImported,
	StateImportFailed,
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	return slices.Clone(allStates)
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(allStates, normalized) {
		return normalized, true
	}
	return "", false
}

// IsTerminal reports whether the tracker will not advance the state on its own.
func (s State) IsTerminal() bool {
	return s == StateImported || s == StateImportFailed
}

// Status summarises whether a tracked download needs attention.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// ItemStatus is the state reported by the download client.
type ItemStatus string

const (
	ItemQueued      ItemStatus = "queued"
	ItemPaused      ItemStatus = "paused"
	ItemDownloading ItemStatus = "downloading"
	ItemCompleted   ItemStatus = "completed"
	ItemFailed      ItemStatus = "failed"
	ItemWarning     ItemStatus = "warning"
)

// Item is one entry reported by a download client.
type Item struct {
	DownloadID    string
	Client        string
	Title         string
	Category      string
	Status        ItemStatus
	OutputPath    string
	TotalSize     int64
	RemainingSize int64
}

// Book is the slice of catalogue identity the tracker needs per expected work.
type Book struct {
	ID       int64
	AuthorID int64
	Title    string
}

// Author identifies the catalogue author a download was grabbed for.
type Author struct {
	ID   int64
	Name string
}

// RemoteBook is the resolved intent of a download: which author and which
// books it was expected to deliver.
type RemoteBook struct {
	Author *Author
	Books  []Book
}

// ExpectedBookCount returns the number of books the download should deliver.
func (r *RemoteBook) ExpectedBookCount() int {
	if r == nil {
		return 0
	}
	return len(r.Books)
}

// StatusMessage groups messages about one title or file.
type StatusMessage struct {
	Title    string
	Messages []string
}

// String renders "title: msg; msg".
func (m StatusMessage) String() string {
	if len(m.Messages) == 0 {
		return m.Title
	}
	return m.Title + ": " + strings.Join(m.Messages, "; ")
}

// TrackedDownload is the lifecycle record for one external download.
type TrackedDownload struct {
	DownloadID     string
	State          State
	Status         Status
	Item           Item
	ImportPath     string
	RemoteBook     *RemoteBook
	StatusMessages []StatusMessage
	Added          time.Time
}

// NewTrackedDownload starts tracking item in the Downloading state.
func NewTrackedDownload(item Item, remote *RemoteBook) *TrackedDownload {
	return &TrackedDownload{
		DownloadID: item.DownloadID,
		State:      StateDownloading,
		Status:     StatusOK,
		Item:       item,
		RemoteBook: remote,
		Added:      time.Now().UTC(),
	}
}

// Warn replaces the status messages with a single formatted message about
// the download title and flags the download as needing attention.
func (t *TrackedDownload) Warn(format string, args ...any) {
	t.WarnMessages(StatusMessage{
		Title:    t.Item.Title,
		Messages: []string{fmt.Sprintf(format, args...)},
	})
}

// WarnMessages replaces the status messages with msgs.
func (t *TrackedDownload) WarnMessages(msgs ...StatusMessage) {
	t.Status = StatusWarning
	t.StatusMessages = slices.Clone(msgs)
}

// ClearWarnings resets the status to OK.
func (t *TrackedDownload) ClearWarnings() {
	t.Status = StatusOK
	t.StatusMessages = nil
}

// ExpectedBookCount returns the number of books the download should deliver,
// never less than one.
func (t *TrackedDownload) ExpectedBookCount() int {
	return max(1, t.RemoteBook.ExpectedBookCount())
}

// Clone returns a deep copy safe to hand to other goroutines.
func (t *TrackedDownload) Clone() TrackedDownload {
	cp := *t
	cp.StatusMessages = make([]StatusMessage, len(t.StatusMessages))
	for i, msg := range t.StatusMessages {
		cp.StatusMessages[i] = StatusMessage{Title: msg.Title, Messages: slices.Clone(msg.Messages)}
	}
	if t.RemoteBook != nil {
		remote := *t.RemoteBook
		remote.Books = slices.Clone(t.RemoteBook.Books)
		if t.RemoteBook.Author != nil {
			author := *t.RemoteBook.Author
			remote.Author = &author
		}
		cp.RemoteBook = &remote
	}
	return cp
}
