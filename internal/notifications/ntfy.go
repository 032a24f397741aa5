package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"shelver/internal/config"
)

const userAgent = "Shelver-Go/0.1.0"

// NewService builds a publisher backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Publisher {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Noop()
	}

	timeout := cfg.NtfyTimeout()
	if timeout <= 0 {
		timeout = config.Default().NtfyTimeout()
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Kind]bool{
			KindDownloadCompleted: cfg.Notifications.DownloadCompleted,
			KindImportIncomplete:  cfg.Notifications.ImportIncomplete,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Kind]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event) error {
	if !n.enabled[event.Kind] {
		return nil
	}
	data, ok := formatEvent(event)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func formatEvent(event Event) (payload, bool) {
	td := event.Download
	title := strings.TrimSpace(td.Item.Title)
	if title == "" {
		title = td.DownloadID
	}
	switch event.Kind {
	case KindDownloadCompleted:
		message := fmt.Sprintf("📚 Imported: %s", title)
		if td.RemoteBook != nil && td.RemoteBook.Author != nil && td.RemoteBook.Author.Name != "" {
			message = fmt.Sprintf("%s\nAuthor: %s", message, td.RemoteBook.Author.Name)
		}
		return payload{
			title:   "Shelver - Imported",
			message: message,
			tags:    []string{"shelver", "import", "completed"},
		}, true
	case KindImportIncomplete:
		var builder strings.Builder
		builder.WriteString("⚠️ Import incomplete: ")
		builder.WriteString(title)
		for _, msg := range td.StatusMessages {
			builder.WriteString("\n")
			builder.WriteString(msg.String())
		}
		return payload{
			title:    "Shelver - Import Incomplete",
			message:  builder.String(),
			tags:     []string{"shelver", "import", "warning"},
			priority: "high",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
