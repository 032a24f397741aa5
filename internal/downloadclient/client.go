// Package downloadclient reports the items held by download clients.
package downloadclient

import (
	"context"
	"fmt"
	"log/slog"

	"shelver/internal/config"
	"shelver/internal/download"
)

// Client lists the downloads a download client currently holds.
type Client interface {
	Name() string
	Items(ctx context.Context) ([]download.Item, error)
}

// FromConfig builds one client per configured download client.
func FromConfig(cfg *config.Config, logger *slog.Logger) ([]Client, error) {
	clients := make([]Client, 0, len(cfg.DownloadClients))
	for _, dc := range cfg.DownloadClients {
		switch dc.Type {
		case "blackhole":
			clients = append(clients, NewBlackhole(dc, logger))
		default:
			return nil, fmt.Errorf("download client %q: unsupported type %q", dc.Name, dc.Type)
		}
	}
	return clients, nil
}
