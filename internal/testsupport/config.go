package testsupport

import (
	"path/filepath"
	"testing"

	"shelver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Library.DatabasePath = filepath.Join(base, "data", "shelver.db")
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Import.Extensions = []string{"epub", "mobi", "pdf", "m4b", "mp3"}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBlackhole adds a blackhole download client watching a directory under
// the test base directory.
func WithBlackhole(name, category string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DownloadClients = append(b.cfg.DownloadClients, config.DownloadClient{
			Name:          name,
			Type:          "blackhole",
			WatchDir:      filepath.Join(b.baseDir, "downloads", name),
			Category:      category,
			SettleSeconds: 1,
		})
	}
}

// WithNtfyTopic sets the ntfy topic URL on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
