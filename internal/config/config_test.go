package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shelver/internal/config"
	"shelver/internal/distance"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SHELVER_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "shelver", "config.toml"); resolved != want {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, want)
	}

	wantData := filepath.Join(tempHome, ".local", "share", "shelver")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Library.DatabasePath != filepath.Join(wantData, "shelver.db") {
		t.Fatalf("unexpected database path: %q", cfg.Library.DatabasePath)
	}
	if cfg.Matching.Threshold != 0.25 {
		t.Fatalf("unexpected threshold: %v", cfg.Matching.Threshold)
	}
	if cfg.Notifications.NtfyTopic != "" {
		t.Fatalf("expected empty ntfy topic, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.LockPath() != filepath.Join(wantData, "shelver.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadNtfyTopicFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHELVER_NTFY_TOPIC", " https://ntfy.sh/books ")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/books" {
		t.Fatalf("expected topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[matching]
threshold = 0.4
ignore_factors = ["ISBN_missing", " label "]
preferred_languages = ["ger", "eng", "ger"]

[matching.weights]
year = 2.5

[import]
extensions = [".EPUB", "m4b"]
mode = "Copy"

[[download_clients]]
type = "blackhole"
watch_dir = "` + filepath.Join(dir, "watch") + `"

[[remote_path_mappings]]
client = "blackhole"
remote_path = "/downloads"
local_path = "/mnt/downloads"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Matching.Threshold != 0.4 {
		t.Fatalf("unexpected threshold %v", cfg.Matching.Threshold)
	}
	if strings.Join(cfg.Matching.IgnoreFactors, ",") != "isbn_missing,label" {
		t.Fatalf("unexpected ignore factors %v", cfg.Matching.IgnoreFactors)
	}
	if strings.Join(cfg.Matching.PreferredLanguages, ",") != "deu,eng" {
		t.Fatalf("unexpected languages %v", cfg.Matching.PreferredLanguages)
	}
	if got := cfg.MatchWeights().Weight(distance.FactorYear); got != 2.5 {
		t.Fatalf("expected year weight override, got %v", got)
	}
	if got := cfg.MatchWeights().Weight(distance.FactorISBN); got != 10 {
		t.Fatalf("expected default isbn weight, got %v", got)
	}
	if strings.Join(cfg.Import.Extensions, ",") != "epub,m4b" {
		t.Fatalf("unexpected extensions %v", cfg.Import.Extensions)
	}
	if cfg.Import.Mode != "copy" {
		t.Fatalf("unexpected import mode %q", cfg.Import.Mode)
	}
	if len(cfg.DownloadClients) != 1 {
		t.Fatalf("expected one download client, got %d", len(cfg.DownloadClients))
	}
	client := cfg.DownloadClients[0]
	if client.Name != "blackhole" || client.SettleSeconds != 30 {
		t.Fatalf("unexpected client defaults %+v", client)
	}
	if cfg.Library.DatabasePath != filepath.Join(dir, "data", "shelver.db") {
		t.Fatalf("unexpected database path %q", cfg.Library.DatabasePath)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"threshold zero", func(c *config.Config) { c.Matching.Threshold = 0 }, "matching.threshold"},
		{"threshold above one", func(c *config.Config) { c.Matching.Threshold = 1.5 }, "matching.threshold"},
		{"unknown ignore factor", func(c *config.Config) { c.Matching.IgnoreFactors = []string{"colour"} }, "unknown factor"},
		{"negative weight", func(c *config.Config) { c.Matching.Weights = map[string]float64{"year": -1} }, "non-negative"},
		{"bad import mode", func(c *config.Config) { c.Import.Mode = "hardlink" }, "import.mode"},
		{"bad client type", func(c *config.Config) {
			c.DownloadClients = []config.DownloadClient{{Name: "x", Type: "torrent", WatchDir: "/w"}}
		}, "type must be one of"},
		{"missing watch dir", func(c *config.Config) {
			c.DownloadClients = []config.DownloadClient{{Name: "x", Type: "blackhole"}}
		}, "watch_dir"},
		{"duplicate client", func(c *config.Config) {
			c.DownloadClients = []config.DownloadClient{
				{Name: "x", Type: "blackhole", WatchDir: "/a"},
				{Name: "x", Type: "blackhole", WatchDir: "/b"},
			}
		}, "not unique"},
		{"incomplete mapping", func(c *config.Config) {
			c.RemotePathMappings = []config.RemotePathMapping{{RemotePath: "/a"}}
		}, "remote_path_mappings"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Matching.Threshold != config.Default().Matching.Threshold {
		t.Fatalf("sample threshold %v differs from default", cfg.Matching.Threshold)
	}
	if len(cfg.DownloadClients) != 1 || cfg.DownloadClients[0].Type != "blackhole" {
		t.Fatalf("unexpected sample clients %+v", cfg.DownloadClients)
	}
}
