package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Library contains configuration for the catalogue and history database.
type Library struct {
	DatabasePath string `toml:"database_path"`
	SeedFile     string `toml:"seed_file"`
}

// Matching contains configuration for candidate ranking.
type Matching struct {
	Threshold          float64            `toml:"threshold"`
	IgnoreFactors      []string           `toml:"ignore_factors"`
	PreferredLanguages []string           `toml:"preferred_languages"`
	Weights            map[string]float64 `toml:"weights"`
}

// Import contains configuration for the import collaborator.
type Import struct {
	Extensions []string `toml:"extensions"`
	Mode       string   `toml:"mode"`
	Workers    int      `toml:"workers"`
}

// DownloadClient describes one download client to poll.
type DownloadClient struct {
	Name          string `toml:"name"`
	Type          string `toml:"type"`
	WatchDir      string `toml:"watch_dir"`
	Category      string `toml:"category"`
	SettleSeconds int    `toml:"settle_seconds"`
}

// RemotePathMapping rewrites output paths reported by a download client.
type RemotePathMapping struct {
	Client     string `toml:"client"`
	RemotePath string `toml:"remote_path"`
	LocalPath  string `toml:"local_path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic         string `toml:"ntfy_topic"`
	RequestTimeout    int    `toml:"request_timeout"`
	DownloadCompleted bool   `toml:"download_completed"`
	ImportIncomplete  bool   `toml:"import_incomplete"`
}

// Workflow contains configuration for daemon timing and concurrency.
type Workflow struct {
	PollInterval int `toml:"poll_interval"`
	Workers      int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shelver.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Library: catalogue/history database and optional seed file
//   - Matching: acceptance threshold, ignored factors, weight overrides
//   - Import: file extensions, import mode, ranking workers
//   - DownloadClients: clients polled by the daemon
//   - RemotePathMappings: client path to local path translation
//   - Notifications: ntfy push notification settings
//   - Workflow: poll interval and tracker workers
//   - Logging: log format and level
type Config struct {
	Paths              Paths               `toml:"paths"`
	Library            Library             `toml:"library"`
	Matching           Matching            `toml:"matching"`
	Import             Import              `toml:"import"`
	DownloadClients    []DownloadClient    `toml:"download_clients"`
	RemotePathMappings []RemotePathMapping `toml:"remote_path_mappings"`
	Notifications      Notifications       `toml:"notifications"`
	Workflow           Workflow            `toml:"workflow"`
	Logging            Logging             `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelver.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Library.DatabasePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shelver.lock")
}

// SocketPath returns the daemon control socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "shelver.sock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
