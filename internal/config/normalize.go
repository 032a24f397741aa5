package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelver/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeImport()
	if err := c.normalizeDownloadClients(); err != nil {
		return err
	}
	c.normalizeRemotePathMappings()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() error {
	var err error
	if strings.TrimSpace(c.Library.DatabasePath) == "" {
		c.Library.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Library.DatabasePath, err = expandPath(c.Library.DatabasePath); err != nil {
		return fmt.Errorf("library.database_path: %w", err)
	}
	if c.Library.SeedFile, err = expandPath(strings.TrimSpace(c.Library.SeedFile)); err != nil {
		return fmt.Errorf("library.seed_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.IgnoreFactors = normalizeList(c.Matching.IgnoreFactors)
	c.Matching.PreferredLanguages = language.NormalizeList(c.Matching.PreferredLanguages)
	if len(c.Matching.Weights) > 0 {
		weights := make(map[string]float64, len(c.Matching.Weights))
		for factor, weight := range c.Matching.Weights {
			weights[strings.ToLower(strings.TrimSpace(factor))] = weight
		}
		c.Matching.Weights = weights
	}
}

func (c *Config) normalizeImport() {
	exts := make([]string, 0, len(c.Import.Extensions))
	for _, ext := range normalizeList(c.Import.Extensions) {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	c.Import.Extensions = exts
	c.Import.Mode = strings.ToLower(strings.TrimSpace(c.Import.Mode))
	if c.Import.Mode == "" {
		c.Import.Mode = defaultImportMode
	}
	if c.Import.Workers <= 0 {
		c.Import.Workers = defaultImportWorkers
	}
}

func (c *Config) normalizeDownloadClients() error {
	for i := range c.DownloadClients {
		client := &c.DownloadClients[i]
		client.Name = strings.TrimSpace(client.Name)
		client.Type = strings.ToLower(strings.TrimSpace(client.Type))
		if client.Type == "" {
			client.Type = defaultClientType
		}
		if client.Name == "" {
			client.Name = client.Type
		}
		client.Category = strings.TrimSpace(client.Category)
		if client.SettleSeconds <= 0 {
			client.SettleSeconds = defaultSettleSeconds
		}
		var err error
		if client.WatchDir, err = expandPath(strings.TrimSpace(client.WatchDir)); err != nil {
			return fmt.Errorf("download_clients[%d].watch_dir: %w", i, err)
		}
	}
	return nil
}

func (c *Config) normalizeRemotePathMappings() {
	for i := range c.RemotePathMappings {
		mapping := &c.RemotePathMappings[i]
		mapping.Client = strings.TrimSpace(mapping.Client)
		mapping.RemotePath = strings.TrimSpace(mapping.RemotePath)
		mapping.LocalPath = strings.TrimSpace(mapping.LocalPath)
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(ntfyTopicEnv); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = defaultPollInterval
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkflowWorkers
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
