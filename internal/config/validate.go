package config

import (
	"errors"
	"fmt"
	"slices"

	"shelver/internal/distance"
)

var (
	validImportModes = []string{"auto", "move", "copy"}
	validClientTypes = []string{"blackhole"}
	validLogFormats  = []string{"console", "json"}
	validLogLevels   = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateDownloadClients(); err != nil {
		return err
	}
	if err := c.validateRemotePathMappings(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be greater than 0 and at most 1")
	}
	defaults := distance.DefaultWeights()
	for _, factor := range c.Matching.IgnoreFactors {
		if !defaults.Has(factor) {
			return fmt.Errorf("matching.ignore_factors: unknown factor %q", factor)
		}
	}
	for factor, weight := range c.Matching.Weights {
		if !defaults.Has(factor) {
			return fmt.Errorf("matching.weights: unknown factor %q", factor)
		}
		if weight < 0 {
			return fmt.Errorf("matching.weights.%s must be non-negative", factor)
		}
	}
	return nil
}

func (c *Config) validateImport() error {
	if !slices.Contains(validImportModes, c.Import.Mode) {
		return fmt.Errorf("import.mode must be one of %v", validImportModes)
	}
	return nil
}

func (c *Config) validateDownloadClients() error {
	seen := make(map[string]struct{}, len(c.DownloadClients))
	for i, client := range c.DownloadClients {
		if !slices.Contains(validClientTypes, client.Type) {
			return fmt.Errorf("download_clients[%d].type must be one of %v", i, validClientTypes)
		}
		if client.WatchDir == "" {
			return fmt.Errorf("download_clients[%d].watch_dir must be set", i)
		}
		if _, ok := seen[client.Name]; ok {
			return fmt.Errorf("download_clients[%d].name %q is not unique", i, client.Name)
		}
		seen[client.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateRemotePathMappings() error {
	for i, mapping := range c.RemotePathMappings {
		if mapping.RemotePath == "" || mapping.LocalPath == "" {
			return fmt.Errorf("remote_path_mappings[%d] requires remote_path and local_path", i)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	if c.Workflow.Workers <= 0 {
		return errors.New("workflow.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v", validLogFormats)
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v", validLogLevels)
	}
	return nil
}
