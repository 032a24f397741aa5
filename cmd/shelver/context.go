package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/download"
	"shelver/internal/library"
	"shelver/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the library database for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *library.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := library.Open(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// commandLogger logs warnings and errors to the command's stderr.
func commandLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:  "warn",
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func resolveAuthor(ctx context.Context, store *library.Store, name string) (*download.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	author, err := store.FindAuthor(ctx, name)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, fmt.Errorf("author %q is not in the catalogue", name)
	}
	return &download.Author{ID: author.ID, Name: author.Name}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
