package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var downloadID string
	var component string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{
				DownloadID: strings.TrimSpace(downloadID),
				Component:  strings.TrimSpace(component),
			}
			if level != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --level %q", level)
				}
			}

			path := filepath.Join(cfg.Paths.LogDir, "shelver.log")
			out := cmd.OutOrStdout()
			tail, offset, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			printLogLines(out, tail, filter)
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 500*time.Millisecond, func(batch []string) error {
				printLogLines(out, batch, filter)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&downloadID, "download", "", "Only show entries for this download id")
	cmd.Flags().StringVar(&component, "component", "", "Only show entries from this component")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}

func printLogLines(out io.Writer, lines []string, filter logs.Filter) {
	for _, line := range lines {
		entry, err := logs.Parse(line)
		if err != nil {
			if filter == (logs.Filter{}) {
				fmt.Fprintln(out, line)
			}
			continue
		}
		if filter.Match(entry) {
			fmt.Fprintln(out, entry.String())
		}
	}
}
