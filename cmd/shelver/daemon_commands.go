package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"shelver/internal/download"
	"shelver/internal/ipc"
)

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	socket := cfg.SocketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `shelver run`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var states []string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and tracked downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				downloads, err := client.Downloads(states...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, struct {
						*ipc.StatusResponse
						Downloads []ipc.Download `json:"downloads"`
					}{status, downloads})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Daemon: %s (pid %d)\n", runningLabel(status.Running), status.PID)
				if !status.LastPoll.IsZero() {
					fmt.Fprintf(out, "Last poll: %s (%d total)\n", status.LastPoll.Local().Format("2006-01-02 15:04:05"), status.Polls)
				}
				if status.LastError != "" {
					fmt.Fprintf(out, "Last error: %s\n", status.LastError)
				}
				var counts []string
				for _, state := range download.AllStates() {
					if n := status.ByState[string(state)]; n > 0 {
						counts = append(counts, fmt.Sprintf("%s=%d", state, n))
					}
				}
				if len(counts) > 0 {
					fmt.Fprintf(out, "Downloads: %s\n", strings.Join(counts, " "))
				}
				if len(downloads) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(downloads))
				for _, d := range downloads {
					rows = append(rows, []string{
						d.DownloadID,
						d.Title,
						d.State,
						strconv.Itoa(d.ExpectedBooks),
						orDash(strings.Join(d.StatusMessages, "\n")),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Download", "Title", "State", "Books", "Messages"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Only list downloads in these states")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <download-id>...",
		Short: "Re-run the import step for downloads that failed or are pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				var failed []string
				for _, id := range slices.Compact(args) {
					d, err := client.Retry(strings.TrimSpace(id))
					if err != nil {
						fmt.Fprintf(out, "%s: %v\n", id, err)
						failed = append(failed, id)
						continue
					}
					fmt.Fprintf(out, "%s: %s\n", d.DownloadID, d.State)
				}
				if len(failed) > 0 {
					return fmt.Errorf("retry failed for %d download(s)", len(failed))
				}
				return nil
			})
		},
	}
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
