package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/daemonrun"
	"shelver/internal/download"
	"shelver/internal/library"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var downloadID string
	var authorFlag string
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import downloaded files manually and record them in history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				path := strings.TrimSpace(args[0])
				id := strings.TrimSpace(downloadID)
				if id == "" {
					id = "manual:" + filepath.Base(path)
				}

				hint, err := resolveAuthor(cmd.Context(), store, authorFlag)
				if err != nil {
					return err
				}
				if hint == nil {
					remote, err := store.GrabbedBooks(cmd.Context(), id)
					if err != nil {
						return err
					}
					if remote != nil {
						hint = remote.Author
					}
				}

				mode := strings.TrimSpace(modeFlag)
				if mode == "" {
					mode = cfg.Import.Mode
				}
				item := download.Item{
					DownloadID: id,
					Client:     "manual",
					Title:      filepath.Base(path),
					OutputPath: path,
					Status:     download.ItemCompleted,
				}
				imp := daemonrun.NewImporter(cfg, store, commandLogger(cmd, cfg))
				results, err := imp.ProcessPath(cmd.Context(), path, mode, hint, item)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No files found are eligible for import in %s\n", path)
					return nil
				}

				rows := make([][]string, 0, len(results))
				for _, result := range results {
					book := "-"
					if result.Book != nil {
						book = result.Book.Title
					}
					rows = append(rows, []string{
						filepath.Base(result.Path),
						string(result.Kind),
						orDash(book),
						orDash(strings.Join(result.Errors, "; ")),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Result", "Book", "Errors"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&downloadID, "download-id", "", "Download id to record the import under")
	cmd.Flags().StringVar(&authorFlag, "author", "", "Restrict candidates to this author")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Import mode recorded in history (auto, move, copy)")
	return cmd
}
