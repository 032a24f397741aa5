package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/daemonrun"
	"shelver/internal/importer"
	"shelver/internal/library"
)

type matchRow struct {
	File     string  `json:"file"`
	Result   string  `json:"result"`
	BookID   int64   `json:"book_id,omitempty"`
	Author   string  `json:"author,omitempty"`
	Title    string  `json:"title,omitempty"`
	Distance float64 `json:"distance"`
	Reason   string  `json:"reason"`
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var authorFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Show how downloaded files would match the catalogue without importing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				hint, err := resolveAuthor(cmd.Context(), store, authorFlag)
				if err != nil {
					return err
				}
				imp := daemonrun.NewImporter(cfg, store, commandLogger(cmd, cfg))
				decisions, err := imp.Evaluate(cmd.Context(), strings.TrimSpace(args[0]), hint)
				if err != nil {
					return err
				}

				rows := make([]matchRow, 0, len(decisions))
				for _, decision := range decisions {
					rows = append(rows, newMatchRow(decision, cfg.Matching.Threshold))
				}
				if jsonOutput {
					return writeJSON(cmd, rows)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No eligible files found")
					return nil
				}

				table := make([][]string, 0, len(rows))
				for _, row := range rows {
					table = append(table, []string{
						row.File,
						row.Result,
						orDash(row.Author),
						orDash(row.Title),
						fmt.Sprintf("%.3f", row.Distance),
						row.Reason,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"File", "Result", "Author", "Title", "Distance", "Reason"},
					table,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&authorFlag, "author", "", "Restrict candidates to this author")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newMatchRow(decision importer.Decision, threshold float64) matchRow {
	row := matchRow{
		File:   filepath.Base(decision.Observed.Path),
		Result: "rejected",
		Reason: decision.Ranking.Reason(threshold),
	}
	if decision.Empty {
		row.Result = "empty"
		row.Reason = "file is empty"
		return row
	}
	if best := decision.Ranking.Best; best != nil {
		row.Author = best.Candidate.AuthorName
		row.Title = best.Candidate.DisplayTitle()
		row.BookID = best.Candidate.BookID
		row.Distance = best.Normalized
	}
	if decision.Ranking.Accepted {
		row.Result = "accepted"
	}
	return row
}
