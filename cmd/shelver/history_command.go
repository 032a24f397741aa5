package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/library"
)

type historyRow struct {
	ID          int64             `json:"id"`
	Date        time.Time         `json:"date"`
	DownloadID  string            `json:"download_id"`
	EventType   string            `json:"event_type"`
	BookID      int64             `json:"book_id,omitempty"`
	Book        string            `json:"book,omitempty"`
	SourceTitle string            `json:"source_title,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [download-id]",
		Short: "Show download history, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				var (
					records []library.HistoryRecord
					err     error
				)
				if len(args) == 1 {
					records, err = store.FindByDownloadID(cmd.Context(), strings.TrimSpace(args[0]))
				} else {
					records, err = store.Recent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}

				rows, err := historyRows(cmd.Context(), store, records)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, rows)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history recorded")
					return nil
				}

				table := make([][]string, 0, len(rows))
				for _, row := range rows {
					table = append(table, []string{
						row.Date.Local().Format("2006-01-02 15:04:05"),
						row.DownloadID,
						row.EventType,
						orDash(row.Book),
						orDash(row.SourceTitle),
						orDash(historyDetail(row)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Date", "Download", "Event", "Book", "Source", "Detail"},
					table,
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of recent records to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func historyRows(ctx context.Context, store *library.Store, records []library.HistoryRecord) ([]historyRow, error) {
	titles := make(map[int64]string)
	rows := make([]historyRow, 0, len(records))
	for _, record := range records {
		row := historyRow{
			ID:          record.ID,
			Date:        record.Date,
			DownloadID:  record.DownloadID,
			EventType:   string(record.EventType),
			BookID:      record.BookID,
			SourceTitle: record.SourceTitle,
			Data:        record.Data,
		}
		if record.BookID > 0 {
			title, ok := titles[record.BookID]
			if !ok {
				book, err := store.BookByID(ctx, record.BookID)
				if err != nil {
					return nil, err
				}
				if book != nil {
					title = book.Title
				} else {
					title = "#" + strconv.FormatInt(record.BookID, 10)
				}
				titles[record.BookID] = title
			}
			row.Book = title
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func historyDetail(row historyRow) string {
	switch {
	case row.Data["path"] != "":
		return row.Data["path"]
	case row.Data["status_messages"] != "":
		return strings.ReplaceAll(row.Data["status_messages"], "\n", "; ")
	default:
		return ""
	}
}
