package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/library"
)

func newGrabCommand(ctx *commandContext) *cobra.Command {
	var authorFlag string
	var bookFlags []string
	var titleFlag string

	cmd := &cobra.Command{
		Use:   "grab <download-id>",
		Short: "Record that a download was grabbed for catalogued books",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(authorFlag) == "" {
				return errors.New("--author is required")
			}
			if len(bookFlags) == 0 {
				return errors.New("at least one --book is required")
			}
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				downloadID := strings.TrimSpace(args[0])
				author, err := resolveAuthor(cmd.Context(), store, authorFlag)
				if err != nil {
					return err
				}
				books, err := store.BooksByAuthor(cmd.Context(), author.ID)
				if err != nil {
					return err
				}

				bookIDs := make([]int64, 0, len(bookFlags))
				for _, title := range bookFlags {
					id, ok := findBookID(books, title)
					if !ok {
						return fmt.Errorf("book %q by %s is not in the catalogue", title, author.Name)
					}
					bookIDs = append(bookIDs, id)
				}

				sourceTitle := strings.TrimSpace(titleFlag)
				if sourceTitle == "" {
					sourceTitle = author.Name + " - " + strings.Join(bookFlags, ", ")
				}
				if err := store.Grab(cmd.Context(), downloadID, sourceTitle, author.ID, bookIDs...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded grab of %d book(s) for download %s\n", len(bookIDs), downloadID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&authorFlag, "author", "", "Author the download belongs to")
	cmd.Flags().StringArrayVar(&bookFlags, "book", nil, "Book title expected in the download (repeatable)")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Release title recorded in history")
	return cmd
}

func findBookID(books []library.Book, title string) (int64, bool) {
	title = strings.TrimSpace(title)
	for _, book := range books {
		if strings.EqualFold(book.Title, title) {
			return book.ID, true
		}
	}
	return 0, false
}
