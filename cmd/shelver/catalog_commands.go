package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/language"
	"shelver/internal/library"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the author, book and edition catalogue",
	}

	catalogCmd.AddCommand(newCatalogLoadCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))

	return catalogCmd
}

func newCatalogLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load [seed.yaml]",
		Short: "Load a YAML catalogue into the library database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				path := cfg.Library.SeedFile
				if len(args) == 1 {
					expanded, err := config.ExpandPath(strings.TrimSpace(args[0]))
					if err != nil {
						return fmt.Errorf("resolve seed path: %w", err)
					}
					path = expanded
				}
				if path == "" {
					return errors.New("no seed file given and library.seed_file is not set")
				}

				summary, err := store.LoadSeed(cmd.Context(), path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d authors, %d books, %d editions from %s\n",
					summary.Authors, summary.Books, summary.Editions, path)
				return nil
			})
		},
	}
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var authorFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued editions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				var authorID int64
				author, err := resolveAuthor(cmd.Context(), store, authorFlag)
				if err != nil {
					return err
				}
				if author != nil {
					authorID = author.ID
				}

				candidates, err := store.Candidates(cmd.Context(), authorID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, candidates)
				}
				if len(candidates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalogue is empty")
					return nil
				}

				rows := make([][]string, 0, len(candidates))
				for _, c := range candidates {
					year := "-"
					if c.Year > 0 {
						year = strconv.Itoa(c.Year)
					}
					rows = append(rows, []string{
						strconv.FormatInt(c.BookID, 10),
						c.AuthorName,
						c.DisplayTitle(),
						orDash(c.Format),
						language.DisplayName(c.Language),
						orDash(c.ISBN13),
						orDash(c.ASIN),
						year,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Book", "Author", "Title", "Format", "Language", "ISBN", "ASIN", "Year"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&authorFlag, "author", "", "Only list editions by this author")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
