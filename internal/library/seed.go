package library

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document accepted by LoadSeed.
type Seed struct {
	Authors []SeedAuthor `yaml:"authors"`
}

// SeedAuthor is one author entry of a seed file.
type SeedAuthor struct {
	Name      string     `yaml:"name"`
	Aliases   []string   `yaml:"aliases"`
	ForeignID string     `yaml:"foreign_id"`
	Books     []SeedBook `yaml:"books"`
}

// SeedBook is one book entry of a seed file.
type SeedBook struct {
	Title          string        `yaml:"title"`
	ForeignID      string        `yaml:"foreign_id"`
	Year           int           `yaml:"year"`
	Disambiguation string        `yaml:"disambiguation"`
	Editions       []SeedEdition `yaml:"editions"`
}

// SeedEdition is one edition entry of a seed file.
type SeedEdition struct {
	Title      string `yaml:"title"`
	ISBN13     string `yaml:"isbn13"`
	ASIN       string `yaml:"asin"`
	Format     string `yaml:"format"`
	Language   string `yaml:"language"`
	Publisher  string `yaml:"publisher"`
	MediaCount int    `yaml:"media_count"`
	Year       int    `yaml:"year"`
}

// SeedSummary counts the rows written by a seed load.
type SeedSummary struct {
	Authors  int
	Books    int
	Editions int
}

// ParseSeed decodes a seed document.
func ParseSeed(r io.Reader) (Seed, error) {
	var seed Seed
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if err == io.EOF {
			return Seed{}, nil
		}
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// LoadSeed reads the YAML seed file at path and upserts its contents.
func (s *Store) LoadSeed(ctx context.Context, path string) (SeedSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return SeedSummary{}, fmt.Errorf("open seed: %w", err)
	}
	defer file.Close()

	seed, err := ParseSeed(file)
	if err != nil {
		return SeedSummary{}, err
	}
	return s.ApplySeed(ctx, seed)
}

// ApplySeed upserts every author, book and edition of seed in one
// transaction.
func (s *Store) ApplySeed(ctx context.Context, seed Seed) (SeedSummary, error) {
	var summary SeedSummary
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		summary = SeedSummary{}
		for _, sa := range seed.Authors {
			author, err := upsertAuthor(ctx, tx, Author{Name: sa.Name, Aliases: sa.Aliases, ForeignID: sa.ForeignID})
			if err != nil {
				return err
			}
			summary.Authors++
			for _, sb := range sa.Books {
				book, err := upsertBook(ctx, tx, Book{
					AuthorID:       author.ID,
					Title:          sb.Title,
					ForeignID:      sb.ForeignID,
					Year:           sb.Year,
					Disambiguation: sb.Disambiguation,
				})
				if err != nil {
					return err
				}
				summary.Books++
				for _, se := range sb.Editions {
					if _, err := upsertEdition(ctx, tx, Edition{
						BookID:     book.ID,
						Title:      se.Title,
						ISBN13:     se.ISBN13,
						ASIN:       se.ASIN,
						Format:     se.Format,
						Language:   se.Language,
						Publisher:  se.Publisher,
						MediaCount: se.MediaCount,
						Year:       se.Year,
					}); err != nil {
						return err
					}
					summary.Editions++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedSummary{}, err
	}
	return summary, nil
}
