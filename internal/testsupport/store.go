package testsupport

import (
	"context"
	"strings"
	"testing"

	"shelver/internal/config"
	"shelver/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SampleSeed is a small catalogue used across package tests.
const SampleSeed = `authors:
  - name: Frank Herbert
    foreign_id: OL79034A
    books:
      - title: Dune
        year: 1965
        foreign_id: OL893415W
        editions:
          - title: Dune
            isbn13: 978-0-441-17271-9
            format: ebook
            language: eng
            publisher: Ace
          - title: Dune
            asin: B00B7NPRY8
            format: audiobook
            language: eng
            media_count: 2
      - title: Dune Messiah
        year: 1969
        editions:
          - title: Dune Messiah
            isbn13: "9780593098233"
            format: ebook
            language: eng
  - name: Ursula K. Le Guin
    aliases: [Ursula Le Guin]
    books:
      - title: A Wizard of Earthsea
        year: 1968
        editions:
          - title: A Wizard of Earthsea
            isbn13: "9780547773742"
            format: ebook
            language: eng
`

// MustSeed loads seed into store.
func MustSeed(t testing.TB, store *library.Store, seed string) library.SeedSummary {
	t.Helper()

	parsed, err := library.ParseSeed(strings.NewReader(seed))
	if err != nil {
		t.Fatalf("library.ParseSeed: %v", err)
	}
	summary, err := store.ApplySeed(context.Background(), parsed)
	if err != nil {
		t.Fatalf("store.ApplySeed: %v", err)
	}
	return summary
}

// MustFindBook returns the catalogued book with title by author.
func MustFindBook(t testing.TB, store *library.Store, author, title string) library.Book {
	t.Helper()

	ctx := context.Background()
	found, err := store.FindAuthor(ctx, author)
	if err != nil || found == nil {
		t.Fatalf("find author %q: %v", author, err)
	}
	books, err := store.BooksByAuthor(ctx, found.ID)
	if err != nil {
		t.Fatalf("books by author: %v", err)
	}
	for _, book := range books {
		if book.Title == title {
			return book
		}
	}
	t.Fatalf("book %q by %q not found", title, author)
	return library.Book{}
}
