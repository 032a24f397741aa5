package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shelver/internal/language"
	"shelver/internal/matching"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AddAuthor inserts author, or updates the existing author with the same
// name, and returns the stored row.
func (s *Store) AddAuthor(ctx context.Context, author Author) (Author, error) {
	err := retryOnBusy(ensureContext(ctx), func() error {
		var err error
		author, err = upsertAuthor(ctx, s.db, author)
		return err
	})
	return author, err
}

// AddBook inserts book, or updates the existing book with the same author
// and title, and returns the stored row.
func (s *Store) AddBook(ctx context.Context, book Book) (Book, error) {
	err := retryOnBusy(ensureContext(ctx), func() error {
		var err error
		book, err = upsertBook(ctx, s.db, book)
		return err
	})
	return book, err
}

// AddEdition inserts edition, or updates the matching existing edition, and
// returns the stored row.
func (s *Store) AddEdition(ctx context.Context, edition Edition) (Edition, error) {
	err := retryOnBusy(ensureContext(ctx), func() error {
		var err error
		edition, err = upsertEdition(ctx, s.db, edition)
		return err
	})
	return edition, err
}

func upsertAuthor(ctx context.Context, q querier, author Author) (Author, error) {
	author.Name = strings.TrimSpace(author.Name)
	if author.Name == "" {
		return Author{}, errors.New("author name is required")
	}
	aliases, err := encodeJSON(author.Aliases, len(author.Aliases) == 0)
	if err != nil {
		return Author{}, fmt.Errorf("encode aliases: %w", err)
	}
	row := q.QueryRowContext(ctx,
		`INSERT INTO authors (name, aliases_json, foreign_id) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET
             aliases_json = COALESCE(excluded.aliases_json, authors.aliases_json),
             foreign_id = COALESCE(excluded.foreign_id, authors.foreign_id)
         RETURNING id`,
		author.Name, aliases, nullableString(author.ForeignID),
	)
	if err := row.Scan(&author.ID); err != nil {
		return Author{}, fmt.Errorf("upsert author %q: %w", author.Name, err)
	}
	return author, nil
}

func upsertBook(ctx context.Context, q querier, book Book) (Book, error) {
	book.Title = strings.TrimSpace(book.Title)
	if book.Title == "" {
		return Book{}, errors.New("book title is required")
	}
	if book.AuthorID <= 0 {
		return Book{}, fmt.Errorf("book %q has no author", book.Title)
	}
	row := q.QueryRowContext(ctx,
		`INSERT INTO books (author_id, title, foreign_id, year, disambiguation) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(author_id, title) DO UPDATE SET
             foreign_id = COALESCE(excluded.foreign_id, books.foreign_id),
             year = CASE WHEN excluded.year > 0 THEN excluded.year ELSE books.year END,
             disambiguation = COALESCE(excluded.disambiguation, books.disambiguation)
         RETURNING id`,
		book.AuthorID, book.Title, nullableString(book.ForeignID), book.Year, nullableString(book.Disambiguation),
	)
	if err := row.Scan(&book.ID); err != nil {
		return Book{}, fmt.Errorf("upsert book %q: %w", book.Title, err)
	}
	return book, nil
}

func upsertEdition(ctx context.Context, q querier, edition Edition) (Edition, error) {
	if edition.BookID <= 0 {
		return Edition{}, errors.New("edition has no book")
	}
	edition.Title = strings.TrimSpace(edition.Title)
	edition.ISBN13 = matching.NormalizeISBN(edition.ISBN13)
	edition.ASIN = strings.ToUpper(strings.TrimSpace(edition.ASIN))
	edition.Format = strings.ToLower(strings.TrimSpace(edition.Format))
	edition.Language = language.Normalize(edition.Language)
	row := q.QueryRowContext(ctx,
		`INSERT INTO editions (book_id, title, isbn13, asin, format, language, publisher, media_count, year)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(book_id, title, isbn13, asin, format) DO UPDATE SET
             language = COALESCE(excluded.language, editions.language),
             publisher = COALESCE(excluded.publisher, editions.publisher),
             media_count = excluded.media_count,
             year = excluded.year
         RETURNING id`,
		edition.BookID, edition.Title, edition.ISBN13, edition.ASIN, edition.Format,
		nullableString(edition.Language), nullableString(edition.Publisher), edition.MediaCount, edition.Year,
	)
	if err := row.Scan(&edition.ID); err != nil {
		return Edition{}, fmt.Errorf("upsert edition for book %d: %w", edition.BookID, err)
	}
	return edition, nil
}

const authorColumns = "id, name, aliases_json, foreign_id"

func scanAuthor(scanner interface{ Scan(dest ...any) error }) (*Author, error) {
	var (
		author    Author
		aliases   sql.NullString
		foreignID sql.NullString
	)
	if err := scanner.Scan(&author.ID, &author.Name, &aliases, &foreignID); err != nil {
		return nil, err
	}
	author.Aliases = decodeStrings(aliases)
	author.ForeignID = foreignID.String
	return &author, nil
}

const bookColumns = "id, author_id, title, foreign_id, year, disambiguation"

func scanBook(scanner interface{ Scan(dest ...any) error }) (*Book, error) {
	var (
		book           Book
		foreignID      sql.NullString
		disambiguation sql.NullString
	)
	if err := scanner.Scan(&book.ID, &book.AuthorID, &book.Title, &foreignID, &book.Year, &disambiguation); err != nil {
		return nil, err
	}
	book.ForeignID = foreignID.String
	book.Disambiguation = disambiguation.String
	return &book, nil
}

// AuthorByID returns the author with id, or nil when it does not exist.
func (s *Store) AuthorByID(ctx context.Context, id int64) (*Author, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+authorColumns+` FROM authors WHERE id = ?`, id)
	author, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return author, nil
}

// Authors lists every author ordered by name.
func (s *Store) Authors(ctx context.Context) ([]Author, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+authorColumns+` FROM authors ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()
	var out []Author
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, *author)
	}
	return out, rows.Err()
}

// FindAuthor returns the author whose name or alias equals name, ignoring
// case, or nil when none does.
func (s *Store) FindAuthor(ctx context.Context, name string) (*Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	authors, err := s.Authors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range authors {
		if strings.EqualFold(authors[i].Name, name) {
			return &authors[i], nil
		}
	}
	for i := range authors {
		for _, alias := range authors[i].Aliases {
			if strings.EqualFold(alias, name) {
				return &authors[i], nil
			}
		}
	}
	return nil, nil
}

// BookByID returns the book with id, or nil when it does not exist.
func (s *Store) BookByID(ctx context.Context, id int64) (*Book, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// BooksByAuthor lists the books of one author ordered by title.
func (s *Store) BooksByAuthor(ctx context.Context, authorID int64) ([]Book, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+bookColumns+` FROM books WHERE author_id = ? ORDER BY title COLLATE NOCASE`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()
	var out []Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, *book)
	}
	return out, rows.Err()
}

// Candidates returns one ranking candidate per edition. Books without any
// edition yield a single candidate with a zero EditionID. An authorID of
// zero returns the whole catalogue.
func (s *Store) Candidates(ctx context.Context, authorID int64) ([]matching.Candidate, error) {
	query := `SELECT
            COALESCE(e.id, 0), b.id, a.id, a.name, a.aliases_json, b.title, COALESCE(e.title, ''),
            b.foreign_id, COALESCE(e.isbn13, ''), COALESCE(e.asin, ''),
            CASE WHEN COALESCE(e.year, 0) > 0 THEN e.year ELSE b.year END,
            COALESCE(e.format, ''), COALESCE(e.media_count, 0), e.language, e.publisher, b.disambiguation
        FROM books b
        JOIN authors a ON a.id = b.author_id
        LEFT JOIN editions e ON e.book_id = b.id`
	var args []any
	if authorID > 0 {
		query += ` WHERE a.id = ?`
		args = append(args, authorID)
	}
	query += ` ORDER BY a.id, b.id, e.id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []matching.Candidate
	for rows.Next() {
		var (
			c              matching.Candidate
			aliases        sql.NullString
			foreignID      sql.NullString
			lang           sql.NullString
			publisher      sql.NullString
			disambiguation sql.NullString
		)
		if err := rows.Scan(
			&c.EditionID, &c.BookID, &c.AuthorID, &c.AuthorName, &aliases, &c.BookTitle, &c.EditionTitle,
			&foreignID, &c.ISBN13, &c.ASIN, &c.Year, &c.Format, &c.MediaCount, &lang, &publisher, &disambiguation,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.AuthorAliases = decodeStrings(aliases)
		c.ForeignBookID = foreignID.String
		c.Language = lang.String
		c.Publisher = publisher.String
		c.Disambiguation = disambiguation.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// CatalogCounts reports the number of stored authors, books and editions.
func (s *Store) CatalogCounts(ctx context.Context) (authors, books, editions int, err error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT (SELECT COUNT(1) FROM authors), (SELECT COUNT(1) FROM books), (SELECT COUNT(1) FROM editions)`)
	if err = row.Scan(&authors, &books, &editions); err != nil {
		return 0, 0, 0, fmt.Errorf("count catalog: %w", err)
	}
	return authors, books, editions, nil
}
