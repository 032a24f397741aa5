package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelver/internal/download"
)

const historyColumns = "id, download_id, author_id, book_id, event_type, source_title, date, data_json"

func scanHistory(scanner interface{ Scan(dest ...any) error }) (*HistoryRecord, error) {
	var (
		record      HistoryRecord
		eventType   string
		sourceTitle sql.NullString
		dateRaw     string
		data        sql.NullString
	)
	if err := scanner.Scan(&record.ID, &record.DownloadID, &record.AuthorID, &record.BookID, &eventType, &sourceTitle, &dateRaw, &data); err != nil {
		return nil, err
	}
	record.EventType = EventType(eventType)
	record.SourceTitle = sourceTitle.String
	record.Data = decodeStringMap(data)
	if date, err := parseTime(dateRaw); err == nil {
		record.Date = date
	}
	return &record, nil
}

// Record appends record to the history log. A zero Date is set to now. The
// stored ID and Date are written back to record.
func (s *Store) Record(ctx context.Context, record *HistoryRecord) error {
	if record == nil {
		return errors.New("history record is nil")
	}
	if strings.TrimSpace(record.DownloadID) == "" {
		return errors.New("history record has no download id")
	}
	if _, ok := ParseEventType(string(record.EventType)); !ok {
		return fmt.Errorf("unknown history event type %q", record.EventType)
	}
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	data, err := encodeJSON(record.Data, len(record.Data) == 0)
	if err != nil {
		return fmt.Errorf("encode history data: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO history (download_id, author_id, book_id, event_type, source_title, date, data_json)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.DownloadID, record.AuthorID, record.BookID, string(record.EventType),
		nullableString(record.SourceTitle), formatTime(record.Date), data,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return nil
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HistoryRecord
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *record)
	}
	return out, rows.Err()
}

// MostRecentForDownloadID returns the newest record for downloadID, or nil
// when the download has no history.
func (s *Store) MostRecentForDownloadID(ctx context.Context, downloadID string) (*HistoryRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+historyColumns+` FROM history WHERE download_id = ? ORDER BY date DESC, id DESC LIMIT 1`, downloadID)
	record, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent history: %w", err)
	}
	return record, nil
}

// FindByDownloadID returns every record for downloadID, newest first.
func (s *Store) FindByDownloadID(ctx context.Context, downloadID string) ([]HistoryRecord, error) {
	records, err := s.queryHistory(ctx,
		`SELECT `+historyColumns+` FROM history WHERE download_id = ? ORDER BY date DESC, id DESC`, downloadID)
	if err != nil {
		return nil, fmt.Errorf("find history by download: %w", err)
	}
	return records, nil
}

// FindByBookID returns every record for bookID, newest first.
func (s *Store) FindByBookID(ctx context.Context, bookID int64) ([]HistoryRecord, error) {
	records, err := s.queryHistory(ctx,
		`SELECT `+historyColumns+` FROM history WHERE book_id = ? ORDER BY date DESC, id DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("find history by book: %w", err)
	}
	return records, nil
}

// Recent returns the newest records across all downloads.
func (s *Store) Recent(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := s.queryHistory(ctx,
		`SELECT `+historyColumns+` FROM history ORDER BY date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	return records, nil
}

// Grab records that downloadID was fetched for the given books of one author.
func (s *Store) Grab(ctx context.Context, downloadID, sourceTitle string, authorID int64, bookIDs ...int64) error {
	if len(bookIDs) == 0 {
		return errors.New("grab requires at least one book")
	}
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		placeholders := makePlaceholders(len(bookIDs))
		args := make([]any, 0, len(bookIDs)+1)
		args = append(args, authorID)
		for _, id := range bookIDs {
			args = append(args, id)
		}
		var found int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(DISTINCT id) FROM books WHERE author_id = ? AND id IN (`+placeholders+`)`, args...,
		).Scan(&found); err != nil {
			return fmt.Errorf("check grabbed books: %w", err)
		}
		if found != len(distinctIDs(bookIDs)) {
			return fmt.Errorf("grab: some books do not belong to author %d", authorID)
		}
		for _, bookID := range distinctIDs(bookIDs) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO history (download_id, author_id, book_id, event_type, source_title, date)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				downloadID, authorID, bookID, string(EventGrabbed), nullableString(sourceTitle), formatTime(now),
			); err != nil {
				return fmt.Errorf("insert grab: %w", err)
			}
		}
		return nil
	})
}

// GrabbedBooks resolves the author and books a download was grabbed for, or
// nil when the download was never grabbed.
func (s *Store) GrabbedBooks(ctx context.Context, downloadID string) (*download.RemoteBook, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT DISTINCT h.book_id, b.author_id, b.title, a.name
         FROM history h
         JOIN books b ON b.id = h.book_id
         JOIN authors a ON a.id = b.author_id
         WHERE h.download_id = ? AND h.event_type = ?
         ORDER BY h.book_id`,
		downloadID, string(EventGrabbed),
	)
	if err != nil {
		return nil, fmt.Errorf("grabbed books: %w", err)
	}
	defer rows.Close()

	var remote *download.RemoteBook
	for rows.Next() {
		var (
			book       download.Book
			authorName string
		)
		if err := rows.Scan(&book.ID, &book.AuthorID, &book.Title, &authorName); err != nil {
			return nil, fmt.Errorf("scan grabbed book: %w", err)
		}
		if remote == nil {
			remote = &download.RemoteBook{Author: &download.Author{ID: book.AuthorID, Name: authorName}}
		}
		remote.Books = append(remote.Books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grabbed books: %w", err)
	}
	return remote, nil
}

func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
