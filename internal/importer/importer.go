package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"shelver/internal/download"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/matching"
	"shelver/internal/services"
)

const defaultWorkers = 4

// Catalog supplies ranking candidates.
type Catalog interface {
	Candidates(ctx context.Context, authorID int64) ([]matching.Candidate, error)
	FindAuthor(ctx context.Context, name string) (*library.Author, error)
}

// History reads and appends the download history log.
type History interface {
	FindByDownloadID(ctx context.Context, downloadID string) ([]library.HistoryRecord, error)
	Record(ctx context.Context, record *library.HistoryRecord) error
}

// Decision is the ranking outcome for one file.
type Decision struct {
	Observed matching.Observed
	Ranking  matching.Ranking
	Empty    bool
}

// Importer matches downloaded files against the catalogue.
type Importer struct {
	catalog    Catalog
	history    History
	ranker     *matching.Ranker
	extensions []string
	pattern    string
	workers    int
	logger     *slog.Logger
}

// Option customises an Importer.
type Option func(*Importer)

// WithExtensions limits scanning to files with these extensions.
func WithExtensions(exts ...string) Option {
	return func(i *Importer) {
		cleaned := make([]string, 0, len(exts))
		for _, ext := range exts {
			if ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")); ext != "" {
				cleaned = append(cleaned, ext)
			}
		}
		if len(cleaned) > 0 {
			i.extensions = cleaned
		}
	}
}

// WithWorkers bounds how many files are ranked concurrently.
func WithWorkers(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.workers = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New constructs an Importer.
func New(catalog Catalog, history History, ranker *matching.Ranker, opts ...Option) *Importer {
	i := &Importer{
		catalog:    catalog,
		history:    history,
		ranker:     ranker,
		extensions: matching.SupportedExtensions(),
		workers:    defaultWorkers,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.NewComponentLogger(i.logger, "importer")
	i.pattern = "**/*.{" + strings.Join(i.extensions, ",") + "}"
	return i
}

// Scan lists the importable files at path, which may be a single file or a
// directory, in lexical order.
func (i *Importer) Scan(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "import", "scan", fmt.Sprintf("path %s does not exist", path), err)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if i.matches(filepath.Base(path)) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		if i.matches(rel) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	slices.Sort(files)
	return files, nil
}

func (i *Importer) matches(rel string) bool {
	matched, err := doublestar.Match(i.pattern, strings.ToLower(filepath.ToSlash(rel)))
	return err == nil && matched
}

// Evaluate ranks every importable file at path without recording anything.
func (i *Importer) Evaluate(ctx context.Context, path string, authorHint *download.Author) ([]Decision, error) {
	files, err := i.Scan(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	observed := make([]matching.Observed, len(files))
	audioCounts := make(map[string]int)
	for idx, file := range files {
		observed[idx] = ParseFilename(file)
		if authorHint != nil && authorHint.Name != "" && !slices.Contains(observed[idx].Authors, authorHint.Name) {
			observed[idx].Authors = append(observed[idx].Authors, authorHint.Name)
		}
		if slices.Contains(matching.FormatExtensions("audiobook"), observed[idx].Extension) {
			audioCounts[filepath.Dir(file)]++
		}
	}
	for idx := range observed {
		if count := audioCounts[filepath.Dir(files[idx])]; count > 0 && slices.Contains(matching.FormatExtensions("audiobook"), observed[idx].Extension) {
			observed[idx].MediaCount = count
		}
	}

	candidates, err := i.candidates(ctx, authorHint, observed)
	if err != nil {
		return nil, err
	}

	decisions := make([]Decision, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decision := Decision{Observed: observed[idx]}
			if info, err := os.Stat(files[idx]); err == nil && info.Size() == 0 {
				decision.Empty = true
			} else {
				decision.Ranking = i.ranker.Rank(observed[idx], candidates)
			}
			decisions[idx] = decision
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func (i *Importer) candidates(ctx context.Context, authorHint *download.Author, observed []matching.Observed) ([]matching.Candidate, error) {
	if authorHint != nil && authorHint.ID > 0 {
		candidates, err := i.catalog.Candidates(ctx, authorHint.ID)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
		return candidates, nil
	}

	var authorIDs []int64
	for _, obs := range observed {
		for _, name := range obs.Authors {
			author, err := i.catalog.FindAuthor(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("find author: %w", err)
			}
			if author != nil && !slices.Contains(authorIDs, author.ID) {
				authorIDs = append(authorIDs, author.ID)
			}
		}
	}
	if len(authorIDs) == 0 {
		candidates, err := i.catalog.Candidates(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
		return candidates, nil
	}

	var candidates []matching.Candidate
	for _, id := range authorIDs {
		batch, err := i.catalog.Candidates(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}
		candidates = append(candidates, batch...)
	}
	return candidates, nil
}

// ProcessPath ranks the files at path and records accepted files as
// imported for item. Files whose book was already imported for the same
// download are left out of the results.
func (i *Importer) ProcessPath(ctx context.Context, path, mode string, authorHint *download.Author, item download.Item) ([]download.ImportResult, error) {
	logger := logging.WithContext(ctx, i.logger)

	decisions, err := i.Evaluate(ctx, path, authorHint)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return nil, nil
	}

	previous, err := i.history.FindByDownloadID(ctx, item.DownloadID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "import", "history", "read download history", err)
	}
	alreadyImported := make(map[int64]bool)
	for _, record := range previous {
		if record.EventType == library.EventBookFileImported {
			alreadyImported[record.BookID] = true
		}
	}

	results := make([]download.ImportResult, 0, len(decisions))
	for _, decision := range decisions {
		filePath := decision.Observed.Path
		if decision.Empty {
			results = append(results, download.ImportResult{
				Kind:   download.ImportSkipped,
				Path:   filePath,
				Errors: []string{"File is empty"},
			})
			continue
		}

		candidate, ok := decision.Ranking.Match()
		if !ok {
			results = append(results, download.ImportResult{
				Kind:   download.ImportRejected,
				Path:   filePath,
				Errors: []string{"Unable to match to a book: " + decision.Ranking.Reason(i.ranker.Threshold())},
			})
			continue
		}

		book := &download.Book{ID: candidate.BookID, AuthorID: candidate.AuthorID, Title: candidate.BookTitle}
		if alreadyImported[candidate.BookID] {
			logger.Debug("book already imported for download",
				logging.String("file", filePath),
				logging.Int64("book_id", candidate.BookID))
			continue
		}

		record := &library.HistoryRecord{
			DownloadID:  item.DownloadID,
			AuthorID:    candidate.AuthorID,
			BookID:      candidate.BookID,
			EventType:   library.EventBookFileImported,
			SourceTitle: item.Title,
			Data: map[string]string{
				"path":       filePath,
				"edition_id": strconv.FormatInt(candidate.EditionID, 10),
				"mode":       mode,
				"distance":   strconv.FormatFloat(decision.Ranking.Best.Normalized, 'f', 4, 64),
			},
		}
		if err := i.history.Record(ctx, record); err != nil {
			return nil, services.Wrap(services.ErrTransient, "import", "history", "record imported file", err)
		}
		results = append(results, download.ImportResult{
			Kind:      download.ImportImported,
			Path:      filePath,
			Book:      book,
			EditionID: candidate.EditionID,
		})
	}

	imported := 0
	for _, result := range results {
		if result.Imported() {
			imported++
		}
	}
	logger.Info("import pass finished",
		logging.String("path", path),
		logging.String("mode", mode),
		logging.Int("files", len(results)),
		logging.Int("imported", imported),
		logging.Int("not_imported", len(results)-imported))
	return results, nil
}
