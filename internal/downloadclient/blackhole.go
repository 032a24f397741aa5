package downloadclient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"shelver/internal/config"
	"shelver/internal/download"
	"shelver/internal/logging"
	"shelver/internal/services"
)

// downloadNamespace seeds the name-based identifiers of blackhole items.
var downloadNamespace = uuid.MustParse("6f1c5a5e-2d0b-4b53-9c8e-6a0f2f6f4a11")

var partialSuffixes = []string{".part", ".!qb", ".crdownload", ".partial", ".tmp"}

// Blackhole treats every entry of a watch directory as one download.
type Blackhole struct {
	name     string
	watchDir string
	category string
	settle   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewBlackhole constructs a watch-folder client.
func NewBlackhole(cfg config.DownloadClient, logger *slog.Logger) *Blackhole {
	return &Blackhole{
		name:     cfg.Name,
		watchDir: cfg.WatchDir,
		category: cfg.Category,
		settle:   cfg.SettleWindow(),
		now:      time.Now,
		logger:   logging.NewComponentLogger(logger, "blackhole").With(logging.String(logging.FieldClient, cfg.Name)),
	}
}

// Name returns the configured client name.
func (b *Blackhole) Name() string {
	return b.name
}

// DownloadID returns the stable identifier of a watch directory entry.
func (b *Blackhole) DownloadID(entry string) string {
	return uuid.NewSHA1(downloadNamespace, []byte(b.name+"/"+entry)).String()
}

// Items reports one item per visible entry of the watch directory.
func (b *Blackhole) Items(ctx context.Context) ([]download.Item, error) {
	entries, err := os.ReadDir(b.watchDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "poll", b.name, fmt.Sprintf("watch directory %s does not exist", b.watchDir), err)
		}
		return nil, fmt.Errorf("read watch directory: %w", err)
	}

	items := make([]download.Item, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || (isPartial(name) && !entry.IsDir()) {
			continue
		}
		item, err := b.inspect(filepath.Join(b.watchDir, name), entry)
		if err != nil {
			logging.WarnWithContext(b.logger, "skipping unreadable watch entry", "blackhole_entry_unreadable",
				append(logging.ErrorAttrs(err),
					logging.String("entry", name),
					logging.String(logging.FieldErrorHint, "check file permissions in the watch directory"),
					logging.String(logging.FieldImpact, "entry is not tracked this poll"))...)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *Blackhole) inspect(path string, entry fs.DirEntry) (download.Item, error) {
	name := entry.Name()
	title := name
	if !entry.IsDir() {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	item := download.Item{
		DownloadID: b.DownloadID(name),
		Client:     b.name,
		Title:      title,
		Category:   b.category,
		OutputPath: path,
	}

	var (
		partialBytes int64
		hasPartial   bool
		newest       time.Time
	)
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		if d.IsDir() {
			return nil
		}
		item.TotalSize += info.Size()
		if isPartial(d.Name()) {
			hasPartial = true
			partialBytes += info.Size()
		}
		return nil
	})
	if err != nil {
		return download.Item{}, err
	}

	switch {
	case hasPartial:
		item.Status = download.ItemDownloading
		item.RemainingSize = partialBytes
	case b.now().Sub(newest) < b.settle:
		item.Status = download.ItemDownloading
	default:
		item.Status = download.ItemCompleted
	}
	return item, nil
}

func isPartial(name string) bool {
	lower := strings.ToLower(name)
	return slices.ContainsFunc(partialSuffixes, func(suffix string) bool {
		return strings.HasSuffix(lower, suffix)
	})
}
