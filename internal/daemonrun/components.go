package daemonrun

import (
	"log/slog"

	"shelver/internal/config"
	"shelver/internal/download"
	"shelver/internal/importer"
	"shelver/internal/library"
	"shelver/internal/matching"
	"shelver/internal/notifications"
	"shelver/internal/tracking"
)

// NewRanker builds the candidate ranker described by the matching section.
func NewRanker(cfg *config.Config, logger *slog.Logger) *matching.Ranker {
	calculator := matching.NewCalculator(cfg.MatchWeights(), cfg.Matching.PreferredLanguages)
	return matching.NewRanker(calculator,
		matching.WithThreshold(cfg.Matching.Threshold),
		matching.WithIgnoredFactors(cfg.Matching.IgnoreFactors...),
		matching.WithLogger(logger),
	)
}

// NewImporter builds an importer backed by the library store.
func NewImporter(cfg *config.Config, store *library.Store, logger *slog.Logger) *importer.Importer {
	return importer.New(store, store, NewRanker(cfg, logger),
		importer.WithExtensions(cfg.Import.Extensions...),
		importer.WithWorkers(cfg.Import.Workers),
		importer.WithLogger(logger),
	)
}

// NewMapper converts the configured remote path mappings.
func NewMapper(cfg *config.Config) *download.Mapper {
	mappings := make([]download.PathMapping, 0, len(cfg.RemotePathMappings))
	for _, m := range cfg.RemotePathMappings {
		mappings = append(mappings, download.PathMapping{
			Client:     m.Client,
			RemotePath: m.RemotePath,
			LocalPath:  m.LocalPath,
		})
	}
	return download.NewMapper(mappings)
}

// NewPublisher fans events out to the log, the history table and ntfy.
func NewPublisher(cfg *config.Config, store *library.Store, logger *slog.Logger) notifications.Publisher {
	return notifications.Multi(
		notifications.NewLogPublisher(logger),
		library.NewHistoryRecorder(store, logger),
		notifications.NewService(cfg),
	)
}

// NewTracker builds the download tracker with its importer and publishers.
func NewTracker(cfg *config.Config, store *library.Store, logger *slog.Logger) *tracking.Tracker {
	return tracking.New(store, NewImporter(cfg, store, logger), NewPublisher(cfg, store, logger), logger,
		tracking.WithMapper(NewMapper(cfg)),
		tracking.WithImportMode(cfg.Import.Mode),
	)
}
