package tracking

import (
	"context"
	"strings"

	"shelver/internal/download"
	"shelver/internal/logging"
	"shelver/internal/services"
)

const stageCheck = "check"

func (t *Tracker) check(ctx context.Context, td *download.TrackedDownload) {
	if td.Item.Status != download.ItemCompleted {
		return
	}
	if td.State != download.StateDownloading {
		return
	}

	ctx = services.WithStage(services.WithDownloadID(ctx, td.DownloadID), stageCheck)
	logger := logging.WithContext(ctx, t.logger)

	if t.history != nil {
		record, err := t.history.MostRecentForDownloadID(ctx, td.DownloadID)
		if err != nil {
			td.Warn("Unable to read download history, will retry: %v", err)
			logging.WarnWithContext(logger, "history lookup failed", "download_check_history_failed",
				append(logging.ErrorAttrs(err),
					logging.String(logging.FieldErrorHint, "check the history database"),
					logging.String(logging.FieldImpact, "download stays in downloading until the next check"))...)
			return
		}
		if record == nil && strings.TrimSpace(td.Item.Category) == "" {
			td.Warn("Download wasn't grabbed by shelver and not in a category, skipping.")
			logger.Debug("download check skipped",
				logging.Args(logging.DecisionAttrs("download_check", "skipped", "no history and no category")...)...)
			return
		}
	} else if strings.TrimSpace(td.Item.Category) == "" {
		td.Warn("Download wasn't grabbed by shelver and not in a category, skipping.")
		return
	}

	outputPath := t.mapper.Map(td.Item.Client, td.Item.OutputPath)
	if outputPath == "" {
		td.Warn("Download doesn't contain intermediate path, skipping.")
		logger.Debug("download check skipped",
			logging.Args(logging.DecisionAttrs("download_check", "skipped", "empty output path")...)...)
		return
	}
	if !download.IsValidLocalPath(outputPath, t.goos) {
		td.Warn("[%s] is not a valid local path. You may need a Remote Path Mapping.", outputPath)
		logging.WarnWithContext(logger, "download output path is not valid on this platform", "download_check_invalid_path",
			logging.String("path", outputPath),
			logging.String(logging.FieldErrorHint, "add a remote path mapping for this download client"),
			logging.String(logging.FieldImpact, "download will not be imported"))
		return
	}

	td.ImportPath = outputPath
	td.ClearWarnings()
	td.State = download.StateImportPending
	logger.Info("download ready for import",
		logging.String("title", td.Item.Title),
		logging.String("path", outputPath))
}
