package services

import "context"

type contextKey string

const (
	downloadIDKey contextKey = "download_id"
	stageKey      contextKey = "stage"
	clientKey     contextKey = "client"
	requestIDKey  contextKey = "request_id"
)

// WithDownloadID annotates context with the tracked download identifier.
func WithDownloadID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, downloadIDKey, id)
}

// DownloadIDFromContext extracts the tracked download identifier if present.
func DownloadIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(downloadIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the tracker stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithClient annotates context with the download client name.
func WithClient(ctx context.Context, client string) context.Context {
	if client == "" {
		return ctx
	}
	return context.WithValue(ctx, clientKey, client)
}

// ClientFromContext returns the download client name if present.
func ClientFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(clientKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
