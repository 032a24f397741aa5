package workflow

import (
	"time"

	"shelver/internal/download"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool
	LastError string
	LastPoll  time.Time
	Polls     int
	ByState   map[download.State]int
	Downloads []download.TrackedDownload
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:  m.running,
		LastPoll: m.lastPoll,
		Polls:    m.polls,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	summary.Downloads = m.tracker.Snapshot()
	summary.ByState = make(map[download.State]int, len(download.AllStates()))
	for _, td := range summary.Downloads {
		summary.ByState[td.State]++
	}
	return summary
}
