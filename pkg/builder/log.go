package builder

import (
	"fmt"
	"sync"
	"time"
)

// maxLogEntries bounds build-log growth; the oldest lines are dropped first.
const maxLogEntries = 500

// BuildLog is the ordered, append-only progress log for one concept's
// builder session. Every append is persisted immediately. The log carries
// its own lock: background prompt generation and the launch pipeline both
// append to it.
type BuildLog struct {
	conceptID string
	store     *Store

	mu      sync.Mutex
	entries []string
}

// NewBuildLog loads any persisted log for the concept.
func NewBuildLog(store *Store, conceptID string) (*BuildLog, error) {
	entries, err := store.LoadLog(conceptID)
	if err != nil {
		return nil, err
	}
	return &BuildLog{
		conceptID: conceptID,
		store:     store,
		entries:   entries,
	}, nil
}

// Appendf formats, timestamps and persists a log line.
func (l *BuildLog) Appendf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	l.entries = append(l.entries, line)
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[len(l.entries)-maxLogEntries:]
	}
	// Persistence failures must not break the pipeline; the line stays in
	// memory and the next append retries the write.
	_ = l.store.SaveLog(l.conceptID, l.entries)
}

// Entries returns the log lines, oldest first.
func (l *BuildLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}
