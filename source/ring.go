package source

import (
	"sync"

	"ocpp-monitor/models"
)

// RecordWindow keeps the most recent size log records in a circular buffer.
type RecordWindow struct {
	mu         sync.Mutex
	windowSize int
	values     []models.LogRecord
	index      int
	count      int
}

func NewRecordWindow(size int) *RecordWindow {
	if size < 1 {
		size = 1
	}
	return &RecordWindow{
		windowSize: size,
		values:     make([]models.LogRecord, size),
	}
}

func (rw *RecordWindow) Add(r models.LogRecord) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.values[rw.index] = r
	rw.index = (rw.index + 1) % rw.windowSize
	if rw.count < rw.windowSize {
		rw.count++
	}
}

func (rw *RecordWindow) Len() int {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.count
}

// Latest returns up to limit records, most recent first. limit <= 0 returns
// everything held.
func (rw *RecordWindow) Latest(limit int) []models.LogRecord {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	n := rw.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.LogRecord, n)
	for i := 0; i < n; i++ {
		idx := (rw.index - 1 - i + rw.windowSize) % rw.windowSize
		out[i] = rw.values[idx]
	}
	return out
}
