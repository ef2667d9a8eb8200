package analytics

import "ocpp-monitor/models"

// TransactionTracker records the first sighting of every session id. It only
// ever creates active sessions; completion is reported by the overstay feed.
type TransactionTracker struct {
	byID  map[string]int
	order []models.Transaction
	limit int

	created int
	dropped int
}

// NewTransactionTracker keeps at most limit transactions; limit <= 0 means no cap.
func NewTransactionTracker(limit int) *TransactionTracker {
	return &TransactionTracker{
		byID:  make(map[string]int),
		limit: limit,
	}
}

// Observe registers the fragment's session. It reports whether a new
// transaction was created.
func (t *TransactionTracker) Observe(f Fragment) bool {
	if !f.MeterValues || f.TransactionID == "" || f.ChargerID == "" {
		return false
	}
	if _, ok := t.byID[f.TransactionID]; ok {
		return false
	}

	t.created++
	if t.limit > 0 && len(t.order) >= t.limit {
		t.dropped++
		// Remember the id so a later sighting is not counted again.
		t.byID[f.TransactionID] = -1
		return true
	}

	t.byID[f.TransactionID] = len(t.order)
	t.order = append(t.order, models.Transaction{
		ID:        f.TransactionID,
		Charger:   f.ChargerID,
		StartTime: f.Record.CreatedAt,
		Status:    models.TransactionActive,
	})
	return true
}

// Get returns the tracked transaction with the given id.
func (t *TransactionTracker) Get(id string) (models.Transaction, bool) {
	i, ok := t.byID[id]
	if !ok || i < 0 {
		return models.Transaction{}, false
	}
	return t.order[i], true
}

// Transactions returns tracked sessions in first-seen order.
func (t *TransactionTracker) Transactions() []models.Transaction {
	out := make([]models.Transaction, len(t.order))
	copy(out, t.order)
	return out
}

// ActiveSessions counts every session created in this pass, including any
// dropped by the cap.
func (t *TransactionTracker) ActiveSessions() int { return t.created }

func (t *TransactionTracker) Dropped() int { return t.dropped }
