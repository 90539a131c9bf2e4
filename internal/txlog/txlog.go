// Package txlog keeps the append-only record of executed fills.
// Entries are immutable once recorded; there are no failure modes.
package txlog

import "papertradev1/internal/model"

// Log is the append-only transaction history, oldest first internally.
type Log struct {
	entries []model.Transaction
}

// New creates an empty Log.
func New() *Log { return &Log{} }

// Record appends one executed fill.
func (l *Log) Record(t model.Transaction) {
	l.entries = append(l.entries, t)
}

// Len returns the number of recorded transactions.
func (l *Log) Len() int { return len(l.entries) }

// All returns a copy of all transactions, most recent first.
func (l *Log) All() []model.Transaction {
	out := make([]model.Transaction, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// ByInstrument returns transactions for one instrument, most recent first.
func (l *Log) ByInstrument(instrumentID string) []model.Transaction {
	var out []model.Transaction
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].InstrumentID == instrumentID {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// Reset clears the history (portfolio reset).
func (l *Log) Reset() { l.entries = nil }

// Restore replaces the history wholesale (startup rehydration).
// Entries are expected oldest first.
func (l *Log) Restore(entries []model.Transaction) {
	l.entries = make([]model.Transaction, len(entries))
	copy(l.entries, entries)
}

// Chronological returns a copy of all transactions oldest first
// (snapshot persistence).
func (l *Log) Chronological() []model.Transaction {
	out := make([]model.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}
