// Package journal records the push events a session receives as JSONL files,
// for offline inspection and replay.
package journal

// Journal persists received push events.
type Journal interface {
	// Record appends one entry to the journal.
	Record(entry any) error

	// Close closes the journal.
	Close() error
}

// NullJournal discards all entries.
type NullJournal struct{}

// NewNullJournal creates a journal that records nothing.
func NewNullJournal() *NullJournal {
	return &NullJournal{}
}

// Record does nothing.
func (j *NullJournal) Record(entry any) error {
	return nil
}

// Close does nothing.
func (j *NullJournal) Close() error {
	return nil
}
