package persistence

import "database/sql"

// Persistence bundles the store interfaces so the host
// can depend on a single abstraction.
type Persistence struct {
	Submissions SubmissionStore
	Events      EventStore
}

// WithDefaults fills unset stores: submissions go to memory, events are
// discarded.
func (p Persistence) WithDefaults() Persistence {
	if p.Submissions == nil {
		p.Submissions = NewInMemoryStore()
	}
	if p.Events == nil {
		p.Events = NoopEventStore{}
	}
	return p
}

// NewSQLite creates the submission and event tables in db and returns both
// stores.
func NewSQLite(db *sql.DB) (Persistence, error) {
	subs, err := NewSQLiteSubmissionStore(db)
	if err != nil {
		return Persistence{}, err
	}
	events, err := NewSQLiteEventStore(db)
	if err != nil {
		return Persistence{}, err
	}
	return Persistence{Submissions: subs, Events: events}, nil
}
