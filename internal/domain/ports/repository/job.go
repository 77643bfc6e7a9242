package repository

import "agent-task-bridge/internal/domain/model"

// JobStore is the in-memory job table. Implementations must be safe for
// concurrent use: HTTP handlers, correlator callbacks and the sweeper all
// touch the same records.
type JobStore interface {
	// Insert adds a job; returns domain.ErrAlreadyExists on a duplicate id.
	Insert(job *model.Job) error
	// Get returns a snapshot copy of the job.
	Get(id string) (*model.Job, bool)
	// Update applies fn to the live record under the store lock. fn returns
	// whether it mutated the job; Update reports that result, or false when
	// the id is absent. This is the compare-and-set primitive the correlator
	// and the lazy timeout check rely on for at-most-once transitions.
	Update(id string, fn func(*model.Job) bool) bool
	Delete(id string)
	// ForEach visits a snapshot copy of every job.
	ForEach(fn func(*model.Job))
	Len() int
}
