package store

import (
	"sync"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.JobStore = (*MemoryStore)(nil)

// MemoryStore is the in-memory job table. It is owned by the server instance
// rather than package state so tests can run isolated tables side by side.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

func (s *MemoryStore) Insert(job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(id string) (*model.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return j.Clone(), true
}

// Update runs fn on the live record while the table lock is held, which makes
// a read-check-mutate sequence atomic with respect to every other caller.
// A missing id reports false: writes to an evicted job are silently dropped.
func (s *MemoryStore) Update(id string, fn func(*model.Job) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	return fn(j)
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

func (s *MemoryStore) ForEach(fn func(*model.Job)) {
	s.mu.RLock()
	snapshot := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		snapshot = append(snapshot, j.Clone())
	}
	s.mu.RUnlock()

	for _, j := range snapshot {
		fn(j)
	}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
