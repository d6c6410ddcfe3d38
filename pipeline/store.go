package pipeline

import (
	"context"
	"sync"

	apperrors "github.com/kbukum/vidscribe/errors"
)

// Store persists jobs.
type Store interface {
	// Save inserts or replaces a job. Done jobs are indexed by content hash
	// and name.
	Save(ctx context.Context, job *Job) error
	// Get returns the job with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Job, error)
	// FindByHash returns the most recently completed job for a content hash
	// and name, or (nil, nil) when there is none.
	FindByHash(ctx context.Context, hash, name string) (*Job, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	byHash map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[string]*Job),
		byHash: make(map[string]string),
	}
}

// Save stores a copy of job.
func (s *MemoryStore) Save(_ context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return apperrors.MissingField("id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.clone()
	if job.State == StateDone && job.ContentHash != "" {
		s.byHash[hashKey(job.ContentHash, job.Name)] = job.ID
	}
	return nil
}

// Get returns a copy of the stored job.
func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("job", id)
	}
	return job.clone(), nil
}

// FindByHash returns a copy of the last done job with the given hash and name.
func (s *MemoryStore) FindByHash(_ context.Context, hash, name string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hashKey(hash, name)]
	if !ok {
		return nil, nil
	}
	return s.jobs[id].clone(), nil
}

func hashKey(hash, name string) string {
	return hash + "\x00" + name
}
