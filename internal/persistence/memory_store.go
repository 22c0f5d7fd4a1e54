package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/formflow/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe SubmissionStore backed by a map.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*api.Submission
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		submissions: make(map[string]*api.Submission),
	}
}

// Ensure InMemoryStore implements the interface.
var _ SubmissionStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveSubmission(ctx context.Context, sub *api.Submission) error {
	if err := checkSubmission(sub); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = cloneSubmission(sub)
	return nil
}

func (s *InMemoryStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (s *InMemoryStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*api.Submission, error) {
	s.mu.RLock()
	out := make([]*api.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if filter.match(sub) {
			out = append(out, cloneSubmission(sub))
		}
	}
	s.mu.RUnlock()

	sortSubmissions(out)
	return filter.truncate(out), nil
}
