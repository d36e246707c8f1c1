// Package memory provides an in-process WorkflowStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Store implements ports.WorkflowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Workflow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Workflow),
	}
}

// Save persists the workflow in memory.
func (s *Store) Save(ctx context.Context, wf *domain.Workflow) error {
	if wf == nil || wf.ID == "" {
		return fmt.Errorf("workflow id cannot be empty")
	}
	// Deep copy to ensure isolation, similar to serialization
	copied := wf.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[wf.ID] = copied
	return nil
}

// Load retrieves the workflow from memory.
func (s *Store) Load(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.data[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrWorkflowNotFound, workflowID)
	}

	// Copy on read so callers can't mutate store state through the pointer
	ret := wf.Clone()
	return &ret, nil
}

// Delete removes the workflow.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, workflowID)
	return nil
}

// List returns the stored workflow ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
