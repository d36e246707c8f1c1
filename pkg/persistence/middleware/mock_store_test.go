package middleware_test

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps pointers as given so tests can inspect what reached the store.
type MockStore struct {
	data map[string]*domain.Workflow
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Workflow),
	}
}

func (s *MockStore) Save(ctx context.Context, wf *domain.Workflow) error {
	s.data[wf.ID] = wf
	return nil
}

func (s *MockStore) Load(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	wf, ok := s.data[workflowID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return wf, nil
}

func (s *MockStore) Delete(ctx context.Context, workflowID string) error {
	delete(s.data, workflowID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.WorkflowStore = (*MockStore)(nil)
