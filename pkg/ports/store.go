package ports

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// WorkflowStore defines the interface for persisting workflows.
type WorkflowStore interface {
	// Save persists the workflow under wf.ID, replacing any previous version.
	Save(ctx context.Context, wf *domain.Workflow) error

	// Load retrieves a workflow by id.
	// Returns domain.ErrWorkflowNotFound if the workflow does not exist.
	Load(ctx context.Context, workflowID string) (*domain.Workflow, error)

	// Delete removes a workflow. Deleting a missing workflow is not an error.
	Delete(ctx context.Context, workflowID string) error

	// List returns the ids of every stored workflow.
	List(ctx context.Context) ([]string, error)
}
