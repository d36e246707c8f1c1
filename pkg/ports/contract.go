package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWorkflowStoreContract runs a suite of tests to verify that a WorkflowStore
// implementation adheres to the defined interface contract.
func RunWorkflowStoreContract(t *testing.T, store WorkflowStore) {
	ctx := context.Background()
	workflowID := "contract-test-workflow-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		wf := contractWorkflow(workflowID)

		err := store.Save(ctx, wf)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, wf.Name, loaded.Name)
		assert.True(t, wf.CreatedAt.Equal(loaded.CreatedAt))

		// Persisted payloads may come back with JSON numbers (float64); the
		// graph must still be the same graph.
		if diff := cmp.Diff(wf.Graph, loaded.Graph, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("graph mismatch (-want +got):\n%s", diff)
		}
		code := loaded.Graph.Nodes[1].Code()
		assert.Equal(t, "return 42", code.Code)
		assert.Equal(t, domain.LanguagePython, code.Language)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		loaded.Graph.Nodes[1].Data[domain.KeyCode] = "mutated"
		loaded.Name = "mutated"

		again, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, "return 42", again.Graph.Nodes[1].Data[domain.KeyCode])
		assert.NotEqual(t, "mutated", again.Name)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		wf := contractWorkflow(workflowID)
		wf.Name = "renamed"
		wf.Graph.Edges = []domain.Edge{}
		require.NoError(t, store.Save(ctx, wf))

		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)
		assert.Empty(t, loaded.Graph.Edges)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+workflowID)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractWorkflow(workflowID)))

		err := store.Delete(ctx, workflowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, workflowID)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound, "Load after Delete should return ErrWorkflowNotFound")

		assert.NoError(t, store.Delete(ctx, workflowID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := workflowID + "-1"
		id2 := workflowID + "-2"
		_ = store.Save(ctx, contractWorkflow(id1))
		_ = store.Save(ctx, contractWorkflow(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		workflows, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, workflows, id1)
		assert.Contains(t, workflows, id2)
	})
}

func contractWorkflow(id string) *domain.Workflow {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Workflow{
		ID:          id,
		Name:        "Contract",
		Description: "store contract fixture",
		Graph: domain.Snapshot{
			Nodes: []domain.Node{
				{ID: "1", Kind: domain.KindTrigger, Label: "Webhook", Position: domain.Position{X: 250, Y: 50}, Data: domain.NodeData{}},
				{ID: "2", Kind: domain.KindCustomCode, Label: "Custom Code", Position: domain.Position{X: 120.5, Y: 300},
					Data: domain.NodeData{domain.KeyCode: "return 42", domain.KeyLanguage: "python"}},
			},
			Edges: []domain.Edge{domain.NewEdge(domain.ConnectRequest{Source: "1", Target: "2"})},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
