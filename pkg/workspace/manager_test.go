package workspace_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/adapters/redis"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/factory"
	"github.com/aretw0/flowcanvas/pkg/workspace"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newManager(t *testing.T, opts ...workspace.Option) (*workspace.Manager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	var n atomic.Int64
	base := []workspace.Option{
		workspace.WithIDGenerator(func() string { return "wf-" + string(rune('a'+n.Add(1)-1)) }),
		workspace.WithClock(func() time.Time { return fixedNow }),
	}
	return workspace.NewManager(store, append(base, opts...)...), store
}

func TestCreate(t *testing.T) {
	mgr, store := newManager(t)
	ctx := context.Background()

	wf, err := mgr.Create(ctx, "Onboarding", "new signups")
	require.NoError(t, err)
	assert.Equal(t, "wf-a", wf.ID)
	assert.Equal(t, fixedNow, wf.CreatedAt)
	require.Len(t, wf.Graph.Nodes, 1, "new workflows hold the seed trigger")

	stored, err := store.Load(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", stored.Name)
}

func TestEditorAndSave(t *testing.T) {
	mgr, store := newManager(t)
	ctx := context.Background()

	wf, err := mgr.Create(ctx, "Sync", "")
	require.NoError(t, err)

	ed, err := mgr.Editor(ctx, wf.ID)
	require.NoError(t, err)
	again, err := mgr.Editor(ctx, wf.ID)
	require.NoError(t, err)
	assert.Same(t, ed, again, "editors are cached per workflow")

	n, err := ed.AddNode(ctx, domain.KindAction, "Send Email", factory.Viewport{})
	require.NoError(t, err)

	// Unsaved edits are visible through Get but not in the store.
	live, err := mgr.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Len(t, live.Graph.Nodes, 2)
	stored, _ := store.Load(ctx, wf.ID)
	assert.Len(t, stored.Graph.Nodes, 1)

	saved, err := mgr.Save(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sync", saved.Name)
	stored, _ = store.Load(ctx, wf.ID)
	assert.Len(t, stored.Graph.Nodes, 2)

	// A fresh manager reloads the graph and continues numbering above it.
	fresh := workspace.NewManager(store)
	ed2, err := fresh.Editor(ctx, wf.ID)
	require.NoError(t, err)
	next, err := ed2.AddNode(ctx, domain.KindAction, "Add to CRM", factory.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, "2", n.ID)
	assert.Equal(t, "3", next.ID)
}

func TestEditor_NotFound(t *testing.T) {
	mgr, _ := newManager(t)
	_, err := mgr.Editor(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)

	_, err = mgr.Save(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestUpdate(t *testing.T) {
	mgr, store := newManager(t)
	ctx := context.Background()
	wf, err := mgr.Create(ctx, "Old", "desc")
	require.NoError(t, err)

	name, active := "New", true
	updated, err := mgr.Update(ctx, wf.ID, workspace.Info{Name: &name, Active: &active})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "desc", updated.Description)
	assert.True(t, updated.Active)

	stored, _ := store.Load(ctx, wf.ID)
	assert.Equal(t, "New", stored.Name)
}

func TestImport(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()

	wf, err := mgr.Import(ctx, domain.Workflow{
		Name: "Imported",
		Graph: domain.Snapshot{Nodes: []domain.Node{
			{ID: "10", Kind: domain.KindTrigger, Label: "Webhook"},
		}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, wf.ID)
	assert.Equal(t, fixedNow, wf.CreatedAt)

	_, err = mgr.Import(ctx, domain.Workflow{Graph: domain.Snapshot{Nodes: []domain.Node{{ID: "1", Kind: "input"}}}})
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestDelete(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	wf, err := mgr.Create(ctx, "Temp", "")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, wf.ID))
	_, err = mgr.Get(ctx, wf.ID)
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestConcurrentSaves(t *testing.T) {
	mgr, _ := newManager(t)
	ctx := context.Background()
	wf, err := mgr.Create(ctx, "Busy", "")
	require.NoError(t, err)
	ed, err := mgr.Editor(ctx, wf.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ed.AddNode(ctx, domain.KindAction, "HTTP Request", factory.Viewport{})
			assert.NoError(t, err)
			_, err = mgr.Save(ctx, wf.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := mgr.Save(ctx, wf.ID)
	require.NoError(t, err)
	assert.Len(t, final.Graph.Nodes, 11)
}

func TestWithLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	mgr, _ := newManager(t, workspace.WithLocker(redis.NewLocker(client, "test:")), workspace.WithLockTTL(time.Second))
	ctx := context.Background()

	wf, err := mgr.Create(ctx, "Locked", "")
	require.NoError(t, err)

	err = mgr.WithLock(ctx, wf.ID, func(ctx context.Context) error {
		assert.True(t, mr.Exists("test:lock:"+wf.ID), "distributed lock held inside WithLock")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:"+wf.ID))
}
