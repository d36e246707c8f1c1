package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a workflow.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// openWorkflow is a loaded workflow: its record (without graph) and live editor.
type openWorkflow struct {
	info   domain.Workflow
	editor *flowcanvas.Editor
}

// Manager orchestrates workflow access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.WorkflowStore

	mu    sync.Mutex            // Global lock for the lock map
	locks map[string]*lockEntry // Map of active locks

	emu  sync.Mutex
	open map[string]*openWorkflow

	locker     ports.DistributedLocker
	lockTTL    time.Duration
	editorOpts []flowcanvas.Option
	newID      func() string
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets options applied to every editor the manager opens
// (registry, lifecycle hooks, logger...).
func WithEditorOptions(opts ...flowcanvas.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// WithIDGenerator replaces the UUID workflow id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new workspace over the given store.
func NewManager(store ports.WorkflowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		open:    make(map[string]*openWorkflow),
		lockTTL: DefaultLockTTL,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(workflowID) after unlocking.
func (m *Manager) acquire(workflowID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[workflowID]
	if !exists {
		entry = &lockEntry{}
		m.locks[workflowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(workflowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[workflowID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, workflowID)
	}
}

// WithLock executes fn while holding the lock for the workflow.
func (m *Manager) WithLock(ctx context.Context, workflowID string, fn func(context.Context) error) error {
	entry := m.acquire(workflowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(workflowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, workflowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"workflow_id", workflowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create starts a new workflow holding the seed document and persists it.
func (m *Manager) Create(ctx context.Context, name, description string) (*domain.Workflow, error) {
	id := m.newID()
	ed, err := flowcanvas.New(m.editorOpts...)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	wf := &domain.Workflow{
		ID:          id,
		Name:        name,
		Description: description,
		Graph:       ed.Snapshot(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = m.WithLock(ctx, id, func(ctx context.Context) error {
		if err := m.store.Save(ctx, wf); err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}
		m.cache(wf, ed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("workflow created", "workflow_id", id, "name", name)
	return wf, nil
}

// Editor returns the live editor of a workflow, loading it from the store on first use.
func (m *Manager) Editor(ctx context.Context, workflowID string) (*flowcanvas.Editor, error) {
	if ow, ok := m.cached(workflowID); ok {
		return ow.editor, nil
	}

	var ed *flowcanvas.Editor
	err := m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		// Another caller may have loaded it while we waited.
		if ow, ok := m.cached(workflowID); ok {
			ed = ow.editor
			return nil
		}

		wf, err := m.store.Load(ctx, workflowID)
		if err != nil {
			return err
		}
		opts := append([]flowcanvas.Option{flowcanvas.WithSnapshot(wf.Graph)}, m.editorOpts...)
		ed, err = flowcanvas.New(opts...)
		if err != nil {
			return fmt.Errorf("workflow %q holds an invalid graph: %w", workflowID, err)
		}
		m.cache(wf, ed)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrWorkflowNotFound) {
			m.logger.Warn("workflow not found", "workflow_id", workflowID)
		}
		return nil, err
	}
	return ed, nil
}

// Get returns the workflow record. Open workflows report the live graph of their editor.
func (m *Manager) Get(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	if ow, ok := m.cached(workflowID); ok {
		wf := ow.info
		wf.Graph = ow.editor.Snapshot()
		return &wf, nil
	}

	var wf *domain.Workflow
	err := m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		var err error
		wf, err = m.store.Load(ctx, workflowID)
		return err
	})
	return wf, err
}

// Info describes the editable attributes of a workflow.
type Info struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// Update changes the attributes of a workflow and persists it with the current graph.
func (m *Manager) Update(ctx context.Context, workflowID string, info Info) (*domain.Workflow, error) {
	if _, err := m.Editor(ctx, workflowID); err != nil {
		return nil, err
	}
	m.emu.Lock()
	ow, ok := m.open[workflowID]
	if ok {
		if info.Name != nil {
			ow.info.Name = *info.Name
		}
		if info.Description != nil {
			ow.info.Description = *info.Description
		}
		if info.Active != nil {
			ow.info.Active = *info.Active
		}
	}
	m.emu.Unlock()
	if !ok {
		// Deleted concurrently.
		return nil, fmt.Errorf("%w: %q", domain.ErrWorkflowNotFound, workflowID)
	}
	return m.Save(ctx, workflowID)
}

// Save persists the current graph of an open workflow and bumps UpdatedAt.
func (m *Manager) Save(ctx context.Context, workflowID string) (*domain.Workflow, error) {
	ow, ok := m.cached(workflowID)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not open", domain.ErrWorkflowNotFound, workflowID)
	}

	var saved *domain.Workflow
	err := m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		m.emu.Lock()
		wf := ow.info
		wf.UpdatedAt = m.now().UTC()
		ow.info.UpdatedAt = wf.UpdatedAt
		m.emu.Unlock()

		wf.Graph = ow.editor.Snapshot()
		if err := m.store.Save(ctx, &wf); err != nil {
			return fmt.Errorf("failed to save workflow: %w", err)
		}
		saved = &wf
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("workflow saved", "workflow_id", workflowID, "nodes", len(saved.Graph.Nodes), "edges", len(saved.Graph.Edges))
	return saved, nil
}

// Import stores a workflow built elsewhere (e.g. from an exported snapshot).
// The graph is validated first; an empty id gets a fresh one.
func (m *Manager) Import(ctx context.Context, wf domain.Workflow) (*domain.Workflow, error) {
	if wf.ID == "" {
		wf.ID = m.newID()
	}
	opts := append([]flowcanvas.Option{flowcanvas.WithSnapshot(wf.Graph)}, m.editorOpts...)
	ed, err := flowcanvas.New(opts...)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = now
	}
	wf.UpdatedAt = now
	wf.Graph = ed.Snapshot()

	err = m.WithLock(ctx, wf.ID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, &wf); err != nil {
			return fmt.Errorf("failed to import workflow: %w", err)
		}
		m.cache(&wf, ed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// Delete removes the workflow from the store and closes its editor.
func (m *Manager) Delete(ctx context.Context, workflowID string) error {
	return m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, workflowID); err != nil {
			return err
		}
		m.Close(workflowID)
		return nil
	})
}

// Close drops the cached editor without saving it.
func (m *Manager) Close(workflowID string) {
	m.emu.Lock()
	defer m.emu.Unlock()
	delete(m.open, workflowID)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying workflow store.
func (m *Manager) Store() ports.WorkflowStore {
	return m.store
}

func (m *Manager) cached(workflowID string) (*openWorkflow, bool) {
	m.emu.Lock()
	defer m.emu.Unlock()
	ow, ok := m.open[workflowID]
	return ow, ok
}

func (m *Manager) cache(wf *domain.Workflow, ed *flowcanvas.Editor) {
	info := *wf
	info.Graph = domain.Snapshot{}

	m.emu.Lock()
	defer m.emu.Unlock()
	m.open[wf.ID] = &openWorkflow{info: info, editor: ed}
}
