package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans graph diffs out to the SSE clients of each workflow.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // WorkflowID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for workflowID. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(workflowID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[workflowID]; !ok {
		sm.subscribers[workflowID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[workflowID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[workflowID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, workflowID)
				}
			}
		})
	}
}

// Subscribers returns the number of clients listening on workflowID.
func (sm *StreamManager) Subscribers(workflowID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[workflowID])
}

// Broadcast sends msg to every subscriber of workflowID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(workflowID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs := sm.subscribers[workflowID]
	sm.logger.Debug("broadcasting diff", "workflow_id", workflowID, "subscribers", len(subs), "payload_size", len(msg))
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "workflow_id", workflowID)
		}
	}
}
