// Package metrics exports editor activity as Prometheus metrics.
// Collectors are fed by lifecycle hooks, so any Editor can be instrumented
// with flowcanvas.WithLifecycleHooks(c.Hooks()).
package metrics

import (
	"context"
	"errors"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flowcanvas"

// Rejection reasons used as label values.
const (
	ReasonUnknownEndpoint = "unknown_endpoint"
	ReasonDuplicate       = "duplicate"
	ReasonOther           = "other"
)

// Collector holds the editor metrics.
type Collector struct {
	NodesAdded    *prometheus.CounterVec
	NodesRemoved  *prometheus.CounterVec
	NodeMoves     prometheus.Counter
	NodeUpdates   prometheus.Counter
	EdgesAdded    prometheus.Counter
	EdgesRemoved  prometheus.Counter
	EdgesRejected *prometheus.CounterVec
	EditorEvents  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// A nil reg skips registration (useful in tests).
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		NodesAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_added_total",
			Help:      "Total number of nodes added, by kind.",
		}, []string{"kind"}),
		NodesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_removed_total",
			Help:      "Total number of nodes removed, by kind.",
		}, []string{"kind"}),
		NodeMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_moves_total",
			Help:      "Total number of applied position changes.",
		}),
		NodeUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_updates_total",
			Help:      "Total number of node payload updates.",
		}),
		EdgesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_added_total",
			Help:      "Total number of edges created.",
		}),
		EdgesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_removed_total",
			Help:      "Total number of edges removed, cascades included.",
		}),
		EdgesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_rejected_total",
			Help:      "Total number of rejected connection attempts, by reason.",
		}, []string{"reason"}),
		EditorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_events_total",
			Help:      "Code dialog transitions, by event.",
		}, []string{"event"}),
	}

	if reg != nil {
		for _, col := range c.collectors() {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.NodesAdded, c.NodesRemoved, c.NodeMoves, c.NodeUpdates,
		c.EdgesAdded, c.EdgesRemoved, c.EdgesRejected, c.EditorEvents,
	}
}

// Hooks returns lifecycle hooks recording into the collectors.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeAdded: func(_ context.Context, e *domain.NodeEvent) {
			c.NodesAdded.WithLabelValues(string(e.Kind)).Inc()
		},
		OnNodeMoved: func(context.Context, *domain.NodeEvent) {
			c.NodeMoves.Inc()
		},
		OnNodeUpdated: func(context.Context, *domain.NodeEvent) {
			c.NodeUpdates.Inc()
		},
		OnNodeRemoved: func(_ context.Context, e *domain.NodeEvent) {
			c.NodesRemoved.WithLabelValues(string(e.Kind)).Inc()
		},
		OnEdgeAdded: func(context.Context, *domain.EdgeEvent) {
			c.EdgesAdded.Inc()
		},
		OnEdgeRemoved: func(context.Context, *domain.EdgeEvent) {
			c.EdgesRemoved.Inc()
		},
		OnEdgeRejected: func(_ context.Context, e *domain.EdgeEvent) {
			c.EdgesRejected.WithLabelValues(reason(e.Reason)).Inc()
		},
		OnEditor: func(_ context.Context, e *domain.EditorEvent) {
			c.EditorEvents.WithLabelValues(string(e.Type)).Inc()
		},
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownEndpoint):
		return ReasonUnknownEndpoint
	case errors.Is(err, domain.ErrDuplicateEdge):
		return ReasonDuplicate
	}
	return ReasonOther
}
