package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/config"
	"github.com/aretw0/flowcanvas/pkg/adapters/file"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/adapters/redis"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/persistence/middleware"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/aretw0/flowcanvas/pkg/registry"
	"github.com/aretw0/flowcanvas/pkg/workspace"
)

// loadRegistry builds the node registry, applying the configured palette file.
func loadRegistry(c config.Config) (*registry.Registry, error) {
	reg, err := registry.LoadFile(c.Palette.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load palette: %w", err)
	}
	return reg, nil
}

// buildStore creates the configured workflow store, wrapped by the redaction
// and encryption middlewares. The returned func releases backend connections.
func buildStore(ctx context.Context, c config.Config) (ports.WorkflowStore, ports.DistributedLocker, func(), error) {
	var (
		store  ports.WorkflowStore
		locker ports.DistributedLocker
		closer = func() {}
	)

	switch c.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(c.Store.Dir)
	case config.BackendRedis:
		rc := c.Store.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			_ = rs.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
		}
		store = rs
		locker = redis.NewLocker(rs.Client(), rc.Prefix)
		closer = func() { _ = rs.Close() }
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(c.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(c.Redact))
	}
	if c.Encryption.Key != "" {
		active, err := middleware.ParseKey(c.Encryption.Key)
		if err != nil {
			closer()
			return nil, nil, nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range c.Encryption.FallbackKeys {
			fallback, err := middleware.ParseKey(k)
			if err != nil {
				closer()
				return nil, nil, nil, err
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fallback)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}

	logger.Info("workflow store ready", "backend", c.Store.Backend, "redact", len(c.Redact) > 0, "encrypted", c.Encryption.Key != "")
	return middleware.Chain(store, mws...), locker, closer, nil
}

// buildWorkspace wires store, locker and editor options into a workspace manager.
func buildWorkspace(ctx context.Context, c config.Config, editorOpts ...flowcanvas.Option) (*workspace.Manager, func(), error) {
	store, locker, closer, err := buildStore(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	opts := []workspace.Option{
		workspace.WithLogger(logger),
		workspace.WithEditorOptions(append([]flowcanvas.Option{flowcanvas.WithLogger(logger)}, editorOpts...)...),
	}
	if locker != nil {
		opts = append(opts, workspace.WithLocker(locker))
	}
	return workspace.NewManager(store, opts...), closer, nil
}

// loadSnapshot reads and validates a snapshot file. The format follows the extension.
func loadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	snap, err := domain.ParseSnapshot(data, domain.FormatFromPath(path))
	if err != nil {
		return domain.Snapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}
