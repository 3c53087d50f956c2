package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/palette"
	"github.com/aretw0/palette/internal/config"
	"github.com/aretw0/palette/pkg/adapters/file"
	"github.com/aretw0/palette/pkg/adapters/memory"
	"github.com/aretw0/palette/pkg/adapters/process"
	"github.com/aretw0/palette/pkg/adapters/redis"
	"github.com/aretw0/palette/pkg/domain"
	"github.com/aretw0/palette/pkg/observability"
	"github.com/aretw0/palette/pkg/persistence/middleware"
	"github.com/aretw0/palette/pkg/ports"
	"github.com/aretw0/palette/pkg/session"
)

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Config config.Config
	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
	// Output receives the stdout of process-backed actions. Nil discards it.
	Output io.Writer
}

// NewEngine builds an engine over the configured definition files, binds the
// allow-listed tools as perform handlers and loads the actions once.
func NewEngine(ctx context.Context, opts EngineOptions) (*palette.Engine, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	tools, err := process.LoadTools(cfg.Tools)
	if err != nil {
		return nil, err
	}
	runnerOpts := []process.RunnerOption{
		process.WithRegistry(tools),
		process.WithBaseDir(filepath.Dir(cfg.Tools)),
		process.WithLogger(logger),
	}
	if opts.Output != nil {
		runnerOpts = append(runnerOpts, process.WithOutput(opts.Output))
	}
	procRunner := process.NewRunner(runnerOpts...)

	hooks := observability.LoggingHooks(logger).Merge(opts.Hooks)
	engine := palette.New(
		palette.WithLogger(logger),
		palette.WithLoader(file.New(cfg.Actions)),
		palette.WithShortcutTimeout(cfg.Shortcut.Timeout),
		palette.WithSearchLimit(cfg.Search.Limit),
		palette.WithLifecycleHooks(hooks),
	)
	procRunner.Bind(engine.Registry())

	if err := engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("engine ready", "actions", engine.Tree().Len(), "tools", procRunner.Names())
	return engine, nil
}

// NewSessionManager picks the session store: Redis when an address is configured,
// memory otherwise. Redaction and query encryption wrap the store when configured.
// The returned func releases the store's connections.
func NewSessionManager(ctx context.Context, cfg config.Config, logger *slog.Logger) (*session.Manager, func() error, error) {
	mws, err := storeMiddlewares(cfg.Session)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Redis.Addr == "" {
		store := middleware.Chain(memory.NewStore(), mws...)
		return session.NewManager(store, session.WithLogger(logger)), func() error { return nil }, nil
	}

	rc := cfg.Redis
	store := redis.New(rc.Addr, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
	if err := store.Client().Ping(ctx).Err(); err != nil {
		_ = store.Client().Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", rc.Addr, err)
	}
	locker := redis.NewLocker(store.Client(), rc.Prefix+"lock:")
	logger.Info("using redis session store", "addr", rc.Addr, "prefix", rc.Prefix, "sealed", cfg.Session.EncryptionKey != "")

	mgr := session.NewManager(middleware.Chain(store, mws...), session.WithLocker(locker), session.WithLogger(logger))
	return mgr, store.Client().Close, nil
}

func storeMiddlewares(cfg config.SessionConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey == "" {
		return mws, nil
	}

	active, err := middleware.DecodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("session.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("session.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return append(mws, mw), nil
}

// NavigatorFactory creates one engine session per request.
func NavigatorFactory(engine *palette.Engine) session.NavigatorFactory {
	return func(id string) ports.Navigator {
		return engine.NewSession(id)
	}
}
