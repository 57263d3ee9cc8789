package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/codehunt/internal/bridge"
	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/codecontext"
	"github.com/abhisek/codehunt/internal/config"
	"github.com/abhisek/codehunt/internal/editor"
	"github.com/abhisek/codehunt/internal/editor/fswatch"
	"github.com/abhisek/codehunt/internal/llm"
	"github.com/abhisek/codehunt/internal/metrics"
	"github.com/abhisek/codehunt/internal/session"
	"github.com/abhisek/codehunt/internal/store"
	"github.com/abhisek/codehunt/internal/verify"
)

var errNoEditor = errors.New("no editor connected")

// runtime is one wired session: the orchestrator and the services that
// feed it editor events.
type runtime struct {
	cfg *config.Config
	log zerolog.Logger

	store   *store.Store
	orch    *session.Orchestrator
	bridge  *bridge.Server
	watcher *fswatch.Watcher
}

// newRuntime wires a session over cfg. Extra presenters receive every
// session update alongside the editor bridge.
func newRuntime(ctx context.Context, cfg *config.Config, log zerolog.Logger, presenters ...session.Presenter) (*runtime, error) {
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}

	rt := &runtime{cfg: cfg, log: log, store: st}
	m := metrics.New()
	hub := editor.NewHub()

	buffers := editor.NewBuffers(func(path string, line int) error {
		if rt.bridge == nil {
			return errNoEditor
		}
		return rt.bridge.Reveal(path, line)
	})

	if cfg.BridgeAddr != "" {
		rt.bridge = bridge.New(nil, hub, buffers, bridge.Options{Metrics: m.Handler()}, log)
		presenters = append(presenters, rt.bridge)
	}

	rt.watcher, err = fswatch.New(cfg.Roots, codecontext.DefaultIgnoredDirs, hub, log)
	if err != nil {
		log.Warn().Err(err).Msg("file watching unavailable, edits are only seen through the editor bridge")
		rt.watcher = nil
	}

	modification := verify.NewModificationVerifier(hub, buffers,
		verify.Options{Timeout: cfg.ModificationTimeout}, log)

	rt.orch = session.New(session.Deps{
		Extractor:    codecontext.NewExtractor(cfg.ExtractOptions(), log),
		Generator:    challenge.New(provider, challenge.DefaultConfig()),
		Navigation:   verify.NewNavigationVerifier(hub, buffers, verify.Options{Timeout: cfg.NavigationTimeout}, log),
		Modification: modification,
		Differ:       modification,
		Documents:    buffers,
		Presenter:    session.Presenters(presenters),
		Metrics:      m,
	}, session.Config{
		Roots:              cfg.Roots,
		SkipRestartDelay:   cfg.SkipRestartDelay,
		ResultRestartDelay: cfg.ResultRestartDelay,
	}, log)

	if rt.bridge != nil {
		rt.bridge.SetController(rt.orch)
	}
	return rt, nil
}

// run starts the orchestrator and its services plus any extra tasks. The
// first task to fail, or to return at all when it is a foreground task,
// stops the rest.
func (rt *runtime) run(ctx context.Context, foreground ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.orch.Run(gctx) })
	if rt.bridge != nil {
		g.Go(func() error { return rt.bridge.Run(gctx, rt.cfg.BridgeAddr) })
	}
	if rt.watcher != nil {
		g.Go(func() error {
			// Saved-file events are optional; the session keeps running without them.
			if err := rt.watcher.Run(gctx); err != nil {
				rt.log.Warn().Err(err).Msg("file watching stopped, edits are only seen through the editor bridge")
			}
			return nil
		})
	}
	for _, fn := range foreground {
		g.Go(func() error {
			defer cancel()
			return fn(gctx)
		})
	}
	return g.Wait()
}

func (rt *runtime) Close() error {
	if rt.watcher != nil {
		rt.watcher.Close()
	}
	return rt.store.Close()
}
