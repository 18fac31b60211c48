// compose.go is the composition root: it wires the store, LLM adapters,
// engine, and orchestrator from config. Nothing else constructs these.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fathom-dev/fathom/internal/config"
	"github.com/fathom-dev/fathom/internal/gate"
	"github.com/fathom-dev/fathom/internal/interview"
	"github.com/fathom-dev/fathom/internal/llm"
	"github.com/fathom-dev/fathom/internal/log"
	"github.com/fathom-dev/fathom/internal/orchestrator"
	"github.com/fathom-dev/fathom/internal/session"
	"github.com/fathom-dev/fathom/internal/stage"
)

// app bundles the wired collaborators a command needs.
type app struct {
	cfg      *config.Config
	store    session.Store
	orch     *orchestrator.Orchestrator
	registry *stage.Registry
	logger   *log.Logger
	root     string
}

// requireInit reads config from the working directory, failing with a hint
// when fathom init has not run.
func requireInit() (*config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := config.ReadConfig(root)
	if err != nil {
		return nil, "", fmt.Errorf(".fathom/ not found or unreadable (run 'fathom init' first): %w", err)
	}
	return cfg, root, nil
}

// openStore opens the configured session store backend.
func openStore(ctx context.Context, cfg *config.Config, root string) (session.Store, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		url := cfg.Storage.DatabaseURL
		if url == "" {
			url = os.Getenv("FATHOM_DATABASE_URL")
		}
		if url == "" {
			return nil, fmt.Errorf("postgres backend selected but no database_url configured")
		}
		return session.NewPostgresStore(ctx, url)
	default:
		path := cfg.Storage.Path
		if path == "" {
			path = ".fathom/sessions.db"
		}
		return session.NewSQLiteStore(path)
	}
}

// buildApp wires the full dependency graph for interview commands.
func buildApp(ctx context.Context) (*app, error) {
	cfg, root, err := requireInit()
	if err != nil {
		return nil, err
	}

	logger, err := log.NewLogger(root)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := openStore(ctx, cfg, root)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	completer, err := llm.NewGeminiCompleter(ctx, cfg.Model.Name)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	evaluator, err := llm.NewEvaluator(completer, cfg.Interview.QualityThreshold, cfg.Model.MaxTokens, cfg.Model.Temperature)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	followUp, err := llm.NewFollowUpWriter(completer, cfg.Model.MaxTokens, cfg.Model.Temperature)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	engine := interview.NewEngine(evaluator, followUp,
		interview.WithThreshold(cfg.Interview.QualityThreshold),
		interview.WithCallTimeout(time.Duration(cfg.Interview.CallTimeout)*time.Second),
		interview.WithLogger(logger),
	)

	registry := stage.NewRegistry()

	orch, err := orchestrator.New(orchestrator.Options{
		Store:       store,
		Gate:        gate.NewFieldValidator(),
		Checker:     gate.NewRuleChecker(),
		Registry:    registry,
		Engine:      engine,
		Logger:      logger,
		MaxAttempts: cfg.Interview.MaxAttempts,
		Retries:     cfg.Interview.CheckpointRetries,
		Thresholds:  cfg.Governance,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    store,
		orch:     orch,
		registry: registry,
		logger:   logger,
		root:     root,
	}, nil
}

// buildQueryApp wires only the store-backed query surface (no LLM backend),
// for commands that never run an interview.
func buildQueryApp(ctx context.Context) (*app, error) {
	cfg, root, err := requireInit()
	if err != nil {
		return nil, err
	}

	logger, err := log.NewLogger(root)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := openStore(ctx, cfg, root)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	return &app{cfg: cfg, store: store, logger: logger, root: root}, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
