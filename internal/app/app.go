package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vkazantsev/flowcore/internal/ctxlog"
	"github.com/vkazantsev/flowcore/internal/llm/modelconfig"
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipedecl"
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/pipestore"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: an isolated logger, the pipelines loaded from the manifest,
// and the store every run is persisted into.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	vars       *Variables
	pipelines  []*pipeline.Pipeline
	store      pipestore.Store
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the
// manifest at cfg.ManifestPath, resolves every step block against the
// built-in chat completion VariableSet and action registry, and returns a
// fully initialized App ready to Run.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	vars := NewVariables()

	var models *modelconfig.File
	if cfg.ModelConfigPath != "" {
		var err error
		models, err = modelconfig.Load(cfg.ModelConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model config: %w", err)
		}
	} else {
		models = &modelconfig.File{Profiles: map[string]modelconfig.Profile{}}
	}

	actions := coreActions(vars, models, defaultProviders(cfg))

	pipelines, err := pipedecl.Load(ctx, vars.Set, actions, cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	logger.Debug("Manifest loaded.", "pipelines", len(pipelines))

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		vars:      vars,
		pipelines: pipelines,
		store:     pipestore.NewInMemory(),
	}, nil
}

// Pipelines returns every pipeline loaded from the manifest. This is
// primarily for testing.
func (a *App) Pipelines() []*pipeline.Pipeline { return a.pipelines }

// Variables returns the built-in chat completion VariableSet the App's
// pipelines are declared against, so a caller can seed inputs and read
// outputs with keys that resolve against the same Set.
func (a *App) Variables() *Variables { return a.vars }

// Store returns the App's persistence store. This is primarily for
// testing.
func (a *App) Store() pipestore.Store { return a.store }

// SeedInputs writes values directly into the store under the configured
// run ID, ahead of Run loading each pipeline's seed context. This is how
// a caller provides external inputs — a prompt, a model profile name —
// that no step produces.
func (a *App) SeedInputs(ctx context.Context, p *pipeline.Pipeline, values map[varset.AnyKey]any) error {
	tracked := pipectx.NewTracked()
	keys := make([]varset.AnyKey, 0, len(values))
	for k, v := range values {
		tracked.SetAny(k.ID(), v, nil)
		keys = append(keys, k)
	}
	return a.store.SerializeKeys(ctx, a.config.RunID, p, keys, tracked)
}
