package app

import (
	"context"
	"fmt"

	"github.com/vkazantsev/flowcore/internal/ctxlog"
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipexec"
)

// Run executes every pipeline loaded from the manifest, in declaration
// order, persisting each run's result under the configured run ID before
// moving to the next pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer a.closeHealthCheckServer(ctx)
	}

	if len(a.pipelines) == 0 {
		a.logger.Warn("No pipelines found in manifest, nothing to run.")
		return nil
	}

	for _, p := range a.pipelines {
		a.logger.Info("Running pipeline.", "pipeline", p.ID())

		seed, err := a.store.LoadContextForPipeline(ctx, a.config.RunID, p, pipectx.NewTracked(), true, false)
		if err != nil {
			return fmt.Errorf("pipeline %q: loading seed inputs: %w", p.ID(), err)
		}

		exec := pipexec.New(p)
		if _, err := exec.Prepare(ctx, seed).ExecuteAndSave(a.config.RunID, a.store); err != nil {
			return fmt.Errorf("pipeline %q failed: %w", p.ID(), err)
		}
		a.logger.Info("Pipeline finished.", "pipeline", p.ID())
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
