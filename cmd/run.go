package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/app"
	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/screen"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	policy, err := sessionPolicy(cmd)
	if err != nil {
		return err
	}
	e.runner.SetPolicy(policy)

	deps := screen.Deps{
		Runner:  e.runner,
		Loader:  e.loader(),
		Catalog: e.localCatalog,
		Query:   catalog.Query{UserID: e.cfg.UserID, Limit: e.batchLimit(cmd)},
		Mode:    policy.Mode,
		Explain: policy.Explain,
		Journal: e.store,
		Timeout: e.cfg.HTTPTimeout + screen.DefaultTimeout,
		Logger:  e.logger,
	}
	runErr := app.Run(deps)

	// Results left buffered by a failed or skipped flush are retried on exit.
	if e.outbox.Len() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.HTTPTimeout)
		defer cancel()
		if _, err := e.runner.Sync(ctx); err != nil {
			e.logger.Warn("final sync", "pending", e.outbox.Len(), "error", err)
		}
	}
	return runErr
}
