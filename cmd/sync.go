package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send buffered answer results",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		pending := e.outbox.Len()
		if pending == 0 {
			fmt.Fprintln(out, "Nothing to send.")
			return nil
		}
		n, err := e.runner.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("%d results still pending: %w", e.outbox.Len(), err)
		}
		fmt.Fprintf(out, "Sent %d results via %s.\n", n, e.cfg.Sync)
		return nil
	},
}
