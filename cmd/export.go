package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write progress to a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		qs, err := e.localCatalog(cmd.Context())
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("output")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()

		err = export.Write(f, export.Report{
			UserID:      e.cfg.UserID,
			GeneratedAt: time.Now(),
			Catalog:     qs,
			State:       e.runner.State(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "kuiz-progress.xlsx", "Workbook path")
}
