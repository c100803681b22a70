package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kihon/kuiz/internal/catalog"
	"github.com/kihon/kuiz/internal/quiz"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect, merge and import question data",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show question counts per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if e.remote != nil {
			if meta, err := e.remote.FetchMeta(ctx); err == nil {
				fmt.Fprintf(out, "Server (%s)\n", e.remote.BaseURL())
				printMeta(out, meta)
			} else {
				e.logger.Warn("fetch catalog meta", "error", err)
			}
		}

		qs, err := e.localCatalog(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Local")
		printMeta(out, catalog.Summarize(qs))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check data files and report invalid records",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := dataFiles(cmd, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		bad := 0
		for _, f := range files {
			_, report, err := catalog.LoadFile(f)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", filepath.Base(f), err)
				bad++
				continue
			}
			fmt.Fprintf(out, "%s: %d valid, %d skipped\n", filepath.Base(f), report.Loaded, len(report.Skipped))
			for _, s := range report.Skipped {
				fmt.Fprintf(out, "  %v\n", s)
			}
			bad += len(report.Skipped)
		}
		if bad > 0 {
			return fmt.Errorf("%d invalid records", bad)
		}
		return nil
	},
}

var catalogMergeCmd = &cobra.Command{
	Use:   "merge [file...]",
	Short: "Merge data files into one file with sequential ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := dataFiles(cmd, args)
		if err != nil {
			return err
		}
		var sets [][]quiz.Question
		for _, f := range files {
			qs, report, err := catalog.LoadFile(f)
			if err != nil {
				return err
			}
			for _, s := range report.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skip: %v\n", s)
			}
			sets = append(sets, qs)
		}
		items := catalog.Merge(sets...)

		path, _ := cmd.Flags().GetString("output")
		var w io.Writer = cmd.OutOrStdout()
		if path != "" && path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			w = f
		}
		if err := catalog.WriteMerged(w, items); err != nil {
			return err
		}
		if path != "" && path != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "merged %d questions into %s\n", len(items), path)
		}
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the data directory into the local database",
	Long: "Replace the imported questions with every valid record of the data directory.\n" +
		"Imported questions take precedence over the data files when offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		qs, reports, err := e.static.LoadAll(ctx)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			return errors.New("no valid questions in " + e.cfg.DataDir)
		}
		if err := e.store.ReplaceQuestions(ctx, qs); err != nil {
			return err
		}
		skipped := 0
		for _, r := range reports {
			skipped += len(r.Skipped)
		}
		e.logger.Info("questions imported", "count", len(qs), "skipped", skipped)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions (%d skipped)\n", len(qs), skipped)
		return nil
	},
}

func init() {
	catalogMergeCmd.Flags().StringP("output", "o", "", "Write the merged file here instead of stdout")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogMergeCmd)
	catalogCmd.AddCommand(catalogImportCmd)
}

// dataFiles returns args, or the data directory's files when args is empty.
func dataFiles(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	files, err := catalog.NewStaticLoader(cfg.DataDir, nil).Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no data files in %s", cfg.DataDir)
	}
	return files, nil
}

func printMeta(out io.Writer, m *catalog.Meta) {
	fmt.Fprintf(out, "  total %d\n", m.TotalQuestions)
	for _, c := range m.Categories {
		fmt.Fprintf(out, "  %-12s %d\n", c.Name, c.Count)
	}
}
