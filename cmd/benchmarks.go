package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/registry"
)

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "Manage the cohort statistics table",
}

var benchmarksLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert cohort statistics from a YAML or JSON file into the store",
	Long: `Load a cohort table file into the store. The file must contain a
"default" entry. Later serve and compare runs read the stored table when
assessment.benchmark_file is not set.

Examples:
  # Load the built-in table
  benchmarks load

  # Load a custom table
  benchmarks load --file cohorts-2026.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")

		table, err := registry.LoadBenchmarksFile(path)
		if err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertBenchmarks(ctx, table.Entries())
		if err != nil {
			return eris.Wrap(err, "benchmarks load")
		}

		source := path
		if source == "" {
			source = "built-in"
		}
		zap.L().Info("benchmarks loaded",
			zap.String("source", source),
			zap.Int64("upserted", n),
		)
		return nil
	},
}

var benchmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cohort statistics held in the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListBenchmarks(ctx)
		if err != nil {
			return eris.Wrap(err, "benchmarks list")
		}
		return writeBenchmarksTable(cmd.OutOrStdout(), entries)
	},
}

func init() {
	benchmarksLoadCmd.Flags().String("file", "", "cohort table file (default: built-in table)")

	benchmarksCmd.AddCommand(benchmarksLoadCmd, benchmarksListCmd)
	rootCmd.AddCommand(benchmarksCmd)
}

func writeBenchmarksTable(w io.Writer, entries []model.BenchmarkData) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No cohorts stored. Run 'benchmarks load' first.")
		return eris.Wrap(err, "write table")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-32s %7s %8s %8s %8s %8s\n", "Key", "Sample", "Average", "Median", "Top25", "Top10")
	sb.WriteString(strings.Repeat("-", 77) + "\n")
	for _, e := range entries {
		o := e.Overall
		fmt.Fprintf(&sb, "%-32s %7d %8.1f %8.1f %8.1f %8.1f\n",
			truncate(e.Key, 32), e.SampleSize, o.Average, o.Median, o.Top25, o.Top10)
	}

	_, err := io.WriteString(w, sb.String())
	return eris.Wrap(err, "write table")
}
