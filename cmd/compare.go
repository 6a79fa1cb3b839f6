package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a stored assessment against its cohort",
	Long: `Build the report of a stored assessment: its scores document plus the
comparison with the best matching sector and size cohort.

Examples:
  compare --id 3b8f3c1e-7c1a-4c5e-9f0e-2a1d3c4b5e6f
  compare --id 3b8f3c1e-7c1a-4c5e-9f0e-2a1d3c4b5e6f --expanded --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		id, _ := cmd.Flags().GetString("id")
		expanded, _ := cmd.Flags().GetBool("expanded")
		outputPath, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		if err := checkFormat(format, "table", "csv", "json"); err != nil {
			return eris.Wrap(err, "compare")
		}

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		rep, err := env.Service.Report(ctx, id, expanded)
		if err != nil {
			return eris.Wrapf(err, "compare: assessment %s", id)
		}

		zap.L().Debug("compare complete",
			zap.String("id", id),
			zap.Bool("expanded", expanded),
			zap.Bool("benchmark", rep.Benchmark != nil),
		)

		return outputReport(rep, env.Service.Spec(), format, outputPath)
	},
}

func init() {
	f := compareCmd.Flags()
	f.String("id", "", "assessment id (required)")
	f.Bool("expanded", false, "include per-dimension comparisons")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table, csv or json")
	_ = compareCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(compareCmd)
}
