package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/export"
	"github.com/sells-group/maturity-cli/internal/model"
)

var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Peer views over opted-in, completed assessments",
}

var cohortIndustryCmd = &cobra.Command{
	Use:   "industry",
	Short: "Average scores per sector",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		outputPath, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, "table", "json", "xlsx"); err != nil {
			return eris.Wrap(err, "cohort industry")
		}

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := env.Service.IndustryBenchmarks(ctx)
		if err != nil {
			return eris.Wrap(err, "cohort industry")
		}
		zap.L().Info("industry benchmarks computed", zap.Int("sectors", len(rows)))

		w, closeFn, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeFn()

		dims := env.Service.Spec().Dimensions
		switch format {
		case "json":
			return writeJSON(w, rows)
		case "xlsx":
			return export.WriteIndustryXLSX(w, rows, dims)
		default:
			return writeIndustryTable(w, rows, dims)
		}
	},
}

var cohortLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Anonymous ranking of peers by overall score",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sector, _ := cmd.Flags().GetString("sector")
		limit, _ := cmd.Flags().GetInt("limit")
		outputPath, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format, "table", "json", "xlsx"); err != nil {
			return eris.Wrap(err, "cohort leaderboard")
		}

		env, err := initApp(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := env.Service.Leaderboard(ctx, sector, limit)
		if err != nil {
			return eris.Wrap(err, "cohort leaderboard")
		}

		w, closeFn, err := openOutput(outputPath)
		if err != nil {
			return err
		}
		defer closeFn()

		switch format {
		case "json":
			return writeJSON(w, entries)
		case "xlsx":
			return export.WriteLeaderboardXLSX(w, entries)
		default:
			return writeLeaderboardTable(w, entries)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{cohortIndustryCmd, cohortLeaderboardCmd} {
		c.Flags().String("output", "", "output file path (default: stdout)")
		c.Flags().String("format", "table", "output format: table, json or xlsx")
	}
	cohortLeaderboardCmd.Flags().String("sector", "", "restrict the ranking to one sector")
	cohortLeaderboardCmd.Flags().Int("limit", 0, "maximum number of rows (0=use config default)")

	cohortCmd.AddCommand(cohortIndustryCmd, cohortLeaderboardCmd)
	rootCmd.AddCommand(cohortCmd)
}

func writeIndustryTable(w io.Writer, rows []model.IndustryBenchmark, dims []model.Dimension) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No sector has enough opted-in assessments yet.")
		return eris.Wrap(err, "write table")
	}

	sorted := make([]model.IndustryBenchmark, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sector < sorted[j].Sector })

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s %8s %8s", "Sector", "Sample", "Overall")
	for _, d := range dims {
		fmt.Fprintf(&sb, " %10s", truncate(d.ID, 10))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 42+11*len(dims)) + "\n")

	for _, r := range sorted {
		fmt.Fprintf(&sb, "%-24s %8d %8.1f", truncate(r.Sector, 24), r.SampleSize, r.Overall)
		for _, d := range dims {
			if v, ok := r.Dimensions[d.ID]; ok {
				fmt.Fprintf(&sb, " %10.1f", v)
			} else {
				fmt.Fprintf(&sb, " %10s", "-")
			}
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return eris.Wrap(err, "write table")
}

func writeLeaderboardTable(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No opted-in assessments yet.")
		return eris.Wrap(err, "write table")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%5s  %-28s %-20s %-8s %7s %6s  %s\n",
		"Rank", "Alias", "Sector", "Size", "Overall", "Rating", "Badge")
	sb.WriteString(strings.Repeat("-", 90) + "\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%5d  %-28s %-20s %-8s %7d %6.1f  %s\n",
			e.Rank, truncate(e.Alias, 28), truncate(e.Sector, 20), e.CompanySize, e.Overall, e.Rating, e.Badge)
	}

	_, err := io.WriteString(w, sb.String())
	return eris.Wrap(err, "write table")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
