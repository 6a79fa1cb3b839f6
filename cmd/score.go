package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/model"
	"github.com/sells-group/maturity-cli/internal/report"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a questionnaire answers file",
	Long: `Score a JSON answers file against the question bank and compare the
result with the matching sector and size cohort.

The answers file maps question ids to tagged answers, for example:

  {"strategy_plan": {"type": "tri-state", "choice": "yes"},
   "tech_tools": {"type": "checkboxes", "selected": ["erp", "crm"]}}

Examples:
  # Overall comparison only
  score --answers answers.json --sector manufacturing --size small

  # Per-dimension comparisons, written as CSV
  score --answers answers.json --sector retail --size small --expanded --format csv --output report.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("answers", "", "path to the answers JSON file (required)")
	f.String("sector", "", "company sector")
	f.String("size", "", "company size (small, medium, large)")
	f.String("region", "", "company region")
	f.Bool("expanded", false, "include per-dimension comparisons")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table, csv or json")
	_ = scoreCmd.MarkFlagRequired("answers")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if err := cfg.Validate("cli"); err != nil {
		return err
	}

	answersPath, _ := cmd.Flags().GetString("answers")
	sector, _ := cmd.Flags().GetString("sector")
	size, _ := cmd.Flags().GetString("size")
	region, _ := cmd.Flags().GetString("region")
	expanded, _ := cmd.Flags().GetBool("expanded")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if err := checkFormat(format, "table", "csv", "json"); err != nil {
		return eris.Wrap(err, "score")
	}

	answers, err := readAnswersFile(answersPath)
	if err != nil {
		return err
	}

	builder, err := initBuilder(ctx, nil)
	if err != nil {
		return err
	}

	rep, err := builder.Build(report.Request{
		Answers:  answers,
		Company:  model.CompanyDetails{Sector: sector, CompanySize: size, Region: region},
		Expanded: expanded,
	})
	if err != nil {
		return eris.Wrap(err, "score: build report")
	}

	zap.L().Info("score complete",
		zap.Int("overall", rep.Scores.Overall),
		zap.String("band", rep.Scores.MaturityClassification.Band),
	)

	return outputReport(rep, builder.Spec(), format, outputPath)
}

func readAnswersFile(path string) (model.AnswerMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read answers file %s", path)
	}
	var answers model.AnswerMap
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, eris.Wrapf(err, "decode answers file %s", path)
	}
	return answers, nil
}

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return eris.Errorf("--format must be one of %s (got %q)", strings.Join(allowed, ", "), format)
}

// openOutput returns stdout when path is empty. The returned close func is
// always safe to call.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, func() { f.Close() }, nil //nolint:errcheck
}

func outputReport(rep *report.Report, spec *model.AssessmentSpec, format, outputPath string) error {
	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "csv":
		return writeReportCSV(w, rep, spec)
	case "json":
		return writeJSON(w, rep)
	case "table":
		return writeReportTable(w, rep, spec)
	default:
		return eris.Errorf("unsupported format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write json")
}

func writeReportCSV(w io.Writer, rep *report.Report, spec *model.AssessmentSpec) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"dimension_id", "dimension", "score", "target", "gap",
		"cohort_average", "percentile", "performance_level", "gap_to_top25"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "write CSV header")
	}

	for _, d := range spec.Dimensions {
		ds, ok := rep.Scores.Dimensions[d.ID]
		if !ok {
			continue
		}
		row := []string{d.ID, d.Name, fmt.Sprintf("%d", ds.Score), fmt.Sprintf("%d", ds.Target), fmt.Sprintf("%d", ds.Gap)}
		row = append(row, comparisonCells(rep.Benchmark, d.ID)...)
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "write CSV row")
		}
	}

	overall := []string{"overall", rep.Scores.MaturityClassification.Label, fmt.Sprintf("%d", rep.Scores.Overall), "", ""}
	overall = append(overall, comparisonCells(rep.Benchmark, "")...)
	if err := cw.Write(overall); err != nil {
		return eris.Wrap(err, "write CSV row")
	}
	return nil
}

// comparisonCells returns the cohort columns for a dimension, or for the
// overall score when id is empty.
func comparisonCells(set *model.ComparisonSet, id string) []string {
	if set == nil {
		return []string{"", "", "", ""}
	}
	c := set.Overall
	if id != "" {
		var ok bool
		if c, ok = set.Dimensions[id]; !ok {
			return []string{"", "", "", ""}
		}
	}
	return []string{
		fmt.Sprintf("%.1f", c.Benchmark.Average),
		fmt.Sprintf("%d", c.Percentile),
		string(c.PerformanceLevel),
		fmt.Sprintf("%d", c.GapToTop25),
	}
}

func writeReportTable(w io.Writer, rep *report.Report, spec *model.AssessmentSpec) error {
	header := fmt.Sprintf("%-32s %6s %7s %5s %9s %11s\n",
		"Dimension", "Score", "Target", "Gap", "Cohort", "Percentile")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 75)); err != nil {
		return eris.Wrap(err, "write table separator")
	}

	for _, d := range spec.Dimensions {
		ds, ok := rep.Scores.Dimensions[d.ID]
		if !ok {
			continue
		}
		name := d.Name
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		cohortAvg, pct := "-", "-"
		if rep.Benchmark != nil {
			if c, ok := rep.Benchmark.Dimensions[d.ID]; ok {
				cohortAvg = fmt.Sprintf("%.1f", c.Benchmark.Average)
				pct = fmt.Sprintf("%d", c.Percentile)
			}
		}
		line := fmt.Sprintf("%-32s %6d %7d %5d %9s %11s\n", name, ds.Score, ds.Target, ds.Gap, cohortAvg, pct)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "write table row")
		}
	}

	var sb strings.Builder
	cls := rep.Scores.MaturityClassification
	fmt.Fprintf(&sb, "\nOverall:  %d / 100\n", rep.Scores.Overall)
	fmt.Fprintf(&sb, "Maturity: level %d (%s)\n", cls.Level, cls.Label)

	if b := rep.Benchmark; b == nil {
		sb.WriteString("Benchmark: not available\n")
	} else {
		fmt.Fprintf(&sb, "\n--- Benchmark (%s, %d companies) ---\n", b.DataSource, b.SampleSize)
		if !b.HasSufficientData {
			sb.WriteString("Note: cohort is smaller than the representative sample size\n")
		}
		fmt.Fprintf(&sb, "Percentile:  %d\n", b.Overall.Percentile)
		fmt.Fprintf(&sb, "Gap:         %+d\n", b.Overall.Gap)
		fmt.Fprintf(&sb, "Gap to top:  %d\n", b.Overall.GapToTop25)
		sb.WriteString(b.Overall.Message + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return eris.Wrap(err, "write report summary")
}
