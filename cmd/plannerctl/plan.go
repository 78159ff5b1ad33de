package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/adaptplan/internal/bundle"
	"github.com/Harshitk-cp/adaptplan/internal/domain"
	"github.com/Harshitk-cp/adaptplan/internal/planner"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/spf13/cobra"
)

var (
	planBundle      string
	planRow         string
	planFormat      string
	planParallelism int
	planMaxSteps    int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Find the adaptation of one row against a bundle",
	Long: `Build the planner described by a bundle and search for the adaptation of
one row. The predictor named in the bundle is used as is, so an http
predictor must be reachable.

Examples:
  plannerctl plan --bundle uav.yaml --row 20,80,1
  plannerctl plan --bundle uav.json --row 20,80,1 --format human`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planBundle, "bundle", "", "Path to the model bundle (.yaml, .yml or .json)")
	planCmd.Flags().StringVar(&planRow, "row", "", "Comma-separated feature values of the row")
	planCmd.Flags().StringVar(&planFormat, "format", "json", "Output format (json, human)")
	planCmd.Flags().IntVar(&planParallelism, "parallelism", 0, "Concurrent optimization walks (0 for the default)")
	planCmd.Flags().IntVar(&planMaxSteps, "max-steps", 0, "Step budget per optimization walk (0 for the default)")
	_ = planCmd.MarkFlagRequired("bundle")
	_ = planCmd.MarkFlagRequired("row")
	rootCmd.AddCommand(planCmd)
}

type planOutput struct {
	Row        domain.FeatureVector   `json:"row"`
	Adaptation domain.FeatureVector   `json:"adaptation"`
	Confidence domain.ConfidenceVector `json:"confidence"`
	Score      float64                `json:"score"`
	Valid      bool                   `json:"valid"`
	Regime     domain.Regime          `json:"regime"`
	Stats      domain.AdaptationStats `json:"stats"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	b, err := bundle.Load(planBundle)
	if err != nil {
		return err
	}

	p, err := service.BuildPlanner(b.Definition(), nil, nil, service.PlannerOptions{
		Parallelism: planParallelism,
		MaxSteps:    planMaxSteps,
	}, logger)
	if err != nil {
		return err
	}
	p.SetObserver(planner.NewLogObserver(logger))

	row, err := parseRow(planRow)
	if err != nil {
		return err
	}
	res, err := p.FindAdaptation(cmd.Context(), row)
	if err != nil {
		return err
	}

	out := planOutput{
		Row:        row,
		Adaptation: res.Adaptation,
		Confidence: res.Confidence,
		Score:      res.Score,
		Valid:      res.Valid,
		Regime:     res.Regime,
		Stats:      res.Stats,
	}
	switch planFormat {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "human":
		printPlanHuman(cmd.OutOrStdout(), b, out)
		return nil
	}
	return fmt.Errorf("unknown format %q", planFormat)
}

func printPlanHuman(w io.Writer, b *bundle.Bundle, out planOutput) {
	fmt.Fprintf(w, "Model:      %s\n", b.Name)
	fmt.Fprintf(w, "Regime:     %s\n", out.Regime)
	fmt.Fprintf(w, "Valid:      %t\n", out.Valid)
	fmt.Fprintf(w, "Score:      %g\n", out.Score)
	fmt.Fprintf(w, "Confidence: %s\n", joinFloats(out.Confidence))
	fmt.Fprintln(w, "Adaptation:")
	for _, f := range b.Controllable {
		name := f.Name
		if name == "" && f.Index < len(b.FeatureNames) {
			name = b.FeatureNames[f.Index]
		}
		fmt.Fprintf(w, "  %-16s %g -> %g\n", name, out.Row[f.Index], out.Adaptation[f.Index])
	}
	fmt.Fprintf(w, "Candidates: %d (expanded %d, pruned %d)\n",
		out.Stats.Candidates, out.Stats.Expanded, out.Stats.PrunedCandidates)
	fmt.Fprintf(w, "Duration:   %dms\n", out.Stats.DurationMs)
}

func parseRow(s string) (domain.FeatureVector, error) {
	fields := strings.Split(s, ",")
	row := make(domain.FeatureVector, 0, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("row value %d: %w", i, err)
		}
		row = append(row, x)
	}
	return row, nil
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return strings.Join(parts, ", ")
}
