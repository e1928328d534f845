package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmohaa/fourthdown-api/internal/chart"
)

var chartFlags struct {
	output string
	metric string
	title  string
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a decision chart as SVG",
	Long: `Render a heat-map of the recommended play across field position and distance.

Metrics:
  recommendation  colour by recommended option
  margin          shade by how far the best option beats the runner-up
  break_even      shade by the break-even conversion probability

Examples:
  fourthdown chart --output charts/decisions.svg
  fourthdown chart --metric margin --title "Aggressive kicker" --output margin.svg`,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVarP(&chartFlags.output, "output", "o", "fourthdown_chart.svg", "SVG file to write")
	chartCmd.Flags().StringVar(&chartFlags.metric, "metric", string(chart.MetricRecommendation), "recommendation, margin or break_even")
	chartCmd.Flags().StringVar(&chartFlags.title, "title", "4th Down Decisions", "chart title")
}

func runChart(cmd *cobra.Command, args []string) error {
	metric, err := chart.ParseMetric(chartFlags.metric)
	if err != nil {
		return err
	}

	grid, err := chart.NewGrid(decisionService(), chart.DefaultYardLines(), chart.DefaultDistances())
	if err != nil {
		return err
	}
	svg, err := chart.SVG(grid, chartFlags.title, metric)
	if err != nil {
		return err
	}
	if err := chart.Save(chartFlags.output, svg); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Chart generated: %s\n", chartFlags.output)
	return nil
}
