package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmohaa/fourthdown-api/internal/batch"
)

var evaluateFlags struct {
	yardLine  string
	yardsToGo string
	overrides overrideFlags
	json      bool
	showWP    bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single 4th down situation",
	Long: `Evaluate one 4th down situation and print the expected value of each option.

Examples:
  # Own 20, 4th and 1
  fourthdown evaluate --yard-line 20 --yards-to-go 1

  # Opponent 30 with a shaky kicker, including win probabilities
  fourthdown evaluate --yard-line 70 --yards-to-go 4 --p-fg 0.6 --show-wp

  # Machine readable output
  fourthdown evaluate --yard-line 90 --yards-to-go 5 --json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateFlags.yardLine, "yard-line", "", "1 = own goal line, 99 = opponent goal line")
	evaluateCmd.Flags().StringVar(&evaluateFlags.yardsToGo, "yards-to-go", "", "yards needed for a first down")
	evaluateFlags.overrides.register(evaluateCmd)
	evaluateCmd.Flags().BoolVar(&evaluateFlags.json, "json", false, "print machine-readable JSON instead of formatted text")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.showWP, "show-wp", false, "display approximate win probabilities")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluateFlags.yardLine == "" || evaluateFlags.yardsToGo == "" {
		return fmt.Errorf("you must specify --yard-line and --yards-to-go")
	}

	yardLine, err := batch.ParseYardLine(evaluateFlags.yardLine)
	if err != nil {
		return err
	}
	yardsToGo, err := batch.ParseYardsToGo(evaluateFlags.yardsToGo)
	if err != nil {
		return err
	}
	ov, err := evaluateFlags.overrides.overrides()
	if err != nil {
		return err
	}

	d := decisionService().Evaluate(yardLine, yardsToGo, ov)

	out := cmd.OutOrStdout()
	if evaluateFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return batch.WriteSingle(out, d, batch.SingleOptions{ShowWP: evaluateFlags.showWP, Overrides: ov})
}
