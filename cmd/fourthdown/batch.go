package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmohaa/fourthdown-api/internal/batch"
)

var batchFlags struct {
	input        string
	inputFormat  string
	output       string
	outputFormat string
	force        bool
	json         bool
	showWP       bool
	overrides    overrideFlags
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate a file of 4th down situations",
	Long: `Evaluate every row of a CSV, TSV, JSON or XLSX file.

Rows need yard_line and yards_to_go; p_convert, p_fg and punt_net columns are
optional and win over the global override flags. The first invalid row stops
the run and nothing is written.

Examples:
  # Print a CSV table
  fourthdown batch --input plays.csv

  # Write a spreadsheet, replacing any previous one
  fourthdown batch --input plays.json --output results.xlsx --force

  # Apply a conversion rate to every row that does not set its own
  fourthdown batch --input plays.csv --p-convert 0.5 --json`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFlags.input, "input", "i", "", "CSV, TSV, JSON or XLSX file of situations")
	batchCmd.Flags().StringVar(&batchFlags.inputFormat, "input-format", "", "format of --input: csv, tsv, json, xlsx (default from extension)")
	batchCmd.Flags().StringVarP(&batchFlags.output, "output", "o", "", "write results to this path instead of stdout")
	batchCmd.Flags().StringVar(&batchFlags.outputFormat, "output-format", "", "format for --output: csv, tsv, json, xlsx (default from extension)")
	batchCmd.Flags().BoolVar(&batchFlags.force, "force", false, "allow overwriting an existing --output file")
	batchCmd.Flags().BoolVar(&batchFlags.json, "json", false, "print JSON instead of a table when writing to stdout")
	batchCmd.Flags().BoolVar(&batchFlags.showWP, "show-wp", false, "include win probability columns")
	batchFlags.overrides.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchFlags.input == "" {
		return errors.New("--input is required")
	}

	global, err := batchFlags.overrides.overrides()
	if err != nil {
		return err
	}

	inFormat, err := formatFlag(batchFlags.inputFormat, batchFlags.input)
	if err != nil {
		return err
	}
	cases, err := batch.LoadCases(batchFlags.input, inFormat)
	if err != nil {
		return err
	}

	results := batch.Run(decisionService(), cases, global)
	out := cmd.OutOrStdout()

	switch {
	case batchFlags.output != "":
		outFormat, err := formatFlag(batchFlags.outputFormat, batchFlags.output)
		if err != nil {
			return err
		}
		if err := batch.WriteFile(batchFlags.output, outFormat, results, batchFlags.showWP, batchFlags.force); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d rows to %s\n", len(results), batchFlags.output)
		return nil
	case batchFlags.json:
		return batch.WriteJSON(out, results)
	default:
		_, err := fmt.Fprintln(out, batch.FormatTable(results, batchFlags.showWP, ","))
		return err
	}
}

// formatFlag parses an explicit format, or infers one from path.
func formatFlag(value, path string) (batch.Format, error) {
	if value == "" {
		return batch.FormatFromPath(path), nil
	}
	return batch.ParseFormat(value)
}
