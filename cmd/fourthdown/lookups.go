package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openmohaa/fourthdown-api/internal/lookup"
)

var lookupsFlags struct {
	showFormat    string
	convertFormat string
	output        string
	force         bool
}

var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "Inspect and manage lookup tables",
	Long: `Inspect, validate and convert lookup table resources.

A resource is a JSON or YAML mapping with five curves (convert, fg, ep,
punt_net and wp), each a list of [x, y] pairs.`,
}

var lookupsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active lookup tables",
	Long: `Print the active lookup tables (the bundled ones unless --lookups is set).

Examples:
  fourthdown lookups show
  fourthdown --lookups tuned.json lookups show --format yaml`,
	RunE: runLookupsShow,
}

var lookupsValidateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check lookup resources for errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLookupsValidate,
}

var lookupsConvertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Convert a lookup resource between JSON and YAML",
	Long: `Convert a lookup resource between JSON and YAML. The target format follows
--format, or the extension of --output.

Examples:
  fourthdown lookups convert tuned.json --output tuned.yaml
  fourthdown lookups convert tuned.yaml --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runLookupsConvert,
}

func init() {
	rootCmd.AddCommand(lookupsCmd)
	lookupsCmd.AddCommand(lookupsShowCmd, lookupsValidateCmd, lookupsConvertCmd)

	lookupsShowCmd.Flags().StringVar(&lookupsFlags.showFormat, "format", "json", "output format: json, yaml")

	lookupsConvertCmd.Flags().StringVar(&lookupsFlags.convertFormat, "format", "", "target format: json, yaml")
	lookupsConvertCmd.Flags().StringVarP(&lookupsFlags.output, "output", "o", "", "write to this path instead of stdout")
	lookupsConvertCmd.Flags().BoolVar(&lookupsFlags.force, "force", false, "allow overwriting an existing --output file")
}

func parseResourceFormat(s string) (lookup.Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return lookup.FormatJSON, nil
	case "yaml", "yml":
		return lookup.FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", s)
	}
}

func runLookupsShow(cmd *cobra.Command, args []string) error {
	format, err := parseResourceFormat(lookupsFlags.showFormat)
	if err != nil {
		return err
	}

	tables := store.Snapshot()
	data, err := tables.Encode(format)
	if err != nil {
		return err
	}

	// Keep stdout a valid resource so it can be redirected to a file
	fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\nid: %s\n", tables.Source, tables.ID)
	_, err = cmd.OutOrStdout().Write(withNewline(data))
	return err
}

func withNewline(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return append(data, '\n')
	}
	return data
}

func runLookupsValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err == nil {
			_, err = lookup.Parse(data, path)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lookup resources invalid", failed, len(args))
	}
	return nil
}

func runLookupsConvert(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tables, err := lookup.Parse(data, path)
	if err != nil {
		return err
	}

	var target lookup.Format
	switch {
	case lookupsFlags.convertFormat != "":
		if target, err = parseResourceFormat(lookupsFlags.convertFormat); err != nil {
			return err
		}
	case lookupsFlags.output != "":
		target = lookup.FormatFromPath(lookupsFlags.output)
	case lookup.FormatFromPath(path) == lookup.FormatJSON:
		target = lookup.FormatYAML
	default:
		target = lookup.FormatJSON
	}

	encoded, err := tables.Encode(target)
	if err != nil {
		return err
	}
	encoded = withNewline(encoded)

	if lookupsFlags.output == "" {
		_, err = cmd.OutOrStdout().Write(encoded)
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if lookupsFlags.force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(lookupsFlags.output, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists. Use --force to overwrite", lookupsFlags.output)
		}
		return err
	}
	if _, err := f.Write(encoded); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s lookups to %s\n", target, lookupsFlags.output)
	return nil
}
