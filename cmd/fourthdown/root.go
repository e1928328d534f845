package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openmohaa/fourthdown-api/internal/batch"
	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

var (
	// Global flags
	lookupsPath string

	// store is loaded before any subcommand runs
	store *lookup.Store
)

var rootCmd = &cobra.Command{
	Use:   "fourthdown",
	Short: "NFL 4th down decision model",
	Long: `Fourthdown compares the expected value of going for it, kicking a field goal
and punting on 4th down, using interpolated lookup tables for conversion rates,
kick accuracy, expected points and punt distance.

The bundled tables are used unless --lookups points at a JSON or YAML resource.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadStore,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&lookupsPath, "lookups", "", "path to alternate lookup tables (defaults to built-in tables)")

	// Accept --yard_line as well as --yard-line
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func loadStore(cmd *cobra.Command, args []string) error {
	s, err := lookup.NewStore()
	if err != nil {
		return fmt.Errorf("failed to load bundled lookups: %w", err)
	}
	if lookupsPath != "" {
		if err := s.Load(lookupsPath); err != nil {
			return fmt.Errorf("failed to load lookups: %w", err)
		}
	}
	store = s
	return nil
}

func decisionService() logic.DecisionService {
	return logic.NewDecisionService(store)
}

// optionalFloat is a float flag that remembers whether it was given.
type optionalFloat struct {
	value float64
	set   bool
}

func (f *optionalFloat) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatFloat(f.value, 'g', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("must be numeric")
	}
	f.value, f.set = v, true
	return nil
}

func (f *optionalFloat) Type() string { return "float" }

func (f *optionalFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// overrideFlags are the model overrides shared by evaluate and batch.
type overrideFlags struct {
	pConvert optionalFloat
	pFG      optionalFloat
	puntNet  optionalFloat
}

func (o *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().Var(&o.pConvert, "p-convert", "override modelled p(convert) (0-1)")
	cmd.Flags().Var(&o.pFG, "p-fg", "override modelled field goal make probability (0-1)")
	cmd.Flags().Var(&o.puntNet, "punt-net", "override expected punt net yards (results capped to field limits)")
}

func (o *overrideFlags) overrides() (models.Overrides, error) {
	ov := models.Overrides{PConvert: o.pConvert.ptr(), PFGMake: o.pFG.ptr(), PuntNet: o.puntNet.ptr()}
	if err := batch.ValidateOverrides(ov.PConvert, ov.PFGMake, ov.PuntNet); err != nil {
		return ov, fmt.Errorf("--%s", strings.ReplaceAll(err.Error(), "_", "-"))
	}
	return ov, nil
}

func (o *overrideFlags) reset() {
	*o = overrideFlags{}
}
