package models

// Option is one of the three 4th-down choices.
type Option string

const (
	OptionGo   Option = "go"
	OptionFG   Option = "fg"
	OptionPunt Option = "punt"
)

// Options is the fixed evaluation order. Ties in any max reduction go to the
// option listed first.
var Options = []Option{OptionGo, OptionFG, OptionPunt}

// OptionValues holds one number per option. Field order matches Options so
// JSON output keeps go, fg, punt ordering.
type OptionValues struct {
	Go   float64 `json:"go"`
	FG   float64 `json:"fg"`
	Punt float64 `json:"punt"`
}

// Get returns the value for o.
func (v OptionValues) Get(o Option) float64 {
	switch o {
	case OptionGo:
		return v.Go
	case OptionFG:
		return v.FG
	default:
		return v.Punt
	}
}

// Set stores x for o.
func (v *OptionValues) Set(o Option, x float64) {
	switch o {
	case OptionGo:
		v.Go = x
	case OptionFG:
		v.FG = x
	default:
		v.Punt = x
	}
}

// Best returns the option with the largest value, first in Options on ties.
func (v OptionValues) Best() Option {
	best := Options[0]
	for _, o := range Options[1:] {
		if v.Get(o) > v.Get(best) {
			best = o
		}
	}
	return best
}

// Minus returns each value less ref.
func (v OptionValues) Minus(ref float64) OptionValues {
	return OptionValues{Go: v.Go - ref, FG: v.FG - ref, Punt: v.Punt - ref}
}

// Overrides replaces modelled inputs with caller supplied values. Nil fields
// use the lookup tables. Values are trusted as given; range checks belong to
// whoever parsed them.
type Overrides struct {
	PConvert *float64 `json:"p_convert,omitempty"`
	PFGMake  *float64 `json:"p_fg,omitempty"`
	PuntNet  *float64 `json:"punt_net,omitempty"`
}

// Or fills any nil field from fallback.
func (o Overrides) Or(fallback Overrides) Overrides {
	if o.PConvert == nil {
		o.PConvert = fallback.PConvert
	}
	if o.PFGMake == nil {
		o.PFGMake = fallback.PFGMake
	}
	if o.PuntNet == nil {
		o.PuntNet = fallback.PuntNet
	}
	return o
}

// Decision is the result of evaluating one 4th-down situation.
type Decision struct {
	YardLine          int          `json:"yard_line"`
	YardsToGo         float64      `json:"yards_to_go"`
	ProbConvert       float64      `json:"prob_convert"`
	FGDistance        int          `json:"fg_distance"`
	ProbFGMake        float64      `json:"prob_fg_make"`
	EV                OptionValues `json:"ev"`
	WP                OptionValues `json:"wp"`
	DeltaEV           OptionValues `json:"delta_ev"`
	DeltaWP           OptionValues `json:"delta_wp"`
	BreakEvenPConvert *float64     `json:"break_even_p_convert"` // nil when go's outcomes are indistinguishable
	Recommendation    Option       `json:"recommendation"`
}
