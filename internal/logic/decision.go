package logic

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openmohaa/fourthdown-api/internal/interp"
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

// Model constants
const (
	minPConvert = 0.05
	maxPConvert = 0.95
	minPFGMake  = 0.02
	maxPFGMake  = 0.98

	// Snap distance plus end zone depth
	fgKickOffset = 17
	// Field goal points and the opponent's spot after the ensuing kickoff
	fgPoints        = 3.0
	kickoffSpot     = 25
	touchbackSpot   = 20
	breakEvenMinGap = 1e-6
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fourthdown_evaluations_total",
		Help: "Decisions evaluated, by recommendation",
	}, []string{"recommendation"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fourthdown_evaluation_duration_seconds",
		Help:    "Time spent evaluating a single decision",
		Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3},
	})
)

type decisionService struct {
	tables TableSource
}

func NewDecisionService(tables TableSource) DecisionService {
	return &decisionService{tables: tables}
}

type fixedSource struct {
	tables *lookup.Tables
}

func (f fixedSource) Snapshot() *lookup.Tables { return f.tables }

// Pin returns a service that always evaluates against t. Batches use it so
// every row sees the same tables even if a reload lands mid-run.
func Pin(t *lookup.Tables) DecisionService {
	return NewDecisionService(fixedSource{tables: t})
}

func (s *decisionService) Tables() *lookup.Tables {
	return s.tables.Snapshot()
}

// Evaluate reads one snapshot and runs the whole calculation against it, so a
// concurrent reload never mixes curves from two resources.
func (s *decisionService) Evaluate(yardLine int, yardsToGo float64, ov models.Overrides) *models.Decision {
	start := time.Now()
	d := Evaluate(s.tables.Snapshot(), yardLine, yardsToGo, ov)
	evaluationDuration.Observe(time.Since(start).Seconds())
	evaluationsTotal.WithLabelValues(string(d.Recommendation)).Inc()
	return d
}

// Evaluate computes the expected value of going for it, kicking and punting.
// Inputs are assumed to be validated: yardLine in [1, 99], yardsToGo > 0,
// probability overrides in [0, 1] and a positive punt net.
func Evaluate(t *lookup.Tables, yardLine int, yardsToGo float64, ov models.Overrides) *models.Decision {
	// Go for it
	pc := PConvert(t, yardsToGo)
	if ov.PConvert != nil {
		pc = *ov.PConvert
	}
	convSpot := min(99, roundInt(float64(yardLine)+yardsToGo))
	epConvert := EPByYardLine(t, convSpot)
	epFail := -EPByYardLine(t, FlipField(yardLine))
	evGo := pc*epConvert + (1-pc)*epFail

	// Field goal
	dist := FGDistance(yardLine)
	pm := PFGMake(t, dist)
	if ov.PFGMake != nil {
		pm = *ov.PFGMake
	}
	epMake := fgPoints - EPByYardLine(t, kickoffSpot)
	epMiss := -EPByYardLine(t, FlipField(yardLine))
	evFG := pm*epMake + (1-pm)*epMiss

	// Punt
	var puntSpot int
	if ov.PuntNet != nil {
		puntSpot = PuntSpotWithNet(yardLine, *ov.PuntNet)
	} else {
		puntSpot = ExpectedPuntSpot(t, yardLine)
	}
	evPunt := -EPByYardLine(t, FlipField(puntSpot))

	ev := models.OptionValues{Go: evGo, FG: evFG, Punt: evPunt}
	wp := models.OptionValues{
		Go:   WinProbFromEP(t, evGo),
		FG:   WinProbFromEP(t, evFG),
		Punt: WinProbFromEP(t, evPunt),
	}
	best := ev.Best()

	return &models.Decision{
		YardLine:          yardLine,
		YardsToGo:         yardsToGo,
		ProbConvert:       pc,
		FGDistance:        dist,
		ProbFGMake:        pm,
		EV:                ev,
		WP:                wp,
		DeltaEV:           ev.Minus(ev.Get(best)),
		DeltaWP:           wp.Minus(wp.Get(best)),
		BreakEvenPConvert: breakEven(ev, epConvert, epFail),
		Recommendation:    best,
	}
}

// breakEven is the conversion probability at which going for it ties the best
// alternative. It is nil when success and failure are worth the same.
func breakEven(ev models.OptionValues, epConvert, epFail float64) *float64 {
	denom := epConvert - epFail
	if math.Abs(denom) <= breakEvenMinGap {
		return nil
	}
	bestAlt := math.Inf(-1)
	for _, o := range models.Options {
		if o != models.OptionGo && ev.Get(o) > bestAlt {
			bestAlt = ev.Get(o)
		}
	}
	p := interp.Clamp((bestAlt-epFail)/denom, 0, 1)
	return &p
}

// PConvert is the modelled chance of converting with yardsToGo to gain.
func PConvert(t *lookup.Tables, yardsToGo float64) float64 {
	return interp.Clamp(t.Interpolate(lookup.CurveConvert, yardsToGo), minPConvert, maxPConvert)
}

// FGDistance is the kick distance from yardLine.
func FGDistance(yardLine int) int {
	return roundInt(float64(100-yardLine) + fgKickOffset)
}

// PFGMake is the modelled make probability for a kick of distance yards.
func PFGMake(t *lookup.Tables, distance int) float64 {
	return interp.Clamp(t.Interpolate(lookup.CurveFG, float64(distance)), minPFGMake, maxPFGMake)
}

// EPByYardLine is the expected points for the team in possession at yardLine.
func EPByYardLine(t *lookup.Tables, yardLine int) float64 {
	yard := max(1, min(99, yardLine))
	return t.Interpolate(lookup.CurveEP, float64(yard))
}

// FlipField converts a yard line to the other team's perspective.
func FlipField(yardLine int) int {
	return 100 - yardLine
}

// ExpectedPuntSpot is where the kicking team expects the receiver to start,
// measured from the kicking team's goal line. Punts that reach the end zone
// come back to the 20.
func ExpectedPuntSpot(t *lookup.Tables, yardLine int) int {
	spot := float64(yardLine) + t.Interpolate(lookup.CurvePuntNet, float64(yardLine))
	if spot >= 100 {
		return touchbackSpot
	}
	return roundInt(interp.Clamp(spot, touchbackSpot, 99))
}

// PuntSpotWithNet is ExpectedPuntSpot with a caller supplied net distance. The
// touchback rule is not applied; the spot is only bounded to the field.
func PuntSpotWithNet(yardLine int, net float64) int {
	return roundInt(interp.Clamp(float64(yardLine)+net, touchbackSpot, 99))
}

// WinProbFromEP maps an expected value onto the win probability curve.
func WinProbFromEP(t *lookup.Tables, ep float64) float64 {
	return t.Interpolate(lookup.CurveWP, ep)
}

// roundInt rounds half to even.
func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}
