package logic

import (
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

// TableSource provides the active lookup snapshot
type TableSource interface {
	Snapshot() *lookup.Tables
}

// DecisionService evaluates 4th-down situations against the active tables
type DecisionService interface {
	Evaluate(yardLine int, yardsToGo float64, ov models.Overrides) *models.Decision
	Tables() *lookup.Tables
}
