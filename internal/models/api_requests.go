package models

import "time"

// EvaluateRequest is a single situation submitted to the API.
type EvaluateRequest struct {
	YardLine  int      `json:"yard_line" validate:"required,min=1,max=99"`
	YardsToGo float64  `json:"yards_to_go" validate:"required,gt=0"`
	PConvert  *float64 `json:"p_convert,omitempty" validate:"omitempty,min=0,max=1"`
	PFG       *float64 `json:"p_fg,omitempty" validate:"omitempty,min=0,max=1"`
	PuntNet   *float64 `json:"punt_net,omitempty" validate:"omitempty,gt=0"`
}

// Overrides returns the request's optional model overrides.
func (r EvaluateRequest) Overrides() Overrides {
	return Overrides{PConvert: r.PConvert, PFGMake: r.PFG, PuntNet: r.PuntNet}
}

type BatchEvaluateResponse struct {
	RunID   string      `json:"run_id"`
	Count   int         `json:"count"`
	Results []*Decision `json:"results"`
}

type LookupReloadResponse struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}
