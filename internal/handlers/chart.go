package handlers

import (
	"net/http"

	"github.com/openmohaa/fourthdown-api/internal/chart"
)

// GetChart handles GET /api/v1/chart
// @Summary Decision chart
// @Description Heat-map of recommendations across field position and distance
// @Tags Decision
// @Produce image/svg+xml
// @Param metric query string false "recommendation, margin or break_even"
// @Success 200 {string} string "SVG document"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Service Unavailable"
// @Router /chart [get]
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	metric, err := chart.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	grid, err := chart.NewGrid(h.decisions, chart.DefaultYardLines(), chart.DefaultDistances())
	if err != nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Lookup tables not loaded")
		return
	}
	svg, err := chart.SVG(grid, "4th Down Decisions", metric)
	if err != nil {
		h.logger.Errorw("Failed to render chart", "error", err, "metric", metric)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(svg))
}
