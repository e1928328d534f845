package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/openmohaa/fourthdown-api/internal/batch"
	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/models"
	"github.com/openmohaa/fourthdown-api/internal/worker"
)

// Evaluate handles POST /api/v1/decision
// @Summary Evaluate a 4th-down situation
// @Tags Decision
// @Accept json
// @Produce json
// @Param body body models.EvaluateRequest true "Situation"
// @Success 200 {object} models.Decision
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /decision [post]
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateRequest
	if status, err := h.decodeBody(w, r, &req); err != nil {
		h.errorResponse(w, status, err.Error())
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	h.jsonResponse(w, http.StatusOK, h.decisions.Evaluate(req.YardLine, req.YardsToGo, req.Overrides()))
}

// EvaluateQuery handles GET /api/v1/decision for the web form
// @Summary Evaluate a 4th-down situation from query parameters
// @Tags Decision
// @Produce json
// @Param yard_line query int true "1 = own goal line, 99 = opponent goal line"
// @Param yards_to_go query number true "Yards needed for a first down"
// @Param p_convert query number false "Override p(convert)"
// @Param p_fg query number false "Override field goal make probability"
// @Param punt_net query number false "Override punt net yards"
// @Success 200 {object} models.Decision
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /decision [get]
func (h *Handler) EvaluateQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	yardLine, err := batch.ParseYardLine(q.Get("yard_line"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	yardsToGo, err := batch.ParseYardsToGo(q.Get("yards_to_go"))
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var ov models.Overrides
	if ov.PConvert, err = batch.ParseOptionalProb(q.Get("p_convert"), "p_convert"); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if ov.PFGMake, err = batch.ParseOptionalProb(q.Get("p_fg"), "p_fg"); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if ov.PuntNet, err = batch.ParseOptionalPuntNet(q.Get("punt_net")); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.jsonResponse(w, http.StatusOK, h.decisions.Evaluate(yardLine, yardsToGo, ov))
}

// EvaluateBatch handles POST /api/v1/decision/batch
// @Summary Evaluate many situations
// @Description The first invalid row rejects the whole batch
// @Tags Decision
// @Accept json
// @Produce json
// @Param body body []models.EvaluateRequest true "Situations"
// @Success 200 {object} models.BatchEvaluateResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Service Unavailable"
// @Router /decision/batch [post]
func (h *Handler) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []models.EvaluateRequest
	if status, err := h.decodeBody(w, r, &reqs); err != nil {
		h.errorResponse(w, status, err.Error())
		return
	}

	if len(reqs) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "Batch must contain at least one row")
		return
	}
	if len(reqs) > h.maxBatchRows {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Batch exceeds %d rows", h.maxBatchRows))
		return
	}

	for i := range reqs {
		if err := h.validator.Struct(&reqs[i]); err != nil {
			h.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("row %d: %s", i+1, validationMessage(err)))
			return
		}
	}

	runID := uuid.NewString()
	results, err := h.runBatch(r.Context(), reqs)
	if err != nil {
		h.logger.Errorw("Batch failed", "runID", runID, "rows", len(reqs), "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Batch could not be completed")
		return
	}

	h.logger.Infow("Batch evaluated", "runID", runID, "rows", len(results))
	h.jsonResponse(w, http.StatusOK, models.BatchEvaluateResponse{
		RunID:   runID,
		Count:   len(results),
		Results: results,
	})
}

// runBatch evaluates every row against a single tables snapshot.
func (h *Handler) runBatch(ctx context.Context, reqs []models.EvaluateRequest) ([]*models.Decision, error) {
	svc := h.decisions
	if t := svc.Tables(); t != nil {
		svc = logic.Pin(t)
	}

	if h.batches == nil {
		results := make([]*models.Decision, 0, len(reqs))
		for _, req := range reqs {
			results = append(results, svc.Evaluate(req.YardLine, req.YardsToGo, req.Overrides()))
		}
		return results, nil
	}

	jobs := make([]worker.Job, len(reqs))
	for i, req := range reqs {
		jobs[i] = worker.Job{YardLine: req.YardLine, YardsToGo: req.YardsToGo, Overrides: req.Overrides()}
	}
	return h.batches.Evaluate(ctx, svc, jobs)
}

// decodeBody reads a size limited JSON body into dst, returning the status to
// report on failure.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return http.StatusRequestEntityTooLarge, errors.New("Request body too large")
		case errors.Is(err, io.EOF):
			return http.StatusBadRequest, errors.New("Request body is empty")
		default:
			return http.StatusBadRequest, fmt.Errorf("Invalid request body: %w", err)
		}
	}
	return 0, nil
}
