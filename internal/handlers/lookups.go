package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

const uploadSource = "upload"

// GetLookups handles GET /api/v1/lookups
// @Summary Get the active lookup tables
// @Tags Lookups
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /lookups [get]
func (h *Handler) GetLookups(w http.ResponseWriter, r *http.Request) {
	tables := h.lookups.Snapshot()
	if tables == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Lookup tables not loaded")
		return
	}
	h.jsonResponse(w, http.StatusOK, tables)
}

// UploadLookups handles POST /api/v1/lookups
// @Summary Replace the lookup tables
// @Description Accepts a JSON or YAML resource. Invalid resources leave the active tables in place.
// @Tags Lookups
// @Accept json
// @Accept application/yaml
// @Produce json
// @Success 200 {object} models.LookupReloadResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /lookups [post]
func (h *Handler) UploadLookups(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	format := uploadFormat(r)
	if err := h.lookups.LoadFormat(body, uploadSource, format); err != nil {
		var parseErr *lookup.ParseError
		var malformed *lookup.MalformedResourceError
		if errors.As(err, &parseErr) || errors.As(err, &malformed) {
			h.logger.Warnw("Rejected lookup upload", "error", err, "format", format)
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("Failed to load uploaded lookups", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load lookup tables")
		return
	}

	tables := h.lookups.Snapshot()
	h.logger.Infow("Lookup tables replaced", "id", tables.ID, "source", tables.Source)
	h.jsonResponse(w, http.StatusOK, reloadResponse(tables))
}

// ResetLookups handles POST /api/v1/lookups/reset
// @Summary Restore the bundled lookup tables
// @Tags Lookups
// @Produce json
// @Success 200 {object} models.LookupReloadResponse
// @Router /lookups/reset [post]
func (h *Handler) ResetLookups(w http.ResponseWriter, r *http.Request) {
	if err := h.lookups.Load(""); err != nil {
		h.logger.Errorw("Failed to restore bundled lookups", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to restore bundled lookup tables")
		return
	}

	tables := h.lookups.Snapshot()
	h.logger.Infow("Lookup tables reset", "id", tables.ID)
	h.jsonResponse(w, http.StatusOK, reloadResponse(tables))
}

// uploadFormat picks YAML from the query string or content type, JSON otherwise.
func uploadFormat(r *http.Request) lookup.Format {
	if f := strings.ToLower(r.URL.Query().Get("format")); f == "yaml" || f == "yml" {
		return lookup.FormatYAML
	}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		return lookup.FormatYAML
	}
	return lookup.FormatJSON
}

func reloadResponse(t *lookup.Tables) models.LookupReloadResponse {
	return models.LookupReloadResponse{ID: t.ID, Source: t.Source, LoadedAt: t.LoadedAt}
}
