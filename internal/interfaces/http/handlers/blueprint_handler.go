package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/MetaTree-Curator/internal/chem"
	"github.com/turtacn/MetaTree-Curator/internal/domain/blueprint"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

// BlueprintHandler serves the blueprint library and substructure search.
type BlueprintHandler struct {
	repo    blueprint.Repository
	toolkit chem.Toolkit
	metrics *prometheus.CuratorMetrics
	logger  logging.Logger
}

// NewBlueprintHandler constructs the handler. Metrics may be nil.
func NewBlueprintHandler(repo blueprint.Repository, tk chem.Toolkit, metrics *prometheus.CuratorMetrics, logger logging.Logger) *BlueprintHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BlueprintHandler{repo: repo, toolkit: tk, metrics: metrics, logger: logger.Named("http")}
}

type blueprintListResponse struct {
	Blueprints []*blueprint.Blueprint `json:"blueprints"`
	Total      int                    `json:"total"`
}

// List returns the stored library in insertion order.
func (h *BlueprintHandler) List(w http.ResponseWriter, r *http.Request) {
	blueprints, err := h.repo.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blueprintListResponse{Blueprints: blueprints, Total: len(blueprints)})
}

// Get returns one blueprint by uid.
func (h *BlueprintHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	bp, err := h.repo.FindByUID(r.Context(), uid)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bp)
}

// Delete removes one blueprint by uid.
func (h *BlueprintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := h.repo.DeleteByUID(r.Context(), uid); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type uploadResponse struct {
	Saved int `json:"saved"`
}

// Upload stores a batch of blueprint records. Records pass the same shape
// checks as freshly generated blueprints, so a malformed batch is rejected
// whole.
func (h *BlueprintHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var records []map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeInvalidParam, "request body must be a JSON array of blueprints"))
		return
	}

	blueprints := make([]*blueprint.Blueprint, 0, len(records))
	for _, record := range records {
		bp, err := blueprint.FromRecord(record)
		if err != nil {
			writeAppError(w, err)
			return
		}
		blueprints = append(blueprints, bp)
	}

	if err := h.repo.SaveAll(r.Context(), blueprints); err != nil {
		writeAppError(w, err)
		return
	}
	h.logger.Info("blueprints uploaded", logging.Int("count", len(blueprints)))
	writeJSON(w, http.StatusCreated, uploadResponse{Saved: len(blueprints)})
}

type searchRequest struct {
	SMILES string `json:"smiles"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
	Total   int      `json:"total"`
}

// Search runs a substructure query over the stored library and returns the
// uids of the matching blueprints.
func (h *BlueprintHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeInvalidParam, "request body must be a JSON object"))
		return
	}
	if req.SMILES == "" {
		writeAppError(w, errors.New(errors.ErrCodeEmptyInput, "smiles must not be empty"))
		return
	}

	blueprints, err := h.repo.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	start := time.Now()
	search := blueprint.NewSearch(h.toolkit, blueprints, h.logger)
	matches, err := search.Search(r.Context(), req.SMILES)
	if h.metrics != nil {
		h.metrics.RecordSearch("http", len(matches), time.Since(start), err)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: req.SMILES, Matches: matches, Total: len(matches)})
}
