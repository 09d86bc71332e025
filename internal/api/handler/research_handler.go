package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-research-pipeline/internal/index"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/pipeline"
	"go-research-pipeline/internal/store"
	"go-research-pipeline/pkg/utils"
)

// Service is what the handlers need from the research backend.
type Service interface {
	Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error)
	Capabilities() []model.Capability
	Lookup(ctx context.Context, topic string) (*model.CacheEntry, error)
	History(ctx context.Context) ([]model.CacheSummary, error)
	Runs(ctx context.Context, limit int) ([]model.RunInfo, error)
	Search(ctx context.Context, q string, limit int) ([]index.Hit, error)
}

type Handler struct {
	svc Service
	log *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, log: logger}
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error        string              `json:"error"`
	StageResults []model.StageResult `json:"stage_results,omitempty"`
}

// Research runs the pipeline for a topic
// @Summary Research a product idea
// @Description Run the agent pipeline for a topic, or return the cached report. The call blocks until the run finishes.
// @Tags research
// @Accept json
// @Produce json
// @Param request body model.RunRequest true "Topic and optional capabilities"
// @Success 200 {object} model.RunResult "Report, comparison table, notes and warnings"
// @Failure 400 {object} ErrorResponse "Invalid request or capability selection"
// @Failure 502 {object} ErrorResponse "A stage failed; partial stage results attached"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /research [post]
func (h *Handler) Research(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	result, err := h.svc.Run(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, pipeline.ErrConfiguration):
			status = http.StatusBadRequest
		case errors.Is(err, pipeline.ErrStageInvocation):
			status = http.StatusBadGateway
		}
		h.log.Error("❌ Research request failed", "topic", req.Topic, "status", status, "error", err)
		resp := ErrorResponse{Error: err.Error()}
		if result != nil {
			resp.StageResults = result.StageResults
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListCapabilities lists the agent roles
// @Summary List capabilities
// @Description Get every capability in declaration order with its dependencies and defaults
// @Tags research
// @Produce json
// @Success 200 {array} model.Capability "Capabilities"
// @Router /capabilities [get]
func (h *Handler) ListCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Capabilities())
}

// ListHistory lists cached topics
// @Summary List history
// @Description Get a summary of every cached topic, newest first
// @Tags history
// @Produce json
// @Success 200 {object} map[string]interface{} "Cached topics"
// @Failure 500 {object} ErrorResponse "Cache read failed"
// @Router /history [get]
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}
	if entries == nil {
		entries = []model.CacheSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// GetHistoryEntry returns one cached report
// @Summary Get history entry
// @Description Retrieve the cached report and comparison table for a topic
// @Tags history
// @Produce json
// @Param topic query string true "Topic, exact match"
// @Success 200 {object} model.CacheEntry "Cached entry"
// @Failure 400 {object} ErrorResponse "Topic is required"
// @Failure 404 {object} ErrorResponse "Topic not cached"
// @Router /history/entry [get]
func (h *Handler) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ExportHistoryEntry downloads a cached entry
// @Summary Export history entry
// @Description Download the comparison table as CSV or JSON, or the report as Markdown
// @Tags history
// @Produce text/csv
// @Produce json
// @Produce text/markdown
// @Param topic query string true "Topic, exact match"
// @Param format query string false "csv, json or md" default(md)
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponse "Invalid format"
// @Failure 404 {object} ErrorResponse "Topic not cached or no comparison table"
// @Router /history/export [get]
func (h *Handler) ExportHistoryEntry(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "markdown":
		format = pipeline.FormatMarkdown
	case pipeline.FormatCSV, pipeline.FormatJSON, pipeline.FormatMarkdown:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
		return
	}

	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if format != pipeline.FormatMarkdown && !entry.HasRecords {
		writeError(w, http.StatusNotFound, "The report has no comparison table")
		return
	}

	suffix := "records"
	if format == pipeline.FormatMarkdown {
		suffix = "report"
	}
	filename := fmt.Sprintf("%s_%s.%s", utils.CleanTopicName(entry.Topic), suffix, format)
	w.Header().Set("Content-Type", utils.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := pipeline.WriteExport(w, entry, format); err != nil {
		h.log.Error("❌ Export failed", "topic", entry.Topic, "format", format, "error", err)
	}
}

// SearchHistory runs a full-text query over cached reports
// @Summary Search history
// @Description Full-text search over cached reports and comparison tables
// @Tags history
// @Produce json
// @Param q query string false "Query; empty lists everything"
// @Param limit query int false "Maximum hits" default(10)
// @Success 200 {object} map[string]interface{} "Hits"
// @Failure 500 {object} ErrorResponse "Search failed"
// @Router /history/search [get]
func (h *Handler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := queryLimit(r, 10)
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query": q,
		"hits":  hits,
		"count": len(hits),
		"limit": limit,
	})
}

// ListRuns returns the run log
// @Summary List runs
// @Description Retrieve logged runs with per-stage progress, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum runs" default(20)
// @Success 200 {object} map[string]interface{} "Runs"
// @Failure 501 {object} ErrorResponse "Cache backend keeps no run log"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 20)
	runs, err := h.svc.Runs(r.Context(), limit)
	if errors.Is(err, store.ErrNoRunLog) {
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if runs == nil {
		runs = []model.RunInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
		"limit": limit,
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*model.CacheEntry, bool) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "Topic is required")
		return nil, false
	}
	entry, err := h.svc.Lookup(r.Context(), topic)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return nil, false
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "Topic not found")
		return nil, false
	}
	return entry, true
}

func queryLimit(r *http.Request, def int) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
