package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/usecase"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
	"hbpr-validation-service/templates"
)

const (
	maxDumpBytes    = 10 << 20
	defaultPageSize = 20
)

// Ingestor accepts raw dumps
type Ingestor interface {
	Submit(ctx context.Context, source, sourceRef, content string) (*entity.Dump, error)
}

// Reporter answers flight queries and maintains simple records
type Reporter interface {
	Summary(ctx context.Context, flightID string) (*entity.FlightSummary, error)
	Missing(ctx context.Context, flightID string) (*entity.MissingNumbers, error)
	InvalidPage(ctx context.Context, flightID string, page, size int) (*entity.InvalidPage, error)
	Results(ctx context.Context, flightID string) ([]*entity.ValidationResult, error)
	Record(ctx context.Context, flightID string, hbnb int) (*usecase.RecordView, error)
	Revalidate(ctx context.Context, flightID string, hbnb int) (*entity.ValidationResult, error)
	CreateSimple(ctx context.Context, flightID string, hbnb int, text string) (*entity.SimpleRecord, error)
	DeleteSimple(ctx context.Context, flightID string, hbnb int) error
}

// Handler wires the ingestion and reporting endpoints
type Handler struct {
	ingestor Ingestor
	reporter Reporter
	logger   logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(ingestor Ingestor, reporter Reporter, logger logger.Logger) *Handler {
	return &Handler{
		ingestor: ingestor,
		reporter: reporter,
		logger:   logger,
	}
}

// Register mounts the API on r
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/dumps", h.HandleSubmitDump)

		r.Route("/flights/{flightID}", func(r chi.Router) {
			r.Get("/summary", h.HandleSummary)
			r.Get("/missing", h.HandleMissing)
			r.Get("/invalid", h.HandleInvalid)
			r.Get("/report", h.HandleReport)
			r.Get("/records/{hbnb}", h.HandleRecord)
			r.Post("/records/{hbnb}/revalidate", h.HandleRevalidate)
			r.Post("/simple/{hbnb}", h.HandleCreateSimple)
			r.Delete("/simple/{hbnb}", h.HandleDeleteSimple)
		})
	})
}

// HandleSubmitDump handles POST /api/dumps. The body is the raw dump text;
// the optional ref query parameter names its origin.
func (h *Handler) HandleSubmitDump(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDumpBytes))
	if err != nil {
		writeError(w, fmt.Errorf("read body: %v: %w", err, sentinel.ErrInvalidInput))
		return
	}

	dump, err := h.ingestor.Submit(r.Context(), entity.SourceAPI, r.URL.Query().Get("ref"), string(body))
	if err != nil {
		h.logger.Error("Dump submission failed", "error", err)
		writeError(w, err)
		return
	}

	h.logger.Info("Dump submitted",
		"dumpId", dump.ID,
		"flightId", dump.FlightID,
		"status", dump.ProcessStatus,
		"duration_ms", time.Since(start).Milliseconds())

	writeJSON(w, http.StatusCreated, dump)
}

// HandleSummary handles GET /api/flights/{flightID}/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reporter.Summary(r.Context(), flightParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleMissing handles GET /api/flights/{flightID}/missing
func (h *Handler) HandleMissing(w http.ResponseWriter, r *http.Request) {
	missing, err := h.reporter.Missing(r.Context(), flightParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, missing)
}

// HandleInvalid handles GET /api/flights/{flightID}/invalid?page=&size=
func (h *Handler) HandleInvalid(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := queryInt(r, "size", defaultPageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.reporter.InvalidPage(r.Context(), flightParam(r), page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleReport handles GET /api/flights/{flightID}/report as plain text
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flightID := flightParam(r)

	summary, err := h.reporter.Summary(ctx, flightID)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.reporter.Results(ctx, flightID)
	if err != nil {
		writeError(w, err)
		return
	}
	var numbers []int
	if missing, err := h.reporter.Missing(ctx, flightID); err == nil {
		numbers = missing.Numbers
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, templates.RenderViolationReport(summary, results, numbers))
}

// HandleRecord handles GET /api/flights/{flightID}/records/{hbnb}
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	hbnb, err := hbnbParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.reporter.Record(r.Context(), flightParam(r), hbnb)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRevalidate handles POST /api/flights/{flightID}/records/{hbnb}/revalidate
func (h *Handler) HandleRevalidate(w http.ResponseWriter, r *http.Request) {
	hbnb, err := hbnbParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.reporter.Revalidate(r.Context(), flightParam(r), hbnb)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleCreateSimple handles POST /api/flights/{flightID}/simple/{hbnb}.
// An empty body stores the default stub text.
func (h *Handler) HandleCreateSimple(w http.ResponseWriter, r *http.Request) {
	hbnb, err := hbnbParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<10))
	if err != nil {
		writeError(w, fmt.Errorf("read body: %v: %w", err, sentinel.ErrInvalidInput))
		return
	}

	rec, err := h.reporter.CreateSimple(r.Context(), flightParam(r), hbnb, strings.TrimSpace(string(body)))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleDeleteSimple handles DELETE /api/flights/{flightID}/simple/{hbnb}
func (h *Handler) HandleDeleteSimple(w http.ResponseWriter, r *http.Request) {
	hbnb, err := hbnbParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.reporter.DeleteSimple(r.Context(), flightParam(r), hbnb); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func flightParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "flightID")))
}

func hbnbParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "hbnb")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("hbnb %q: %w", raw, sentinel.ErrInvalidInput)
	}
	return n, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, raw, sentinel.ErrInvalidInput)
	}
	return n, nil
}
