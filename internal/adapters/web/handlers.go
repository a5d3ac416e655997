package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"supplier-recon/internal/app"
	"supplier-recon/internal/core"
)

// maxUploadBytes caps statement uploads. Ledger reports are text heavy but
// rarely exceed a few megabytes even for a full fiscal year.
const maxUploadBytes = 20 << 20

type Handler struct {
	svc  app.ApplicationService
	pool *pgxpool.Pool
}

// NewRouter builds the HTTP API. allowedOrigins is the comma-separated
// ALLOWED_ORIGINS value; empty disables CORS.
func NewRouter(svc app.ApplicationService, pool *pgxpool.Pool, allowedOrigins string) *chi.Mux {
	h := &Handler{svc: svc, pool: pool}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxUploadBytes))

	r.Get("/api/health", h.health)

	r.Route("/api/statements", func(r chi.Router) {
		r.Post("/", h.uploadStatement)
		r.Get("/", h.listStatements)
		r.Get("/{id}/summary", h.getSummary)
		r.Get("/{id}/suppliers", h.listSuppliers)
		r.Get("/{id}/divergences", h.listDivergences)
		r.Get("/{id}/export", h.exportStatement)
		r.Post("/{id}/review", h.reviewDivergences)
	})

	r.Get("/api/suppliers/{id}", h.getSupplier)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.Ping(r.Context()); err != nil {
		writeError(w, r, "database unreachable", "DB_UNAVAILABLE", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) uploadStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, "expected multipart form with a file field", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "missing file field", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, "could not read upload", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.IngestStatement(r.Context(), header.Filename, raw)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStatementView(result.Statement))
}

func (h *Handler) listStatements(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListStatements(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statements": newStatementViews(result.Statements),
	})
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSummary(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	s := result.Summary
	writeJSON(w, http.StatusOK, map[string]any{
		"statement":     newStatementView(s.Statement),
		"settled":       s.Settled,
		"open":          s.Open,
		"advanced":      s.Advanced,
		"divergent":     s.Divergent,
		"total_payable": s.TotalPayable,
	})
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	filter := core.SupplierFilter{
		Status: core.PaymentStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("has_partials"); v != "" {
		b := v == "true" || v == "1"
		filter.HasPartials = &b
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	result, err := h.svc.ListSuppliers(r.Context(), id, filter)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     result.Total,
		"suppliers": newSupplierViews(result.Suppliers),
	})
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSupplier(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	d := result.Detail
	writeJSON(w, http.StatusOK, map[string]any{
		"supplier":      newSupplierView(d.Supplier),
		"invoices":      newInvoiceViews(d.Invoices),
		"open_invoices": newInvoiceViews(result.OpenInvoices),
		"entries":       newEntryViews(d.Entries),
		"divergences":   newDivergenceViews(d.Divergences),
	})
}

func (h *Handler) listDivergences(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListDivergences(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"divergences": newDivergenceViews(result.Divergences),
	})
}

func (h *Handler) exportStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "full"
	}

	data, filename, err := h.svc.ExportWorkbook(r.Context(), id, scope)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) reviewDivergences(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ReviewDivergences(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Review)
}

// pathID parses the {id} path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// serviceError maps domain sentinels to HTTP statuses.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "not found", "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrDuplicateStatement):
		writeError(w, r, "this document was already imported", "DUPLICATE_STATEMENT", http.StatusConflict)
	case errors.Is(err, core.ErrUnreadableStatement):
		writeError(w, r, "the document contains no readable ledger text", "UNREADABLE_STATEMENT", http.StatusUnprocessableEntity)
	case errors.Is(err, app.ErrUnsupportedFormat):
		writeError(w, r, err.Error(), "UNSUPPORTED_FORMAT", http.StatusUnsupportedMediaType)
	case errors.Is(err, app.ErrAgentUnavailable):
		writeError(w, r, "divergence review requires an OpenAI API key", "AGENT_UNAVAILABLE", http.StatusServiceUnavailable)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
