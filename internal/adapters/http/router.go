package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

const defaultMaxUploadBytes = 32 << 20

type Options struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
	MaxUploadBytes   int64

	// Metrics, when set, is served on /metrics and wraps every request.
	Metrics MetricsProvider
}

type MetricsProvider interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

type Router struct {
	cases ports.CaseService
	opts  Options
}

func NewRouter(cases ports.CaseService, opts Options) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 250 * time.Millisecond
	}
	return &Router{cases: cases, opts: opts}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/cases", rt.createCase)
	mux.HandleFunc("GET /v1/cases/{id}", rt.getCase)
	mux.HandleFunc("POST /v1/cases/{id}/documents", rt.addDocuments)
	mux.HandleFunc("GET /v1/cases/{id}/export", rt.exportCase)

	mux.HandleFunc("POST /v1/cases/{id}/clause", rt.startClause)
	mux.HandleFunc("GET /v1/cases/{id}/clause", rt.currentClause)
	mux.HandleFunc("DELETE /v1/cases/{id}/clause", rt.abandonClause)
	mux.HandleFunc("POST /v1/cases/{id}/clause/decision", rt.decideClause)
	mux.HandleFunc("POST /v1/cases/{id}/clause/answer", rt.answerQuestion)

	mux.HandleFunc("GET /v1/catalog", rt.catalog)
	mux.HandleFunc("POST /v1/intake/suggestions", rt.suggestIntake)

	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createCase(w http.ResponseWriter, r *http.Request) {
	var intake domain.Intake
	if !decodeBody(w, r, &intake) {
		return
	}
	c, err := rt.cases.CreateCase(r.Context(), intake)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCaseView(c))
}

func (rt *Router) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := rt.cases.GetCase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCaseView(c))
}

func (rt *Router) addDocuments(w http.ResponseWriter, r *http.Request) {
	files, ok := rt.readUploads(w, r)
	if !ok {
		return
	}
	c, reports, err := rt.cases.AddDocuments(r.Context(), r.PathValue("id"), files)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"case":      newCaseView(c),
		"documents": reports,
	})
}

func (rt *Router) suggestIntake(w http.ResponseWriter, r *http.Request) {
	files, ok := rt.readUploads(w, r)
	if !ok {
		return
	}
	suggestion, reports, err := rt.cases.SuggestIntake(r.Context(), files)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestion": suggestion,
		"documents":  reports,
	})
}

func (rt *Router) catalog(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.cases.Catalog(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clauses": entries})
}

func (rt *Router) startClause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ordinal int `json:"ordinal"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Ordinal <= 0 {
		writeError(w, http.StatusBadRequest, "ordinal must be positive")
		return
	}
	state, err := rt.cases.StartClause(r.Context(), r.PathValue("id"), req.Ordinal)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) currentClause(w http.ResponseWriter, r *http.Request) {
	state, err := rt.cases.CurrentClause(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) abandonClause(w http.ResponseWriter, r *http.Request) {
	if err := rt.cases.AbandonClause(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) decideClause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	decision, err := domain.ParseDecision(strings.ToLower(strings.TrimSpace(req.Decision)))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	state, err := rt.cases.DecideClause(r.Context(), r.PathValue("id"), decision)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	state, err := rt.cases.AnswerQuestion(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) exportCase(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	doc, err := rt.cases.Export(r.Context(), r.PathValue("id"), format)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// readUploads accepts one or more multipart parts named "files" or "file".
func (rt *Router) readUploads(w http.ResponseWriter, r *http.Request) ([]domain.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(rt.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with field 'files' is required")
		return nil, false
	}
	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "multipart field 'files' is required")
		return nil, false
	}

	uploads := make([]domain.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read upload "+h.Filename)
			return nil, false
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read upload "+h.Filename)
			return nil, false
		}
		uploads = append(uploads, domain.Upload{Filename: h.Filename, Data: data})
	}
	return uploads, true
}

// caseView is the API shape of a case; the raw corpus is summarized.
type caseView struct {
	ID               string                       `json:"id"`
	Notary           domain.NotaryOffice          `json:"notary"`
	Parties          []domain.Party               `json:"parties"`
	Transaction      domain.TransactionAttributes `json:"transaction"`
	Signing          domain.SigningMetadata       `json:"signing"`
	Facts            domain.FactStore             `json:"facts"`
	Sources          []domain.SourceDocument      `json:"sources"`
	CorpusChars      int                          `json:"corpus_chars"`
	ProcessedClauses []domain.ProcessedClause     `json:"processed_clauses"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func newCaseView(c *domain.Case) caseView {
	return caseView{
		ID:               c.ID,
		Notary:           c.Notary,
		Parties:          c.Parties,
		Transaction:      c.Transaction,
		Signing:          c.Signing,
		Facts:            c.Facts,
		Sources:          c.Sources,
		CorpusChars:      len([]rune(c.Corpus)),
		ProcessedClauses: c.ProcessedClauses,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
