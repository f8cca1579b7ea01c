package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appmail "github.com/bryanwahyu/threat-console/internal/application/mail"
	appthreat "github.com/bryanwahyu/threat-console/internal/application/threat"
	dommail "github.com/bryanwahyu/threat-console/internal/domain/mail"
	domthreat "github.com/bryanwahyu/threat-console/internal/domain/threat"
	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
	"github.com/bryanwahyu/threat-console/internal/middleware"
)

type Options struct {
	APIKeys     map[string]string
	CORSOrigins []string
	Limiter     *middleware.RateLimiter
	Checks      map[string]middleware.HealthChecker
}

type Router struct {
	threatSvc *appthreat.Service
	mailSvc   *appmail.Service
}

func NewRouter(threatSvc *appthreat.Service, mailSvc *appmail.Service, opts Options) http.Handler {
	r := &Router{threatSvc: threatSvc, mailSvc: mailSvc}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Checks))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)

		rt.Post("/threat/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/threat/history", r.wrap(r.handleHistory))
		rt.Get("/threat/archive", r.wrap(r.handleArchive))
		rt.Get("/threat/status", r.wrap(r.handleThreatStatus))

		rt.Get("/mail/templates", r.wrap(r.handleTemplates))
		rt.Post("/mail/preview", r.wrap(r.handlePreview))
		rt.Post("/mail/send", r.wrap(r.handleSend))
		rt.Get("/mail/dispatches", r.wrap(r.handleDispatches))
		rt.Get("/mail/status", r.wrap(r.handleMailStatus))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks an error caused by the request itself.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, kind := classify(err)
		if status >= http.StatusInternalServerError {
			log.Printf("request failed: path=%s kind=%s err=%v", req.URL.Path, kind, err)
		}
		writeJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
	}
}

func classify(err error) (int, string) {
	var br badRequest
	switch {
	case errors.As(err, &br),
		errors.Is(err, domthreat.ErrEmptySubject),
		errors.Is(err, domthreat.ErrInvalidMode),
		errors.Is(err, dommail.ErrInvalidRecipient),
		errors.Is(err, dommail.ErrUnknownTemplate):
		return http.StatusBadRequest, "validation"
	case vendor.IsConfigError(err):
		return http.StatusServiceUnavailable, "configuration"
	case errors.Is(err, vendor.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota"
	case vendor.IsTransportError(err):
		return http.StatusBadGateway, "transport"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest{err}
	}
	return nil
}

// POST /v1/{tenant}/threat/analyze
// Body: {"mode": "password|email", "text": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Mode string `json:"mode"`
		Text string `json:"text"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	mode, err := domthreat.ParseMode(body.Mode)
	if err != nil {
		return err
	}
	if err := middleware.ValidateSubject(body.Text); err != nil {
		return badRequest{err}
	}

	res, err := r.threatSvc.Analyze(req.Context(), tenant, domthreat.AnalysisRequest{Subject: body.Text, Mode: mode})
	if err != nil {
		if status, _ := classify(err); status != http.StatusBadRequest {
			middleware.IncrementAnalysesFailed()
		}
		return err
	}
	middleware.IncrementAnalyses()

	return writeJSON(w, http.StatusOK, analysisView(res))
}

type analysisResponse struct {
	domthreat.AnalysisResult
	SecurityScore int `json:"security_score"`
}

func analysisView(res domthreat.AnalysisResult) analysisResponse {
	return analysisResponse{AnalysisResult: res, SecurityScore: res.SecurityScore()}
}

// GET /v1/{tenant}/threat/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	list := r.threatSvc.RecentHistory(tenant)
	out := make([]analysisResponse, 0, len(list))
	for _, res := range list {
		out = append(out, analysisView(res))
	}
	return writeJSON(w, http.StatusOK, out)
}

// GET /v1/{tenant}/threat/archive?limit=20
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.threatSvc.Archived(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/threat/status
func (r *Router) handleThreatStatus(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.threatSvc.Status())
}

// GET /v1/{tenant}/mail/templates
func (r *Router) handleTemplates(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.mailSvc.Templates())
}

// POST /v1/{tenant}/mail/preview
// Body: {"template_id": "...", "target_name": "...", "subject": "..."}
func (r *Router) handlePreview(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		TemplateID string `json:"template_id"`
		TargetName string `json:"target_name"`
		Subject    string `json:"subject"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}
	p, err := r.mailSvc.Preview(body.TemplateID, middleware.SanitizeString(body.TargetName), middleware.SanitizeString(body.Subject))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

// POST /v1/{tenant}/mail/send
// Body: {"template_id": "...", "to_email": "...", "to_name": "...", "subject": "..."}
func (r *Router) handleSend(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		TemplateID string `json:"template_id"`
		ToEmail    string `json:"to_email"`
		ToName     string `json:"to_name"`
		Subject    string `json:"subject"`
	}
	if err := decode(w, req, &body); err != nil {
		return err
	}

	res, err := r.mailSvc.Send(req.Context(), tenant, appmail.SendCommand{
		TemplateID: body.TemplateID,
		ToEmail:    body.ToEmail,
		ToName:     middleware.SanitizeString(body.ToName),
		Subject:    middleware.SanitizeString(body.Subject),
	})
	if err != nil {
		if status, _ := classify(err); status != http.StatusBadRequest {
			middleware.IncrementMailsFailed()
		}
		return err
	}
	switch res.Status {
	case dommail.StatusLive:
		middleware.IncrementMailsLive()
	case dommail.StatusSimulated:
		middleware.IncrementMailsSimulated()
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/{tenant}/mail/dispatches?limit=20
func (r *Router) handleDispatches(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.mailSvc.Dispatches(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/mail/status
func (r *Router) handleMailStatus(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, struct {
		appmail.Status
		CheckedAt time.Time `json:"checked_at"`
	}{r.mailSvc.Status(), time.Now()})
}
