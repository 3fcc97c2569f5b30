package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/repository"
	"github.com/ybthummar/MathFlowAI/internal/service/admin"
	"github.com/ybthummar/MathFlowAI/internal/service/auth"
	"github.com/ybthummar/MathFlowAI/internal/service/feed"
	"github.com/ybthummar/MathFlowAI/internal/service/receipt"
	"github.com/ybthummar/MathFlowAI/internal/service/registration"
	"github.com/ybthummar/MathFlowAI/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	auth         auth.Service
	registration registration.Service
	admin        admin.Service
	receipts     receipt.Renderer
	feed         feed.Service
	upgrader     websocket.Upgrader
	limiter      RateLimiter
	dbHealth     func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	registrationsTotal *prometheus.CounterVec
}

const (
	rateWindowDefault   = time.Minute
	rateLimitRegister   = 5
	rateLimitLogin      = 12
	rateLimitReceipt    = 30
	rateLimitAdmin      = 120
	rateLimitExport     = 12
	rateLimitLiveFeed   = 30
	healthCheckTimeout  = 2 * time.Second
	sseHeartbeatPeriod  = 15 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, registrationSvc registration.Service, adminSvc admin.Service, receipts receipt.Renderer, feedSvc feed.Service, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:          http.NewServeMux(),
		logger:       logger,
		auth:         authSvc,
		registration: registrationSvc,
		admin:        adminSvc,
		receipts:     receipts,
		feed:         feedSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/login", r.audit(r.withRateLimit("/auth/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/auth/me", r.audit(r.requireAuth(r.handleMe)))
	r.mux.HandleFunc("/register", r.audit(r.handleRegister))
	r.mux.HandleFunc("/register/receipt", r.audit(r.withRateLimit("/register/receipt", rateLimitReceipt, rateWindowDefault, rateLimitKeyIP, r.handleReceipt)))
	r.mux.HandleFunc("/admin", r.audit(r.handlerAuthRate("/admin", rateLimitAdmin, rateWindowDefault, r.handleAdmin)))
	r.mux.HandleFunc("/admin/export", r.audit(r.handlerAuthRate("/admin/export", rateLimitExport, rateWindowDefault, r.handleExport)))
	r.mux.HandleFunc("/admin/live", r.audit(r.handlerAuthRate("/admin/live", rateLimitLiveFeed, rateWindowDefault, r.handleLiveWS)))
	r.mux.HandleFunc("/admin/events", r.audit(r.handlerAuthRate("/admin/events", rateLimitLiveFeed, rateWindowDefault, r.handleLiveSSE)))
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	adminAcc, session, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		r.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"admin": map[string]any{
			"id":    adminAcc.ID,
			"email": adminAcc.Email,
			"name":  adminAcc.Name,
		},
		"token":     session.Token,
		"expiresIn": int(session.ExpiresIn.Seconds()),
	})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for session check", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"admin": map[string]any{
			"id":    info.AdminID,
			"email": info.Email,
			"name":  info.Name,
		},
	})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.withRateLimit("/register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegisterCreate)(w, req)
	case http.MethodGet:
		r.handleRegisterLookup(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleRegisterCreate(w http.ResponseWriter, req *http.Request) {
	var payload registration.RegistrationInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		r.recordRegistration("malformed")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	team, err := r.registration.Register(req.Context(), payload)
	if err != nil {
		var verr *registration.ValidationError
		if errors.As(err, &verr) {
			r.recordRegistration("validation_failed")
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Validation failed",
				"details": verr.Fields,
			})
			return
		}
		var cerr *registration.ConflictError
		if errors.As(err, &cerr) {
			r.recordRegistration("conflict")
			body := map[string]any{"error": cerr.Message}
			if len(cerr.Duplicates) > 0 {
				body["duplicates"] = cerr.Duplicates
			}
			writeJSON(w, http.StatusConflict, body)
			return
		}
		r.recordRegistration("error")
		r.logger.Error("registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error. Please try again.")
		return
	}

	r.recordRegistration("accepted")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"registrationId": team.RegistrationID,
		"teamId":         team.ID,
		"message":        "Team registered successfully!",
	})
}

func (r *Router) handleRegisterLookup(w http.ResponseWriter, req *http.Request) {
	registrationID := strings.TrimSpace(req.URL.Query().Get("id"))
	if registrationID == "" {
		writeError(w, http.StatusBadRequest, "Registration ID is required")
		return
	}
	team, err := r.registration.GetByRegistrationID(req.Context(), registrationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Team not found")
			return
		}
		r.logger.Error("registration lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"team":    publicTeamSummary(team),
	})
}

// publicTeamSummary omits contact details that only admins should see.
func publicTeamSummary(team *domain.Team) map[string]any {
	members := make([]map[string]any, 0, len(team.Members))
	for _, m := range team.Members {
		members = append(members, map[string]any{
			"name":     m.Name,
			"email":    m.Email,
			"rollNo":   m.RollNo,
			"year":     m.Year,
			"isLeader": m.IsLeader,
		})
	}
	return map[string]any{
		"registrationId": team.RegistrationID,
		"teamName":       team.TeamName,
		"department":     team.Department,
		"leaderEmail":    team.LeaderEmail,
		"status":         team.Status,
		"createdAt":      team.CreatedAt,
		"members":        members,
	}
}

func (r *Router) handleReceipt(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	registrationID := strings.TrimSpace(req.URL.Query().Get("id"))
	if registrationID == "" {
		writeError(w, http.StatusBadRequest, "Registration ID is required")
		return
	}
	// Format check avoids a storage round-trip for garbage identifiers.
	if !r.registration.ValidRegistrationID(registrationID) {
		writeError(w, http.StatusBadRequest, "Invalid registration ID format")
		return
	}
	team, err := r.registration.GetByRegistrationID(req.Context(), registrationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Team not found")
			return
		}
		r.logger.Error("receipt lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	pdf, err := r.receipts.Render(*team)
	if err != nil {
		r.logger.Error("receipt render failed", "registration_id", registrationID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	headers := w.Header()
	headers.Set("Content-Type", "application/pdf")
	headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", r.receipts.Filename(team.RegistrationID)))
	headers.Set("Content-Length", strconv.Itoa(len(pdf)))
	headers.Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (r *Router) handleAdmin(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.handleAdminList(w, req)
	case http.MethodPatch:
		r.handleAdminStatus(w, req)
	case http.MethodPost:
		r.handleAdminBadge(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAdminList(w http.ResponseWriter, req *http.Request) {
	result, err := r.admin.List(req.Context(), teamFilterFromQuery(req))
	if err != nil {
		r.logger.Error("admin list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"teams":      result.Teams,
		"pagination": result.Pagination,
		"stats":      result.Stats,
	})
}

func (r *Router) handleAdminStatus(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		TeamID string `json:"teamId"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	team, err := r.admin.UpdateStatus(req.Context(), payload.TeamID, domain.TeamStatus(payload.Status))
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrMissingTeamID), errors.Is(err, admin.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "Invalid request")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Team not found")
		default:
			r.logger.Error("status update failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"team":    team,
	})
}

func (r *Router) handleAdminBadge(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		TeamID string `json:"teamId"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	badge, err := r.admin.BadgeQR(req.Context(), payload.TeamID)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrMissingTeamID):
			writeError(w, http.StatusBadRequest, "Invalid request")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Team not found")
		default:
			r.logger.Error("badge generation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"qrCode":  badge.QRCode,
		"team":    badge.Team,
	})
}

func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	filter := teamFilterFromQuery(req)
	filter.Search = ""

	headers := w.Header()
	headers.Set("Content-Type", "text/csv")
	headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
		"registrations-"+time.Now().UTC().Format("2006-01-02")+".csv"))
	if err := r.admin.ExportCSV(req.Context(), w, filter); err != nil {
		// Headers may already be on the wire; all we can do is log.
		r.logger.Error("csv export failed", "error", err)
	}
}

func (r *Router) handleLiveWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	hub := r.feed.Hub()
	hub.Register(feed.Topic, client)
	go func() {
		defer func() {
			hub.Unregister(feed.Topic, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleLiveSSE(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, r.logger)
	hub := r.feed.Hub()
	hub.Register(feed.Topic, client)
	defer func() {
		hub.Unregister(feed.Topic, client)
		client.Close()
	}()

	ticker := time.NewTicker(sseHeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// teamFilterFromQuery maps query parameters onto the closed filter set.
func teamFilterFromQuery(req *http.Request) domain.TeamFilter {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.TeamFilter{
		Department: strings.TrimSpace(q.Get("department")),
		Status:     domain.TeamStatus(strings.TrimSpace(q.Get("status"))),
		Search:     strings.TrimSpace(q.Get("search")),
		Page:       page,
		Limit:      limit,
	}
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "admin"
			fields = append(fields, "admin_id", info.AdminID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
