// Package http serves the token counter UI: the issuing form, payment
// tracking, the report pages and their downloadable exports. All state
// reads and writes go through the store and the token service.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tokendesk/internal/cache"
	"tokendesk/internal/export"
	"tokendesk/internal/log"
	"tokendesk/internal/services"
	"tokendesk/internal/store"
	appweb "tokendesk/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	store       *store.Store
	tokens      *services.TokenService
	issuedBy    string
	rateLimiter *rateLimiter

	// Rendered export tables keyed by report kind and query. Purged on
	// every mutation so downloads never lag behind the counter.
	tableCache   *cache.LRUCache[export.Table]
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, st *store.Store, tokens *services.TokenService, issuedBy string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:        st,
		tokens:       tokens,
		issuedBy:     issuedBy,
		rateLimiter:  newRateLimiter(),
		tableCache:   cache.NewLRUCache[export.Table](100, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.tableCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/tokens", s.withSecurityHeaders(s.handleIssueToken))
	mux.HandleFunc("/tokens/update", s.withSecurityHeaders(s.handleUpdateToken))
	mux.HandleFunc("/tokens/delete", s.withSecurityHeaders(s.handleDeleteToken))

	mux.HandleFunc("/payments", s.withSecurityHeaders(s.handlePayments))
	mux.HandleFunc("/payments/mark-paid", s.withSecurityHeaders(s.handleMarkPaid))
	mux.HandleFunc("/payments/mark-unpaid", s.withSecurityHeaders(s.handleMarkUnpaid))

	mux.HandleFunc("/reports/daily", s.withSecurityHeaders(s.handleDailyReport))
	mux.HandleFunc("/reports/institutions", s.withSecurityHeaders(s.handleInstitutionReport))
	mux.HandleFunc("/reports/reasons", s.withSecurityHeaders(s.handleReasonReport))
	mux.HandleFunc("/reports/advanced", s.withSecurityHeaders(s.handleAdvancedReport))
	mux.HandleFunc("/reports/all", s.withSecurityHeaders(s.handleAllTokens))
	for _, kind := range reportKinds {
		kind := kind
		mux.HandleFunc("/reports/"+kind+"/export", s.withSecurityHeaders(func(w http.ResponseWriter, r *http.Request) {
			s.handleExport(w, r, kind)
		}))
	}

	mux.HandleFunc("/settings", s.withSecurityHeaders(s.handleSettings))
	mux.HandleFunc("/settings/locations/add", s.withSecurityHeaders(s.handleAddLocation))
	mux.HandleFunc("/settings/locations/delete", s.withSecurityHeaders(s.handleDeleteLocation))
	mux.HandleFunc("/settings/meals/add", s.withSecurityHeaders(s.handleAddMealType))
	mux.HandleFunc("/settings/meals/delete", s.withSecurityHeaders(s.handleDeleteMealType))
	mux.HandleFunc("/settings/meals/price", s.withSecurityHeaders(s.handleUpdateMealPrice))
	mux.HandleFunc("/settings/reasons/add", s.withSecurityHeaders(s.handleAddFreeReason))
	mux.HandleFunc("/settings/reasons/delete", s.withSecurityHeaders(s.handleDeleteFreeReason))

	return s
}

// invalidateReports drops every cached export table. Called after any
// state mutation.
func (s *Server) invalidateReports() {
	s.tableCache.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := clientAddress(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutations only; report refreshes stay cheap.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldComponent, log.ComponentRateLimit)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// render executes a page template, reporting failures as 500s.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err.Error(),
			log.FieldComponent, log.ComponentTemplate,
			"template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
