package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"habits/internal/services"
	appweb "habits/web"
)

// Server wires the habit tracker's API and UI over a standard http.Server.
type Server struct {
	http.Server
	templates *template.Template
	habits    *services.HabitService
	plans     *services.PlanService
	apiToken  string
	location  *time.Location
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// apiToken is the shared secret expected in the X-API-Token header on every
// /api route; an empty token means no client can authenticate. loc anchors
// "today" for routes that default their date key; nil falls back to the
// built-in anchor timezone.
func NewServer(addr, apiToken string, loc *time.Location, habits *services.HabitService, plans *services.PlanService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		habits:   habits,
		plans:    plans,
		apiToken: apiToken,
		location: loc,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.withRequestLog(s.handleIndex))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/action-templates", s.withAPI(s.handleListTemplates))
	mux.HandleFunc("POST /api/action-templates", s.withAPI(s.handleUpsertTemplate))
	mux.HandleFunc("DELETE /api/action-templates", s.withAPI(s.handleDeleteTemplate))

	mux.HandleFunc("GET /api/action-logs", s.withAPI(s.handleListCompletions))
	mux.HandleFunc("POST /api/action-logs", s.withAPI(s.handleRecordCompletion))
	mux.HandleFunc("DELETE /api/action-logs", s.withAPI(s.handleRemoveCompletion))

	mux.HandleFunc("GET /api/week-stats", s.withAPI(s.handleWeekStats))

	mux.HandleFunc("GET /api/plan", s.withAPI(s.handleGetPlan))
	mux.HandleFunc("PUT /api/plan", s.withAPI(s.handlePutPlan))
	mux.HandleFunc("POST /api/plan/draft", s.withAPI(s.handleGenerateDraft))

	return s
}

// withRequestLog adds security headers and request logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// withAPI layers token authentication on top of withRequestLog. The token
// check runs before any store access.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return s.withRequestLog(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-API-Token")
		if s.apiToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
			slog.WarnContext(r.Context(), "Rejected API request",
				"url", r.URL.Path,
				"has_token", token != "")
			writeErr(w, http.StatusUnauthorized, "invalid or missing API token")
			return
		}
		next(w, r)
	})
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
