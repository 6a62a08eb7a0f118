package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/silvesterdan/job-tracker-crm/internal/photostore"
	"github.com/silvesterdan/job-tracker-crm/internal/service"
)

type Server struct {
	service   *service.TrackerService
	templates embed.FS
	photoStg  photostore.PhotoStore
	pages     *PageCache
	mux       *http.ServeMux
	tmplFuncs template.FuncMap
	logger    *slog.Logger
}

func NewServer(svc *service.TrackerService, tmpl embed.FS, ps photostore.PhotoStore, pages *PageCache, logger *slog.Logger) *Server {
	s := &Server{
		service:   svc,
		templates: tmpl,
		photoStg:  ps,
		pages:     pages,
		mux:       http.NewServeMux(),
		logger:    logger,
		tmplFuncs: template.FuncMap{
			"datefmt":  func(t time.Time) string { return t.Format("02 Jan 2006") },
			"truncate": truncate,
			"seq":      seq,
			"inc":      func(i int) int { return i + 1 },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/properties", http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /properties", s.handleListProperties)
	s.mux.HandleFunc("GET /properties/new", s.handleNewPropertyForm)
	s.mux.HandleFunc("POST /properties", s.handleCreateProperty)
	s.mux.HandleFunc("GET /properties/{id}", s.handlePropertyDetail)
	s.mux.HandleFunc("POST /properties/{id}/access-notes", s.handleUpdateAccessNotes)
	s.mux.HandleFunc("GET /properties/{id}/jobs/new", s.handleNewJobForm)
	s.mux.HandleFunc("POST /jobs", s.handleCreateJob)
	s.mux.HandleFunc("POST /jobs/with-records", s.handleCreateJobWithPaintRecords)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleJobDetail)
	s.mux.HandleFunc("POST /paint-records", s.handleCreatePaintRecord)
	s.mux.HandleFunc("GET /uploads/paint-records/{file}", s.handleGetPhoto)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// renderPage parses and executes a full-page template set into w.
func (s *Server) renderPage(w io.Writer, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// servePage renders a page, serving and refreshing the page cache when
// cacheKey is non-empty. Pages with a query string are never cached.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, cacheKey string, data any, files ...string) {
	if r.URL.RawQuery != "" {
		cacheKey = ""
	}

	if cacheKey != "" {
		if body, ok := s.pages.Get(cacheKey); ok {
			writeHTML(w, body)
			return
		}
	}

	var buf bytes.Buffer
	if err := s.renderPage(&buf, data, files...); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		s.logger.Error("render page failed", "path", r.URL.Path, "error", err)
		return
	}

	if cacheKey != "" {
		s.pages.Put(cacheKey, buf.Bytes())
	}
	writeHTML(w, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// seq returns 0..n-1 for ranging in templates.
func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
