package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hintaro/hintaro/internal/analysis"
	"github.com/hintaro/hintaro/internal/config"
	"github.com/hintaro/hintaro/internal/database"
	"github.com/hintaro/hintaro/internal/schema"
	"github.com/hintaro/hintaro/internal/share"
	"github.com/hintaro/hintaro/internal/viral"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

const (
	maxBodyBytes = 1 << 20
	recentLimit  = 50
)

// Server serves the card API and the share pages.
type Server struct {
	svc    *analysis.Service
	db     *database.DB
	brand  config.Brand
	logger *zap.Logger
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server.
func New(svc *analysis.Service, db *database.DB, brand config.Brand, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		// Theme colors come from config, not from requests.
		"css": func(s string) template.CSS { return template.CSS(s) }, //nolint: gosec
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone so {{define "content"}} does not collide.
	pageNames := []string{"index.html", "share.html", "replies.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{svc: svc, db: db, brand: brand, logger: logger, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/analyses", s.handleCreateAnalysis)
	s.mux.HandleFunc("/api/analyses/", s.handleAnalysis)
	s.mux.HandleFunc("/api/schema/", s.handleSchema)

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/share/", s.handleShare)
	s.mux.HandleFunc("/replies", s.handleReplies)
	s.mux.HandleFunc("/replies/add", s.handleAddReply)
	s.mux.HandleFunc("/replies/", s.handleReplyAction)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Tier     string          `json:"tier"`
	Analysis json.RawMessage `json:"analysis"`
}

type createResponse struct {
	ID        string     `json:"id"`
	Tier      string     `json:"tier"`
	ViralCard viral.Card `json:"viral_card"`
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The analysis may be an object or the model's raw text output.
	text := string(req.Analysis)
	var str string
	if err := json.Unmarshal(req.Analysis, &str); err == nil {
		text = str
	}

	a, card, err := s.svc.CreateFromText(req.Tier, text)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: a.ID, Tier: a.Tier, ViralCard: card})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/analyses/"), "/")
	id, action, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		a, err := s.svc.Get(id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case action == "" && r.Method == http.MethodDelete:
		if err := s.svc.Delete(id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case action == "card" && r.Method == http.MethodGet:
		format, err := share.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		v, err := s.svc.Card(id, format)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	case action == "" || action == "card":
		methodNotAllowed(w, http.MethodGet)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data, err := schema.JSON(strings.TrimPrefix(r.URL.Path, "/api/schema/"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(data)
}

type recentCard struct {
	Analysis analysis.Analysis
	Card     viral.Card
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	recent, err := s.svc.Recent(recentLimit)
	if err != nil {
		s.logger.Error("listing analyses", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	cards := make([]recentCard, 0, len(recent))
	for _, a := range recent {
		cards = append(cards, recentCard{Analysis: a, Card: viral.Normalize(a.Record)})
	}

	s.render(w, "index.html", map[string]any{
		"Brand": s.brand,
		"Cards": cards,
	})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/share/"), "/")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	format, err := share.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := s.svc.Card(id, format)
	if errors.Is(err, analysis.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("rendering card", zap.String("id", id), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "share.html", map[string]any{
		"Brand":   s.brand,
		"View":    v,
		"Formats": []share.Format{share.FormatStory, share.FormatSquare},
	})
}

func (s *Server) handleReplies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	replies, err := s.db.GetSavedReplies(query)
	if err != nil {
		s.logger.Error("listing saved replies", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, "replies.html", map[string]any{
		"Brand":   s.brand,
		"Replies": replies,
		"Query":   query,
	})
}

func (s *Server) handleAddReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/replies", http.StatusFound)
		return
	}

	text := strings.TrimSpace(r.FormValue("reply_text"))
	if text != "" {
		var analysisID, replyType *string
		if v := strings.TrimSpace(r.FormValue("analysis_id")); v != "" {
			analysisID = &v
		}
		if v := strings.TrimSpace(r.FormValue("reply_type")); v != "" {
			replyType = &v
		}
		if _, err := s.db.InsertSavedReply(analysisID, text, replyType); err != nil {
			s.logger.Warn("saving reply", zap.Error(err))
		}
	}

	http.Redirect(w, r, "/replies", http.StatusFound)
}

func (s *Server) handleReplyAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/replies", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/replies/")
	idStr, action, ok := strings.Cut(path, "/")
	if !ok || action != "delete" {
		http.Redirect(w, r, "/replies", http.StatusFound)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Redirect(w, r, "/replies", http.StatusFound)
		return
	}
	if err := s.db.DeleteSavedReply(id); err != nil {
		s.logger.Warn("deleting reply", zap.Int64("id", id), zap.Error(err))
	}

	http.Redirect(w, r, "/replies", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		s.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrInvalidTier),
		errors.Is(err, analysis.ErrEmptyAnalysis),
		errors.Is(err, analysis.ErrMalformedAnalysis):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("url", "http://"+addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
