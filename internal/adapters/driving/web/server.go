// Package web serves the chat endpoint over HTTP: the chat page, the
// form-based /get endpoint it posts to, and a JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultRequestTimeout bounds the work done for one question.
const DefaultRequestTimeout = 60 * time.Second

// maxBodyBytes caps request bodies; questions are short.
const maxBodyBytes = 64 << 10

//go:embed templates/chat.html
var templateFS embed.FS

var chatPage = template.Must(template.ParseFS(templateFS, "templates/chat.html"))

// Options configures the server.
type Options struct {
	// Title is shown on the chat page.
	Title string

	// IndexName is shown on the chat page.
	IndexName string

	// RequestTimeout bounds each question. Zero uses DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Server answers questions over HTTP.
type Server struct {
	chat driving.ChatService
	opts Options
	mux  *http.ServeMux
}

// NewServer creates a server answering with chat.
func NewServer(chat driving.ChatService, opts Options) (*Server, error) {
	if chat == nil {
		return nil, fmt.Errorf("%w: web: chat service is required", domain.ErrConfiguration)
	}
	if opts.Title == "" {
		opts.Title = "ragchat"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	s := &Server{chat: chat, opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /get", s.handleGet)
	s.mux.HandleFunc("POST /get", s.handleGet)
	s.mux.HandleFunc("POST /api/ask", s.handleAPIAsk)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s, nil
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Leave room for the request timeout plus writing the answer.
		WriteTimeout: s.opts.RequestTimeout + 10*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Serving chat on http://%s", ln.Addr())
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Title     string
		IndexName string
	}{s.opts.Title, s.opts.IndexName}
	if err := chatPage.Execute(w, data); err != nil {
		logger.Error("render chat page: %v", err)
	}
}

// handleGet answers the form field msg with the plain-text answer.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	answer, err := s.ask(r.Context(), r.Form.Get("msg"))
	if err != nil {
		http.Error(w, errorMessage(err), StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(answer.Text))
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAPIAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	answer, err := s.ask(r.Context(), req.Question)
	if err != nil {
		writeJSON(w, StatusFor(err), errorResponse{Error: errorMessage(err)})
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, Sources: sources})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) ask(ctx context.Context, question string) (domain.Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	answer, err := s.chat.Ask(ctx, question)
	if err != nil {
		logger.Warn("ask failed: %v", err)
		return domain.Answer{}, err
	}
	return answer, nil
}

// StatusFor maps a pipeline error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrIndexNotFound),
		errors.Is(err, domain.ErrIndexUnavailable),
		errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the client-facing text for err.
func errorMessage(err error) string {
	switch StatusFor(err) {
	case http.StatusBadRequest:
		return "Please enter a question."
	case http.StatusServiceUnavailable:
		if errors.Is(err, domain.ErrIndexNotFound) {
			return "The document index does not exist yet. Run `ragchat ingest` first."
		}
		return "A required service is unavailable. Please try again later."
	case http.StatusBadGateway:
		return "The language model could not produce an answer."
	case http.StatusGatewayTimeout:
		return "The request timed out."
	default:
		return "Internal error."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s %d %s", r.Method, r.URL.Path, rec.status,
			time.Since(start).Round(time.Millisecond))
	})
}
