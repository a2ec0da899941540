// Package handler serves the generator page, its JSON API and the state stream.
package handler

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mhpenta/pixelart/internal/app"
	"github.com/mhpenta/pixelart/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DefaultGenerationTimeout bounds a single generation request.
const DefaultGenerationTimeout = 60 * time.Second

// Handler serves one controller per browser session.
type Handler struct {
	sessions *session.Store
	logger   *slog.Logger
	timeout  time.Duration
	baseCtx  context.Context

	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithGenerationTimeout bounds each generation request.
func WithGenerationTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithBaseContext sets the parent of every generation context. Cancelling it
// aborts generations still in flight, e.g. on shutdown.
func WithBaseContext(ctx context.Context) Option {
	return func(h *Handler) {
		if ctx != nil {
			h.baseCtx = ctx
		}
	}
}

// WithAllowedOrigins lists the cross-site origins that may open the state
// stream. Same-origin requests are always accepted.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.allowedOrigins = origins
	}
}

// New creates a Handler backed by sessions.
func New(sessions *session.Store, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		logger:   slog.Default(),
		timeout:  DefaultGenerationTimeout,
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

type pageData struct {
	Prompt   string
	ImageURL template.URL
	Loading  bool
	Error    string
}

func newPageData(s app.State) pageData {
	return pageData{
		Prompt: s.Prompt,
		// Data URLs are produced by the controller from base64 output only.
		ImageURL: template.URL(s.ImageURL),
		Loading:  s.Loading,
		Error:    s.Error,
	}
}

// HandleIndex renders the page for the caller's session.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	c := h.sessions.FromRequest(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.ExecuteTemplate(w, "index", newPageData(c.State())); err != nil {
		h.logger.ErrorContext(r.Context(), "render page failed", "error", err)
	}
}

// HandleGenerateForm starts a generation from the page form and redirects
// back to the page, which then shows the loading state.
func (h *Handler) HandleGenerateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	c := h.sessions.FromRequest(w, r)
	if err := h.start(c, r.PostFormValue("prompt")); err != nil {
		// The page already shows the running request.
		h.logger.DebugContext(r.Context(), "form submit ignored", "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleState returns the caller's state as JSON.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	c := h.sessions.FromRequest(w, r)
	writeJSON(w, http.StatusOK, c.State())
}

// HandleGenerate starts a generation from a JSON request. It answers 202 with
// the loading state, or 409 while another request is in flight.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	c := h.sessions.FromRequest(w, r)
	if err := h.start(c, req.Prompt); err != nil {
		if errors.Is(err, app.ErrGenerationInProgress) {
			writeJSON(w, http.StatusConflict, c.State())
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, c.State())
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// start runs a generation detached from the HTTP request so that it outlives
// the redirect, bounded by the generation timeout.
func (h *Handler) start(c *app.Controller, prompt string) error {
	ctx, cancel := context.WithTimeout(h.baseCtx, h.timeout)
	if err := c.Start(ctx, prompt); err != nil {
		cancel()
		return err
	}
	go func() {
		c.Wait()
		cancel()
	}()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
