// Package web serves the news viewer pages and the JSON API over them.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/reader"
	"github.com/Semior001/newsdeck/app/store"
)

//go:embed templates/*.html static/*.css
var assets embed.FS

// ErrMissingTemplate is returned when the page refers to a template
// that was not loaded.
var ErrMissingTemplate = errors.New("missing template")

// NewsSource looks up articles.
type NewsSource interface {
	Search(ctx context.Context, query string) ([]store.Article, error)
	Category(ctx context.Context, id string) ([]store.Article, error)
}

// Bookmarks stores bookmarked articles.
type Bookmarks interface {
	List(ctx context.Context) ([]store.Article, error)
	Contains(ctx context.Context, url string) (bool, error)
	Add(ctx context.Context, a store.Article) error
	Remove(ctx context.Context, url string) error
}

// Summarizer makes summaries of articles.
type Summarizer interface {
	Summarize(ctx context.Context, url string) (reader.Summary, error)
}

// Server renders news pages and serves the JSON API.
type Server struct {
	Logger       *slog.Logger
	Addr         string
	Version      string
	News         NewsSource
	Bookmarks    Bookmarks
	Summarizer   Summarizer // optional
	Categories   []string
	DefaultQuery string
	Location     *time.Location

	pages map[string]*template.Template
}

// Run starts the http server and shuts it down when the context is done.
func (s *Server) Run(ctx context.Context) error {
	h, err := s.Routes()
	if err != nil {
		return fmt.Errorf("make routes: %w", err)
	}

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// summaries may take a while
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  30 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.Logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.InfoCtx(ctx, "starting http server", slog.String("addr", s.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.Logger.InfoCtx(ctx, "shutting down http server")
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// Routes loads templates and returns the router with all handlers.
func (s *Server) Routes() (http.Handler, error) {
	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Handle("/static/*", http.FileServer(http.FS(assets)))

	r.Get("/", s.index)
	r.Get("/search", s.search)
	r.Get("/category/{id}", s.category)
	r.Get("/bookmarks", s.bookmarks)
	r.Post("/bookmarks/remove", s.removeBookmark)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/search", s.apiSearch)
		r.Get("/category/{id}", s.apiCategory)
		r.Get("/bookmarks", s.apiListBookmarks)
		r.Post("/bookmarks", s.apiAddBookmark)
		r.Delete("/bookmarks", s.apiRemoveBookmark)
		r.Post("/summarize", s.apiSummarize)
		r.Post("/quiz", s.apiQuiz)
	})

	return r, nil
}

func (s *Server) loadTemplates() error {
	funcs := template.FuncMap{
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
	}

	s.pages = map[string]*template.Template{}
	for _, name := range []string{"search.html", "bookmarks.html"} {
		t, err := template.New(name).Funcs(funcs).
			ParseFS(assets, "templates/layout.html", "templates/"+name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		s.pages[name] = t
	}

	return nil
}

// render executes the page into a buffer, so that the failed render
// doesn't leave a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, ok := s.pages[name]
	if !ok {
		s.Logger.ErrorCtx(r.Context(), "failed to render page",
			slog.Any("err", fmt.Errorf("%w: %s", ErrMissingTemplate, name)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	buf := &bytes.Buffer{}
	if err := t.ExecuteTemplate(buf, "layout", data); err != nil {
		s.Logger.ErrorCtx(r.Context(), "failed to render page",
			slog.String("page", name), slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.Logger.WarnCtx(r.Context(), "failed to write page", slog.String("page", name), slog.Any("err", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
