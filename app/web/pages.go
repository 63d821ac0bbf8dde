package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/newsapi"
	"github.com/Semior001/newsdeck/app/store"
)

const dateLayout = "Jan 2, 2006, 3:04 PM"

type pageView struct {
	Title      string
	Query      string
	Active     string
	Version    string
	Categories []string
	Cards      []cardView
}

type cardView struct {
	Article     store.Article
	URL         string
	Title       string
	Description string
	ImageURL    string
	Source      string
	Published   string
	Bookmarked  bool
}

// GET /
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.renderNews(w, r, pageView{Title: s.DefaultQuery}, func(ctx context.Context) ([]store.Article, error) {
		return s.News.Search(ctx, s.DefaultQuery)
	})
}

// GET /search?q=
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.renderNews(w, r, pageView{Title: q, Query: q}, func(ctx context.Context) ([]store.Article, error) {
		return s.News.Search(ctx, q)
	})
}

// GET /category/{id}
func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.renderNews(w, r, pageView{Title: id, Active: id}, func(ctx context.Context) ([]store.Article, error) {
		return s.News.Category(ctx, id)
	})
}

// renderNews fetches articles and renders the ones with images,
// marking those that are already bookmarked.
func (s *Server) renderNews(
	w http.ResponseWriter, r *http.Request,
	view pageView,
	fetch func(context.Context) ([]store.Article, error),
) {
	ctx := r.Context()

	articles, err := fetch(ctx)
	var netErr *newsapi.NetworkError
	switch {
	case errors.Is(err, newsapi.ErrUnknownCategory):
		http.NotFound(w, r)
		return
	case errors.As(err, &netErr):
		s.Logger.WarnCtx(ctx, "failed to fetch news", slog.Any("err", err))
		articles = nil
	case err != nil:
		s.Logger.ErrorCtx(ctx, "failed to fetch news", slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if view.Cards, err = s.cards(ctx, newsapi.WithImage(articles)); err != nil {
		s.Logger.ErrorCtx(ctx, "failed to check bookmarks", slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.render(w, r, "search.html", s.withLayout(view))
}

// GET /bookmarks
func (s *Server) bookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.Bookmarks.List(r.Context())
	if err != nil {
		s.Logger.ErrorCtx(r.Context(), "failed to list bookmarks", slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view := pageView{Title: "Bookmarks", Active: "bookmarks"}
	for _, a := range list {
		c := s.card(a)
		c.Bookmarked = true
		view.Cards = append(view.Cards, c)
	}

	s.render(w, r, "bookmarks.html", s.withLayout(view))
}

// POST /bookmarks/remove
func (s *Server) removeBookmark(w http.ResponseWriter, r *http.Request) {
	u := strings.TrimSpace(r.PostFormValue("url"))
	if u == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	if err := s.Bookmarks.Remove(r.Context(), u); err != nil {
		s.Logger.ErrorCtx(r.Context(), "failed to remove bookmark", slog.String("url", u), slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
}

func (s *Server) withLayout(view pageView) pageView {
	view.Version = s.Version
	view.Categories = s.Categories
	return view
}

func (s *Server) cards(ctx context.Context, articles []store.Article) ([]cardView, error) {
	res := make([]cardView, 0, len(articles))
	for _, a := range articles {
		c := s.card(a)

		var err error
		if c.Bookmarked, err = s.Bookmarks.Contains(ctx, a.URL); err != nil {
			return nil, err
		}

		res = append(res, c)
	}
	return res, nil
}

func (s *Server) card(a store.Article) cardView {
	c := cardView{
		Article:     a,
		URL:         a.URL,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		Source:      a.Source.Name,
	}
	if t, ok := a.Published(s.Location); ok {
		c.Published = t.Format(dateLayout)
	}
	return c
}
