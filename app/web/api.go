package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/newsapi"
	"github.com/Semior001/newsdeck/app/reader"
	"github.com/Semior001/newsdeck/app/store"
)

type apiArticle struct {
	store.Article
	Bookmarked bool `json:"bookmarked"`
}

type articlesResponse struct {
	Articles []apiArticle `json:"articles"`
}

// GET /api/v1/search?q=
func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	s.writeArticles(w, r, func(ctx context.Context) ([]store.Article, error) {
		return s.News.Search(ctx, q)
	})
}

// GET /api/v1/category/{id}
func (s *Server) apiCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeArticles(w, r, func(ctx context.Context) ([]store.Article, error) {
		return s.News.Category(ctx, id)
	})
}

// writeArticles responds with all fetched articles, including the ones
// without an image, and their bookmark state.
func (s *Server) writeArticles(
	w http.ResponseWriter, r *http.Request,
	fetch func(context.Context) ([]store.Article, error),
) {
	ctx := r.Context()

	articles, err := fetch(ctx)
	var netErr *newsapi.NetworkError
	switch {
	case errors.Is(err, newsapi.ErrUnknownCategory):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case errors.As(err, &netErr):
		s.Logger.WarnCtx(ctx, "failed to fetch news", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "news source is unavailable"})
		return
	case err != nil:
		s.internalError(w, r, "failed to fetch news", err)
		return
	}

	resp := articlesResponse{Articles: make([]apiArticle, 0, len(articles))}
	for _, a := range articles {
		ok, err := s.Bookmarks.Contains(ctx, a.URL)
		if err != nil {
			s.internalError(w, r, "failed to check bookmark", err)
			return
		}
		resp.Articles = append(resp.Articles, apiArticle{Article: a, Bookmarked: ok})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /api/v1/bookmarks
func (s *Server) apiListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.Bookmarks.List(r.Context())
	if err != nil {
		s.internalError(w, r, "failed to list bookmarks", err)
		return
	}

	resp := articlesResponse{Articles: make([]apiArticle, 0, len(list))}
	for _, a := range list {
		resp.Articles = append(resp.Articles, apiArticle{Article: a, Bookmarked: true})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/v1/bookmarks
func (s *Server) apiAddBookmark(w http.ResponseWriter, r *http.Request) {
	var a store.Article
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid article: " + err.Error()})
		return
	}

	// removal trims the url too, both must match
	a.URL = strings.TrimSpace(a.URL)

	err := s.Bookmarks.Add(r.Context(), a)
	switch {
	case errors.Is(err, store.ErrEmptyURL):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrAlreadyBookmarked):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case err != nil:
		s.internalError(w, r, "failed to add bookmark", err)
	default:
		writeJSON(w, http.StatusCreated, apiArticle{Article: a, Bookmarked: true})
	}
}

// DELETE /api/v1/bookmarks?url=
func (s *Server) apiRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	u := strings.TrimSpace(r.URL.Query().Get("url"))
	if u == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	if err := s.Bookmarks.Remove(r.Context(), u); err != nil {
		s.internalError(w, r, "failed to remove bookmark", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/summarize
func (s *Server) apiSummarize(w http.ResponseWriter, r *http.Request) {
	if s.Summarizer == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "summaries are not configured"})
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	summary, err := s.Summarizer.Summarize(r.Context(), strings.TrimSpace(req.URL))
	switch {
	case errors.Is(err, reader.ErrBadURL):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, reader.ErrNoSummary), errors.Is(err, reader.ErrTooManyTokens):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case err != nil:
		s.Logger.WarnCtx(r.Context(), "failed to summarize article", slog.String("url", req.URL), slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to summarize the article"})
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

// POST /api/v1/quiz
func (s *Server) apiQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	questions, err := reader.Quiz(req.Summary)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Questions []reader.Question `json:"questions"`
	}{Questions: questions})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.Logger.ErrorCtx(r.Context(), msg, slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}
