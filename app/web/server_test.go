package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/newsapi"
	"github.com/Semior001/newsdeck/app/reader"
	"github.com/Semior001/newsdeck/app/store"
	"github.com/Semior001/newsdeck/app/store/kv"
	"github.com/Semior001/newsdeck/pkg/logx"
)

type newsMock struct {
	articles []store.Article
	err      error
	queries  []string
}

func (n *newsMock) Search(_ context.Context, query string) ([]store.Article, error) {
	n.queries = append(n.queries, query)
	if n.err != nil {
		return nil, &newsapi.NetworkError{Query: query, Err: n.err}
	}
	return n.articles, nil
}

func (n *newsMock) Category(ctx context.Context, id string) ([]store.Article, error) {
	if id != "finance" {
		return nil, fmt.Errorf("%w: %s", newsapi.ErrUnknownCategory, id)
	}
	return n.Search(ctx, id)
}

type summarizerFunc func(ctx context.Context, url string) (reader.Summary, error)

func (f summarizerFunc) Summarize(ctx context.Context, url string) (reader.Summary, error) {
	return f(ctx, url)
}

func testArticles() []store.Article {
	return []store.Article{
		{URL: "https://example.com/1", Title: "First", Description: "first article",
			ImageURL: "https://example.com/1.png", PublishedAt: "2023-03-15T10:00:00Z",
			Source: store.Source{Name: "Example"}},
		{URL: "https://example.com/2", Title: "No image"},
		{URL: "https://example.com/3", Title: "Third", ImageURL: "https://example.com/3.png"},
	}
}

func prepare(t *testing.T, news *newsMock) (*Server, http.Handler, *store.Bookmarks) {
	t.Helper()

	bookmarks := store.NewBookmarks(kv.NewMemory())
	srv := &Server{
		Logger:       slog.New(logx.NoOp()),
		Version:      "test",
		News:         news,
		Bookmarks:    bookmarks,
		Categories:   []string{"finance", "politics"},
		DefaultQuery: "India",
		Location:     time.FixedZone("WIB", 7*60*60),
	}

	h, err := srv.Routes()
	require.NoError(t, err)

	return srv, h, bookmarks
}

func do(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	switch {
	case method == http.MethodPost && strings.HasPrefix(target, "/api/"):
		req.Header.Set("Content-Type", "application/json")
	case method == http.MethodPost:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestServer_Search(t *testing.T) {
	news := &newsMock{articles: testArticles()}
	_, h, bookmarks := prepare(t, news)
	require.NoError(t, bookmarks.Add(context.Background(), testArticles()[2]))

	doc := document(t, do(t, h, http.MethodGet, "/search?q=India", ""))
	assert.Equal(t, []string{"India"}, news.queries)
	assert.Equal(t, "India", doc.Find("#search-text").AttrOr("value", ""))

	cards := doc.Find(".card")
	require.Equal(t, 2, cards.Length(), "articles without image are not shown")

	first := cards.Eq(0)
	assert.Equal(t, "First", first.Find("h3").Text())
	assert.Equal(t, "Example · Mar 15, 2023, 5:00 PM", first.Find(".news-source").Text())
	assert.Equal(t, "https://example.com/1.png", first.Find("img").AttrOr("src", ""))

	btn := first.Find(".bookmark-btn")
	_, disabled := btn.Attr("disabled")
	assert.False(t, disabled)
	assert.Equal(t, "Bookmark", btn.Text())

	var a store.Article
	require.NoError(t, json.Unmarshal([]byte(btn.AttrOr("data-article", "")), &a))
	assert.Equal(t, testArticles()[0], a)

	btn = cards.Eq(1).Find(".bookmark-btn")
	_, disabled = btn.Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, "Bookmarked ✅", btn.Text())

	// a duplicate leaves the button as is, a success is announced
	script := doc.Find("script").Text()
	assert.Regexp(t, `alert\("Already bookmarked!"\);\s*return;`, script)
	assert.Contains(t, script, `alert("Article bookmarked!");`)
}

func TestServer_Index(t *testing.T) {
	news := &newsMock{articles: testArticles()}
	_, h, _ := prepare(t, news)

	doc := document(t, do(t, h, http.MethodGet, "/", ""))
	assert.Equal(t, []string{"India"}, news.queries)
	assert.Equal(t, 2, doc.Find(".card").Length())
	assert.Equal(t, 3, doc.Find(".nav-item").Length(), "categories and bookmarks")
	assert.Contains(t, doc.Find(".footer").Text(), "test")

	rec := do(t, h, http.MethodGet, "/search?q=+", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Len(t, news.queries, 1)
}

func TestServer_Category(t *testing.T) {
	news := &newsMock{articles: testArticles()}
	_, h, _ := prepare(t, news)

	doc := document(t, do(t, h, http.MethodGet, "/category/finance", ""))
	assert.Equal(t, []string{"finance"}, news.queries)
	assert.Equal(t, "finance", doc.Find(".nav-item.active").Text())
	assert.Equal(t, 2, doc.Find(".card").Length())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/category/sports", "").Code)
}

func TestServer_SearchNetworkError(t *testing.T) {
	_, h, _ := prepare(t, &newsMock{err: errors.New("connection refused")})

	doc := document(t, do(t, h, http.MethodGet, "/search?q=India", ""))
	assert.Zero(t, doc.Find(".card").Length())
	assert.Equal(t, "Nothing found.", doc.Find(".empty").Text())
}

func TestServer_Bookmarks(t *testing.T) {
	_, h, bookmarks := prepare(t, &newsMock{})
	ctx := context.Background()

	doc := document(t, do(t, h, http.MethodGet, "/bookmarks", ""))
	assert.Equal(t, "You have no bookmarks yet.", doc.Find(".empty").Text())

	for _, a := range testArticles() {
		require.NoError(t, bookmarks.Add(ctx, a))
	}

	doc = document(t, do(t, h, http.MethodGet, "/bookmarks", ""))
	cards := doc.Find(".card")
	require.Equal(t, 3, cards.Length(), "bookmarks are shown with and without image")
	assert.Equal(t, "No image", cards.Eq(1).Find("h3").Text())
	assert.Equal(t, 1, cards.Eq(1).Find(".no-image").Length())
	assert.Equal(t, "https://example.com/2", cards.Eq(1).Find("input[name=url]").AttrOr("value", ""))
	assert.Equal(t, "bookmarks", doc.Find(".nav-item.active").AttrOr("id", ""))

	form := url.Values{"url": {"https://example.com/2"}}
	rec := do(t, h, http.MethodPost, "/bookmarks/remove", form.Encode())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/bookmarks", rec.Header().Get("Location"))

	list, err := bookmarks.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://example.com/1", list[0].URL)
	assert.Equal(t, "https://example.com/3", list[1].URL)

	// removing an absent bookmark is not an error
	rec = do(t, h, http.MethodPost, "/bookmarks/remove", form.Encode())
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/bookmarks/remove", "").Code)
}

func TestServer_APIBookmarks(t *testing.T) {
	_, h, bookmarks := prepare(t, &newsMock{})

	body, err := json.Marshal(testArticles()[0])
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/v1/bookmarks", string(body))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"url": "https://example.com/1",
		"title": "First",
		"description": "first article",
		"urlToImage": "https://example.com/1.png",
		"publishedAt": "2023-03-15T10:00:00Z",
		"source": {"name": "Example"},
		"bookmarked": true
	}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/bookmarks", string(body))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error": "already bookmarked"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/bookmarks", `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/bookmarks", `{`).Code)

	rec = do(t, h, http.MethodGet, "/api/v1/bookmarks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp articlesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 1)
	assert.True(t, resp.Articles[0].Bookmarked)

	rec = do(t, h, http.MethodDelete, "/api/v1/bookmarks?url="+url.QueryEscape("https://example.com/1"), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	ok, err := bookmarks.Contains(context.Background(), "https://example.com/1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/v1/bookmarks", "").Code)

	rec = do(t, h, http.MethodGet, "/api/v1/bookmarks", "")
	assert.JSONEq(t, `{"articles": []}`, rec.Body.String())
}

func TestServer_APIBookmarksTrimURL(t *testing.T) {
	_, h, bookmarks := prepare(t, &newsMock{})

	rec := do(t, h, http.MethodPost, "/api/v1/bookmarks", `{"url": " https://example.com/a ", "title": "A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"url":"https://example.com/a"`)

	rec = do(t, h, http.MethodPost, "/api/v1/bookmarks", `{"url": "https://example.com/a", "title": "A"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/bookmarks", `{"url": "   ", "title": "A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/bookmarks?url="+url.QueryEscape("https://example.com/a "), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	list, err := bookmarks.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServer_APISearch(t *testing.T) {
	news := &newsMock{articles: testArticles()}
	_, h, bookmarks := prepare(t, news)
	require.NoError(t, bookmarks.Add(context.Background(), testArticles()[1]))

	rec := do(t, h, http.MethodGet, "/api/v1/search?q=India", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp articlesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 3)
	assert.False(t, resp.Articles[0].Bookmarked)
	assert.True(t, resp.Articles[1].Bookmarked)
	assert.Equal(t, "No image", resp.Articles[1].Title)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/search", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/category/finance", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/category/sports", "").Code)

	news.err = errors.New("connection refused")
	rec = do(t, h, http.MethodGet, "/api/v1/search?q=India", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error": "news source is unavailable"}`, rec.Body.String())
}

func TestServer_APISummarize(t *testing.T) {
	srv, h, _ := prepare(t, &newsMock{})

	rec := do(t, h, http.MethodPost, "/api/v1/summarize", `{"url": "https://example.com/1"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	srv.Summarizer = summarizerFunc(func(_ context.Context, u string) (reader.Summary, error) {
		switch u {
		case "https://example.com/1":
			return reader.Summary{URL: u, Title: "First", Summary: "- Short summary."}, nil
		case "https://example.com/empty":
			return reader.Summary{}, reader.ErrNoSummary
		case "https://example.com/down":
			return reader.Summary{}, errors.New("connection refused")
		}
		return reader.Summary{}, reader.ErrBadURL
	})

	rec = do(t, h, http.MethodPost, "/api/v1/summarize", `{"url": " https://example.com/1 "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary reader.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "- Short summary.", summary.Summary)

	tests := []struct {
		body string
		code int
	}{
		{body: `{"url": "ftp://example.com"}`, code: http.StatusBadRequest},
		{body: `{"url": "https://example.com/empty"}`, code: http.StatusUnprocessableEntity},
		{body: `{"url": "https://example.com/down"}`, code: http.StatusBadGateway},
		{body: `not json`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, do(t, h, http.MethodPost, "/api/v1/summarize", tt.body).Code, tt.body)
	}
}

func TestServer_APIQuiz(t *testing.T) {
	_, h, _ := prepare(t, &newsMock{})

	rec := do(t, h, http.MethodPost, "/api/v1/quiz",
		`{"summary": "Heavy rains hit Kerala on Monday. Schools in Kochi were closed."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Questions []reader.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Questions, 2)
	for _, q := range resp.Questions {
		assert.Len(t, q.Options, 4)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/quiz", `{"summary": ""}`).Code)
}

func TestServer_MissingTemplate(t *testing.T) {
	srv, _, _ := prepare(t, &newsMock{})

	rec := httptest.NewRecorder()
	srv.render(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), "unknown.html", pageView{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// other pages keep working
	rec = httptest.NewRecorder()
	srv.render(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), "bookmarks.html", pageView{})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Misc(t *testing.T) {
	_, h, _ := prepare(t, &newsMock{})

	rec := do(t, h, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = do(t, h, http.MethodGet, "/static/style.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".card")

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set(requestIDHeader, "req-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get(requestIDHeader))
}
