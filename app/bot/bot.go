// Package bot contains routers and controllers for bots.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/samber/lo"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/newsapi"
	"github.com/Semior001/newsdeck/app/reader"
	"github.com/Semior001/newsdeck/app/store"
	"github.com/Semior001/newsdeck/pkg/botx"
	"github.com/Semior001/newsdeck/pkg/botx/botmw"
)

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

// maxResults is the number of articles shown in a single message.
const maxResults = 10

// Ctrl provides routes and controllers for bot updates.
type Ctrl struct {
	Logger         *slog.Logger
	News           NewsSource
	Bookmarks      Bookmarks
	Summarizer     Summarizer // optional
	Categories     []string
	OwnerIDs       []string
	HandlerTimeout time.Duration
	Location       *time.Location

	// last shown search results per chat id, to bookmark by number
	lastResults cache.Cache[string, []store.Article]
}

// Routes returns a multiplexer for bot controllers.
func (c *Ctrl) Routes() *botx.Router {
	c.lastResults = cache.NewCache[string, []store.Article]().
		WithTTL(time.Hour).
		WithMaxKeys(1000)

	rtr := botx.NewRouter()

	rtr.Use(
		botmw.RequestID(),
		botmw.AppendRequestIDOnError(),
		botmw.Recover(c.Logger),
		botmw.Logger(c.Logger),
		botmw.Timeout(c.HandlerTimeout),
		c.ensureOwner,
	)

	rtr.NotFound(c.search)
	rtr.Add("/start", c.help)
	rtr.Add("/help", c.help)
	rtr.Add("/search", c.search)
	rtr.Add("/category", c.category)
	rtr.Add("/bookmark", c.bookmark)
	rtr.Add("/bookmarks", c.bookmarks)
	rtr.Add("/remove", c.remove)
	rtr.Add("/summary", c.summary)

	return rtr
}

func (c *Ctrl) help(_ context.Context, req botx.Request) ([]botx.Response, error) {
	return reply(req, "Send me a query to search news, or use commands:\n"+
		"/search `query` - search news\n"+
		"/category `id` - news of a category: "+strings.Join(c.Categories, ", ")+"\n"+
		"/bookmark `n` - bookmark the n-th article of the last search\n"+
		"/bookmarks - show bookmarks\n"+
		"/remove `n` - remove the n-th bookmark\n"+
		"/summary `url` - summarize an article"), nil
}

func (c *Ctrl) search(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	query := req.Args()
	if query == "" {
		return reply(req, "Please, provide a query, e.g. `/search India`"), nil
	}

	articles, err := c.News.Search(ctx, query)
	return c.renderResults(ctx, req, articles, err)
}

func (c *Ctrl) category(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	articles, err := c.News.Category(ctx, req.Args())
	if errors.Is(err, newsapi.ErrUnknownCategory) {
		return reply(req, "Unknown category, available ones: "+strings.Join(c.Categories, ", ")), nil
	}
	return c.renderResults(ctx, req, articles, err)
}

// renderResults renders the search results, articles that are already bookmarked
// are marked instead of having a bookmark command.
func (c *Ctrl) renderResults(ctx context.Context, req botx.Request, articles []store.Article, err error) ([]botx.Response, error) {
	var netErr *newsapi.NetworkError
	switch {
	case errors.As(err, &netErr):
		c.Logger.WarnCtx(ctx, "failed to fetch news", slog.Any("err", err))
		articles = nil
	case err != nil:
		return nil, fmt.Errorf("fetch news: %w", err)
	}

	articles = newsapi.WithImage(articles)
	if len(articles) > maxResults {
		articles = articles[:maxResults]
	}
	c.lastResults.Set(req.Chat.ID, articles, 0)

	if len(articles) == 0 {
		return reply(req, "Nothing found."), nil
	}

	sb := &strings.Builder{}
	for i, a := range articles {
		bookmarked, err := c.Bookmarks.Contains(ctx, a.URL)
		if err != nil {
			return nil, fmt.Errorf("check bookmark %s: %w", a.URL, err)
		}

		c.writeArticle(sb, i+1, a)
		if bookmarked {
			_, _ = sb.WriteString("Bookmarked ✅\n\n")
			continue
		}
		_, _ = fmt.Fprintf(sb, "/bookmark %d\n\n", i+1)
	}

	return reply(req, sb.String()), nil
}

func (c *Ctrl) bookmark(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	articles, _ := c.lastResults.Get(req.Chat.ID)

	idx, err := strconv.Atoi(req.Args())
	if err != nil || idx < 1 || idx > len(articles) {
		return reply(req, "Please, provide the number of an article from the last search."), nil
	}

	err = c.Bookmarks.Add(ctx, articles[idx-1])
	switch {
	case errors.Is(err, store.ErrAlreadyBookmarked):
		return reply(req, "Already bookmarked!"), nil
	case err != nil:
		return nil, fmt.Errorf("add bookmark: %w", err)
	}

	return reply(req, "Article bookmarked!"), nil
}

func (c *Ctrl) bookmarks(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	list, err := c.Bookmarks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	if len(list) == 0 {
		return reply(req, "You have no bookmarks yet."), nil
	}

	sb := &strings.Builder{}
	_, _ = sb.WriteString("*Bookmarks*\n\n")
	for i, a := range list {
		c.writeArticle(sb, i+1, a)
		_, _ = fmt.Fprintf(sb, "/remove %d\n\n", i+1)
	}

	return reply(req, sb.String()), nil
}

func (c *Ctrl) remove(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	arg := req.Args()
	if arg == "" {
		return reply(req, "Please, provide the number or the url of a bookmark."), nil
	}

	url := arg
	if idx, err := strconv.Atoi(arg); err == nil {
		list, err := c.Bookmarks.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list bookmarks: %w", err)
		}
		if idx < 1 || idx > len(list) {
			return reply(req, "There is no bookmark with such number."), nil
		}
		url = list[idx-1].URL
	}

	if err := c.Bookmarks.Remove(ctx, url); err != nil {
		return nil, fmt.Errorf("remove bookmark: %w", err)
	}

	// bookmark numbers shift after removal, so the whole list is sent again
	return c.bookmarks(ctx, req)
}

func (c *Ctrl) summary(ctx context.Context, req botx.Request) ([]botx.Response, error) {
	if c.Summarizer == nil {
		return reply(req, "Summaries are disabled."), nil
	}

	url := req.Args()
	if idx, err := strconv.Atoi(url); err == nil {
		articles, _ := c.lastResults.Get(req.Chat.ID)
		if idx < 1 || idx > len(articles) {
			return reply(req, "Please, provide an url or the number of an article from the last search."), nil
		}
		url = articles[idx-1].URL
	}

	s, err := c.Summarizer.Summarize(ctx, url)
	switch {
	case errors.Is(err, reader.ErrBadURL):
		return reply(req, "Please, provide a link to an article."), nil
	case errors.Is(err, reader.ErrTooManyTokens):
		return reply(req, "The article is too long, I can't summarize it."), nil
	case err != nil:
		return nil, fmt.Errorf("summarize %s: %w", url, err)
	}

	return reply(req, fmt.Sprintf("*%s*\n\n%s\n\n[source](%s)",
		escapeMarkdown(s.Title), escapeMarkdown(s.Summary), s.URL)), nil
}

func (c *Ctrl) writeArticle(sb *strings.Builder, n int, a store.Article) {
	_, _ = fmt.Fprintf(sb, "%d. *%s*\n", n, escapeMarkdown(a.Title))

	meta := escapeMarkdown(a.Source.Name)
	if t, ok := a.Published(c.Location); ok {
		meta += " · " + t.Format("Jan 2, 2006, 3:04 PM")
	}
	if meta != "" {
		_, _ = sb.WriteString(meta + "\n")
	}

	if a.Description != "" {
		_, _ = sb.WriteString(escapeMarkdown(a.Description) + "\n")
	}

	_, _ = fmt.Fprintf(sb, "[read](%s)\n", a.URL)
}

func (c *Ctrl) ensureOwner(h botx.Handler) botx.Handler {
	return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
		if !lo.Contains(c.OwnerIDs, req.Chat.ID) {
			c.Logger.WarnCtx(ctx, "request from a stranger",
				slog.String("chat_id", req.Chat.ID),
				slog.String("username", req.Chat.Username))
			return nil, nil
		}

		return h(ctx, req)
	}
}

func reply(req botx.Request, text string) []botx.Response {
	return []botx.Response{{
		ReplyToMessageID: req.MessageID,
		ChatID:           req.Chat.ID,
		Text:             text,
	}}
}

// legacy telegram markdown supports escaping only these characters
var mdEscaper = strings.NewReplacer(
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}
