package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/newsapi"
	"github.com/Semior001/newsdeck/app/store"
)

// Search is a command to search news from the terminal.
type Search struct {
	All  bool `long:"all" description:"show articles without image too"`
	Args struct {
		Query []string `positional-arg-name:"query" required:"1"`
	} `positional-args:"yes"`

	withCommon
}

// Execute runs the command.
func (s *Search) Execute(_ []string) error {
	query := strings.Join(s.Args.Query, " ")
	return s.printNews(func(ctx context.Context, news *newsapi.Client) ([]store.Article, error) {
		return news.Search(ctx, query)
	}, s.All)
}

// Category is a command to show news of a navigation category.
type Category struct {
	All  bool `long:"all" description:"show articles without image too"`
	Args struct {
		ID string `positional-arg-name:"category" required:"yes"`
	} `positional-args:"yes"`

	withCommon
}

// Execute runs the command.
func (c *Category) Execute(_ []string) error {
	return c.printNews(func(ctx context.Context, news *newsapi.Client) ([]store.Article, error) {
		return news.Category(ctx, c.Args.ID)
	}, c.All)
}

func (c *withCommon) printNews(
	fetch func(context.Context, *newsapi.Client) ([]store.Article, error),
	all bool,
) error {
	lg := slog.Default()

	news, err := c.newsClient(lg.With(slog.String("prefix", "newsapi")))
	if err != nil {
		return fmt.Errorf("make news client: %w", err)
	}

	bookmarks, closeStore, err := c.openBookmarks()
	if err != nil {
		return fmt.Errorf("open bookmarks: %w", err)
	}
	defer closeWith(lg, "storage", closeStore)

	ctx, stop := signalContext(lg)
	defer stop()

	articles, err := fetch(ctx, news)
	var netErr *newsapi.NetworkError
	switch {
	case errors.As(err, &netErr):
		lg.Warn("failed to fetch news", slog.Any("err", err))
		articles = nil
	case err != nil:
		return err
	}

	if !all {
		articles = newsapi.WithImage(articles)
	}

	return c.printArticles(ctx, bookmarks, articles)
}

func (c *withCommon) printArticles(ctx context.Context, bookmarks *store.Bookmarks, articles []store.Article) error {
	out := c.stdout()
	if len(articles) == 0 {
		_, err := fmt.Fprintln(out, "Nothing found.")
		return err
	}

	for i, a := range articles {
		bookmarked, err := bookmarks.Contains(ctx, a.URL)
		if err != nil {
			return fmt.Errorf("check bookmark %s: %w", a.URL, err)
		}

		if err = c.writeArticle(out, i+1, a, bookmarked); err != nil {
			return err
		}
	}

	return nil
}

func (c *withCommon) writeArticle(w io.Writer, n int, a store.Article, bookmarked bool) error {
	sb := &strings.Builder{}
	_, _ = fmt.Fprintf(sb, "%d. %s", n, a.Title)
	if bookmarked {
		_, _ = sb.WriteString(" [bookmarked]")
	}
	_, _ = sb.WriteString("\n")

	meta := a.Source.Name
	if t, ok := a.Published(c.location()); ok {
		if meta != "" {
			meta += " · "
		}
		meta += t.Format("Jan 2, 2006, 3:04 PM")
	}
	if meta != "" {
		_, _ = fmt.Fprintf(sb, "   %s\n", meta)
	}
	if a.Description != "" {
		_, _ = fmt.Fprintf(sb, "   %s\n", a.Description)
	}
	_, _ = fmt.Fprintf(sb, "   %s\n", a.URL)

	_, err := io.WriteString(w, sb.String())
	return err
}
