package cmd

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/store"
)

// Bookmarks is a command to manage bookmarks, lists them without subcommand.
type Bookmarks struct {
	List   BookmarksList   `command:"list" description:"list bookmarks"`
	Add    BookmarksAdd    `command:"add" description:"bookmark an article"`
	Remove BookmarksRemove `command:"remove" description:"remove a bookmark"`

	withCommon
}

// Execute lists bookmarks.
func (b *Bookmarks) Execute(_ []string) error {
	b.List.withCommon = b.withCommon
	return b.List.Execute(nil)
}

// BookmarksList is a command to list bookmarks.
type BookmarksList struct {
	withCommon
}

// Execute runs the command.
func (l *BookmarksList) Execute(_ []string) error {
	return l.withBookmarks(func(ctx context.Context, bookmarks *store.Bookmarks) error {
		list, err := bookmarks.List(ctx)
		if err != nil {
			return fmt.Errorf("list bookmarks: %w", err)
		}

		if len(list) == 0 {
			_, err = fmt.Fprintln(l.stdout(), "You have no bookmarks yet.")
			return err
		}

		for i, a := range list {
			if err = l.writeArticle(l.stdout(), i+1, a, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// BookmarksAdd is a command to bookmark an article.
type BookmarksAdd struct {
	Title       string `long:"title" description:"article title"`
	Description string `long:"description" description:"article description"`
	Image       string `long:"image" description:"article image url"`
	Source      string `long:"source" description:"article source name"`
	PublishedAt string `long:"published-at" description:"publishing time in RFC3339"`
	Args        struct {
		URL string `positional-arg-name:"url" required:"yes"`
	} `positional-args:"yes"`

	withCommon
}

// Execute runs the command.
func (a *BookmarksAdd) Execute(_ []string) error {
	article := store.Article{
		URL:         a.Args.URL,
		Title:       a.Title,
		Description: a.Description,
		ImageURL:    a.Image,
		PublishedAt: a.PublishedAt,
		Source:      store.Source{Name: a.Source},
	}

	return a.withBookmarks(func(ctx context.Context, bookmarks *store.Bookmarks) error {
		err := bookmarks.Add(ctx, article)
		switch {
		case errors.Is(err, store.ErrAlreadyBookmarked):
			_, err = fmt.Fprintln(a.stdout(), "Already bookmarked!")
			return err
		case err != nil:
			return fmt.Errorf("add bookmark: %w", err)
		}

		_, err = fmt.Fprintln(a.stdout(), "Article bookmarked!")
		return err
	})
}

// BookmarksRemove is a command to remove a bookmark.
type BookmarksRemove struct {
	Args struct {
		URL string `positional-arg-name:"url" required:"yes"`
	} `positional-args:"yes"`

	withCommon
}

// Execute runs the command.
func (r *BookmarksRemove) Execute(_ []string) error {
	return r.withBookmarks(func(ctx context.Context, bookmarks *store.Bookmarks) error {
		if err := bookmarks.Remove(ctx, r.Args.URL); err != nil {
			return fmt.Errorf("remove bookmark: %w", err)
		}

		_, err := fmt.Fprintln(r.stdout(), "Bookmark removed.")
		return err
	})
}

func (c *withCommon) withBookmarks(fn func(context.Context, *store.Bookmarks) error) error {
	lg := slog.Default()

	bookmarks, closeStore, err := c.openBookmarks()
	if err != nil {
		return fmt.Errorf("open bookmarks: %w", err)
	}
	defer closeWith(lg, "storage", closeStore)

	return fn(context.Background(), bookmarks)
}
