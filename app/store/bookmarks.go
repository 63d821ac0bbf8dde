package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// Bookmarks keeps a deduplicated list of bookmarked articles in a single
// slot of the underlying storage. The slot is the only source of truth,
// every call loads it anew.
type Bookmarks struct {
	kv  KV
	key string
	mu  sync.Mutex
}

// NewBookmarks makes new Bookmarks over the given storage.
func NewBookmarks(kv KV) *Bookmarks {
	return &Bookmarks{kv: kv, key: BookmarksKey}
}

// List returns bookmarks in the order they were added.
func (b *Bookmarks) List(ctx context.Context) ([]Article, error) {
	return b.load(ctx)
}

// Contains returns true if there is a bookmark with the given url.
func (b *Bookmarks) Contains(ctx context.Context, url string) (bool, error) {
	articles, err := b.load(ctx)
	if err != nil {
		return false, err
	}
	return contains(articles, url), nil
}

// Add appends the article to bookmarks.
// Returns ErrAlreadyBookmarked and leaves the slot untouched if
// the article's url is already bookmarked.
func (b *Bookmarks) Add(ctx context.Context, a Article) error {
	if a.URL == "" {
		return ErrEmptyURL
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	articles, err := b.load(ctx)
	if err != nil {
		return err
	}

	if contains(articles, a.URL) {
		return ErrAlreadyBookmarked
	}

	return b.save(ctx, append(articles, a))
}

// Remove drops all bookmarks with the given url.
// Removing an url that is not bookmarked is a no-op.
func (b *Bookmarks) Remove(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	articles, err := b.load(ctx)
	if err != nil {
		return err
	}

	return b.save(ctx, lo.Filter(articles, func(a Article, _ int) bool {
		return a.URL != url
	}))
}

func (b *Bookmarks) load(ctx context.Context) ([]Article, error) {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("get slot %q: %w", b.key, err)
	}

	if !ok || raw == "" || raw == "null" {
		return []Article{}, nil
	}

	var articles []Article
	if err = json.Unmarshal([]byte(raw), &articles); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrCorruptSlot, b.key, err)
	}

	return articles, nil
}

func (b *Bookmarks) save(ctx context.Context, articles []Article) error {
	bts, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("marshal bookmarks: %w", err)
	}

	if err = b.kv.Set(ctx, b.key, string(bts)); err != nil {
		return fmt.Errorf("set slot %q: %w", b.key, err)
	}

	return nil
}

func contains(articles []Article, url string) bool {
	return lo.ContainsBy(articles, func(a Article) bool { return a.URL == url })
}
