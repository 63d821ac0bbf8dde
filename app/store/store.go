// Package store contains the article model and the bookmark store.
package store

import (
	"context"
	"errors"
	"time"
)

// BookmarksKey is the name of the slot that keeps bookmarked articles.
const BookmarksKey = "bookmarks"

var (
	// ErrAlreadyBookmarked is returned when an article with the same url
	// is already present in bookmarks.
	ErrAlreadyBookmarked = errors.New("already bookmarked")

	// ErrEmptyURL is returned when an article without url is being bookmarked.
	ErrEmptyURL = errors.New("article url is empty")

	// ErrCorruptSlot is returned when the persisted slot can't be decoded.
	ErrCorruptSlot = errors.New("corrupt slot")
)

//go:generate moq -out mock_kv.go . KV

// KV is a durable key-value storage with named slots.
type KV interface {
	// Get returns the value of the slot, ok is false if the slot was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value of the slot.
	Set(ctx context.Context, key, value string) error
}

// Article is a single news item.
type Article struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author,omitempty"`
	Content     string `json:"content,omitempty"`
	ImageURL    string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Source      Source `json:"source"`
}

// Source describes the publisher of the article.
type Source struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// HasImage returns true if the article has an image to display.
func (a Article) HasImage() bool { return a.ImageURL != "" }

// Published returns the publication time of the article in the given location.
// Returns false if the article has no parseable publication time.
func (a Article) Published(loc *time.Location) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}, false
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t, true
}
