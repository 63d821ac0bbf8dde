package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Semior001/newsdeck/app/store"
	"github.com/Semior001/newsdeck/app/store/kv"
)

func article(url, title string) store.Article {
	return store.Article{
		URL:         url,
		Title:       title,
		Description: "description of " + title,
		ImageURL:    "https://img.example.com/" + title + ".png",
		PublishedAt: "2023-03-15T10:00:00Z",
		Source:      store.Source{Name: "Example"},
	}
}

func TestBookmarks_AddList(t *testing.T) {
	ctx := context.Background()
	s := store.NewBookmarks(kv.NewMemory())

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	a := article("u1", "T1")
	require.NoError(t, s.Add(ctx, a))

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Article{a}, list)
}

func TestBookmarks_Contains(t *testing.T) {
	ctx := context.Background()
	s := store.NewBookmarks(kv.NewMemory())

	ok, err := s.Contains(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Add(ctx, article("u1", "T1")))

	ok, err = s.Contains(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBookmarks_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := store.NewBookmarks(mem)

	require.NoError(t, s.Add(ctx, article("x", "first")))
	before, _, err := mem.Get(ctx, store.BookmarksKey)
	require.NoError(t, err)

	err = s.Add(ctx, article("x", "second"))
	assert.ErrorIs(t, err, store.ErrAlreadyBookmarked)

	after, _, err := mem.Get(ctx, store.BookmarksKey)
	require.NoError(t, err)
	assert.Equal(t, before, after, "slot must stay untouched")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Title)
}

func TestBookmarks_UniqueURLs(t *testing.T) {
	ctx := context.Background()
	s := store.NewBookmarks(kv.NewMemory())

	urls := []string{"u1", "u2", "u1", "u3", "u2", "u2", "u4", "u1"}
	for i, u := range urls {
		err := s.Add(ctx, article(u, fmt.Sprintf("T%d", i)))
		if err != nil {
			require.ErrorIs(t, err, store.ErrAlreadyBookmarked)
		}
	}

	list, err := s.List(ctx)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, a := range list {
		assert.False(t, seen[a.URL], "duplicate url %s", a.URL)
		seen[a.URL] = true
	}
	assert.Len(t, list, 4)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, urlsOf(list))
}

func TestBookmarks_Remove(t *testing.T) {
	ctx := context.Background()
	s := store.NewBookmarks(kv.NewMemory())

	a, b := article("u1", "A"), article("u2", "B")
	require.NoError(t, s.Add(ctx, a))
	require.NoError(t, s.Add(ctx, b))

	require.NoError(t, s.Remove(ctx, "u1"))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Article{b}, list)
}

func TestBookmarks_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := store.NewBookmarks(mem)

	require.NoError(t, s.Add(ctx, article("u1", "A")))
	require.NoError(t, s.Add(ctx, article("u2", "B")))

	require.NoError(t, s.Remove(ctx, "u1"))
	once, _, err := mem.Get(ctx, store.BookmarksKey)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "u1"))
	twice, _, err := mem.Get(ctx, store.BookmarksKey)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.NoError(t, s.Remove(ctx, "never-added"))
}

func TestBookmarks_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewBookmarks(kv.NewMemory())

	a := article("u1", "A")
	require.NoError(t, s.Add(ctx, a))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, list, a)

	require.NoError(t, s.Remove(ctx, a.URL))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, list, a)
}

func TestBookmarks_ExternalMutation(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := store.NewBookmarks(mem)

	require.NoError(t, s.Add(ctx, article("u1", "A")))

	// another writer replaces the slot between calls
	require.NoError(t, mem.Set(ctx, store.BookmarksKey,
		`[{"url":"u9","title":"Z","description":"","urlToImage":"","publishedAt":"","source":{"name":"S"}}]`))

	ok, err := s.Contains(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Add(ctx, article("u1", "A")))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u9", "u1"}, urlsOf(list))
}

func TestBookmarks_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := store.NewBookmarks(mem)

	require.NoError(t, s.Add(ctx, store.Article{
		URL:         "https://example.com/a",
		Title:       "A",
		Description: "d",
		ImageURL:    "https://example.com/a.png",
		PublishedAt: "2023-03-15T10:00:00Z",
		Source:      store.Source{Name: "Example"},
	}))

	raw, ok, err := mem.Get(ctx, "bookmarks")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{
		"url": "https://example.com/a",
		"title": "A",
		"description": "d",
		"urlToImage": "https://example.com/a.png",
		"publishedAt": "2023-03-15T10:00:00Z",
		"source": {"name": "Example"}
	}]`, raw)
}

func TestBookmarks_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty url", func(t *testing.T) {
		s := store.NewBookmarks(kv.NewMemory())
		assert.ErrorIs(t, s.Add(ctx, store.Article{Title: "no url"}), store.ErrEmptyURL)
	})

	t.Run("corrupt slot", func(t *testing.T) {
		mem := kv.NewMemory()
		require.NoError(t, mem.Set(ctx, store.BookmarksKey, "{not json"))
		s := store.NewBookmarks(mem)

		_, err := s.List(ctx)
		assert.ErrorIs(t, err, store.ErrCorruptSlot)
	})

	t.Run("storage failure", func(t *testing.T) {
		boom := errors.New("boom")
		mock := &store.KVMock{
			GetFunc: func(context.Context, string) (string, bool, error) { return "", false, nil },
			SetFunc: func(context.Context, string, string) error { return boom },
		}
		s := store.NewBookmarks(mock)

		assert.ErrorIs(t, s.Add(ctx, article("u1", "A")), boom)
		require.Len(t, mock.SetCalls(), 1)
		assert.Equal(t, store.BookmarksKey, mock.SetCalls()[0].Key)
	})

	t.Run("duplicate doesn't write", func(t *testing.T) {
		mock := &store.KVMock{
			GetFunc: func(context.Context, string) (string, bool, error) {
				return `[{"url":"x","title":"","description":"","urlToImage":"","publishedAt":"","source":{"name":""}}]`, true, nil
			},
			SetFunc: func(context.Context, string, string) error { return nil },
		}
		s := store.NewBookmarks(mock)

		assert.ErrorIs(t, s.Add(ctx, article("x", "B")), store.ErrAlreadyBookmarked)
		assert.Empty(t, mock.SetCalls())
	})
}

func urlsOf(list []store.Article) []string {
	res := make([]string, 0, len(list))
	for _, a := range list {
		res = append(res, a.URL)
	}
	return res
}
