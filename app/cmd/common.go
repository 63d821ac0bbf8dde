// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-pkgz/requester"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/newsapi"
	"github.com/Semior001/newsdeck/app/reader"
	"github.com/Semior001/newsdeck/app/store"
	"github.com/Semior001/newsdeck/app/store/kv"
	"github.com/Semior001/newsdeck/pkg/logx"
)

// NewsAPIGroup defines options for the news API.
type NewsAPIGroup struct {
	Endpoint   string        `long:"endpoint" env:"ENDPOINT" default:"https://newsapi.org/v2/everything" description:"search endpoint"`
	APIKey     string        `long:"api-key" env:"API_KEY" description:"newsapi.org key"`
	Categories []string      `long:"category" env:"CATEGORIES" env-delim:"," default:"ipl" default:"finance" default:"politics" description:"navigation categories"`
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" default:"15s" description:"timeout for search requests"`
}

// StoreGroup defines options for the bookmarks storage.
type StoreGroup struct {
	Type string `long:"type" env:"TYPE" choice:"memory" choice:"bolt" choice:"sqlite" default:"bolt" description:"storage type"`
	Path string `long:"path" env:"PATH" default:"./var" description:"parent dir for storage files"`
}

// ReaderGroup defines options for article summaries.
type ReaderGroup struct {
	Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"timeout for downloading articles"`
	Sentences int           `long:"sentences" env:"SENTENCES" default:"5" description:"sentences in the summary without OpenAI"`

	OpenAI struct {
		Token     string        `long:"token" env:"TOKEN" description:"OpenAI token, summaries are extractive if empty"`
		MaxTokens int           `long:"max-tokens" env:"MAX_TOKENS" default:"1000" description:"max tokens for OpenAI"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"5m" description:"timeout for OpenAI calls"`
	} `group:"openai" namespace:"openai" env-namespace:"OPENAI"`
}

// CommonOpts defines options shared by all commands.
type CommonOpts struct {
	NewsAPI  NewsAPIGroup
	Store    StoreGroup
	Reader   ReaderGroup
	Location *time.Location
	Version  string
}

// withCommon is embedded into commands to receive common options.
type withCommon struct {
	common CommonOpts
	out    io.Writer
}

// SetCommon sets common options for the command.
func (c *withCommon) SetCommon(opts CommonOpts) { c.common = opts }

func (c *withCommon) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

func (c *withCommon) newsClient(lg *slog.Logger) (*newsapi.Client, error) {
	if c.common.NewsAPI.APIKey == "" {
		return nil, errors.New("news api key is not set")
	}

	rq := requester.New(
		http.Client{Timeout: c.common.NewsAPI.Timeout},
		logx.LoggingRoundTripper(lg, logx.RoundTripperOpts{
			Level:         slog.LevelDebug,
			SecretHeaders: []string{"X-Api-Key", "Authorization"},
			SecretParams:  []string{"apiKey"},
		}),
	)

	return newsapi.NewClient(lg, rq.Client(), newsapi.Params{
		Endpoint:   c.common.NewsAPI.Endpoint,
		APIKey:     c.common.NewsAPI.APIKey,
		Categories: c.common.NewsAPI.Categories,
	}), nil
}

// openBookmarks opens the configured storage, the returned function
// closes it.
func (c *withCommon) openBookmarks() (*store.Bookmarks, func() error, error) {
	var storage interface {
		store.KV
		Close() error
	}

	switch c.common.Store.Type {
	case "", "memory":
		storage = kv.NewMemory()
	case "bolt", "sqlite":
		if err := os.MkdirAll(c.common.Store.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("make storage dir: %w", err)
		}

		var err error
		if c.common.Store.Type == "bolt" {
			storage, err = kv.NewBolt(c.common.Store.Path)
		} else {
			storage, err = kv.NewSQLite(filepath.Join(c.common.Store.Path, "newsdeck.sqlite"))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("open %s storage: %w", c.common.Store.Type, err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", c.common.Store.Type)
	}

	return store.NewBookmarks(storage), storage.Close, nil
}

func (c *withCommon) newReader(lg *slog.Logger) *reader.Service {
	var summarizer reader.Summarizer = reader.Extractive{Sentences: c.common.Reader.Sentences}
	if c.common.Reader.OpenAI.Token != "" {
		summarizer = reader.NewChatGPT(
			lg.With(slog.String("prefix", "chatgpt")),
			&http.Client{Timeout: c.common.Reader.OpenAI.Timeout},
			c.common.Reader.OpenAI.Token,
			c.common.Reader.OpenAI.MaxTokens,
		)
	}

	return reader.NewService(lg, &http.Client{Timeout: c.common.Reader.Timeout}, summarizer)
}

func (c *withCommon) location() *time.Location {
	if c.common.Location == nil {
		return time.UTC
	}
	return c.common.Location
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext(lg *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			lg.Warn("caught signal, stopping", slog.String("signal", s.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func closeWith(lg *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		lg.Error("failed to close "+what, slog.Any("err", err))
	}
}
