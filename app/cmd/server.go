package cmd

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"github.com/Semior001/newsdeck/app/web"
)

// Server is a command to run the web server.
type Server struct {
	Addr         string `long:"addr" env:"WEB_ADDR" default:":8080" description:"address to listen on"`
	DefaultQuery string `long:"default-query" env:"WEB_DEFAULT_QUERY" default:"India" description:"query for the index page"`

	withCommon
}

// Execute runs the command.
func (s *Server) Execute(_ []string) error {
	lg := slog.Default()

	news, err := s.newsClient(lg.With(slog.String("prefix", "newsapi")))
	if err != nil {
		return fmt.Errorf("make news client: %w", err)
	}

	bookmarks, closeStore, err := s.openBookmarks()
	if err != nil {
		return fmt.Errorf("open bookmarks: %w", err)
	}
	defer closeWith(lg, "storage", closeStore)

	srv := &web.Server{
		Logger:       lg.With(slog.String("prefix", "web")),
		Addr:         s.Addr,
		Version:      s.common.Version,
		News:         news,
		Bookmarks:    bookmarks,
		Summarizer:   s.newReader(lg.With(slog.String("prefix", "reader"))),
		Categories:   s.common.NewsAPI.Categories,
		DefaultQuery: s.DefaultQuery,
		Location:     s.location(),
	}

	ctx, stop := signalContext(lg)
	defer stop()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error { return srv.Run(ctx) })

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run web server: %w", err)
	}

	lg.Info("web server stopped")
	return nil
}
