package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"github.com/Semior001/newsdeck/app/bot"
	"github.com/Semior001/newsdeck/pkg/botx"
	"github.com/Semior001/newsdeck/pkg/botx/botapi"
)

// Bot is a command to run the telegram bot.
type Bot struct {
	Timeout time.Duration `long:"timeout" env:"BOT_TIMEOUT" default:"6m" description:"timeout for handling a message"`
	Workers int           `long:"workers" env:"BOT_WORKERS" default:"10" description:"number of workers handling messages"`

	Telegram struct {
		Token string `long:"token" env:"TOKEN" required:"true" description:"telegram token"`
	} `group:"telegram" namespace:"telegram" env-namespace:"BOT_TELEGRAM"`

	OwnerIDs []string `long:"owner-ids" env:"BOT_OWNER_IDS" env-delim:"," required:"true" description:"chat ids served by the bot"`

	withCommon
}

// Execute runs the command.
func (b *Bot) Execute(_ []string) error {
	lg := slog.Default()

	news, err := b.newsClient(lg.With(slog.String("prefix", "newsapi")))
	if err != nil {
		return fmt.Errorf("make news client: %w", err)
	}

	bookmarks, closeStore, err := b.openBookmarks()
	if err != nil {
		return fmt.Errorf("open bookmarks: %w", err)
	}
	defer closeWith(lg, "storage", closeStore)

	api, err := botapi.NewTelegram(lg.With(slog.String("prefix", "telegram")), b.Telegram.Token, 100)
	if err != nil {
		return fmt.Errorf("make telegram api: %w", err)
	}

	ctrl := &bot.Ctrl{
		Logger:         lg.With(slog.String("prefix", "bot")),
		News:           news,
		Bookmarks:      bookmarks,
		Summarizer:     b.newReader(lg.With(slog.String("prefix", "reader"))),
		Categories:     b.common.NewsAPI.Categories,
		OwnerIDs:       b.OwnerIDs,
		HandlerTimeout: b.Timeout,
		Location:       b.location(),
	}

	bt := botx.NewBot(
		ctrl.Routes().Handle,
		api,
		botx.WithLogger(lg.With(slog.String("prefix", "botx"))),
		botx.WithWorkers(b.Workers),
	)

	ctx, stop := signalContext(lg)
	defer stop()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		lg.Info("starting telegram api")
		api.Run()
		lg.Warn("telegram api stopped listening for updates")
		return nil
	})
	ewg.Go(func() error {
		lg.Info("starting bot")
		bt.Run(ctx)
		lg.Warn("bot stopped")
		// updates are not needed anymore
		api.Stop()
		return ctx.Err()
	})

	if err := ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run bot: %w", err)
	}

	return nil
}
