// Package botx provides interfaces and types to handle bot updates,
// with a chi-like router.
package botx

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/pkg/logx"
)

// API defines methods for an API interface to receive and send chat messages.
type API interface {
	Updates() <-chan Request
	SendMessage(ctx context.Context, resp Response) error
}

// Bot defines parameters for running a bot over some API.
type Bot struct {
	h   Handler
	api API
	Options
}

// NewBot creates a new Bot.
func NewBot(h Handler, api API, opts ...Option) *Bot {
	options := Options{
		Workers: 1,
		Logger:  slog.New(logx.NoOp()),
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &Bot{
		h:       h,
		api:     api,
		Options: options,
	}
}

// Run starts workers, that handle updates until the context is done
// or the updates channel is closed.
func (b *Bot) Run(ctx context.Context) {
	wg := &sync.WaitGroup{}
	wg.Add(b.Workers)

	for i := 0; i < b.Workers; i++ {
		go func(idx int) {
			defer wg.Done()
			b.work(ctx, idx)
		}(i)
	}

	wg.Wait()
}

// work handles updates one by one until there are no more.
func (b *Bot) work(ctx context.Context, idx int) {
	lg := b.Logger.With(slog.Int("worker", idx))
	lg.DebugCtx(ctx, "worker started")
	defer lg.DebugCtx(ctx, "worker stopped")

	updates := b.api.Updates()
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-updates:
			if !ok {
				return
			}
			b.reply(ctx, lg, req)
		}
	}
}

// reply sends every non-empty response of the handler, even if the
// handler failed, as the error may come along with a notice for the user.
func (b *Bot) reply(ctx context.Context, lg *slog.Logger, req Request) {
	resps, err := b.h(ctx, req)
	if err != nil {
		lg.ErrorCtx(ctx, "failed to handle request",
			slog.String("chat_id", req.Chat.ID),
			slog.String("command", req.Command()),
			slog.Any("err", err))
	}

	for _, resp := range resps {
		if strings.TrimSpace(resp.Text) == "" {
			continue
		}
		if err := b.api.SendMessage(ctx, resp); err != nil {
			lg.WarnCtx(ctx, "failed to send message", slog.String("chat_id", resp.ChatID), slog.Any("err", err))
		}
	}
}

// Options defines options for Bot.
type Options struct {
	Workers int
	Logger  *slog.Logger
}

// Option defines a function that configures Bot.
type Option func(*Options)

// WithWorkers sets the number of workers handling updates, at least one.
func WithWorkers(workers int) Option {
	return func(o *Options) { o.Workers = max(workers, 1) }
}

// WithLogger sets the logger to use.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
