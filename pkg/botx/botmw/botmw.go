// Package botmw provides middlewares for bot handler.
package botmw

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/pkg/botx"
)

// Logger is a middleware that logs all requests, texts of requests
// and responses are logged only in debug mode.
func Logger(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			debug := lg.Handler().Enabled(ctx, slog.LevelDebug)

			attrs := []slog.Attr{
				slog.String("chat_id", req.Chat.ID),
				slog.String("chat_username", req.Chat.Username),
				slog.String("command", req.Command()),
			}
			if debug {
				attrs = append(attrs, slog.String("text", req.Text))
			}

			start := time.Now()
			resps, err := next(ctx, req)

			attrs = append(attrs,
				slog.Duration("elapsed", time.Since(start)),
				slog.Int("responses", len(resps)),
			)
			if debug {
				attrs = append(attrs, slog.Any("texts", lo.Map(resps, func(r botx.Response, _ int) string {
					return r.Text
				})))
			}

			level := slog.LevelInfo
			if err != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.Any("err", err))
			}

			lg.LogAttrs(ctx, level, "request processed", attrs...)
			return resps, err
		}
	}
}

// Recover is a middleware that recovers from panics.
func Recover(lg *slog.Logger) botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) (resps []botx.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					lg.ErrorCtx(ctx, "panic recovered", slog.Any("panic", r))
					resps, err = nil, fmt.Errorf("panic: %v", r)
				}
			}()

			return next(ctx, req)
		}
	}
}
