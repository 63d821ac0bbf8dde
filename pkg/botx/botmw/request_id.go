package botmw

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Semior001/newsdeck/pkg/botx"
	"github.com/Semior001/newsdeck/pkg/logx"
)

// RequestID is a middleware that adds request id to context,
// unless there is one already.
func RequestID() botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) ([]botx.Response, error) {
			if _, ok := logx.RequestIDFromContext(ctx); ok {
				return next(ctx, req)
			}
			return next(logx.ContextWithRequestID(ctx, uuid.NewString()), req)
		}
	}
}

// AppendRequestIDOnError is a middleware that appends the request id to the
// replies of a failed request, so that the owner can find it in logs.
// If the handler didn't reply to the requester, a notice is sent instead.
func AppendRequestIDOnError() botx.Middleware {
	return func(next botx.Handler) botx.Handler {
		return func(ctx context.Context, req botx.Request) (resps []botx.Response, err error) {
			resps, err = next(ctx, req)
			if err == nil {
				return resps, nil
			}

			reqID, _ := logx.RequestIDFromContext(ctx)

			hasRequester := false
			for i := range resps {
				resps[i].Text += fmt.Sprintf("\n\nRequest ID: `%s`", reqID)
				if resps[i].ChatID == req.Chat.ID {
					hasRequester = true
				}
			}

			if !hasRequester {
				resps = append(resps, botx.Response{
					ChatID: req.Chat.ID,
					Text: fmt.Sprintf("Couldn't handle the request, the news source "+
						"or the bookmarks storage may be unavailable. Please, try again later."+
						"\n\nRequest ID: `%s`", reqID),
				})
			}

			return resps, err
		}
	}
}
