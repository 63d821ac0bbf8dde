// Package botapi contains implementations of bot API interfaces.
package botapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/pkg/botx"
)

// Telegram receives and sends messages via telegram bot API.
type Telegram struct {
	log     *slog.Logger
	api     *tgbotapi.BotAPI
	updates chan botx.Request

	stopped  chan struct{}
	stopOnce sync.Once
}

// NewTelegram returns a new telegram bot API client.
func NewTelegram(lg *slog.Logger, token string, bufferSize int) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("make new api: %w", err)
	}

	stdlibLogger := slog.NewLogLogger(lg.Handler(), slog.LevelWarn)
	stdlibLogger.SetPrefix("telegram-bot-api: ")

	if err = tgbotapi.SetLogger(stdlibLogger); err != nil {
		return nil, fmt.Errorf("set logger: %w", err)
	}

	lg.Info("authorized in telegram", slog.String("bot", api.Self.UserName))

	return &Telegram{
		log:     lg,
		api:     api,
		updates: make(chan botx.Request, bufferSize),
		stopped: make(chan struct{}),
	}, nil
}

// Run listens for telegram updates until Stop is called,
// the updates channel is closed on return.
func (b *Telegram) Run() {
	defer close(b.updates)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
			continue
		}

		b.log.Debug("update received",
			slog.Int64("chat_id", update.Message.Chat.ID),
			slog.Int("message_id", update.Message.MessageID))

		req := botx.Request{
			MessageID: strconv.Itoa(update.Message.MessageID),
			Chat: botx.Chat{
				ID:       strconv.FormatInt(update.Message.Chat.ID, 10),
				Username: update.Message.Chat.UserName,
			},
			Text: update.Message.Text,
		}

		select {
		case b.updates <- req:
		case <-b.stopped:
			return
		}
	}
}

// Stop stops telegram bot listener.
func (b *Telegram) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopped)
		b.api.StopReceivingUpdates()
	})
}

// Updates returns updates channel.
func (b *Telegram) Updates() <-chan botx.Request {
	return b.updates
}

// SendMessage sends message to telegram user, long texts are split
// into several messages, only the first one is a reply.
func (b *Telegram) SendMessage(ctx context.Context, resp botx.Response) error {
	chatID, err := strconv.ParseInt(resp.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id: %w", err)
	}

	replyTo := 0
	if resp.ReplyToMessageID != "" {
		if replyTo, err = strconv.Atoi(resp.ReplyToMessageID); err != nil {
			return fmt.Errorf("parse reply to message id: %w", err)
		}
	}

	for i, text := range chunks(resp.Text, maxMessageLen) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if i == 0 {
			msg.ReplyToMessageID = replyTo
		}

		if _, err = b.api.Send(msg); err != nil {
			return fmt.Errorf("send message part %d: %w", i+1, err)
		}
	}

	return nil
}

// maxMessageLen is the limit of telegram for a message text, in runes.
const maxMessageLen = 4096

// chunks splits text into parts of at most limit runes, preferably
// at paragraph or line breaks.
func chunks(text string, limit int) []string {
	// cut offsets are taken from the rune prefix, so both must be the same bytes
	text = strings.ToValidUTF8(text, "\uFFFD")

	var res []string
	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		head := string(runes[:limit])

		cut := strings.LastIndex(head, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(head, "\n")
		}
		if cut <= 0 {
			cut = len(head)
		}

		res = append(res, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" || len(res) == 0 {
		res = append(res, text)
	}
	return res
}
