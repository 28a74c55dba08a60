package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Message is an inbound chat message.
type Message struct {
	UpdateID int
	ChatID   int64
	Text     string
}

// IsCommand reports whether the message is a slash command.
func (m Message) IsCommand() bool { return strings.HasPrefix(m.Text, "/") }

// Handler produces the reply for one message. An empty reply sends nothing.
type Handler func(ctx context.Context, msg Message) (reply, parseMode string)

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

const pollRetryDelay = 5 * time.Second

// StartPolling long-polls for messages and hands each to handler on its own
// goroutine, with at most workers running at once. It blocks until ctx is
// cancelled and every in-flight handler has returned.
func (t *TelegramNotifier) StartPolling(ctx context.Context, workers int, handler Handler) error {
	if workers <= 0 {
		workers = 1
	}
	g := &errgroup.Group{}
	g.SetLimit(workers)
	offset := 0

	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			t.logger.Warn("polling request failed", zap.Error(err))
			sleep(ctx, pollRetryDelay)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil {
				continue
			}
			msg := Message{
				UpdateID: update.UpdateID,
				ChatID:   update.Message.Chat.ID,
				Text:     strings.TrimSpace(update.Message.Text),
			}
			g.Go(func() error {
				t.dispatch(ctx, msg, handler)
				return nil
			})
		}
	}

	t.logger.Info("telegram polling stopped")
	return g.Wait()
}

func (t *TelegramNotifier) dispatch(ctx context.Context, msg Message, handler Handler) {
	log := t.logger.With(zap.Int64("chat_id", msg.ChatID), zap.Int("update_id", msg.UpdateID))
	log.Info("received message", zap.String("text", msg.Text))

	if msg.Text != "" && !msg.IsCommand() {
		if err := t.SendChatAction(ctx, msg.ChatID, "typing"); err != nil {
			log.Debug("send chat action", zap.Error(err))
		}
	}

	reply, parseMode := safeHandle(ctx, log, msg, handler)
	if reply == "" {
		return
	}
	if err := t.SendWithRetry(ctx, msg.ChatID, reply, parseMode); err != nil {
		log.Error("send reply", zap.Error(err))
	}
}

// safeHandle turns a handler panic into the generic apology.
func safeHandle(ctx context.Context, log *zap.Logger, msg Message, handler Handler) (reply, parseMode string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", zap.Any("panic", r), zap.Stack("stack"))
			reply, parseMode = ErrorReply, ParseModeNone
		}
	}()
	return handler(ctx, msg)
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, offset int) ([]telegramUpdate, error) {
	pollCtx := ctx
	if t.Client.Timeout == 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, time.Duration(t.PollTimeout+10)*time.Second)
		defer cancel()
	}
	body, err := t.call(pollCtx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         t.PollTimeout,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates returned ok=false")
	}
	return result.Result, nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
