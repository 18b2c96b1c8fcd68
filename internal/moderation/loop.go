package moderation

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"raqib/internal/domain"
)

const (
	defaultConcurrency  = 5
	defaultCheckTimeout = 30 * time.Second
)

// Loop consumes inbound messages from the bus, runs the moderation check
// with bounded concurrency, and emits delete/warn actions for flagged
// messages. Clean messages produce no action.
type Loop struct {
	moderator    *Moderator
	bus          domain.MessageBus
	logger       *slog.Logger
	concurrency  int
	checkTimeout time.Duration
}

type LoopConfig struct {
	Moderator    *Moderator
	Bus          domain.MessageBus
	Logger       *slog.Logger
	Concurrency  int
	CheckTimeout time.Duration
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = defaultCheckTimeout
	}
	return &Loop{
		moderator:    cfg.Moderator,
		bus:          cfg.Bus,
		logger:       cfg.Logger,
		concurrency:  cfg.Concurrency,
		checkTimeout: cfg.CheckTimeout,
	}
}

// Run consumes inbound messages until the context is cancelled or the bus
// closes. Each message is checked independently; there is no shared mutable
// state beyond the read-only lexicon.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("moderation loop started", "concurrency", l.concurrency)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("moderation loop stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, moderation loop stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.Message) {
				defer func() { <-sem }()
				l.process(ctx, m)
			}(msg)
		}
	}
}

func (l *Loop) process(ctx context.Context, msg domain.Message) {
	cctx, cancel := context.WithTimeout(ctx, l.checkTimeout)
	defer cancel()

	verdict := l.moderator.Check(cctx, msg)
	if !verdict.Flagged {
		return
	}

	l.logger.Info("message flagged",
		"chat_id", msg.ChatID,
		"sender", msg.SenderID,
		"source", verdict.Source,
		"term", verdict.Term,
	)

	l.bus.SendAction(domain.Action{
		Type:       domain.ActionDelete,
		Channel:    msg.Channel,
		ChatID:     msg.ChatID,
		MessageID:  msg.MessageID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Source:     verdict.Source,
		Term:       verdict.Term,
	})

	l.bus.SendAction(domain.Action{
		Type:       domain.ActionWarn,
		Channel:    msg.Channel,
		ChatID:     msg.ChatID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Text:       warningText(msg.SenderID, msg.SenderName),
		Source:     verdict.Source,
		Term:       verdict.Term,
	})
}

// warningText builds the public warning naming the sender via an inline
// mention, matching Telegram's HTML parse mode.
func warningText(senderID int64, senderName string) string {
	mention := fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, senderID, html.EscapeString(senderName))
	return fmt.Sprintf("⚠️ تم حذف رسالة من %s بسبب محتوى غير لائق.", mention)
}
