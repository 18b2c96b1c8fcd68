package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"raqib/internal/domain"
	"raqib/internal/metrics"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

const (
	startReply = "مرحبا! أنا بوت الرقابة. سأساعد في الحفاظ على نظافة المحادثة وإزالة المحتوى غير اللائق."
	helpReply  = "الأوامر المتاحة:\n" +
		"/start - بدء تشغيل البوت\n" +
		"/help - عرض رسالة المساعدة\n" +
		"سأقوم تلقائيًا بمراقبة الرسائل في الدردشة."
)

// Telegram connects the moderation pipeline to the Telegram Bot API. It
// publishes incoming group messages to the bus and executes the delete and
// warn actions the moderation loop emits.
type Telegram struct {
	token     string
	allowFrom []int64 // allowed chat IDs (empty = moderate everywhere)
	parseMode string

	bot    *tgbotapi.BotAPI
	bus    domain.MessageBus
	audit  domain.AuditStore // optional
	logger *slog.Logger
}

type TelegramConfig struct {
	Token     string
	AllowFrom []string // chat IDs as strings
	ParseMode string
	Audit     domain.AuditStore
	Logger    *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = "HTML"
	}
	return &Telegram{
		token:     cfg.Token,
		allowFrom: allowed,
		parseMode: cfg.ParseMode,
		audit:     cfg.Audit,
		logger:    cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and polls for updates until the context is
// cancelled.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	bus.OnAction("telegram", func(act domain.Action) {
		t.executeAction(ctx, act)
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if !t.isAllowed(chatID) {
		t.logger.Warn("message from chat outside allow list", "chat_id", chatID)
		return
	}

	if update.Message.IsCommand() {
		t.handleCommand(chatID, update.Message)
		return
	}

	text := update.Message.Text
	if text == "" {
		return
	}

	from := update.Message.From
	t.logger.Debug("telegram message received",
		"chat_id", chatID,
		"message_id", update.Message.MessageID,
		"sender_id", from.ID,
	)

	t.bus.Publish(domain.Message{
		Channel:    "telegram",
		ChatID:     chatID,
		MessageID:  update.Message.MessageID,
		SenderID:   from.ID,
		SenderName: senderName(from),
		Content:    text,
		Timestamp:  time.Unix(int64(update.Message.Date), 0),
	})
}

func senderName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return name
}

func (t *Telegram) handleCommand(chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		t.sendMessage(chatID, startReply)
	case "help":
		t.sendMessage(chatID, helpReply)
	}
	// Unknown commands are ignored: in a group the bot should stay quiet.
}

// executeAction performs one delete or warn. Failures are logged and
// recorded in the audit log; they never stop the pipeline. Deleting can
// fail when the bot lacks admin rights or the message is already gone.
func (t *Telegram) executeAction(ctx context.Context, act domain.Action) {
	switch act.Type {
	case domain.ActionDelete:
		del := tgbotapi.NewDeleteMessage(act.ChatID, act.MessageID)
		if _, err := t.bot.Request(del); err != nil {
			t.logger.Error("delete message failed",
				"chat_id", act.ChatID, "message_id", act.MessageID, "err", err)
			metrics.DeletesTotal.WithLabelValues("error").Inc()
			t.recordAudit(ctx, act, "delete_failed")
			return
		}
		t.logger.Info("message deleted",
			"chat_id", act.ChatID, "message_id", act.MessageID, "source", act.Source)
		metrics.DeletesTotal.WithLabelValues("ok").Inc()
		t.recordAudit(ctx, act, "deleted")

	case domain.ActionWarn:
		if err := t.sendMessage(act.ChatID, act.Text); err != nil {
			metrics.WarnsTotal.WithLabelValues("error").Inc()
			t.recordAudit(ctx, act, "warn_failed")
			return
		}
		metrics.WarnsTotal.WithLabelValues("ok").Inc()
		t.recordAudit(ctx, act, "warned")

	case domain.ActionReply:
		_ = t.sendMessage(act.ChatID, act.Text)
	}
}

func (t *Telegram) recordAudit(ctx context.Context, act domain.Action, outcome string) {
	if t.audit == nil {
		return
	}
	err := t.audit.Record(ctx, domain.AuditEntry{
		Channel:  "telegram",
		ChatID:   act.ChatID,
		SenderID: act.SenderID,
		Source:   act.Source,
		Term:     act.Term,
		Outcome:  outcome,
	})
	if err != nil {
		t.logger.Error("audit record failed", "err", err)
	}
}

func (t *Telegram) isAllowed(chatID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == chatID {
			return true
		}
	}
	return false
}

func (t *Telegram) sendMessage(chatID int64, text string) error {
	// Telegram caps messages at 4096 chars.
	const maxLen = telegramMaxMsgLen
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			cutAt := strings.LastIndex(chunk[:maxLen], "\n")
			if cutAt < maxLen/2 {
				cutAt = maxLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}

		if err := t.sendChunk(chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// sendChunk sends a single message chunk with retry and rate limit handling.
// On a parse error the chunk is resent as plain text, since warning texts
// embed user-supplied names in HTML mentions.
func (t *Telegram) sendChunk(chatID int64, text string) error {
	const maxRetries = telegramMaxSendRetries

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)
		if attempt == 0 && t.parseMode != "" {
			msg.ParseMode = t.parseMode
		}

		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		errStr := err.Error()

		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off",
				"retry_after", retryAfter, "attempt", attempt+1,
			)
			time.Sleep(retryAfter)
			continue
		}

		if attempt == 0 && msg.ParseMode != "" &&
			strings.Contains(errStr, "can't parse entities") {
			t.logger.Warn("telegram parse error, retrying as plain text",
				"err", err, "parse_mode", t.parseMode,
			)
			plainMsg := tgbotapi.NewMessage(chatID, text)
			if _, err2 := t.bot.Send(plainMsg); err2 == nil {
				return nil
			}
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
		}
	}

	t.logger.Error("telegram send failed after retries", "err", lastErr, "attempts", maxRetries+1)
	return lastErr
}
