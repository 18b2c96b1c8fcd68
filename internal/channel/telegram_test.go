package channel

import (
	"log/slog"
	"os"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func newTestTelegram(allowFrom []string) *Telegram {
	return NewTelegram(TelegramConfig{
		Token:     "test-token",
		AllowFrom: allowFrom,
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
}

func TestIsAllowed(t *testing.T) {
	tg := newTestTelegram([]string{"-100123", " 456 ", "bogus"})

	if !tg.isAllowed(-100123) {
		t.Fatal("listed chat should be allowed")
	}
	if !tg.isAllowed(456) {
		t.Fatal("whitespace around IDs should be tolerated")
	}
	if tg.isAllowed(789) {
		t.Fatal("unlisted chat should be rejected")
	}
}

func TestIsAllowed_EmptyListAllowsAll(t *testing.T) {
	tg := newTestTelegram(nil)
	if !tg.isAllowed(42) {
		t.Fatal("empty allow list should allow every chat")
	}
}

func TestDefaultParseMode(t *testing.T) {
	tg := newTestTelegram(nil)
	if tg.parseMode != "HTML" {
		t.Fatalf("expected HTML default, got %q", tg.parseMode)
	}
}

func TestSenderName(t *testing.T) {
	cases := []struct {
		user tgbotapi.User
		want string
	}{
		{tgbotapi.User{FirstName: "احمد", LastName: "علي"}, "احمد علي"},
		{tgbotapi.User{FirstName: "Omar"}, "Omar"},
		{tgbotapi.User{UserName: "omar99"}, "omar99"},
		{tgbotapi.User{ID: 7}, "7"},
	}
	for _, tc := range cases {
		if got := senderName(&tc.user); got != tc.want {
			t.Errorf("senderName(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}
