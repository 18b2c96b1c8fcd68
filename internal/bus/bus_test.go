package bus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"raqib/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	b.Publish(domain.Message{Channel: "telegram", ChatID: 42, Content: "hello"})

	select {
	case msg := <-b.Subscribe():
		if msg.ChatID != 42 || msg.Content != "hello" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSendAction_RoutesToHandler(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	got := make(chan domain.Action, 1)
	b.OnAction("telegram", func(act domain.Action) { got <- act })

	b.SendAction(domain.Action{Type: domain.ActionDelete, Channel: "telegram", ChatID: 1, MessageID: 7})

	select {
	case act := <-got:
		if act.Type != domain.ActionDelete || act.MessageID != 7 {
			t.Fatalf("unexpected action: %+v", act)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestSendAction_NoHandlerDoesNotPanic(t *testing.T) {
	b := New(10, testLogger())
	defer b.Close()

	// Must not panic or block.
	b.SendAction(domain.Action{Type: domain.ActionWarn, Channel: "unknown"})
}

func TestPublishAfterClose(t *testing.T) {
	b := New(10, testLogger())
	b.Close()

	// Must not panic on closed bus.
	b.Publish(domain.Message{Channel: "telegram"})
}

func TestCloseIdempotent(t *testing.T) {
	b := New(10, testLogger())
	b.Close()
	b.Close()
}
