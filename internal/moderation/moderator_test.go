package moderation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"raqib/internal/bus"
	"raqib/internal/cache"
	"raqib/internal/domain"
	"raqib/internal/lexicon"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeClassifier is a scriptable domain.Classifier.
type fakeClassifier struct {
	flagged bool
	err     error
	calls   atomic.Int64
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(ctx context.Context, text string) (bool, error) {
	f.calls.Add(1)
	return f.flagged, f.err
}

func (f *fakeClassifier) Healthy(ctx context.Context) error { return f.err }

// fakeCache is an in-memory VerdictCache.
type fakeCache struct {
	entries map[string]bool
	getErr  error
}

func newFakeCache() *fakeCache { return &fakeCache{entries: make(map[string]bool)} }

func (f *fakeCache) Get(ctx context.Context, key string) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	v, ok := f.entries[key]
	if !ok {
		return false, cache.ErrMiss
	}
	return v, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, flagged bool) error {
	f.entries[key] = flagged
	return nil
}

func newModerator(t *testing.T, cls *fakeClassifier, vc VerdictCache, failPolicy string) *Moderator {
	t.Helper()
	return NewModerator(ModeratorConfig{
		Lexicon:    lexicon.New(),
		Classifier: cls,
		Cache:      vc,
		FailPolicy: failPolicy,
		Timeout:    5 * time.Second,
		Logger:     testLogger(),
	})
}

func TestCheck_LexiconHitSkipsClassifier(t *testing.T) {
	cls := &fakeClassifier{}
	m := newModerator(t, cls, nil, "open")

	v := m.Check(context.Background(), domain.Message{Content: "انت كلب"})
	if !v.Flagged {
		t.Fatal("expected flagged verdict")
	}
	if v.Source != domain.SourceLexicon {
		t.Fatalf("expected lexicon source, got %s", v.Source)
	}
	if v.Term != "كلب" {
		t.Fatalf("expected matched term, got %q", v.Term)
	}
	if cls.calls.Load() != 0 {
		t.Fatal("classifier must not be invoked on lexicon hit")
	}
}

func TestCheck_CleanTextConsultsClassifier(t *testing.T) {
	cls := &fakeClassifier{flagged: false}
	m := newModerator(t, cls, nil, "open")

	v := m.Check(context.Background(), domain.Message{Content: "صباح الخير"})
	if v.Flagged {
		t.Fatal("expected clean verdict")
	}
	if v.Source != domain.SourceClassifier {
		t.Fatalf("expected classifier source, got %s", v.Source)
	}
	if cls.calls.Load() != 1 {
		t.Fatalf("expected one classifier call, got %d", cls.calls.Load())
	}
}

func TestCheck_ClassifierFlags(t *testing.T) {
	cls := &fakeClassifier{flagged: true}
	m := newModerator(t, cls, nil, "open")

	v := m.Check(context.Background(), domain.Message{Content: "نص ملتوي"})
	if !v.Flagged {
		t.Fatal("expected flagged verdict")
	}
	if v.Source != domain.SourceClassifier {
		t.Fatalf("expected classifier source, got %s", v.Source)
	}
}

func TestCheck_FailOpen(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("connection refused")}
	m := newModerator(t, cls, nil, "open")

	v := m.Check(context.Background(), domain.Message{Content: "نص عادي"})
	if v.Flagged {
		t.Fatal("fail-open must treat message as clean")
	}
	if v.Source != domain.SourceFailOpen {
		t.Fatalf("expected fail-open source, got %s", v.Source)
	}
}

func TestCheck_FailClosed(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("connection refused")}
	m := newModerator(t, cls, nil, "closed")

	v := m.Check(context.Background(), domain.Message{Content: "نص عادي"})
	if !v.Flagged {
		t.Fatal("fail-closed must flag the message")
	}
	if v.Source != domain.SourceFailClosed {
		t.Fatalf("expected fail-closed source, got %s", v.Source)
	}
}

func TestCheck_CacheHitSkipsClassifier(t *testing.T) {
	cls := &fakeClassifier{flagged: true}
	vc := newFakeCache()
	m := newModerator(t, cls, vc, "open")

	msg := domain.Message{Content: "نص ملتوي جدا"}

	// First check populates the cache.
	v1 := m.Check(context.Background(), msg)
	if v1.Source != domain.SourceClassifier {
		t.Fatalf("expected classifier source, got %s", v1.Source)
	}

	// Second check must come from the cache.
	v2 := m.Check(context.Background(), msg)
	if v2.Source != domain.SourceCache {
		t.Fatalf("expected cache source, got %s", v2.Source)
	}
	if v2.Flagged != v1.Flagged {
		t.Fatal("cached verdict differs from original")
	}
	if cls.calls.Load() != 1 {
		t.Fatalf("expected one classifier call, got %d", cls.calls.Load())
	}
}

func TestCheck_CacheErrorFallsThrough(t *testing.T) {
	cls := &fakeClassifier{flagged: false}
	vc := newFakeCache()
	vc.getErr = errors.New("redis down")
	m := newModerator(t, cls, vc, "open")

	v := m.Check(context.Background(), domain.Message{Content: "نص"})
	if v.Source != domain.SourceClassifier {
		t.Fatalf("cache failure must fall through to classifier, got %s", v.Source)
	}
}

// --- Loop ---

func collectActions(t *testing.T, b *bus.InMemoryBus, want int, timeout time.Duration) []domain.Action {
	t.Helper()
	got := make(chan domain.Action, 16)
	b.OnAction("telegram", func(act domain.Action) { got <- act })

	var actions []domain.Action
	deadline := time.After(timeout)
	for len(actions) < want {
		select {
		case act := <-got:
			actions = append(actions, act)
		case <-deadline:
			return actions
		}
	}
	return actions
}

func TestLoop_FlaggedMessageEmitsDeleteAndWarn(t *testing.T) {
	b := bus.New(10, testLogger())
	defer b.Close()

	m := newModerator(t, &fakeClassifier{}, nil, "open")
	loop := NewLoop(LoopConfig{Moderator: m, Bus: b, Logger: testLogger(), Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	done := make(chan []domain.Action, 1)
	go func() { done <- collectActions(t, b, 2, 3*time.Second) }()
	// Give the handler time to register before publishing.
	time.Sleep(50 * time.Millisecond)

	b.Publish(domain.Message{
		Channel: "telegram", ChatID: 5, MessageID: 99,
		SenderID: 7, SenderName: "احمد", Content: "انت كلب",
	})

	actions := <-done
	if len(actions) != 2 {
		t.Fatalf("expected delete+warn, got %d actions", len(actions))
	}
	if actions[0].Type != domain.ActionDelete || actions[0].MessageID != 99 {
		t.Fatalf("unexpected first action: %+v", actions[0])
	}
	if actions[1].Type != domain.ActionWarn {
		t.Fatalf("unexpected second action: %+v", actions[1])
	}
	if actions[1].Text == "" || actions[1].Source != domain.SourceLexicon {
		t.Fatalf("warn action missing context: %+v", actions[1])
	}
}

func TestLoop_CleanMessageEmitsNothing(t *testing.T) {
	b := bus.New(10, testLogger())
	defer b.Close()

	m := newModerator(t, &fakeClassifier{flagged: false}, nil, "open")
	loop := NewLoop(LoopConfig{Moderator: m, Bus: b, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	got := make(chan domain.Action, 1)
	b.OnAction("telegram", func(act domain.Action) { got <- act })

	b.Publish(domain.Message{Channel: "telegram", ChatID: 1, Content: "مرحبا بالجميع"})

	select {
	case act := <-got:
		t.Fatalf("unexpected action for clean message: %+v", act)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWarningText_MentionsSender(t *testing.T) {
	text := warningText(42, "Omar <script>")
	if text == "" {
		t.Fatal("empty warning")
	}
	// HTML in names must be escaped inside the mention.
	if !strings.Contains(text, "tg://user?id=42") {
		t.Fatalf("warning missing mention link: %q", text)
	}
	if strings.Contains(text, "<script>") {
		t.Fatalf("sender name not escaped: %q", text)
	}
}
