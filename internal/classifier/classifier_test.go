package classifier

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"raqib/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- prompt ---

func TestBuildPrompt_ContainsText(t *testing.T) {
	p := buildPrompt("مرحبا")
	if !strings.Contains(p, "Text: 'مرحبا'") {
		t.Fatalf("prompt missing message text: %q", p)
	}
	if !strings.Contains(p, "'TRUE'") || !strings.Contains(p, "'FALSE'") {
		t.Fatal("prompt missing verdict instructions")
	}
}

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"TRUE", true},
		{"true", true},
		{"The answer is TRUE.", true},
		{"FALSE", false},
		{"completely clean", false},
		{"", false},
	}
	for _, c := range cases {
		if got := parseVerdict(c.in); got != c.want {
			t.Fatalf("parseVerdict(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// --- Gemini ---

func geminiStub(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-goog-api-key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + verdict + `"}]}}]}`))
	}))
}

func TestGemini_ClassifyFlagged(t *testing.T) {
	srv := geminiStub(t, "TRUE")
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	flagged, err := g.Classify(context.Background(), "نص سيء")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !flagged {
		t.Fatal("expected flagged verdict")
	}
}

func TestGemini_ClassifyClean(t *testing.T) {
	srv := geminiStub(t, "FALSE")
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	flagged, err := g.Classify(context.Background(), "صباح الخير")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if flagged {
		t.Fatal("expected clean verdict")
	}
}

func TestGemini_ServerErrorReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	if _, err := g.Classify(context.Background(), "نص"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestGemini_EmptyResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}

	if _, err := g.Classify(context.Background(), "نص"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGemini_RequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(GeminiConfig{Logger: testLogger()}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

// --- OpenAI ---

func TestOpenAI_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"TRUE"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "key", APIBase: srv.URL, Logger: testLogger()})

	flagged, err := o.Classify(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !flagged {
		t.Fatal("expected flagged verdict")
	}
}

func TestOpenAI_EmptyChoicesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "key", APIBase: srv.URL, Logger: testLogger()})
	if _, err := o.Classify(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

// --- factory ---

func TestFactory_Gemini(t *testing.T) {
	c, err := New(config.ClassifierConfig{Provider: "gemini", APIKey: "k", TimeoutSeconds: 5}, testLogger())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if c.Name() != "gemini" {
		t.Fatalf("expected gemini, got %s", c.Name())
	}
}

func TestFactory_OpenAI(t *testing.T) {
	c, err := New(config.ClassifierConfig{Provider: "openai", APIKey: "k", TimeoutSeconds: 5}, testLogger())
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if c.Name() != "openai" {
		t.Fatalf("expected openai, got %s", c.Name())
	}
}

func TestFactory_Unknown(t *testing.T) {
	if _, err := New(config.ClassifierConfig{Provider: "magic"}, testLogger()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
