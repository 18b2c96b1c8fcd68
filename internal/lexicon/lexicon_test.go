package lexicon

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"raqib/internal/normalize"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMatch_KnownBadWord(t *testing.T) {
	l := New()
	term, ok := l.Match(normalize.Normalize("انت كلب حقير"))
	if !ok {
		t.Fatal("expected match for كلب")
	}
	if term != "كلب" {
		t.Fatalf("expected term كلب, got %q", term)
	}
}

func TestMatch_Substring(t *testing.T) {
	l := New()
	// Embedded occurrence, no word boundary.
	if _, ok := l.Match(normalize.Normalize("ياكلبهذا")); !ok {
		t.Fatal("expected substring match")
	}
}

func TestMatch_CleanText(t *testing.T) {
	l := New()
	if term, ok := l.Match(normalize.Normalize("صباح الخير جميعا")); ok {
		t.Fatalf("unexpected match %q for clean text", term)
	}
}

func TestMatch_DiacriticEvasion(t *testing.T) {
	l := New()
	if _, ok := l.Match(normalize.Normalize("كَلْب")); !ok {
		t.Fatal("expected match after diacritic stripping")
	}
}

func TestMatch_Transliteration(t *testing.T) {
	l := New()
	if _, ok := l.Match(normalize.Normalize("you are KHARA")); !ok {
		t.Fatal("expected case-insensitive transliteration match")
	}
}

func TestExpand_VariantsAreMembers(t *testing.T) {
	l := New()
	for _, seed := range defaultSeeds() {
		for _, v := range Expand(seed) {
			if !l.Contains(v) {
				t.Fatalf("variant %q of seed %q is not a member", v, seed)
			}
		}
	}
}

func TestExpand_SpaceRemoval(t *testing.T) {
	l := New()
	// "ح م ا ر" seed must also be matchable with spaces removed.
	if !l.Contains("حمار") {
		t.Fatal("space-removed variant missing")
	}
}

func TestAddRemove(t *testing.T) {
	l := NewFromSeeds([]string{"كلب"})

	if added := l.Add("غبي"); added == 0 {
		t.Fatal("expected Add to insert terms")
	}
	if !l.Contains("غبي") {
		t.Fatal("added seed not a member")
	}
	if added := l.Add("غبي"); added != 0 {
		t.Fatalf("duplicate Add inserted %d terms", added)
	}

	if removed := l.Remove("غبي"); removed == 0 {
		t.Fatal("expected Remove to delete terms")
	}
	if l.Contains("غبي") {
		t.Fatal("removed seed still a member")
	}
}

func TestReplaceAll_Atomic(t *testing.T) {
	l := New()
	l.ReplaceAll([]string{"سيء"})
	if l.Contains("كلب") {
		t.Fatal("old term survived ReplaceAll")
	}
	if !l.Contains("سيء") {
		t.Fatal("new term missing after ReplaceAll")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	content := "name: extra\nwords:\n  - غبي\n  - \" \"\n  - ahbal\n"
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-YAML files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	seeds, err := LoadDir(dir, testLogger())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("expected 2 seeds, got %d: %v", len(seeds), seeds)
	}
}

func TestLoadDir_Missing(t *testing.T) {
	seeds, err := LoadDir(filepath.Join(t.TempDir(), "nope"), testLogger())
	if err != nil {
		t.Fatalf("missing dir must not error: %v", err)
	}
	if seeds != nil {
		t.Fatalf("expected nil seeds, got %v", seeds)
	}
}
