package wordlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilterEnglishASCII(t *testing.T) {
	filter := FilterForLang("en")
	if !filter("hello") {
		t.Fatalf("expected hello to pass english filter")
	}
	for _, word := range []string{"résumé", "naïve", "don’t", "co-op", ""} {
		if filter(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterOtherLangsKeepsLetters(t *testing.T) {
	filter := FilterForLang("de")
	for _, word := range []string{"straße", "grüße", "éte"} {
		if !filter(word) {
			t.Fatalf("expected %q to pass", word)
		}
	}
	if filter("co-op") || filter("abc1") {
		t.Fatalf("expected non-letters to be rejected")
	}
}

func TestBundledLists(t *testing.T) {
	langs, err := Langs()
	if err != nil {
		t.Fatalf("Langs failed: %v", err)
	}
	if len(langs) != 2 || langs[0] != "de" || langs[1] != "en" {
		t.Fatalf("unexpected langs: %v", langs)
	}
	words, err := Load("", "en")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(words) < 100 {
		t.Fatalf("expected a sizeable bundled list, got %d words", len(words))
	}
	quotes, err := Quotes()
	if err != nil || len(quotes) == 0 {
		t.Fatalf("expected bundled quotes, got %v (%v)", quotes, err)
	}
	if _, err := Builtin("xx"); !errors.Is(err, ErrUnknownLang) {
		t.Fatalf("expected ErrUnknownLang, got %v", err)
	}
	if _, err := Builtin("quotes"); !errors.Is(err, ErrUnknownLang) {
		t.Fatalf("expected quotes to be excluded, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("alpha\n\n Beta \ngamma\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := Load(path, "en")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(words) != 2 || words[0] != "alpha" || words[1] != "gamma" {
		t.Fatalf("unexpected words: %v", words)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWords(empty); err == nil {
		t.Fatalf("expected error for empty list")
	}
}
