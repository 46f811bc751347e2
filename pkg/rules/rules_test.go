package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/pario-ai/promptsmith/pkg/models"
)

func TestDefaultIdentityArabic(t *testing.T) {
	e := Default()
	m, ok := e.Match("من أنت؟", models.LanguageArabic)
	if !ok {
		t.Fatal("expected identity rule to match")
	}
	if m.Rule != "identity" {
		t.Errorf("expected identity rule, got %s", m.Rule)
	}
	if !strings.Contains(m.Response, ServiceName) {
		t.Errorf("expected response to name the service, got %q", m.Response)
	}
	if m.Category != models.CategoryText {
		t.Errorf("expected text category, got %s", m.Category)
	}
}

func TestDefaultIdentityNeverNamesVendor(t *testing.T) {
	e := Default()
	vendors := []string{"chatgpt", "openai", "gpt", "claude", "anthropic", "gemini", "google"}
	for _, q := range []string{"Who are you?", "are you ChatGPT", "What model are you?", "من صنعك"} {
		for _, lang := range models.Languages {
			m, ok := e.Match(q, lang)
			if !ok {
				t.Fatalf("expected %q to match", q)
			}
			lower := strings.ToLower(m.Response)
			for _, v := range vendors {
				if strings.Contains(lower, v) {
					t.Errorf("response to %q in %s mentions %q", q, lang, v)
				}
			}
		}
	}
}

func TestMatchDeterministic(t *testing.T) {
	e := Default()
	first, ok := e.Match("WHO ARE YOU", models.LanguageEnglish)
	if !ok {
		t.Fatal("expected match")
	}
	for i := 0; i < 10; i++ {
		got, _ := e.Match("who are you", models.LanguageEnglish)
		if got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestFirstMatchWins(t *testing.T) {
	e, err := New(
		Rule{
			Name:      "first",
			Kind:      Keyword,
			Patterns:  []string{"hello"},
			Responses: map[models.Language]string{models.LanguageEnglish: "one", models.LanguageArabic: "واحد"},
		},
		Rule{
			Name:      "second",
			Kind:      Keyword,
			Patterns:  []string{"hello world"},
			Responses: map[models.Language]string{models.LanguageEnglish: "two", models.LanguageArabic: "اثنان"},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := e.Match("hello world", models.LanguageEnglish)
	if !ok || m.Rule != "first" || m.Response != "one" {
		t.Errorf("expected first rule, got %+v (ok=%v)", m, ok)
	}
}

func TestKeywordWholeWord(t *testing.T) {
	e := MustNew(Rule{
		Name:      "cat",
		Kind:      Keyword,
		Patterns:  []string{"cat"},
		Responses: map[models.Language]string{models.LanguageEnglish: "meow", models.LanguageArabic: "مياو"},
	})
	if _, ok := e.Match("concatenate strings", models.LanguageEnglish); ok {
		t.Error("keyword should not match inside a word")
	}
	if _, ok := e.Match("my cat, again!", models.LanguageEnglish); !ok {
		t.Error("keyword should match a whole word")
	}
}

func TestRegexTopic(t *testing.T) {
	e := Default()
	m, ok := e.Match("Write an email template for a job interview", models.LanguageEnglish)
	if !ok {
		t.Fatal("expected email-template rule to match")
	}
	if m.Rule != "email-template" {
		t.Fatalf("expected email-template, got %s", m.Rule)
	}
	if !strings.HasPrefix(m.Response, "Subject: a job interview") {
		t.Errorf("topic not interpolated: %q", m.Response)
	}
	if strings.Contains(m.Response, topicPlaceholder) {
		t.Errorf("placeholder left in response: %q", m.Response)
	}
}

func TestRegexTopicKeepsOriginalText(t *testing.T) {
	e := Default()
	m, ok := e.Match("Write an email template for the Q3 Report: Sales & Hiring.", models.LanguageEnglish)
	if !ok {
		t.Fatal("expected email-template rule to match")
	}
	if !strings.HasPrefix(m.Response, "Subject: the Q3 Report: Sales & Hiring\n") {
		t.Errorf("topic should keep its casing and punctuation: %q", m.Response)
	}

	m, ok = e.Match("اكتب قالب بريد عن اجتماعُ الفريق", models.LanguageArabic)
	if !ok {
		t.Fatal("expected Arabic email-template rule to match")
	}
	if !strings.HasPrefix(m.Response, "الموضوع: اجتماعُ الفريق\n") {
		t.Errorf("topic should keep its diacritics: %q", m.Response)
	}
}

func TestCategoryFallsBackToClassifier(t *testing.T) {
	e := MustNew(Rule{
		Name:      "logo",
		Kind:      Keyword,
		Patterns:  []string{"brand mark"},
		Responses: map[models.Language]string{models.LanguageEnglish: "ok", models.LanguageArabic: "حسنا"},
	})
	m, ok := e.Match("a brand mark logo", models.LanguageEnglish)
	if !ok {
		t.Fatal("expected match")
	}
	if m.Category != models.CategoryImage {
		t.Errorf("expected classifier category image, got %s", m.Category)
	}
}

func TestNoMatch(t *testing.T) {
	e := Default()
	if m, ok := e.Match("a cinematic drone shot over the desert at sunset", models.LanguageEnglish); ok {
		t.Errorf("unexpected match %+v", m)
	}
	if _, ok := e.Match("   ", models.LanguageEnglish); ok {
		t.Error("blank text should not match")
	}
	var nilEngine *Engine
	if _, ok := nilEngine.Match("who are you", models.LanguageEnglish); ok {
		t.Error("nil engine should not match")
	}
}

func TestNewValidation(t *testing.T) {
	both := map[models.Language]string{models.LanguageEnglish: "x", models.LanguageArabic: "س"}
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty name", []Rule{{Kind: Keyword, Patterns: []string{"a"}, Responses: both}}},
		{"duplicate name", []Rule{
			{Name: "a", Kind: Keyword, Patterns: []string{"a"}, Responses: both},
			{Name: "a", Kind: Keyword, Patterns: []string{"b"}, Responses: both},
		}},
		{"no patterns", []Rule{{Name: "a", Kind: Keyword, Responses: both}}},
		{"missing language", []Rule{{Name: "a", Kind: Keyword, Patterns: []string{"a"},
			Responses: map[models.Language]string{models.LanguageEnglish: "x"}}}},
		{"blank keyword", []Rule{{Name: "a", Kind: Keyword, Patterns: []string{"?!"}, Responses: both}}},
		{"bad regex", []Rule{{Name: "a", Kind: Regex, Patterns: []string{"("}, Responses: both}}},
		{"unknown kind", []Rule{{Name: "a", Kind: Kind(9), Patterns: []string{"a"}, Responses: both}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.rules...)
			if !errors.Is(err, ErrInvalidRule) {
				t.Errorf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestDefaultCompiles(t *testing.T) {
	e := Default()
	if e.Len() != len(DefaultRules()) {
		t.Errorf("expected %d rules, got %d", len(DefaultRules()), e.Len())
	}
}
