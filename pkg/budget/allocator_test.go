package budget

import (
	"strings"
	"testing"

	"github.com/pario-ai/promptsmith/pkg/models"
)

func TestEstimateBounds(t *testing.T) {
	inputs := []string{
		"",
		"cat",
		"a cat in a garden",
		strings.Repeat("word ", 200),
		strings.Repeat("and, then; also! ", 50),
		"اكتب مقالاً عن البحر، ثم لخّصه.",
	}
	for _, in := range inputs {
		c := Estimate(in)
		if c < 0 || c > 1 {
			t.Errorf("Estimate(%q) = %f, out of [0,1]", in, c)
		}
	}
}

func TestEstimateContributions(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Errorf("empty input: got %f, want 0", got)
	}
	// 60 words saturate the word contribution.
	if got := Estimate(strings.Repeat("sea ", 60)); got != 0.5 {
		t.Errorf("60 words: got %f, want 0.5", got)
	}
	// 8 marks saturate punctuation; no words.
	if got := Estimate("!!!!????"); got != 0.3 {
		t.Errorf("8 marks: got %f, want 0.3", got)
	}
	plain := Estimate("cats dogs")
	withAnd := Estimate("cats and dogs")
	if withAnd-plain < conjunctionBonus-0.01 {
		t.Errorf("conjunction bonus missing: %f vs %f", withAnd, plain)
	}
	if Estimate("قطط و كلاب") <= Estimate("قطط كلاب") {
		t.Error("arabic conjunction should raise complexity")
	}
}

func TestAllocateBounds(t *testing.T) {
	a := New(nil, 0)
	for _, lang := range models.Languages {
		for _, cat := range models.Categories {
			base := a.Base(lang, cat)
			upper := int(float64(base) * 1.125)
			for _, c := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
				got := a.ForComplexity(lang, cat, c)
				if got < a.Minimum() || got > upper {
					t.Errorf("%s/%s c=%.2f: %d not in [%d,%d]", lang, cat, c, got, a.Minimum(), upper)
				}
			}
		}
	}
}

func TestAllocateMonotonic(t *testing.T) {
	a := New(nil, 0)
	for _, lang := range models.Languages {
		for _, cat := range models.Categories {
			prev := 0
			for i := 0; i <= 100; i++ {
				got := a.ForComplexity(lang, cat, float64(i)/100)
				if got < prev {
					t.Fatalf("%s/%s: budget decreased at c=%d%%: %d < %d", lang, cat, i, got, prev)
				}
				prev = got
			}
		}
	}
}

func TestAllocateEndpoints(t *testing.T) {
	a := New(nil, 0)
	if got := a.ForComplexity(models.LanguageEnglish, models.CategoryText, 0.5); got != 500 {
		t.Errorf("midpoint: got %d, want 500", got)
	}
	if got := a.ForComplexity(models.LanguageEnglish, models.CategoryText, 1); got != 562 {
		t.Errorf("max: got %d, want 562", got)
	}
	if got := a.ForComplexity(models.LanguageEnglish, models.CategoryText, 0); got != 437 {
		t.Errorf("min: got %d, want 437", got)
	}
}

func TestAllocateMinimumFloor(t *testing.T) {
	a := New(Table{models.LanguageEnglish: {models.CategoryImage: 50}}, 60)
	if got := a.ForComplexity(models.LanguageEnglish, models.CategoryImage, 0); got != 60 {
		t.Errorf("expected floor 60, got %d", got)
	}
}

func TestOverridesAndUnknownPair(t *testing.T) {
	a := New(Table{models.LanguageArabic: {models.CategoryCode: 1000}}, 0)
	if got := a.Base(models.LanguageArabic, models.CategoryCode); got != 1000 {
		t.Errorf("override: got %d, want 1000", got)
	}
	if got := a.Base(models.LanguageArabic, models.CategoryText); got != 600 {
		t.Errorf("default kept: got %d, want 600", got)
	}
	if got := a.Base(models.Language("fr"), models.CategoryText); got != DefaultBase {
		t.Errorf("unknown pair: got %d, want %d", got, DefaultBase)
	}
}

func TestAllocateUsesEstimate(t *testing.T) {
	a := New(nil, 0)
	short := a.Allocate(models.LanguageEnglish, models.CategoryText, "a cat")
	long := a.Allocate(models.LanguageEnglish, models.CategoryText,
		"Write a long story about a cat, and then a poem; also add a summary. "+strings.Repeat("more detail ", 30))
	if long <= short {
		t.Errorf("expected complex request to get more budget: %d <= %d", long, short)
	}
}

func TestTemperature(t *testing.T) {
	if Temperature(models.CategoryCode) >= Temperature(models.CategoryText) {
		t.Error("code should sample colder than text")
	}
	if Temperature(models.CategoryImage) != 0.8 {
		t.Errorf("image temperature: got %f", Temperature(models.CategoryImage))
	}
}
