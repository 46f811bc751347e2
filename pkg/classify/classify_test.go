package classify

import (
	"testing"

	"github.com/pario-ai/promptsmith/pkg/models"
)

func TestCategory(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want models.Category
	}{
		{"code keyword", "write a python function to sort a list", models.CategoryCode},
		{"image keyword", "a photo of a cat in a garden", models.CategoryImage},
		{"video keyword", "a short video clip of waves", models.CategoryVideo},
		{"text keyword", "write an article about the sea", models.CategoryText},
		{"arabic image", "ارسم صورة لقطة في حديقة", models.CategoryImage},
		{"arabic code", "اكتب كود بايثون لترتيب قائمة", models.CategoryCode},
		{"no keywords", "tell me about a cat in a garden", models.CategoryText},
		{"extension fallback code", "fix main.go please", models.CategoryCode},
		{"extension fallback image", "make holiday.png nicer", models.CategoryImage},
		{"extension fallback video", "trim intro.mp4", models.CategoryVideo},
		{"empty", "", models.CategoryText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Category(tt.in); got != tt.want {
				t.Errorf("Category(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestCategoryTieBreak(t *testing.T) {
	// One image keyword and one video keyword: video is more specific.
	if got := Category("photo and video"); got != models.CategoryVideo {
		t.Errorf("expected video on tie, got %s", got)
	}
	// One code keyword and one text keyword: code wins.
	if got := Category("code essay"); got != models.CategoryCode {
		t.Errorf("expected code on tie, got %s", got)
	}
}

func TestCategoryHighestScoreWins(t *testing.T) {
	// Two image keywords beat one code keyword.
	if got := Category("a logo and a poster for my api"); got != models.CategoryImage {
		t.Errorf("expected image, got %s", got)
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want models.Language
	}{
		{"من أنت", models.LanguageArabic},
		{"who are you", models.LanguageEnglish},
		{"ارسم cat", models.LanguageArabic},
		{"draw a قطة please now", models.LanguageEnglish},
		{"12345", models.LanguageEnglish},
		{"", models.LanguageEnglish},
	}
	for _, tt := range tests {
		if got := Language(tt.in); got != tt.want {
			t.Errorf("Language(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
