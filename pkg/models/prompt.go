package models

import "fmt"

// Category is the task kind a request is destined for.
type Category string

const (
	CategoryText  Category = "text"
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryCode  Category = "code"
)

// Categories lists every category in tie-break priority order (most specific first).
var Categories = []Category{CategoryCode, CategoryVideo, CategoryImage, CategoryText}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryText, CategoryImage, CategoryVideo, CategoryCode:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Language is the language a request is written in and answered in.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
)

// Languages lists every supported language.
var Languages = []Language{LanguageArabic, LanguageEnglish}

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case LanguageArabic, LanguageEnglish:
		return l, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// PromptRequest is an inbound request to generate a prompt.
// Category and Language are optional; zero values mean "infer".
type PromptRequest struct {
	Text     string   `json:"text"`
	Category Category `json:"category,omitempty"`
	Language Language `json:"language,omitempty"`
}

// PromptResponse is the resolved answer handed back to the transport layer.
type PromptResponse struct {
	Category  Category `json:"category"`
	Language  Language `json:"language"`
	Text      string   `json:"prompt"`
	Cached    bool     `json:"cached"`
	RuleBased bool     `json:"rule_based"`
}
