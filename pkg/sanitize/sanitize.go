// Package sanitize repairs upstream output that names a vendor or brand.
package sanitize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// Action reports what Clean did to a text.
type Action string

const (
	ActionNone     Action = "none"
	ActionReplaced Action = "replaced"
	ActionFallback Action = "fallback"
)

// MinLength is the shortest repaired output, in runes, still worth returning.
const MinLength = 20

// DefaultTokens are the vendor and brand names that must not reach a caller.
var DefaultTokens = []string{
	"chatgpt", "chat gpt", "openai", "open ai", "gpt-4o", "gpt-4", "gpt4o", "gpt4", "gpt 4",
	"gpt-3.5", "gpt-3", "gpt",
	"midjourney", "mid journey", "dall-e", "dall·e", "dalle", "dall e",
	"google", "bard", "gemini", "claude", "anthropic", "copilot",
	"شات جي بي تي", "تشات جي بي تي", "جي بي تي", "اوبن اي اي", "أوبن إيه آي",
	"جوجل", "غوغل", "قوقل", "جيميني", "كلود", "ميدجورني", "ميد جورني",
}

var neutral = map[models.Language]string{
	models.LanguageEnglish: "your preferred AI tool",
	models.LanguageArabic:  "أداة الذكاء الاصطناعي المفضلة لديك",
}

var fallback = map[models.Language]string{
	models.LanguageEnglish: "Professional prompt generated successfully. Please use it in your preferred AI tools.",
	models.LanguageArabic:  "تم توليد برومبت احترافي بنجاح. يرجى استخدامه في أدوات الذكاء الاصطناعي المفضلة لديك.",
}

// Filter rewrites disallowed tokens.
type Filter struct {
	token    *regexp.Regexp
	collapse *regexp.Regexp
}

// marker stands in for a removed token until runs are collapsed.
const marker = "\x00"

// New builds a filter for tokens. A run of tokens joined by commas, slashes
// or "and"/"or" ("ChatGPT, Claude or Gemini") collapses to one phrase.
func New(tokens ...string) *Filter {
	toks := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			toks = append(toks, regexp.QuoteMeta(t))
		}
	}
	if len(toks) == 0 {
		return &Filter{}
	}
	// Longest first so "chatgpt" wins over "gpt".
	sort.SliceStable(toks, func(i, j int) bool { return len(toks[i]) > len(toks[j]) })
	sep := `(?:\s*(?:,|/|&|\band\b|\bor\b|أو|او|و)\s*)`
	return &Filter{
		token:    regexp.MustCompile(`(?i)(?:` + strings.Join(toks, "|") + `)`),
		collapse: regexp.MustCompile(`\x00(?:` + sep + `\x00)*`),
	}
}

// Default returns a filter over DefaultTokens.
func Default() *Filter {
	return New(DefaultTokens...)
}

// Clean replaces every disallowed token in text with a neutral phrase in
// lang. When the repaired text is too short to be useful the whole text is
// replaced with a fixed message instead. Clean never fails.
func (f *Filter) Clean(text string, lang models.Language) (string, Action) {
	text = strings.TrimSpace(strings.ReplaceAll(text, marker, ""))
	if text == "" {
		return fallbackFor(lang), ActionFallback
	}
	locs := f.find(text)
	if len(locs) == 0 {
		return text, ActionNone
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(text[last:loc[0]])
		b.WriteString(marker)
		last = loc[1]
	}
	b.WriteString(text[last:])

	marked := b.String()

	// Judge what is left of the original, not the padding we add.
	if utf8.RuneCountInString(strings.TrimSpace(strings.ReplaceAll(marked, marker, ""))) < MinLength {
		return fallbackFor(lang), ActionFallback
	}
	phrase := neutral[lang]
	if phrase == "" {
		phrase = neutral[models.LanguageEnglish]
	}
	return strings.TrimSpace(f.collapse.ReplaceAllLiteralString(marked, phrase)), ActionReplaced
}

// Contains reports whether text holds any disallowed token.
func (f *Filter) Contains(text string) bool {
	return len(f.find(text)) > 0
}

// find returns the token matches that start a word. A match takes the rest
// of its word with it, so "ChatGPTs", "Claude3" and "MidjourneyV6" go whole.
func (f *Filter) find(text string) [][]int {
	if f == nil || f.token == nil {
		return nil
	}
	var locs [][]int
	end := 0
	for _, loc := range f.token.FindAllStringIndex(text, -1) {
		if loc[0] < end || !boundaryBefore(text, loc[0]) {
			continue
		}
		end = wordEnd(text, loc[1])
		locs = append(locs, []int{loc[0], end})
	}
	return locs
}

func fallbackFor(lang models.Language) string {
	if msg, ok := fallback[lang]; ok {
		return msg
	}
	return fallback[models.LanguageEnglish]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// arabicPrefixes attach directly to the next word ("وكلود", "بجوجل").
var arabicPrefixes = map[rune]bool{'و': true, 'ب': true, 'ل': true, 'ف': true, 'ك': true}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(s[:i])
	if !isWordRune(r) {
		return true
	}
	if !arabicPrefixes[r] {
		return false
	}
	if i-size == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i-size])
	return !isWordRune(prev)
}

// wordEnd returns the end of the word running through s[i-1].
func wordEnd(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	return i
}
