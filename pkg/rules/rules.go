// Package rules short-circuits requests that have a deterministic canned answer.
//
// A rule table is an ordered list of predicates evaluated top to bottom over
// the normalized request text; the first match wins. Rules are checked before
// any cache lookup and their answers are never cached.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pario-ai/promptsmith/pkg/classify"
	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/textnorm"
)

// Kind selects how a rule's patterns are matched.
type Kind int

const (
	// Keyword matches when a pattern occurs as a whole-word phrase.
	Keyword Kind = iota
	// Regex matches when a pattern's expression matches.
	Regex
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// topicPlaceholder is replaced with the regex capture group named "topic".
const topicPlaceholder = "{topic}"

// Rule is one predicate → response entry.
type Rule struct {
	Name string
	Kind Kind
	// Patterns are phrases for Keyword rules, expressions for Regex rules.
	// Both are written against normalized text.
	Patterns []string
	// Responses holds the answer template per language.
	Responses map[models.Language]string
	// Category tags the answer. Empty means "use the classifier".
	Category models.Category
}

// Match is the result of a successful short-circuit.
type Match struct {
	Rule     string
	Response string
	Category models.Category
}

type compiledRule struct {
	Rule
	phrases []string
	exprs   []*regexp.Regexp
}

// Engine evaluates an ordered rule table.
type Engine struct {
	rules []compiledRule
}

// ErrInvalidRule is returned by New for a malformed rule table.
var ErrInvalidRule = errors.New("invalid rule")

// New compiles rules in order. Every rule needs a unique name, at least one
// pattern and a response for each supported language.
func New(rules ...Rule) (*Engine, error) {
	seen := make(map[string]bool, len(rules))
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Name == "" || seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate or empty name %q", ErrInvalidRule, r.Name)
		}
		seen[r.Name] = true
		if len(r.Patterns) == 0 {
			return nil, fmt.Errorf("%w: %s has no patterns", ErrInvalidRule, r.Name)
		}
		for _, lang := range models.Languages {
			if r.Responses[lang] == "" {
				return nil, fmt.Errorf("%w: %s has no %s response", ErrInvalidRule, r.Name, lang)
			}
		}

		cr := compiledRule{Rule: r}
		switch r.Kind {
		case Keyword:
			for _, p := range r.Patterns {
				norm := textnorm.Normalize(p)
				if norm == "" {
					return nil, fmt.Errorf("%w: %s has an empty pattern", ErrInvalidRule, r.Name)
				}
				cr.phrases = append(cr.phrases, " "+norm+" ")
			}
		case Regex:
			for _, p := range r.Patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.Name, err)
				}
				cr.exprs = append(cr.exprs, re)
			}
		default:
			return nil, fmt.Errorf("%w: %s has unknown kind %d", ErrInvalidRule, r.Name, r.Kind)
		}
		compiled = append(compiled, cr)
	}
	return &Engine{rules: compiled}, nil
}

// MustNew is like New but panics on a malformed table.
func MustNew(rules ...Rule) *Engine {
	e, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return e
}

// Match returns the first rule matching raw. The response is rendered in lang.
func (e *Engine) Match(raw string, lang models.Language) (Match, bool) {
	if e == nil {
		return Match{}, false
	}
	norm := textnorm.Normalize(raw)
	if norm == "" {
		return Match{}, false
	}
	padded := " " + norm + " "

	for _, r := range e.rules {
		topic, ok := r.match(norm, padded)
		if !ok {
			continue
		}
		tmpl := r.Responses[lang]
		if tmpl == "" {
			tmpl = r.Responses[models.LanguageEnglish]
		}
		cat := r.Category
		if cat == "" {
			cat = classify.Category(raw)
		}
		return Match{
			Rule:     r.Name,
			Response: render(tmpl, rawSpan(raw, topic)),
			Category: cat,
		}, true
	}
	return Match{}, false
}

// Len returns the number of rules in the table.
func (e *Engine) Len() int {
	return len(e.rules)
}

func (r *compiledRule) match(norm, padded string) (topic string, ok bool) {
	switch r.Kind {
	case Keyword:
		for _, p := range r.phrases {
			if strings.Contains(padded, p) {
				return "", true
			}
		}
	case Regex:
		for _, re := range r.exprs {
			m := re.FindStringSubmatch(norm)
			if m == nil {
				continue
			}
			if i := re.SubexpIndex("topic"); i > 0 && i < len(m) {
				topic = strings.TrimSpace(m[i])
			}
			return topic, true
		}
	}
	return "", false
}

// rawSpan returns the stretch of raw whose words normalize to topic, so the
// caller's casing and inner punctuation survive. Falls back to topic.
func rawSpan(raw, topic string) string {
	want := textnorm.Tokens(topic)
	if len(want) == 0 {
		return topic
	}

	type word struct {
		start, end int
		norm       string
	}
	var words []word
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if n := textnorm.Normalize(raw[start:end]); n != "" {
			words = append(words, word{start, end, n})
		}
		start = -1
	}
	for i, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(raw))

outer:
	for i := 0; i+len(want) <= len(words); i++ {
		for j, w := range want {
			if words[i+j].norm != w {
				continue outer
			}
		}
		return raw[words[i].start:words[i+len(want)-1].end]
	}
	return topic
}

func render(tmpl, topic string) string {
	if !strings.Contains(tmpl, topicPlaceholder) {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, topicPlaceholder, topic)
}
