// Package classify infers the task category and language of a request.
// Its output is advisory: callers may override either value.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pario-ai/promptsmith/pkg/models"
)

// keywords holds the scoring vocabulary per category. English entries are
// matched as whole words, Arabic entries as substrings because Arabic attaches
// prefixes (ال, و, ب) directly to the word.
var keywords = map[models.Category]struct {
	en []string
	ar []string
}{
	models.CategoryCode: {
		en: []string{"code", "function", "script", "program", "python", "javascript", "golang", "java", "sql", "api", "algorithm", "bug", "debug", "class", "compile", "regex", "html", "css"},
		ar: []string{"كود", "برمج", "دالة", "دالّة", "خوارزمي", "سكربت", "بايثون", "جافا", "شيفرة"},
	},
	models.CategoryVideo: {
		en: []string{"video", "clip", "animation", "animate", "film", "movie", "footage", "scene", "cinematic", "reel", "trailer"},
		ar: []string{"فيديو", "مقطع", "فلم", "فيلم", "أنيميشن", "انيميشن", "تحريك", "مشهد", "سينمائي"},
	},
	models.CategoryImage: {
		en: []string{"image", "picture", "photo", "draw", "drawing", "painting", "illustration", "logo", "poster", "portrait", "wallpaper", "sketch", "render"},
		ar: []string{"صورة", "صوره", "رسم", "ارسم", "لوحة", "شعار", "بوستر", "خلفية", "تصميم"},
	},
	models.CategoryText: {
		en: []string{"write", "article", "essay", "story", "blog", "email", "letter", "summary", "summarize", "post", "poem", "text"},
		ar: []string{"اكتب", "مقال", "قصة", "قصيدة", "رسالة", "ملخص", "تلخيص", "منشور", "نص"},
	},
}

var extensionRe = regexp.MustCompile(`\.([a-z0-9]{1,5})\b`)

var extensions = map[string]models.Category{
	"py": models.CategoryCode, "go": models.CategoryCode, "js": models.CategoryCode,
	"ts": models.CategoryCode, "java": models.CategoryCode, "rb": models.CategoryCode,
	"rs": models.CategoryCode, "cpp": models.CategoryCode, "c": models.CategoryCode,
	"cs": models.CategoryCode, "php": models.CategoryCode, "sh": models.CategoryCode,
	"sql": models.CategoryCode, "html": models.CategoryCode, "css": models.CategoryCode,
	"mp4": models.CategoryVideo, "mov": models.CategoryVideo, "avi": models.CategoryVideo,
	"mkv": models.CategoryVideo, "webm": models.CategoryVideo, "gif": models.CategoryVideo,
	"png": models.CategoryImage, "jpg": models.CategoryImage, "jpeg": models.CategoryImage,
	"webp": models.CategoryImage, "svg": models.CategoryImage, "bmp": models.CategoryImage,
	"txt": models.CategoryText, "md": models.CategoryText, "doc": models.CategoryText,
	"docx": models.CategoryText, "pdf": models.CategoryText,
}

// Category scores each category by keyword occurrences in raw and returns the
// highest scorer. Ties go to the more specific category (code, video, image,
// text). With no keyword hits it falls back to file extensions, then Text.
func Category(raw string) models.Category {
	lowered := strings.ToLower(raw)
	words := wordCounts(lowered)

	best := models.CategoryText
	bestScore := 0
	for _, cat := range models.Categories {
		kw := keywords[cat]
		score := 0
		for _, w := range kw.en {
			score += words[w]
		}
		for _, w := range kw.ar {
			score += strings.Count(lowered, w)
		}
		// Categories are iterated in priority order, so strict > keeps the
		// more specific category on ties.
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	if bestScore > 0 {
		return best
	}

	if cat, ok := byExtension(lowered); ok {
		return cat
	}
	return models.CategoryText
}

func byExtension(lowered string) (models.Category, bool) {
	for _, m := range extensionRe.FindAllStringSubmatch(lowered, -1) {
		if cat, ok := extensions[m[1]]; ok {
			return cat, true
		}
	}
	return "", false
}

func wordCounts(lowered string) map[string]int {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		counts[w]++
	}
	return counts
}

// Language returns Arabic when most letters in raw are Arabic script and
// English otherwise.
func Language(raw string) models.Language {
	var arabic, other int
	for _, r := range raw {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		} else {
			other++
		}
	}
	if arabic > 0 && arabic >= other {
		return models.LanguageArabic
	}
	return models.LanguageEnglish
}
