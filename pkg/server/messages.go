package server

import (
	"errors"
	"net/http"

	"github.com/pario-ai/promptsmith/pkg/models"
	"github.com/pario-ai/promptsmith/pkg/resolver"
)

type message map[models.Language]string

var (
	msgEmpty = message{
		models.LanguageEnglish: "Please enter text!",
		models.LanguageArabic:  "الرجاء إدخال نص!",
	}
	msgBadRequest = message{
		models.LanguageEnglish: "Invalid request. Check the text, type and language fields.",
		models.LanguageArabic:  "طلب غير صالح. تحقق من حقول النص والنوع واللغة.",
	}
	msgBusy = message{
		models.LanguageEnglish: "Sorry, service is busy. Try again shortly.",
		models.LanguageArabic:  "عذراً، الخدمة مشغولة حالياً. حاول بعد قليل.",
	}
	msgMisconfigured = message{
		models.LanguageEnglish: "Service configuration error. Please contact support.",
		models.LanguageArabic:  "خطأ في إعداد الخدمة. يرجى التواصل مع الدعم.",
	}
	msgGeneric = message{
		models.LanguageEnglish: "Sorry, an error occurred. Please try again.",
		models.LanguageArabic:  "عذراً، حدث خطأ. حاول لاحقاً.",
	}
)

func (m message) in(lang models.Language) string {
	if s, ok := m[lang]; ok {
		return s
	}
	return m[models.LanguageEnglish]
}

// statusFor maps a resolver error to an HTTP status and a neutral message.
// Internal detail stays in the logs.
func statusFor(err error) (int, message) {
	switch {
	case errors.Is(err, resolver.ErrInvalidInput):
		return http.StatusBadRequest, msgEmpty
	case errors.Is(err, resolver.ErrUpstreamThrottled):
		return http.StatusTooManyRequests, msgBusy
	case errors.Is(err, resolver.ErrUpstreamAuth):
		return http.StatusInternalServerError, msgMisconfigured
	default:
		return http.StatusBadGateway, msgGeneric
	}
}
