// middleware.go — определение языка пользователя.
// Приоритет: cookie "lang" → Accept-Language → DefaultLang.
package i18n

import (
	"net/http"
)

// LangCookieName — имя cookie с выбранным языком.
const LangCookieName = "lang"

// Middleware определяет язык и помещает его в контекст запроса.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := detectLanguage(r)
			ctx := WithLang(r.Context(), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLanguage(r *http.Request) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && Supported(cookie.Value) {
		return cookie.Value
	}

	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return MatchLanguage(accept)
	}

	return DefaultLang
}
