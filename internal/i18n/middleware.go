package i18n

import "net/http"

// Middleware injects a localizer into every request context. The
// request's Accept-Language header is preferred, falling back to the
// configured default language.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			langs := []string{defaultLang}
			if accept := r.Header.Get("Accept-Language"); accept != "" {
				langs = []string{accept, defaultLang}
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(langs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
