package i18n

import "net/http"

// Middleware injects a localizer into every request context. The language is
// negotiated from the Accept-Language header, or taken from the lang query
// parameter when present.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Accept-Language")
			if q := r.URL.Query().Get("lang"); q != "" {
				header = q
			}
			lang := Negotiate(header)
			w.Header().Set("Content-Language", lang)
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
