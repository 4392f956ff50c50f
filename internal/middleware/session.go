package middleware

import (
	"net/http"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/auth"
)

// Session выдаёт клиенту подписанную куку и кладёт userID в контекст запроса.
func Session(a *auth.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := a.GetOrSetUserID(w, r)
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
