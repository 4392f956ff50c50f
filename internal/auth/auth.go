package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	CookieName   = "pptxgen_session"
	cookieMaxAge = 365 * 24 * 60 * 60 // 1 год
)

type ctxKey struct{}

// Auth выдаёт анонимным клиентам подписанный идентификатор в куке.
type Auth struct {
	SecretKey string
}

func New(secret string) *Auth {
	return &Auth{SecretKey: secret}
}

// Создать подпись
func (a *Auth) sign(userID string) string {
	mac := hmac.New(sha256.New, []byte(a.SecretKey))
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignCookieValue возвращает значение куки вида userID:signature.
func (a *Auth) SignCookieValue(userID string) string {
	return userID + ":" + a.sign(userID)
}

// parse проверяет значение куки и возвращает userID.
func (a *Auth) parse(value string) (string, bool) {
	userID, sig, ok := strings.Cut(value, ":")
	if !ok || userID == "" {
		return "", false
	}
	if !hmac.Equal([]byte(a.sign(userID)), []byte(sig)) {
		return "", false
	}
	return userID, true
}

func (a *Auth) issueCookie(w http.ResponseWriter) string {
	userID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    a.SignCookieValue(userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   cookieMaxAge,
	})
	return userID
}

// GetOrSetUserID возвращает userID из корректной куки или выдаёт новую.
func (a *Auth) GetOrSetUserID(w http.ResponseWriter, r *http.Request) string {
	if userID, ok := a.ValidateUserID(r); ok {
		return userID
	}
	return a.issueCookie(w)
}

// ValidateUserID проверяет куку, не выдавая новую.
func (a *Auth) ValidateUserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return a.parse(cookie.Value)
}

// WithUserID кладёт userID в контекст запроса.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID достаёт userID из контекста.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKey{}).(string)
	return userID
}
