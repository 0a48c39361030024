package auth

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/config"
)

func sameSiteMode(value string) http.SameSite {
	switch value {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetRefreshCookie writes the refresh token cookie. Path is "/" so the cookie
// accompanies both the refresh endpoint and the auth gate fallback.
func SetRefreshCookie(w http.ResponseWriter, cfg config.CookieConfig, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: sameSiteMode(cfg.SameSite),
	})
}

func ClearRefreshCookie(w http.ResponseWriter, cfg config.CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: sameSiteMode(cfg.SameSite),
	})
}
