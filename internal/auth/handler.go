package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/config"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

const refreshTokenHeader = "X-Refresh-Token"

// Handler exposes the OAuth login flow and the credential endpoints.
type Handler struct {
	service   *Service
	issuer    *Issuer
	users     user.Repository
	gate      *Gate
	providers map[string]OAuthProvider
	state     *StateSigner
	cookieCfg config.CookieConfig
	log       *logger.Logger
}

func NewHandler(service *Service, issuer *Issuer, users user.Repository, gate *Gate, providers []OAuthProvider, state *StateSigner, cookieCfg config.CookieConfig, log *logger.Logger) *Handler {
	byName := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Handler{
		service:   service,
		issuer:    issuer,
		users:     users,
		gate:      gate,
		providers: byName,
		state:     state,
		cookieCfg: cookieCfg,
		log:       log,
	}
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	for name := range h.providers {
		mux.HandleFunc("GET /auth/"+name, h.handleBegin(name))
		mux.HandleFunc("GET /auth/"+name+"/callback", wrap(h.handleCallback(name)))
	}
	mux.HandleFunc("GET /auth/failure", h.handleFailure)
	mux.HandleFunc("POST /auth/refresh", wrap(h.handleRefresh))
	mux.HandleFunc("POST /auth/logout", wrap(h.handleLogout))
	mux.HandleFunc("GET /api/me", wrap(h.gate.Require()(h.handleMe)))
}

func (h *Handler) handleBegin(providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := h.providers[providerName]

		state, err := h.state.Sign(r.URL.Query().Get("callback"))
		if err != nil {
			commonhttp.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}

		http.Redirect(w, r, provider.AuthURL(state), http.StatusFound)
	}
}

func (h *Handler) handleCallback(providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := h.providers[providerName]

		if errParam := r.URL.Query().Get("error"); errParam != "" {
			http.Redirect(w, r, "/auth/failure", http.StatusFound)
			return
		}

		callback, err := h.state.Verify(r.URL.Query().Get("state"))
		if err != nil {
			commonhttp.WriteDomainError(w, err)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			commonhttp.WriteError(w, http.StatusBadRequest, "missing authorization code")
			return
		}

		profile, err := provider.Exchange(r.Context(), code)
		if err != nil {
			h.log.WithFields(r.Context(), logger.Fields{
				"provider": providerName,
			}).Errorf("oauth exchange failed: %v", err)
			http.Redirect(w, r, "/auth/failure", http.StatusFound)
			return
		}

		u, creds, err := h.service.Login(r.Context(), profile, clientMeta(r))
		if err != nil {
			commonhttp.WriteDomainError(w, err)
			return
		}

		SetRefreshCookie(w, h.cookieCfg, creds.RefreshToken, creds.RefreshExpires)

		if callback != "" {
			redirect := callback
			if strings.Contains(redirect, "?") {
				redirect += "&token=" + url.QueryEscape(creds.AccessToken)
			} else {
				redirect += "?token=" + url.QueryEscape(creds.AccessToken)
			}
			http.Redirect(w, r, redirect, http.StatusFound)
			return
		}

		commonhttp.WriteJSON(w, http.StatusOK, map[string]any{
			"accessToken": creds.AccessToken,
			"user": map[string]string{
				"id":     u.ID,
				"email":  u.Email,
				"name":   u.Name,
				"avatar": u.Avatar,
				"role":   u.Role,
			},
		})
	}
}

func (h *Handler) handleFailure(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteError(w, http.StatusUnauthorized, "authentication failed")
}

// handleRefresh rotates the presented refresh token. The token comes from the
// cookie or, for non-browser clients, the X-Refresh-Token header. When a
// valid bearer accompanies the request its subject must match the token's
// owner.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	plaintext := h.presentedToken(r)
	if plaintext == "" {
		commonhttp.WriteError(w, http.StatusUnauthorized, "No refresh token provided")
		return
	}

	expectedUserID := ""
	if header := r.Header.Get("Authorization"); header != "" {
		if tokenString, ok := strings.CutPrefix(header, "Bearer "); ok {
			if sub, _, err := h.issuer.VerifyAccessToken(tokenString); err == nil {
				expectedUserID = sub
			}
		}
	}

	creds, err := h.service.Refresh(r.Context(), plaintext, expectedUserID, clientMeta(r))
	if err != nil {
		if reason := RejectionReason(err); reason != "" {
			de, _ := commonerrors.AsDomainError(err)
			commonhttp.WriteErrorWithReason(w, de.HTTPStatus(), de.Message(), reason)
			return
		}
		commonhttp.WriteDomainError(w, err)
		return
	}

	SetRefreshCookie(w, h.cookieCfg, creds.RefreshToken, creds.RefreshExpires)
	commonhttp.WriteJSON(w, http.StatusOK, map[string]string{
		"accessToken": creds.AccessToken,
	})
}

// handleLogout revokes the presented token and clears the cookie. The reply
// is {ok:true} whether or not a token was present, so the response shape
// leaks nothing about server-side state.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), h.presentedToken(r)); err != nil {
		// Logout never fails from the client's perspective: the cookie is
		// cleared either way and the response shape stays constant.
		h.log.WithFields(r.Context(), nil).Errorf("logout revoke failed: %v", err)
	}

	ClearRefreshCookie(w, h.cookieCfg)
	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	u, err := h.users.FindByID(r.Context(), identity.UserID)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]string{
		"id":       u.ID,
		"provider": u.Provider,
		"email":    u.Email,
		"name":     u.Name,
		"avatar":   u.Avatar,
		"role":     u.Role,
	})
}

func (h *Handler) presentedToken(r *http.Request) string {
	if cookie, err := r.Cookie(h.cookieCfg.Name); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(refreshTokenHeader)
}

func clientMeta(r *http.Request) ClientMeta {
	return ClientMeta{
		IP:          commonhttp.GetClientIP(r),
		UserAgent:   r.UserAgent(),
		Fingerprint: r.Header.Get("X-Device-Fingerprint"),
	}
}
