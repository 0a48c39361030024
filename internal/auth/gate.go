package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type identityKeyType struct{}

var identityKey identityKeyType

// Resolver inspects one credential source. Outcomes: (identity, nil) on
// success, (nil, nil) to pass the request to the next resolver, (nil, err) to
// stop the chain.
type Resolver interface {
	Resolve(r *http.Request) (*Identity, error)
}

// Gate authenticates requests by trying resolvers in order. Resolution only
// attaches identity to the context; it never mutates credentials.
type Gate struct {
	resolvers []Resolver
	log       *logger.Logger
}

func NewGate(log *logger.Logger, resolvers ...Resolver) *Gate {
	return &Gate{resolvers: resolvers, log: log}
}

func (g *Gate) Authenticate(r *http.Request) (*Identity, error) {
	for _, resolver := range g.resolvers {
		identity, err := resolver.Resolve(r)
		if err != nil {
			return nil, err
		}
		if identity != nil {
			metrics.AuthGateResolved.WithLabelValues(identity.Source).Inc()
			return identity, nil
		}
	}

	metrics.AuthGateRejected.WithLabelValues("no_credentials").Inc()

	return nil, commonerrors.ErrUnauthorized
}

// Require wraps a handler with authentication and an optional role check. The
// role check runs after identity resolution, and datastore timeouts surface
// as 504 rather than 401.
func (g *Gate) Require(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, err := g.Authenticate(r)
			if err != nil {
				g.writeReject(w, r, err)
				return
			}

			if len(roles) > 0 && !roleAllowed(identity.Role, roles) {
				metrics.AuthGateRejected.WithLabelValues("forbidden").Inc()
				commonhttp.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}

			next(w, r.WithContext(WithIdentity(r.Context(), identity)))
		}
	}
}

// Optional resolves identity when credentials are present but never rejects.
// Used by endpoints that behave differently for known users.
func (g *Gate) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.Authenticate(r)
		if err != nil {
			if de, ok := commonerrors.AsDomainError(err); ok && de.Category() == commonerrors.CategoryTimeout {
				commonhttp.WriteError(w, de.HTTPStatus(), de.Message())
				return
			}
			next(w, r)
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), identity)))
	}
}

func (g *Gate) writeReject(w http.ResponseWriter, r *http.Request, err error) {
	if de, ok := commonerrors.AsDomainError(err); ok {
		if de.Category() == commonerrors.CategoryTimeout {
			g.log.WithFields(r.Context(), logger.Fields{"path": r.URL.Path}).Error("auth gate datastore timeout")
		}
		commonhttp.WriteError(w, de.HTTPStatus(), de.Message())
		return
	}
	commonhttp.WriteError(w, http.StatusUnauthorized, "unauthorized")
}

func roleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok
}

// BearerResolver verifies an Authorization bearer JWT and resolves the
// embedded subject against the user store. A missing or malformed header
// passes the request on; a well-formed token with an unknown subject is a
// hard reject.
type BearerResolver struct {
	issuer *Issuer
	users  user.Repository
}

func NewBearerResolver(issuer *Issuer, users user.Repository) *BearerResolver {
	return &BearerResolver{issuer: issuer, users: users}
}

func (b *BearerResolver) Resolve(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, nil
	}

	userID, _, err := b.issuer.VerifyAccessToken(tokenString)
	if err != nil {
		// Invalid signature or expiry: fall through to the cookie path.
		metrics.AuthGateRejected.WithLabelValues("invalid_bearer").Inc()
		return nil, nil
	}

	u, err := b.users.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			metrics.AuthGateRejected.WithLabelValues("unknown_subject").Inc()
			return nil, commonerrors.ErrUnauthorized
		}
		return nil, err
	}

	return &Identity{UserID: u.ID, Role: u.Role, Source: SourceBearer}, nil
}

// CookieResolver authenticates via the refresh cookie. It only reads the
// token record; it does not rotate.
type CookieResolver struct {
	cookieName string
	tokens     TokenRepository
	users      user.Repository
}

func NewCookieResolver(cookieName string, tokens TokenRepository, users user.Repository) *CookieResolver {
	return &CookieResolver{cookieName: cookieName, tokens: tokens, users: users}
}

func (c *CookieResolver) Resolve(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	record, err := c.tokens.FindByTokenHash(r.Context(), crypto.HashToken(cookie.Value))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			metrics.AuthGateRejected.WithLabelValues("cookie_not_found").Inc()
			return nil, commonerrors.ErrUnauthorized
		}
		return nil, err
	}

	if record.State.Revoked {
		metrics.AuthGateRejected.WithLabelValues("cookie_revoked").Inc()
		return nil, commonerrors.ErrUnauthorized
	}
	if record.Expired(timeNow()) {
		metrics.AuthGateRejected.WithLabelValues("cookie_expired").Inc()
		return nil, commonerrors.ErrUnauthorized
	}

	u, err := c.users.FindByID(r.Context(), record.UserID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			return nil, commonerrors.ErrUnauthorized
		}
		return nil, err
	}

	return &Identity{UserID: u.ID, Role: u.Role, Source: SourceCookie}, nil
}
