// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/shelflife/internal/core"
)

const (
	UserIDKey contextKey = "user_id"
	ClaimsKey contextKey = "jwt_claims"
)

// AccessTokenClaims is what a verified bearer token carries into the
// request context.
type AccessTokenClaims struct {
	UserID       string
	Role         string
	Status       string
	FranchiseID  string
	TokenVersion int
	JTI          string
	ExpiresAt    time.Time
}

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error)
}

// TokenRevocationChecker reports blacklisted access tokens.
type TokenRevocationChecker interface {
	IsAccessTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Authenticator verifies the bearer token. When revocations is non-nil a
// token whose jti was blacklisted at sign-out is refused.
func Authenticator(
	verifier TokenVerifier,
	revocations TokenRevocationChecker,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, verifier, revocations)
			if err != nil {
				core.JSONError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func authenticate(
	r *http.Request,
	verifier TokenVerifier,
	revocations TokenRevocationChecker,
) (*AccessTokenClaims, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, core.UnauthorizedError("missing authorization token")
	}

	claims, err := verifier.VerifyAccessToken(r.Context(), token)
	if err != nil {
		return nil, tokenError(err)
	}

	if revocations == nil || claims.JTI == "" {
		return claims, nil
	}

	revoked, err := revocations.IsAccessTokenBlacklisted(r.Context(), claims.JTI)
	if err != nil {
		slog.WarnContext(r.Context(), "token blacklist check failed",
			"error", err,
			"user_id", claims.UserID,
		)
	}
	if revoked {
		return nil, core.TokenRevokedError()
	}
	return claims, nil
}

// ExtractToken returns the credential of a "Bearer" Authorization header.
func ExtractToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func tokenError(err error) error {
	switch {
	case core.IsAppError(err):
		return err
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	default:
		return core.TokenInvalidError()
	}
}

func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	claims, _ := ctx.Value(ClaimsKey).(*AccessTokenClaims)
	return claims
}

func withClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}
