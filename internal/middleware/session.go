// AngelaMos | 2026
// session.go

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/carterperez-dev/shelflife/internal/access"
	"github.com/carterperez-dev/shelflife/internal/core"
)

const ActorKey contextKey = "actor"

type ActorLoader interface {
	LoadActor(ctx context.Context, userID string) (*access.Actor, error)
}

// Session turns verified token claims into an access.Actor built from the
// stored profile. It must run after Authenticator.
func Session(loader ActorLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			actor, err := loader.LoadActor(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(w, core.UnauthorizedError("profile not found"))
					return
				}
				core.InternalServerError(w, err)
				return
			}

			if claims.TokenVersion < actor.TokenVersion {
				core.JSONError(w, core.TokenRevokedError())
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require guards a route with a protection level. A pending user gets the
// pending approval response on every level above LevelAuthenticated.
func Require(level access.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch access.Check(GetActor(r.Context()), level) {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.Unauthenticated:
				core.JSONError(w, core.UnauthorizedError(""))
			case access.Pending:
				core.JSONError(w, core.PendingApprovalError())
			default:
				core.JSONError(w, core.ForbiddenError(""))
			}
		})
	}
}

var (
	RequireApproved = Require(access.LevelApproved)
	RequireManager  = Require(access.LevelManager)
	RequireAdmin    = Require(access.LevelAdmin)
)

func GetActor(ctx context.Context) *access.Actor {
	if actor, ok := ctx.Value(ActorKey).(*access.Actor); ok {
		return actor
	}
	return nil
}

func WithActor(ctx context.Context, actor *access.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
