// Package middlewarectx содержит HTTP middleware сервиса.
//
// FinalizeTokenMiddleware пропускает finalize только с токеном, выданным при
// initiate той же сессии.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/stream-checkout/internal/http/response"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/jwt"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
)

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// SessionIDParam имя параметра маршрута с идентификатором сессии.
const SessionIDParam = "session_id"

// TokenParser разбирает finalize-токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.SessionClaims, error)
}

// FinalizeTokenMiddleware проверяет Bearer-токен: 401, если его нет или он
// недействителен, 403, если он выдан для другой сессии.
func FinalizeTokenMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.FinalizeToken"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := parser.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			sessionID := chi.URLParam(r, SessionIDParam)
			if claims.SessionID != sessionID {
				log.Error("token issued for another session", slog.String("session_id", sessionID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("token does not match checkout session"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), claims.SessionID)))
		})
	}
}

// WithSessionID кладёт в контекст идентификатор сессии, для которой проверен токен.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFrom возвращает идентификатор сессии, подтверждённый FinalizeTokenMiddleware.
func SessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}
