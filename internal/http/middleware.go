package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	identityKey
)

const (
	SessionCookie = "fyz_session"

	// headers set by the authenticating proxy in front of the storefront
	userIDHeader    = "X-User-ID"
	userEmailHeader = "X-User-Email"
)

// SessionMiddleware assigns every browser a session id cookie. The session
// scopes all cart and checkout slots.
func SessionMiddleware(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					session = id.String()
				}
			}
			if session == "" {
				session = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    session,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityMiddleware picks up the signed-in customer forwarded by the auth proxy.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := domain.Identity{
			UserID: strings.TrimSpace(r.Header.Get(userIDHeader)),
			Email:  strings.TrimSpace(r.Header.Get(userEmailHeader)),
		}
		ctx := context.WithValue(r.Context(), identityKey, who)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.WithTrace(r.Context(), log).Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func getSession(ctx context.Context) string {
	if s, ok := ctx.Value(sessionKey).(string); ok {
		return s
	}
	return ""
}

func getIdentity(ctx context.Context) domain.Identity {
	if who, ok := ctx.Value(identityKey).(domain.Identity); ok {
		return who
	}
	return domain.Identity{}
}
