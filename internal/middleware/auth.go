package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"lmsadmin/internal/ctxdata"
	"lmsadmin/internal/logging"
	"lmsadmin/internal/session"
)

type SessionParser interface {
	Parse(token string) (*session.Session, error)
}

// NewAuthMiddleware admits admins only. Everyone else is sent to the login surface.
func NewAuthMiddleware(parser SessionParser, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token, ok := session.TokenFromRequest(r)
			if !ok {
				logger.Info(ctx, "no access token", zap.String("path", r.URL.Path))
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			sess, err := parser.Parse(token)
			if err != nil {
				logger.Info(ctx, "invalid access token", zap.String("path", r.URL.Path), zap.Error(err))
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			if !sess.IsAdmin() {
				logger.Info(ctx, "permission denied",
					zap.String("path", r.URL.Path),
					zap.String("role", sess.Role),
				)
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}

			ctx = session.WithSession(ctx, sess)
			ctx = ctxdata.WithUserID(ctx, sess.UserID)
			ctx = ctxdata.WithUserRole(ctx, sess.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
