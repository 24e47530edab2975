package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/blog-backend/internal/api/response"
	"github.com/dom/blog-backend/internal/auth"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// Auth rejects requests without a valid bearer token and stores the verified
// identity in the request context.
func Auth(tokens *auth.TokenService, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				log.WithField("op", "middleware.Auth").Debug("missing bearer token")
				response.Error(w, http.StatusUnauthorized, auth.ErrMissingToken.Message)
				return
			}

			identity, err := tokens.Verify(token)
			if err != nil {
				log.WithField("op", "middleware.Auth").WithError(err).Debug("token verification failed")
				response.Error(w, http.StatusUnauthorized, auth.ErrInvalidToken.Message)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the identity stored by Auth. It is the zero Identity
// on routes that Auth does not guard.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(auth.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
