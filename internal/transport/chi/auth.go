package chi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kailas-cloud/showroomdex/internal/domain/search/visibility"
)

// exemptPaths bypass service authentication.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware guards service-to-service calls with static API keys.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			if !knownKey(keys, []byte(auth[len(bearerPrefix):])) {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func knownKey(keys [][]byte, token []byte) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, token)
	}
	return found == 1
}

type callerKey struct{}

// CallerMiddleware resolves the end-user identity forwarded by the gateway in
// X-Caller-Uid and X-Caller-Role. Missing or unknown roles are guests.
func CallerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var caller *visibility.Caller
		switch role := visibility.Role(strings.ToLower(r.Header.Get(HeaderCallerRole))); role {
		case visibility.RoleOwner, visibility.RoleAdmin:
			caller = &visibility.Caller{UID: strings.TrimSpace(r.Header.Get(HeaderCallerUID)), Role: role}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
	})
}

// ContextWithCaller stores the caller in the context. nil is a guest.
func ContextWithCaller(ctx context.Context, caller *visibility.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller, or nil for a guest.
func CallerFromContext(ctx context.Context) *visibility.Caller {
	c, _ := ctx.Value(callerKey{}).(*visibility.Caller)
	return c
}
