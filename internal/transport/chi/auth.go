package chi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/logger"
)

const apiKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests that carry none of apiKeys, either as
// "Authorization: Bearer <key>" or in the X-API-Key header. Blank keys are
// ignored; with no keys left every request passes.
// The matched key is logged by position only, never by value.
func RequireAPIKey(apiKeys []string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := credentials(r)
			if msg != "" {
				unauthorized(w, msg)
				return
			}
			idx := matchKey(keys, token)
			if idx < 0 {
				unauthorized(w, "invalid api key")
				return
			}
			ctx := logger.With(r.Context(), zap.String("api_key", "#"+strconv.Itoa(idx+1)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credentials extracts the presented key. msg is non-empty when the request
// carries no usable credentials.
func credentials(r *http.Request) (token []byte, msg string) {
	if k := r.Header.Get(apiKeyHeader); k != "" {
		return []byte(k), ""
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return nil, "missing credentials"
	}
	scheme, value, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return nil, "authorization header must use the Bearer scheme"
	}
	return []byte(strings.TrimSpace(value)), ""
}

// matchKey compares against every key so timing does not reveal which one matched.
func matchKey(keys [][]byte, token []byte) int {
	found := -1
	for i, k := range keys {
		if subtle.ConstantTimeCompare(k, token) == 1 && found < 0 {
			found = i
		}
	}
	return found
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="vsetbrowse"`)
	writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
}
