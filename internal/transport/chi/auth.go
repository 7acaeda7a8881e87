package chi

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/qdex/internal/logger"
)

// SecretHeader carries the shared secret when the Authorization header is taken.
const SecretHeader = "X-Qdex-Secret"

// DefaultMaxBodyBytes caps mutating request bodies. A record may carry a
// question plus an answer and its styled variant.
const DefaultMaxBodyBytes = 4 << 20

// SharedSecretMiddleware gates mutating routes. The secret is taken from
// "Authorization: Bearer", the X-Qdex-Secret header, or the JSON body field
// "secret", in that order. With an empty configured secret every gated route
// answers 503 instead of being left open.
func SharedSecretMiddleware(secret string, maxBody int64) func(http.Handler) http.Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	want := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(want) == 0 {
				writeError(w, http.StatusServiceUnavailable, CodeWritesDisabled, "writes are disabled on this server")
				return
			}

			got, ok := headerSecret(r)
			if !ok {
				var err error
				got, err = bodySecret(w, r, maxBody)
				if err != nil {
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, "request body too large")
						return
					}
					got = ""
				}
			}

			if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logpkg.FromContext(r.Context()).Warn("rejected write",
					zap.String("path", r.URL.Path),
					zap.Bool("secret_present", got != ""),
				)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or missing secret")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func headerSecret(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimSpace(auth[len(bearerPrefix):]), true
	}
	if s := r.Header.Get(SecretHeader); s != "" {
		return s, true
	}
	return "", false
}

// bodySecret reads the "secret" field and restores the body for the handler.
func bodySecret(w http.ResponseWriter, r *http.Request, maxBody int64) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return "", err //nolint:wrapcheck // inspected by the caller
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))

	var body struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(buf, &body); err != nil {
		return "", nil
	}
	return body.Secret, nil
}
