package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"

	dErrors "github.com/GuyfromMontana/MFC-single-agent/pkg/domain-errors"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/platform/httputil"
	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// HeaderSignature is the voice platform's webhook signature header.
const HeaderSignature = "X-Retell-Signature"

const maxSignedBody = 2 << 20

// VerifySignature rejects requests whose body HMAC-SHA256 (hex, keyed by
// secret) does not match the signature header. An empty secret disables the
// check.
func VerifySignature(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
			if err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable body"))
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !ValidSignature(secret, body, r.Header.Get(HeaderSignature)) {
				logger.WarnContext(ctx, "webhook signature rejected",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid signature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidSignature compares the hex HMAC-SHA256 of body against signature in
// constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
