package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "webhook-secret"
	const body = `{"event":"call_started"}`

	var seenBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	})
	h := VerifySignature(secret, discard())(next)

	t.Run("valid signature passes body through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/retell/webhook", strings.NewReader(body))
		req.Header.Set(HeaderSignature, sign(secret, body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, body, seenBody)
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/retell/webhook", strings.NewReader(body))
		req.Header.Set(HeaderSignature, sign("other", body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/retell/webhook", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("empty secret disables verification", func(t *testing.T) {
		open := VerifySignature("", discard())(next)
		req := httptest.NewRequest(http.MethodPost, "/retell/webhook", strings.NewReader(body))
		rr := httptest.NewRecorder()
		open.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-123", got)
	assert.Equal(t, "req-123", rr.Header().Get(HeaderRequestID))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotEmpty(t, got)
	assert.NotEqual(t, "req-123", got)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
