package testutil

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the request ID
// middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithFixedTime pins the request-scoped clock.
func WithFixedTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// DiscardLogger returns a logger that drops all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
