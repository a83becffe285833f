// Package middleware holds the HTTP middleware chain shared by every route.
package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/requestcontext"
)

// HeaderRequestID carries an inbound or generated request id.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates X-Request-ID or mints a new one, and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestTime captures the current time at the start of the request so every
// timestamp written while handling it agrees.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
