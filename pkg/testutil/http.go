// Package testutil holds helpers for webhook handler, service and integration
// tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest marshals body (when non-nil) into a JSON request.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return NewRequestWithBody(t, method, path, "")
	}
	return NewRequestWithBody(t, method, path, MustMarshal(t, body))
}

// NewRequest builds a request without a body.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody sends raw exactly as given. Signature tests need the
// bytes the signature was computed over.
func NewRequestWithBody(t *testing.T, method, path string, raw string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest serves req and returns the recorded response.
func DoRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// MustMarshal returns v as a JSON string.
func MustMarshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// decode unmarshals the recorded body without consuming it, so a test can
// assert on the same response more than once.
func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(v), "response body: %s", rr.Body.String())
}

// UnmarshalResponse decodes the response body as T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	decode(t, rr, &out)
	return &out
}

// DecodeFunctionResult unwraps a function-call response. Those answer 200
// with {"result": "<json>"}, so the inner document is decoded a second time.
func DecodeFunctionResult[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, "function calls always answer 200")
	var envelope struct {
		Result *string `json:"result"`
	}
	decode(t, rr, &envelope)
	require.NotNil(t, envelope.Result, "missing result field")
	var out T
	require.NoError(t, json.Unmarshal([]byte(*envelope.Result), &out), "result: %s", *envelope.Result)
	return out
}

// AssertStatusOK checks for a 200.
func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
}

// AssertStatusAndError checks the status and the "error" code written by
// httputil.WriteError.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code)
	var body map[string]string
	decode(t, rr, &body)
	assert.Equal(t, code, body["error"])
}

// AssertJSONContains checks one top-level field of a JSON object response.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, want any) {
	t.Helper()
	var body map[string]any
	decode(t, rr, &body)
	assert.Equal(t, want, body[key], "field %q", key)
}

// AssertJSONHasKey checks that a top-level field is present.
func AssertJSONHasKey(t *testing.T, rr *httptest.ResponseRecorder, key string) {
	t.Helper()
	var body map[string]any
	decode(t, rr, &body)
	assert.Contains(t, body, key)
}
