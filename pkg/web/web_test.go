package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func Test_QueryParam(t *testing.T) {
	// given
	req := httptest.NewRequest(http.MethodGet, "/products/detail/?id=7&empty=", nil)

	// when
	id := QueryParam(req, "id")
	empty := QueryParam(req, "empty")
	absent := QueryParam(req, "page")

	// then
	require.NotNil(t, id)
	assert.Equal(t, "7", *id)
	require.NotNil(t, empty)
	assert.Equal(t, "", *empty)
	assert.Nil(t, absent)
}

func Test_DecodeJSONObject(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		expectError bool
	}{
		{name: "Success - object", body: `{"name":"Widget","price":9.99}`},
		{name: "Error - array", body: `[1,2]`, expectError: true},
		{name: "Error - null", body: `null`, expectError: true},
		{name: "Error - malformed", body: `{"name":`, expectError: true},
		{name: "Error - trailing data", body: `{"a":1}{"b":2}`, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			// when
			obj, err := DecodeJSONObject(req)
			// then
			if tc.expectError {
				assert.True(t, errors.Is(err, ErrInvalidBody))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Widget", obj["name"])
			assert.Equal(t, json.Number("9.99"), obj["price"], "numbers should be kept as json.Number")
		})
	}
}

func Test_RequestIDInjector(t *testing.T) {
	var seen string
	h := RequestIDInjector(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	// incoming header is reused
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rr.Header().Get(RequestIDHeader))

	// a fresh id is generated otherwise
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func Test_Recoverer(t *testing.T) {
	// given
	h := Recoverer(discardLogger())(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	// when
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}
