package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CardWatch/internal/model"
)

const testSalt = "f4a6?Sta+4"

type capturedRequest struct {
	Method string
	Header http.Header
	Form   url.Values
}

func newTestFetcher(t *testing.T, status int, body string) (*EdenredFetcher, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		captured.Method = r.Method
		captured.Header = r.Header.Clone()
		captured.Form = r.PostForm
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	f := NewEdenredFetcher(srv.URL, testSalt, "", nil)
	f.Now = func() time.Time { return time.Unix(1700000000, 0) }
	return f, captured
}

func TestSignature_KnownDigest(t *testing.T) {
	assert.Equal(t, "160eb3b418056062f666f90c86937ead", Signature(testSalt, 1700000000))
	assert.Equal(t, Signature(testSalt, 1700000000), Signature(testSalt, 1700000000))
	assert.Len(t, Signature(testSalt, 0), 32)
	assert.NotEqual(t, Signature(testSalt, 1700000000), Signature(testSalt, 1700000001))
}

func TestFetchBalance_Amount(t *testing.T) {
	f, req := newTestFetcher(t, http.StatusOK, `{"123": {"amount": 45.5}}`)

	v, err := f.FetchBalance(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, 45.5, v)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, UserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, "balance", req.Form.Get("action"))
	assert.Equal(t, "123", req.Form.Get("cards"))
	assert.Equal(t, "1700000000", req.Form.Get("timestamp"))
	assert.Equal(t, "160eb3b418056062f666f90c86937ead", req.Form.Get("hash"))
}

func TestFetchBalanceAt_UsesGivenTimestamp(t *testing.T) {
	f, req := newTestFetcher(t, http.StatusOK, `{"7": {"amount": "12.30"}}`)

	v, err := f.FetchBalanceAt(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.Equal(t, 12.3, v)
	assert.Equal(t, "42", req.Form.Get("timestamp"))
	assert.Equal(t, Signature(testSalt, 42), req.Form.Get("hash"))
}

func TestFetchBalance_RemoteError(t *testing.T) {
	f, _ := newTestFetcher(t, http.StatusOK, `{"123": {"error": "blocked"}}`)

	_, err := f.FetchBalance(context.Background(), 123)
	var remoteErr *model.RemoteBalanceError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "blocked", remoteErr.Message)
}

func TestFetchBalance_UnknownCard(t *testing.T) {
	f, _ := newTestFetcher(t, http.StatusOK, `{"999": {"amount": 1}}`)

	_, err := f.FetchBalance(context.Background(), 123)
	var unknownErr *model.UnknownCardError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, int64(123), unknownErr.CardID)
}

func TestFetchBalance_MalformedResponses(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing amount", `{"123": {"currency": "PLN"}}`, "amount"},
		{"null amount", `{"123": {"amount": null}}`, "amount"},
		{"non-numeric amount", `{"123": {"amount": "lots"}}`, "amount"},
		{"NaN amount", `{"123": {"amount": "NaN"}}`, "amount"},
		{"Inf amount", `{"123": {"amount": "Inf"}}`, "amount"},
		{"Infinity amount", `{"123": {"amount": "-Infinity"}}`, "amount"},
		{"out of range amount", `{"123": {"amount": "1e400"}}`, "amount"},
		{"detail not an object", `{"123": 5}`, "123"},
		{"body not json", `<html>maintenance</html>`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFetcher(t, http.StatusOK, tt.body)

			_, err := f.FetchBalance(context.Background(), 123)
			var malformed *model.MalformedResponseError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestFetchBalance_NonSuccessStatusWithUnparsableBody(t *testing.T) {
	f, _ := newTestFetcher(t, http.StatusBadGateway, `Bad Gateway`)

	_, err := f.FetchBalance(context.Background(), 123)
	var transportErr *model.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
}

func TestFetchBalance_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	f := NewEdenredFetcher(srv.URL, testSalt, "", nil)
	_, err := f.FetchBalance(context.Background(), 123)
	var transportErr *model.TransportError
	require.True(t, errors.As(err, &transportErr))
}
