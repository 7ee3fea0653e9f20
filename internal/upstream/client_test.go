package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestClient_GetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		require.Equal(t, "42", r.URL.Query().Get("id"))
		require.Equal(t, "default-value", r.Header.Get("X-Default"))
		w.Write([]byte(`{"name":"alice"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, map[string]string{"X-Default": "default-value"})

	params := url.Values{}
	params.Set("id", "42")
	result := client.Get(context.Background(), "/users", params, nil)
	require.NoError(t, result.Err)
	require.True(t, result.Success)

	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, result.Decode(&body))
	require.Equal(t, "alice", body.Name)
}

func TestClient_PostJSONSetsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	result := client.PostJSON(context.Background(), "/things", map[string]string{"a": "b"}, nil)
	require.NoError(t, result.Err)
	require.True(t, result.Success)
	require.Equal(t, http.StatusCreated, result.StatusCode)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"backend exploded"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	result := client.Get(context.Background(), "/x", nil, nil)
	require.NoError(t, result.Err)
	require.False(t, result.Success)
	require.Equal(t, http.StatusBadGateway, result.StatusCode)
	require.Equal(t, "backend exploded", result.ErrorMessage())
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second, nil)
	result := client.Get(context.Background(), "/x", nil, nil)
	require.Error(t, result.Err)
	require.False(t, result.Success)
}

func TestResult_ErrorMessageTruncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	r := Result{Data: long}
	require.Len(t, r.ErrorMessage(), maxErrorPreview)
}

func TestResult_ErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	r := Result{Data: []byte(strings.Repeat("错", 150))}

	msg := r.ErrorMessage()
	require.True(t, utf8.ValidString(msg))
	require.Equal(t, strings.Repeat("错", maxErrorPreview), msg)
}

func TestResult_ErrorMessageFallback(t *testing.T) {
	r := Result{Data: []byte(`{"detail":"other shape"}`)}
	require.Equal(t, `{"detail":"other shape"}`, r.ErrorMessage())

	r = Result{Data: []byte("")}
	require.Equal(t, "错误", r.ErrorMessage())
}
