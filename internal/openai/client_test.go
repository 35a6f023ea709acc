package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imje/scheduled-helper/internal/models"
	"github.com/imje/scheduled-helper/internal/openai"
)

func TestSearchSendsRequestAndReturnsRawBody(t *testing.T) {
	const body = `{"id":"resp_1","output":[]}`

	var gotPath, gotAuth, gotContentType string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotPayload)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := openai.New(srv.URL+"/v1/", "sk-test", 5*time.Second)
	got, err := client.Search(context.Background(), models.DefaultSearchRequest())
	require.NoError(t, err)

	require.Equal(t, body, string(got))
	require.Equal(t, "/v1/responses", gotPath)
	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "gpt-5-nano", gotPayload["model"])

	tools := gotPayload["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	require.Equal(t, "web_search_preview", tool["type"])
	require.Equal(t, "low", tool["search_context_size"])
	loc := tool["user_location"].(map[string]any)
	require.Equal(t, "approximate", loc["type"])
	require.Equal(t, "Trondheim", loc["city"])
	require.Equal(t, map[string]any{"effort": "low"}, gotPayload["reasoning"])
	require.Equal(t, map[string]any{"verbosity": "low"}, gotPayload["text"])
}

func TestSearchMissingKeyMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := openai.New(srv.URL, "", time.Second).Search(context.Background(), models.DefaultSearchRequest())
	require.ErrorIs(t, err, openai.ErrMissingAPIKey)
	require.False(t, called)
}

func TestSearchNonSuccessStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "unauthorized", status: http.StatusUnauthorized, unauthorized: true},
		{name: "forbidden", status: http.StatusForbidden, unauthorized: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			_, err := openai.New(srv.URL, "sk-test", time.Second).Search(context.Background(), models.DefaultSearchRequest())
			require.Error(t, err)

			var apiErr *openai.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.unauthorized, apiErr.Unauthorized())
			require.Contains(t, apiErr.Body, "nope")
			require.NotContains(t, err.Error(), "sk-test")
		})
	}
}

func TestSearchTruncatesLongErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer srv.Close()

	_, err := openai.New(srv.URL, "sk-test", time.Second).Search(context.Background(), models.DefaultSearchRequest())
	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Len(t, apiErr.Body, 512+len("..."))
}

func TestSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := openai.New(srv.URL, "sk-test", 50*time.Millisecond).Search(context.Background(), models.DefaultSearchRequest())
	require.Error(t, err)
}
