package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeepSeekClient(t *testing.T) {
	t.Run("should create client with API key", func(t *testing.T) {
		client, err := NewDeepSeekClient(DeepSeekConfig{APIKey: "test-api-key"})

		require.NoError(t, err)
		assert.Equal(t, defaultDeepSeekURL, client.apiURL)
		assert.Equal(t, defaultDeepSeekModel, client.model)
		assert.Equal(t, 30*time.Second, client.http.Timeout)
	})

	t.Run("should fail without API key", func(t *testing.T) {
		client, err := NewDeepSeekClient(DeepSeekConfig{APIKey: "  "})

		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY or DEEPSEEK_API_KEY_FILE must be set")
	})
}

func TestDeepSeekClient_Generate(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Ingredients: rice, egg"}}]}`))
	}))
	defer srv.Close()

	client, err := NewDeepSeekClient(DeepSeekConfig{APIKey: "test-api-key", APIURL: srv.URL, Model: "test-model"})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "extract please")
	require.NoError(t, err)
	assert.Equal(t, "Ingredients: rice, egg", out)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "extract please", got.Messages[0].Content)
}

func TestDeepSeekClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"non-200 status", http.StatusTooManyRequests, `{"error":"slow down"}`, "status 429"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no response from API"},
		{"invalid json", http.StatusOK, `not json`, "failed to decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewDeepSeekClient(DeepSeekConfig{APIKey: "k", APIURL: srv.URL})
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDeepSeekClient_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := NewDeepSeekClient(DeepSeekConfig{APIKey: "k", APIURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Generate(ctx, "p")
	require.Error(t, err)
	assert.True(t, isTimeout(err))
}

func TestDeepSeekClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewDeepSeekClient(DeepSeekConfig{APIKey: "k", APIURL: srv.URL})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = client.Generate(context.Background(), "p")
		require.Error(t, err)
	}
	_, err = client.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, isBreakerRejection(err))
	assert.Equal(t, int32(5), calls.Load())
}
