package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/notes/domain/services"
)

func testConfig(url string) Config {
	return Config{
		APIURL:         url,
		APIKey:         "test-key",
		Model:          "test-model",
		MaxTokens:      500,
		Timeout:        time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestSummarize_Success(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  short summary \n"}}]}`))
	}))
	defer server.Close()

	summary, err := New(testConfig(server.URL)).Summarize(context.Background(), "long text")

	require.NoError(t, err)
	assert.Equal(t, "short summary", summary)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "expert summarizer")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Please summarize the following text:\n\nlong text", got.Messages[1].Content)
}

func TestSummarize_BlankTextSkipsRemoteCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := New(testConfig(server.URL)).Summarize(context.Background(), "  \n\t")

	assert.ErrorIs(t, err, services.ErrInvalidText)
	assert.Zero(t, calls.Load())
}

func TestSummarize_Failures(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedCalls int32
		expectedErr   error
	}{
		{
			name:          "server error is retried",
			status:        http.StatusBadGateway,
			body:          `{}`,
			expectedCalls: 3,
			expectedErr:   services.ErrUpstreamStatus,
		},
		{
			name:          "client error is not retried",
			status:        http.StatusUnauthorized,
			body:          `{"error":"bad key"}`,
			expectedCalls: 1,
			expectedErr:   services.ErrUpstreamStatus,
		},
		{
			name:          "no choices",
			status:        http.StatusOK,
			body:          `{"choices":[]}`,
			expectedCalls: 1,
			expectedErr:   services.ErrMalformedResponse,
		},
		{
			name:          "empty content",
			status:        http.StatusOK,
			body:          `{"choices":[{"message":{"content":"   "}}]}`,
			expectedCalls: 1,
			expectedErr:   services.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(testConfig(server.URL)).Summarize(context.Background(), "text")

			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrSummarizationFailed)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedCalls, calls.Load())
		})
	}
}

func TestSummarize_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	summary, err := New(testConfig(server.URL)).Summarize(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSummarize_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(testConfig(url)).Summarize(context.Background(), "text")

	assert.ErrorIs(t, err, services.ErrSummarizationFailed)
}
