package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatJSON(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-2024-08-06",
			"choices": [{"message": {"content": "{\"overall_score\": 70}"}}],
			"usage": {"total_tokens": 321}
		}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL, "gpt-4o", 5*time.Second)
	completion, err := client.ChatJSON(context.Background(), "system msg", "user msg")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotReq["model"])
	assert.Equal(t, "json_object", gotReq["response_format"].(map[string]any)["type"])
	assert.Equal(t, `{"overall_score": 70}`, completion.Content)
	assert.Equal(t, "gpt-4o-2024-08-06", completion.Model)
	assert.Equal(t, 321, completion.TokensUsed)
}

func TestChatJSONAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limit"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL, "gpt-4o", 5*time.Second)
	_, err := client.ChatJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestChatJSONEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL, "gpt-4o", 5*time.Second)
	_, err := client.ChatJSON(context.Background(), "s", "u")
	assert.Error(t, err)
}
