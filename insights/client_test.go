package insights

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func chatReply(content string) string {
	return `{"choices":[{"message":{"content":` + strconv.Quote(content) + `}}]}`
}

func TestChat(t *testing.T) {
	var captured struct {
		method        string
		path          string
		authorization string
		contentType   string
		body          string
	}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		captured.method = request.Method
		captured.path = request.URL.Path
		captured.authorization = request.Header.Get("Authorization")
		captured.contentType = request.Header.Get("Content-Type")
		body, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		captured.body = string(body)
		writer.Write([]byte(chatReply("the volume is fine")))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "sk-test", Endpoint: server.URL, Model: "gpt-4o-mini"})
	content, err := client.Chat(context.Background(), "be terse", "what happened?", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "the volume is fine", content)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "Bearer sk-test", captured.authorization)
	assert.Equal(t, "application/json", captured.contentType)
	assert.Equal(t, "gpt-4o-mini", gjson.Get(captured.body, "model").String())
	assert.Equal(t, 0.2, gjson.Get(captured.body, "temperature").Float())
	assert.Equal(t, "system", gjson.Get(captured.body, "messages.0.role").String())
	assert.Equal(t, "be terse", gjson.Get(captured.body, "messages.0.content").String())
	assert.Equal(t, "user", gjson.Get(captured.body, "messages.1.role").String())
	assert.Equal(t, "what happened?", gjson.Get(captured.body, "messages.1.content").String())
}

func TestChatRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(writer, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		writer.Write([]byte(chatReply("recovered")))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL, Model: "m"})
	content, err := client.Chat(context.Background(), "s", "u", 0)
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatFailsFastOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		calls.Add(1)
		http.Error(writer, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", Endpoint: server.URL, Model: "m"})
	_, err := client.Chat(context.Background(), "s", "u", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai http error: 401")
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestChatReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL, Model: "m"})
	_, err := client.Chat(context.Background(), "s", "u", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai error:")
	assert.Contains(t, err.Error(), "model not found")
}

func TestChatRejectsMalformedReplies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte(`{"object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL, Model: "m"})
	_, err := client.Chat(context.Background(), "s", "u", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai response missing choices/message/content")
}

func TestChatHonorsContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		calls.Add(1)
		writer.Write([]byte(chatReply("late")))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL, Model: "m"})
	_, err := client.Chat(ctx, "s", "u", 0)
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}

func TestChatCompletionsURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		expected string
	}{
		{"full path kept", "https://api.openai.com/v1/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"v1 base", "https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"v1 base uppercase", "https://example.com/V1", "https://example.com/V1/chat/completions"},
		{"server root", "http://localhost:11434", "http://localhost:11434/v1/chat/completions"},
		{"server root with slash", "http://localhost:11434/", "http://localhost:11434/v1/chat/completions"},
		{"surrounding whitespace", "  https://api.openai.com/v1 ", "https://api.openai.com/v1/chat/completions"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, ChatCompletionsURL(test.endpoint))
		})
	}
}
