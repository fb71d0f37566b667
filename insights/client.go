package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Client speaks the chat completions protocol that OpenAI and most self
// hosted inference servers accept.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat sends one system+user exchange and returns the assistant text.
// Transport errors and 5xx responses are retried with exponential backoff
// until the context expires, anything else fails immediately.
func (client *Client) Chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       client.config.Model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode chat request")
	}
	endpoint := ChatCompletionsURL(client.config.Endpoint)

	var raw string
	operation := func() error {
		body, err := client.post(ctx, endpoint, payload)
		if err != nil {
			return err
		}
		raw = body
		return nil
	}
	if err := backoff.Retry(operation, retryPolicy(ctx)); err != nil {
		return "", err
	}

	content := gjson.Get(raw, "choices.0.message.content")
	if !content.Exists() {
		if apiError := gjson.Get(raw, "error"); apiError.Exists() {
			return "", errors.Errorf("ai error: %s", apiError.Raw)
		}
		return "", errors.New("ai response missing choices/message/content")
	}
	return content.String(), nil
}

func (client *Client) post(ctx context.Context, endpoint string, payload []byte) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(errors.Wrap(err, "failed to build chat request"))
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+client.config.APIKey)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", errors.Wrap(err, "ai connection error")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read ai response")
	}
	if response.StatusCode >= 500 {
		return "", httpError(response.StatusCode, body)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", backoff.Permanent(httpError(response.StatusCode, body))
	}
	return string(body), nil
}

func httpError(status int, body []byte) error {
	return errors.Errorf("ai http error: %d %s - %s",
		status, http.StatusText(status), strings.TrimSpace(string(body)))
}

func retryPolicy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          1.7,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, ctx)
}

// ChatCompletionsURL derives the chat endpoint from a configured base URL. A
// full path is kept as given, a /v1 base gets /chat/completions appended and
// anything else is treated as a server root.
func ChatCompletionsURL(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	lowered := strings.ToLower(endpoint)
	if strings.HasSuffix(lowered, "/chat/completions") {
		return endpoint
	}
	if strings.HasSuffix(lowered, "/v1") {
		return strings.TrimRight(endpoint, "/") + "/chat/completions"
	}
	return strings.TrimRight(endpoint, "/") + "/v1/chat/completions"
}
