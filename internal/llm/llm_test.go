package llm

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

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), Options{Provider: "mystery"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	for _, p := range []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		_, err := New(context.Background(), Options{Provider: p})
		assert.ErrorIs(t, err, ErrMissingAPIKey, p)
	}
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gemini-flash-latest", DefaultModel(ProviderGemini))
	assert.Empty(t, DefaultModel("other"))
}

func TestAnthropic_Invoke(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "market "}, {"type": "text", "text": "overview"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	m, err := New(context.Background(), Options{
		Provider: ProviderAnthropic, Model: "claude-test", APIKey: "k", BaseURL: srv.URL,
	})
	require.NoError(t, err)

	out, err := m.Invoke(context.Background(), "describe the market")
	require.NoError(t, err)
	assert.Equal(t, "market overview", out)
	assert.Equal(t, "claude-test", got["model"])
	assert.EqualValues(t, 4096, got["max_tokens"])
}

func TestWithTimeout(t *testing.T) {
	slow := Func(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := WithTimeout(slow, 10*time.Millisecond).Invoke(context.Background(), "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	fast := Func(func(ctx context.Context, prompt string) (string, error) { return "ok", nil })
	out, err := WithTimeout(fast, 0).Invoke(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
