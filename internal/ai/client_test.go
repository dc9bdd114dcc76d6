package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perf-matrix/internal/config"
	"perf-matrix/internal/fill"
	"perf-matrix/internal/metrics"
	"perf-matrix/internal/price"
)

func computedResult(t *testing.T) metrics.Result {
	t.Helper()
	store, err := fill.NewStoreFromFills([]fill.Fill{
		{Date: fill.MustParseDate("2024-01-01"), Instrument: "AAPL", Side: fill.SideBuy, Size: 10, Price: 150},
		{Date: fill.MustParseDate("2024-01-02"), Instrument: "AAPL", Side: fill.SideSell, Size: 5, Price: 160},
	})
	require.NoError(t, err)
	resolver, err := price.Constant(155)
	require.NoError(t, err)
	engine, err := metrics.NewEngine(metrics.DefaultOptions(), resolver, nil)
	require.NoError(t, err)
	result, err := engine.Run(context.Background(), store)
	require.NoError(t, err)
	return result
}

func chatServer(t *testing.T, content string, prompts *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if prompts != nil && len(req.Messages) > 0 {
			*prompts = append(*prompts, req.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-test",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]interface{}{"role": "assistant", "content": content},
				},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestReviewer(t *testing.T, baseURL string) *Reviewer {
	t.Helper()
	r, err := NewReviewer(config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-test",
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return r
}

func TestReviewer_Review(t *testing.T) {
	var prompts []string
	server := chatServer(t, "结论如下：\n```json\n"+
		`{"verdict":"acceptable","confidence":0.6,"highlights":["两日均盈利"],"risks":["样本太少"],"suggestions":["延长观察期"],"comment":"整体尚可"}`+
		"\n```", &prompts)

	review, err := newTestReviewer(t, server.URL).Review(context.Background(), computedResult(t), 0.001)
	require.NoError(t, err)

	assert.Equal(t, "ACCEPTABLE", review.Verdict)
	assert.Equal(t, 0.6, review.Confidence)
	assert.Equal(t, []string{"样本太少"}, review.Risks)

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `"totalPnl"`)
	assert.Contains(t, prompts[0], "0.001")
}

func TestReviewer_InvalidVerdict(t *testing.T) {
	server := chatServer(t, `{"verdict":"EXCELLENT","confidence":0.9,"comment":"x"}`, nil)

	_, err := newTestReviewer(t, server.URL).Review(context.Background(), computedResult(t), 0.001)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verdict")
}

func TestReviewer_NoJSON(t *testing.T) {
	server := chatServer(t, "抱歉，无法判断", nil)

	_, err := newTestReviewer(t, server.URL).Review(context.Background(), computedResult(t), 0.001)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未找到有效JSON")
}

func TestReviewer_EmptyResultNotSent(t *testing.T) {
	r := newTestReviewer(t, "http://127.0.0.1:0")
	_, err := r.Review(context.Background(), metrics.Result{Status: metrics.StatusEmptyInput}, 0.001)
	assert.True(t, errors.Is(err, ErrNothingToReview))
}

func TestNewReviewer_RequiresKey(t *testing.T) {
	_, err := NewReviewer(config.OpenAIConfig{Model: "gpt-test"}, nil)
	assert.Error(t, err)
}
