package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/llm"
	"github.com/guiperry/promptinspector/ratelimit"
	"github.com/guiperry/promptinspector/utils"
)

func newTestServer(t *testing.T, opts ...promptinspector.ConfigOption) (*httptest.Server, *Metrics) {
	t.Helper()
	cfg := promptinspector.NewConfig()
	cfg.RateLimit.MinInterval = 0
	promptinspector.ApplyOptions(cfg, opts...)

	reg := prometheus.NewRegistry()
	in, err := promptinspector.New(cfg,
		promptinspector.WithLogger(utils.NewNopLogger()),
		promptinspector.WithMetrics(reg))
	require.NoError(t, err)

	metrics := NewMetrics(reg)
	srv := httptest.NewServer(New(in, WithMetrics(metrics, reg)).Handler())
	t.Cleanup(srv.Close)
	return srv, metrics
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/api/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, metrics := newTestServer(t)

	resp, out := post(t, srv.URL, `{"prompt_text": "write something", "target_model": "gpt-4", "detailed_analysis": false}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)

	for _, key := range []string{"overall_score", "scores", "strengths", "weaknesses", "suggestions", "optimized_prompt"} {
		assert.Contains(t, out, key)
	}
	assert.NotEmpty(t, out["suggestions"])
	assert.NotEqual(t, "write something", out["optimized_prompt"])
	assert.Equal(t, false, out["detailed"])
	assert.NotContains(t, out, "notice")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("/api/analyze", "200")))
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 1)
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer provider.Close()
	defer close(release)

	srv, _ := newTestServer(t,
		promptinspector.SetProviderEndpoint("openai", provider.URL),
		promptinspector.SetAPIKey("openai", "sk-test"),
		promptinspector.SetRateLimit(promptinspector.RateLimitConfig{
			MaxConcurrency: 1, MaxWait: 20 * time.Millisecond, MaxQueue: 10,
		}))

	t.Run("malformed body", func(t *testing.T) {
		resp, out := post(t, srv.URL, `{"prompt_text":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "request body must be a JSON object", out["error"])
	})

	t.Run("empty prompt", func(t *testing.T) {
		resp, out := post(t, srv.URL, `{"prompt_text": "  ", "target_model": "gpt-4"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Text must not be empty", out["error"])
	})

	t.Run("rate limited", func(t *testing.T) {
		body := `{"prompt_text": "write something", "target_model": "gpt-4", "detailed_analysis": true}`
		done := make(chan struct{})
		go func() {
			defer close(done)
			resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(body))
			if err == nil {
				resp.Body.Close()
			}
		}()
		<-arrived

		resp, out := post(t, srv.URL, body)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Contains(t, out["error"], "try again later")

		release <- struct{}{}
		<-done
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", fmt.Errorf("validation failed: %w", llm.NewLLMError(llm.ErrorTypeInvalidInput, "Text must not be empty", nil)), 400, "Text must not be empty"},
		{"rate limit", llm.NewLLMError(llm.ErrorTypeRateLimit, "openai: queue full", ratelimit.ErrQueueFull), 429, "too many detailed analyses in progress, try again later"},
		{"cancelled", context.Canceled, StatusClientClosedRequest, "request cancelled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "request timed out"},
		{"invariant", llm.NewLLMError(llm.ErrorTypeInvariant, "internal analysis error", errors.New("boom")), 500, "internal error"},
		{"unknown", errors.New("boom"), 500, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestDimensionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/dimensions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Dimensions []dimensionView `json:"dimensions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Dimensions, 10)
	assert.Equal(t, "clarity", out.Dimensions[0].ID)
	assert.Equal(t, "Clarity & Specificity", out.Dimensions[0].Label)
	assert.Positive(t, out.Dimensions[0].Weight)
}

func TestHealthKeepsRequestID(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uuid.NewString()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, id)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	post(t, srv.URL, `{"prompt_text": "write something", "target_model": "general"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "promptinspector_http_requests_total")
}

func TestResponsesAreCompressed(t *testing.T) {
	srv, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/analyze",
		strings.NewReader(`{"prompt_text": "`+strings.Repeat("Explain the water cycle. ", 100)+`", "target_model": "general"}`))
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")

	// A transport that does not decompress on its own.
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(zr).Decode(&out))
	assert.Contains(t, out, "optimized_prompt")
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
