package httpclient

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero timeout", Config{Timeout: 0, UserAgent: "t/1.0"}},
		{"empty user agent", Config{Timeout: time.Second, UserAgent: ""}},
		{"negative rate", Config{Timeout: time.Second, UserAgent: "t/1.0", RequestsPerSecond: -1}},
		{"zero burst with rate", Config{Timeout: time.Second, UserAgent: "t/1.0", RequestsPerSecond: 2, Burst: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestClient_SetsUserAgent(t *testing.T) {
	var gotAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.UserAgent = "scriptflow-test/1.0"
	client, err := New(cfg)
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "scriptflow-test/1.0", gotAgent.Load())
}

func TestClient_RateLimitThrottles(t *testing.T) {
	var count atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 20
	cfg.Burst = 1
	client, err := New(cfg)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// Burst of 1 at 20 rps means the 3rd request waits at least ~100ms total.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, int64(3), count.Load())
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "redacts api key",
			input: "https://generativelanguage.googleapis.com/v1beta/models?key=sk-secret",
			want:  "key=%5BREDACTED%5D",
		},
		{
			name:  "keeps plain params",
			input: "https://api.example.com/v1/chat?stream=false",
			want:  "stream=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)
			assert.Contains(t, sanitizeURL(u), tt.want)
		})
	}
}
