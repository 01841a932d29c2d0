// Package providers contains concrete implementations of NLU providers.
package providers

import (
	"net/http"
	"time"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/httpclient"
)

// newHTTPClient builds the shared outbound client used by every provider.
// Rate limiting is deliberately conservative: NLU calls are low-volume and
// sequential within a request.
func newHTTPClient(userAgent string) (*http.Client, error) {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 60 * time.Second
	cfg.UserAgent = userAgent
	cfg.RequestsPerSecond = 5
	cfg.Burst = 5
	return httpclient.New(cfg)
}
