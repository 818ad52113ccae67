package links

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

// ErrTooManyRedirects indicates too many HTTP redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

const (
	defaultFetchTimeout        = time.Minute
	globalLimiterBurst         = 5
	maxRedirects               = 5
	maxBodySizeBytes           = 5 << 20
	hostLimiterRate            = 1
	hostLimiterBurst           = 2
	maxErrorBodyBytes          = 512

	defaultUserAgent = "AgentEngineering-Research/1.0"
	acceptAny        = "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.5"
)

// WebFetcher performs rate-limited outbound HTTP requests. Every request waits
// on a global limiter and then on a per-host limiter.
type WebFetcher struct {
	client        *http.Client
	globalLimiter *rate.Limiter
	hostLimiters  map[string]*rate.Limiter
	mu            sync.RWMutex
	userAgent     string
}

// NewWebFetcher allows rps requests per second overall. Non-positive values
// fall back to one request per second and a one minute timeout.
func NewWebFetcher(rps float64, timeout time.Duration) *WebFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	if rps <= 0 {
		rps = 1
	}

	return &WebFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}

				return nil
			},
		},
		globalLimiter: rate.NewLimiter(rate.Limit(rps), globalLimiterBurst),
		hostLimiters:  make(map[string]*rate.Limiter),
		userAgent:     defaultUserAgent,
	}
}

// Fetch GETs rawURL and returns at most 5MB of the response body.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", acceptAny)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return f.do(ctx, req)
}

// PostJSON sends payload as a JSON body and decodes the JSON response into out.
func (f *WebFetcher) PostJSON(ctx context.Context, rawURL string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := f.do(ctx, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	return nil
}

func (f *WebFetcher) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("global rate limiter wait: %w", err)
	}

	if err := f.hostLimiter(strings.ToLower(req.URL.Host)).Wait(ctx); err != nil {
		return nil, fmt.Errorf("host rate limiter wait: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()

	resp, err := f.client.Do(req)

	observability.WebFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // diagnostic only

		return nil, fmt.Errorf("%w: %d %s", apperrors.ErrHTTPStatusNotOK, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// hostLimiter returns the limiter for host, creating it on first use.
func (f *WebFetcher) hostLimiter(host string) *rate.Limiter {
	f.mu.RLock()
	limiter, ok := f.hostLimiters[host]
	f.mu.RUnlock()

	if ok {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if limiter, ok := f.hostLimiters[host]; ok {
		return limiter
	}

	limiter = rate.NewLimiter(hostLimiterRate, hostLimiterBurst)
	f.hostLimiters[host] = limiter

	return limiter
}
