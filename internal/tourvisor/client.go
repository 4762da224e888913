package tourvisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tourchat/internal/common/config"
	commonerrors "tourchat/internal/common/errors"
	commonhttp "tourchat/internal/common/http"
	"tourchat/internal/common/logger"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Client talks to the inventory API. All calls are GET with query-string
// auth; responses are JSON, occasionally prefixed with a UTF-8 BOM.
type Client struct {
	baseURL    string
	authLogin  string
	authPass   string
	httpClient *commonhttp.Client
	maxRetries int
	logger     logger.Logger

	dicts *dictionaryCache
}

func NewClient(cfg config.TourvisorConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		authLogin:  cfg.AuthLogin,
		authPass:   cfg.AuthPass,
		httpClient: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		maxRetries: cfg.MaxRetries,
		logger:     log,
		dicts:      newDictionaryCache(),
	}
}

// getJSON performs one API call with bounded retries. Network errors and
// 5xx responses are retried; after the budget is spent the call surfaces
// as UPSTREAM_UNAVAILABLE.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("authlogin", c.authLogin)
	query.Set("authpass", c.authPass)
	query.Set("format", "json")

	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, query.Encode())

	var lastErr error
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		body, err := c.doOnce(ctx, fullURL)
		if err != nil {
			lastErr = err
			c.logger.Warn("Inventory API call failed", map[string]interface{}{
				"endpoint": endpoint,
				"attempt":  attempt,
				"error":    err.Error(),
			})
			continue
		}

		body = bytes.TrimPrefix(body, utf8BOM)
		if err := json.Unmarshal(body, out); err != nil {
			// Malformed body is not transient, do not burn retries on it
			return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
		return nil
	}

	return commonerrors.NewUpstreamUnavailableError("tourvisor", lastErr)
}

func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
