package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pageforge/internal/config"
	"pageforge/internal/services"
)

const userAgent = "PageForge/0.1.0"

// Client publishes assembled pages to the CMS content API.
type Client struct {
	cfg        config.Publish
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a CMS client from the publish configuration.
func NewClient(cfg config.Publish, opts ...Option) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// PageURL derives the public URL for a service+location page from the
// configured URL pattern.
func (c *Client) PageURL(serviceID, locationKey string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(serviceID)), "_", "-")
	path := strings.NewReplacer(
		"{service_slug}", slug,
		"{location_key}", strings.TrimSpace(locationKey),
	).Replace(c.cfg.URLPattern)
	return fmt.Sprintf("%s/%s/", c.cfg.BaseURL, strings.Trim(path, "/"))
}

type publishRequest struct {
	TaskID      string `json:"task_id"`
	ServiceID   string `json:"service_id"`
	LocationKey string `json:"location_key"`
	URL         string `json:"url"`
	HTML        string `json:"html"`
}

type publishResponse struct {
	URL string `json:"url"`
}

// Publish uploads a page under the given idempotency key and returns the
// published URL. Repeating the call with the same key must not create a
// duplicate page; the CMS answers with the existing URL instead.
func (c *Client) Publish(ctx context.Context, taskID, serviceID, locationKey, html string) (string, error) {
	if strings.TrimSpace(c.cfg.APIEndpoint) == "" {
		return "", services.Wrap(services.ErrConfiguration, "publish", "upload", "api endpoint not configured", nil)
	}

	pageURL := c.PageURL(serviceID, locationKey)
	payload := publishRequest{
		TaskID:      taskID,
		ServiceID:   serviceID,
		LocationKey: locationKey,
		URL:         pageURL,
		HTML:        html,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Idempotency-Key", taskID)
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.wrapTransportErr(ctx, "upload", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", services.Wrap(services.ErrRateLimited, "publish", "upload", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return "", services.Wrap(services.ErrUnavailable, "publish", "upload", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		// The target refused the content outright; retrying the same payload
		// cannot succeed.
		return "", services.Wrap(services.ErrRejected, "publish", "upload",
			fmt.Sprintf("http %d: %s", resp.StatusCode, trimBody(raw)), nil)
	}
	if readErr != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "upload", "read response", readErr)
	}

	var parsed publishResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", services.Wrap(services.ErrTransient, "publish", "upload", "decode response", err)
		}
	}
	if strings.TrimSpace(parsed.URL) == "" {
		parsed.URL = pageURL
	}
	return parsed.URL, nil
}

// Verify fetches the published URL and confirms the page is reachable and
// carries the expected content fingerprint.
func (c *Client) Verify(ctx context.Context, publishedURL, fingerprint string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, publishedURL, nil)
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, c.wrapTransportErr(ctx, "verify", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	if strings.TrimSpace(fingerprint) == "" {
		return true, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "publish", "verify", "read page", err)
	}
	return bytes.Contains(body, []byte(fingerprint)), nil
}

// Unpublish removes a previously published page. Used by rollback; best
// effort, the caller decides what a failure means.
func (c *Client) Unpublish(ctx context.Context, taskID string) error {
	if strings.TrimSpace(c.cfg.APIEndpoint) == "" {
		return services.Wrap(services.ErrConfiguration, "publish", "unpublish", "api endpoint not configured", nil)
	}
	endpoint := strings.TrimRight(c.cfg.APIEndpoint, "/") + "/" + taskID
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build unpublish request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.wrapTransportErr(ctx, "unpublish", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrUnavailable, "publish", "unpublish", fmt.Sprintf("http %d", resp.StatusCode), nil)
	default:
		return services.Wrap(services.ErrRejected, "publish", "unpublish", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
}

// SubmitSitemap regenerates the sitemap on the target from the supplied URLs.
func (c *Client) SubmitSitemap(ctx context.Context, urls []string) error {
	if !c.cfg.SitemapEnabled || len(urls) == 0 {
		return nil
	}
	if strings.TrimSpace(c.cfg.APIEndpoint) == "" {
		return services.Wrap(services.ErrConfiguration, "publish", "sitemap", "api endpoint not configured", nil)
	}
	body, err := json.Marshal(map[string][]string{"urls": urls})
	if err != nil {
		return fmt.Errorf("marshal sitemap request: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.APIEndpoint, "/") + "/sitemap"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sitemap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.wrapTransportErr(ctx, "sitemap", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return services.Wrap(services.ErrTransient, "publish", "sitemap", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) wrapTransportErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "publish", op, "request deadline exceeded", err)
	}
	return services.Wrap(services.ErrUnavailable, "publish", op, "request failed", err)
}

func trimBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
