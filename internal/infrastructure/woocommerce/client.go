package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	apiBasePath      = "/wp-json/wc/v3"
	totalPagesHeader = "x-total-pages"
	auditActor       = "sync-engine"
)

// Config holds one tenant's remote store endpoint and credentials.
type Config struct {
	TenantID       string
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
}

// ConfigFromTenant builds a client config from a stored tenant record.
func ConfigFromTenant(tc *domain.TenantConfig) Config {
	return Config{
		TenantID:       tc.TenantID,
		StoreURL:       tc.StoreURL,
		ConsumerKey:    tc.ConsumerKey,
		ConsumerSecret: tc.ConsumerSecret,
	}
}

type client struct {
	cfg    Config
	http   *http.Client
	retry  RetryConfig
	audit  ports.AuditLog
	logger zerolog.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewClient creates a remote API client for a single tenant's store.
func NewClient(cfg Config, audit ports.AuditLog, logger zerolog.Logger) ports.RemoteClient {
	return NewClientWithOptions(cfg, audit, DefaultRetryConfig(), logger)
}

// NewClientWithOptions creates a client with an explicit retry policy.
func NewClientWithOptions(cfg Config, audit ports.AuditLog, retry RetryConfig, logger zerolog.Logger) ports.RemoteClient {
	return &client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		retry:  retry,
		audit:  audit,
		logger: logger,
		sleep:  sleepContext,
	}
}

// sleepContext waits out the backoff delay but returns early when the
// caller's context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// List fetches one page of a remote listing. The page count reported in
// the response headers is the caller's termination signal; a short page
// is not.
func (c *client) List(ctx context.Context, path string, opts ports.ListOptions) (*ports.ListResult, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.After != nil {
		query.Set("after", opts.After.UTC().Format(time.RFC3339))
	}

	body, headers, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode listing for %s: %w", path, err)
	}

	totalPages := 1
	if raw := headers.Get(totalPagesHeader); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s header %q: %w", totalPagesHeader, raw, err)
		}
		totalPages = parsed
	}

	return &ports.ListResult{Items: items, TotalPages: totalPages}, nil
}

// Get fetches a single remote record.
func (c *client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	body, _, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// Update writes a single remote record and appends an audit-log entry.
func (c *client) Update(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	body, _, err := c.do(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		return nil, err
	}

	entity, remoteID := parseResourcePath(path)
	entry := &domain.AuditEntry{
		TenantID:  c.cfg.TenantID,
		Actor:     auditActor,
		Action:    "update",
		Entity:    entity,
		RemoteID:  remoteID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.audit.Append(ctx, entry); err != nil {
		// Audit entries are consumed externally; losing one does not
		// invalidate the write itself.
		c.logger.Error().Err(err).
			Str("tenantId", c.cfg.TenantID).
			Str("path", path).
			Msg("Failed to append audit entry")
	}

	return json.RawMessage(body), nil
}

// do executes one request, retrying throttled responses with
// exponential backoff. Non-throttling failures propagate immediately.
func (c *client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, http.Header, error) {
	endpoint := strings.TrimSuffix(c.cfg.StoreURL, "/") + apiBasePath + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastStatus int
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.retry.delayFor(attempt - 1)
			c.logger.Warn().
				Str("tenantId", c.cfg.TenantID).
				Str("path", path).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("Remote store throttled request, backing off")
			if c.retry.OnThrottle != nil {
				c.retry.OnThrottle(c.cfg.TenantID)
			}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, nil, fmt.Errorf("backoff interrupted for %s %s: %w", method, path, err)
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s request: %w", method, err)
		}
		req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s %s: %v", domain.ErrRemoteUnavailable, method, path, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			lastStatus = resp.StatusCode
			continue
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read response for %s: %w", path, readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, resp.Header, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, nil, fmt.Errorf("%w: %s %s: status %d", domain.ErrRemoteAuth, method, path, resp.StatusCode)
		case resp.StatusCode >= 500:
			return nil, nil, fmt.Errorf("%w: %s %s: status %d", domain.ErrRemoteUnavailable, method, path, resp.StatusCode)
		default:
			return nil, nil, fmt.Errorf("remote request %s %s failed: status %d: %s", method, path, resp.StatusCode, truncate(body, 200))
		}
	}

	return nil, nil, fmt.Errorf("%w: %s %s: status %d after %d attempts", domain.ErrRateLimited, method, path, lastStatus, c.retry.MaxAttempts)
}

// parseResourcePath extracts the entity type and remote id from a
// resource path such as "orders/123" or "products/7/variations/9".
func parseResourcePath(path string) (domain.EntityType, int64) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return "", 0
	}

	entity := domain.EntityType(strings.TrimSuffix(parts[0], "s"))
	if !entity.IsValid() {
		entity = domain.EntityType(parts[0])
	}

	var remoteID int64
	if last := parts[len(parts)-1]; last != "" {
		if id, err := strconv.ParseInt(last, 10, 64); err == nil {
			remoteID = id
		}
	}

	return entity, remoteID
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
