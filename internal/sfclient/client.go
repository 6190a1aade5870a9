package sfclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hris-tools/sf-apidoc/internal/common"
)

// Client issues authenticated requests against a SuccessFactors tenant.
// Credential resolution is three-tier: a dynamically acquired OAuth token,
// then a statically configured bearer token, then basic auth. The first two
// tiers fall through on 401/403 or a transport error; the basic-auth attempt
// is unguarded and its result is returned as-is.
type Client struct {
	httpClient  *http.Client
	username    string
	password    string
	staticToken string
	oauth       common.OAuthConfig

	// dynamicToken is set by Authenticate and scoped to one run.
	dynamicToken string

	logger *slog.Logger
}

// Options configures a Client.
type Options struct {
	Username    string
	Password    string
	BearerToken string
	OAuth       common.OAuthConfig
	Timeout     time.Duration
}

func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		username:    opts.Username,
		password:    opts.Password,
		staticToken: opts.BearerToken,
		oauth:       opts.OAuth,
		logger:      logger,
	}
}

// Get issues a GET through the credential fallback chain and returns the raw
// response body and status. Only transport errors on the final tier are
// returned; auth failures on earlier tiers degrade to the next tier.
func (c *Client) Get(ctx context.Context, url string) ([]byte, int, error) {
	reqID := uuid.New().String()

	if c.dynamicToken != "" {
		body, status, err := c.attempt(ctx, url, "Bearer "+c.dynamicToken, reqID)
		if err == nil && status != http.StatusUnauthorized && status != http.StatusForbidden {
			return body, status, nil
		}
		c.logger.Warn("sfclient.dynamic_token_failed", "req_id", reqID, "status", status, "error", err)
	}

	if c.staticToken != "" {
		body, status, err := c.attempt(ctx, url, "Bearer "+c.staticToken, reqID)
		if err == nil && status != http.StatusUnauthorized && status != http.StatusForbidden {
			return body, status, nil
		}
		c.logger.Warn("sfclient.static_token_failed", "req_id", reqID, "status", status, "error", err)
	}

	return c.attemptBasic(ctx, url, reqID)
}

func (c *Client) attempt(ctx context.Context, url, authorization, reqID string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, common.WrapError(err, "build request")
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json, application/xml")
	return c.send(req, reqID)
}

func (c *Client) attemptBasic(ctx context.Context, url, reqID string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, common.WrapError(err, "build request")
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json, application/xml")
	return c.send(req, reqID)
}

func (c *Client) send(req *http.Request, reqID string) ([]byte, int, error) {
	start := time.Now()

	c.logger.Info("sfclient.request",
		"req_id", reqID,
		"url", req.URL.String(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("sfclient.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("sfclient.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("sfclient.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, nil
}
