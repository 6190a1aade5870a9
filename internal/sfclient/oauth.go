package sfclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const saml2BearerGrant = "urn:ietf:params:oauth:grant-type:saml2-bearer"

// Authenticate runs the two-step OAuth flow: mint a SAML assertion at the
// identity provider, then exchange it for an access token. Both steps fail
// soft — on any failure the dynamic token stays empty and the fallback tiers
// cover subsequent requests.
func (c *Client) Authenticate(ctx context.Context) {
	if c.oauth.ClientID == "" || c.oauth.IDPURL == "" {
		c.logger.Info("sfclient.oauth_skipped", "reason", "no client id or idp url configured")
		return
	}

	assertion, err := c.fetchAssertion(ctx)
	if err != nil {
		c.logger.Warn("sfclient.assertion_failed", "error", err)
		return
	}

	token, err := c.exchangeAssertion(ctx, assertion)
	if err != nil {
		c.logger.Warn("sfclient.token_exchange_failed", "error", err)
		return
	}

	c.dynamicToken = token
	c.logger.Info("sfclient.oauth_token_acquired")
}

// Token reports the current dynamic token; empty when acquisition failed.
func (c *Client) Token() string {
	return c.dynamicToken
}

func (c *Client) fetchAssertion(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":   {c.oauth.ClientID},
		"user_id":     {c.oauth.UserID},
		"token_url":   {c.oauth.TokenURL},
		"private_key": {c.oauth.PrivateKey},
	}
	body, status, err := c.postForm(ctx, c.oauth.IDPURL, form)
	if err != nil {
		return "", err
	}
	if status/100 != 2 {
		return "", fmt.Errorf("idp returned status %d", status)
	}
	return string(body), nil
}

func (c *Client) exchangeAssertion(ctx context.Context, assertion string) (string, error) {
	form := url.Values{
		"company_id": {c.oauth.CompanyID},
		"client_id":  {c.oauth.ClientID},
		"grant_type": {saml2BearerGrant},
		"user_id":    {c.oauth.UserID},
		"assertion":  {assertion},
		"new_token":  {"true"},
	}
	body, status, err := c.postForm(ctx, c.oauth.TokenURL, form)
	if err != nil {
		return "", err
	}
	if status/100 != 2 {
		return "", fmt.Errorf("token endpoint returned status %d", status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return payload.AccessToken, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return raw, resp.StatusCode, nil
}
