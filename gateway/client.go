// Package gateway talks to the tool gateway: the server-side consent
// verification API and the MCP endpoint serving the user-scoped tools.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"agentgate/internal/config"
	errs "agentgate/internal/errors"
)

// Authorization flow statuses reported by the gateway.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Confirmation is the gateway's answer to a confirm_user call.
type Confirmation struct {
	AuthID  string `json:"auth_id"`
	NextURI string `json:"next_uri"`
}

// Authorization is the state of one consent flow.
type Authorization struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client calls the gateway's REST API using the service-level credential.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pollEvery  time.Duration
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:    cfg.GetGatewayBaseURL(),
		apiKey:     cfg.GetGatewayAPIKey(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		pollEvery:  2 * time.Second,
	}
}

// ConfirmUser asserts, server to server, that the human identified by
// userKey is the one who initiated consent flow flowID. This is the
// anti-phishing half of the handshake: it runs out of band from the
// browser redirect chain, authenticated by the service credential.
func (c *Client) ConfirmUser(ctx context.Context, flowID, userKey string) (*Confirmation, error) {
	body, err := json.Marshal(map[string]string{
		"flow_id": flowID,
		"user_id": userKey,
	})
	if err != nil {
		return nil, err
	}

	var confirmation Confirmation
	if err := c.do(ctx, http.MethodPost, "/v1/oauth/confirm_user", bytes.NewReader(body), &confirmation); err != nil {
		return nil, errs.Wrapf(errs.ErrGatewayVerification, "confirm_user: %v", err)
	}
	if confirmation.AuthID == "" {
		return nil, errs.Wrapf(errs.ErrGatewayVerification, "confirm_user returned no auth_id")
	}
	return &confirmation, nil
}

// WaitForCompletion polls the authorization until it leaves the pending
// state. It can run for as long as the surrounding request lives; the only
// way to abandon it is cancelling ctx.
func (c *Client) WaitForCompletion(ctx context.Context, authID string) (*Authorization, error) {
	path := "/v1/oauth/status?" + url.Values{"id": {authID}, "wait": {"45"}}.Encode()

	for {
		var auth Authorization
		if err := c.do(ctx, http.MethodGet, path, nil, &auth); err != nil {
			return nil, errs.Wrapf(errs.ErrGatewayVerification, "wait_for_completion: %v", err)
		}
		if auth.Status != StatusPending {
			return &auth, nil
		}

		select {
		case <-ctx.Done():
			return nil, errs.Wrapf(errs.ErrGatewayVerification, "wait_for_completion: %v", ctx.Err())
		case <-time.After(c.pollEvery):
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, payload)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
