package gateway

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// userScopeHeader tells the gateway whose delegated OAuth tokens to use
	// for the underlying tool APIs.
	userScopeHeader = "Arcade-User-Id"

	mcpProtocolVersion = "2024-11-05"
)

// ToolClientConfig is the fully resolved configuration for a user-scoped
// tool connection. The two headers are the two-layer credential model: the
// bearer credential authorizes this deployment to call the gateway at all,
// the user-scoping header names the human the call acts on behalf of.
type ToolClientConfig struct {
	URL     string
	Headers map[string]string
}

// NewToolClientConfig builds the client configuration for one user key.
func NewToolClientConfig(mcpURL, apiKey, userKey string) ToolClientConfig {
	return ToolClientConfig{
		URL: mcpURL,
		Headers: map[string]string{
			"Authorization":  "Bearer " + apiKey,
			userScopeHeader: userKey,
		},
	}
}

// UserKey returns the user the configuration is scoped to.
func (c ToolClientConfig) UserKey() string {
	return c.Headers[userScopeHeader]
}

// ToolClient is an MCP connection to the gateway scoped to a single user.
type ToolClient struct {
	client *client.Client
}

// OpenToolClient connects to the gateway's MCP endpoint with the given
// configuration and performs the protocol handshake.
func OpenToolClient(ctx context.Context, cfg ToolClientConfig) (*ToolClient, error) {
	mcpClient, err := client.NewStreamableHttpClient(cfg.URL, transport.WithHTTPHeaders(cfg.Headers))
	if err != nil {
		return nil, fmt.Errorf("failed to create streamable-http client: %w", err)
	}

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: mcpProtocolVersion,
			ClientInfo: mcp.Implementation{
				Name:    "agentgate",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	return &ToolClient{client: mcpClient}, nil
}

// ListTools returns all tools the gateway exposes for this user.
func (c *ToolClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes one tool. The gateway resolves the user's delegated
// tokens from the scoping header; no per-user OAuth token ever enters this
// process.
func (c *ToolClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tool %s: %w", name, err)
	}
	return result, nil
}

// Close shuts down the MCP connection.
func (c *ToolClient) Close() error {
	return c.client.Close()
}
