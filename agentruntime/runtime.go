// Package agentruntime binds an agent invocation to the authenticated user
// it runs on behalf of. The agent execution framework injects an opaque,
// map-like runtime context per invocation; everything downstream gets a
// validated user key instead of digging through nested maps.
package agentruntime

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"agentgate/gateway"
	"agentgate/internal/config"
	errs "agentgate/internal/errors"
)

const (
	configurableKey = "configurable"
	authUserKey     = "langgraph_auth_user"
	identityKey     = "identity"
)

// ResolveUserKey extracts the authenticated user's key from the runtime
// context. Absence at any level is a configuration error and must fail the
// whole invocation; an agent never runs unscoped.
func ResolveUserKey(runtimeContext map[string]any) (string, error) {
	configurable, ok := runtimeContext[configurableKey].(map[string]any)
	if !ok {
		return "", errs.Wrapf(errs.ErrConfiguration, "runtime context has no %q section", configurableKey)
	}

	user, ok := configurable[authUserKey].(map[string]any)
	if !ok {
		return "", errs.Wrapf(errs.ErrConfiguration, "no authenticated user in runtime context")
	}

	userKey, ok := user[identityKey].(string)
	if !ok || userKey == "" {
		return "", errs.Wrapf(errs.ErrConfiguration, "authenticated user has no identity")
	}

	return userKey, nil
}

// Toolset is the user-scoped tool surface handed to the agent builder.
type Toolset struct {
	UserKey string
	Tools   []mcp.Tool
	Client  *gateway.ToolClient
}

// BuildToolset resolves the invocation's user key, opens a gateway
// connection scoped to that user and lists the available tools. The caller
// owns the returned client and must Close it when the agent is done.
func BuildToolset(ctx context.Context, cfg config.GatewayConfig, runtimeContext map[string]any) (*Toolset, error) {
	userKey, err := ResolveUserKey(runtimeContext)
	if err != nil {
		return nil, err
	}

	toolCfg := gateway.NewToolClientConfig(cfg.GetGatewayMCPURL(), cfg.GetGatewayAPIKey(), userKey)
	toolClient, err := gateway.OpenToolClient(ctx, toolCfg)
	if err != nil {
		return nil, errs.Wrapf(err, "[BuildToolset] open gateway client")
	}

	tools, err := toolClient.ListTools(ctx)
	if err != nil {
		toolClient.Close()
		return nil, errs.Wrapf(err, "[BuildToolset] list tools")
	}

	log.Info().Str("user_key", userKey).Int("tools", len(tools)).Msg("user-scoped toolset ready")

	return &Toolset{UserKey: userKey, Tools: tools, Client: toolClient}, nil
}
