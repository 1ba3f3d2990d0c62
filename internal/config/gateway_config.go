package config

// GatewayConfig describes the tool gateway: the REST surface used for the
// verification handshake and the MCP endpoint tools are served from.
type GatewayConfig interface {
	GetGatewayBaseURL() string
	GetGatewayAPIKey() string
	GetGatewayMCPURL() string
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

func (Gateway) GetGatewayBaseURL() string {
	return GetEnv("ARCADE_BASE_URL", "https://api.arcade.dev")
}

// GetGatewayAPIKey returns the service-level credential shared by every
// request this deployment makes to the gateway. It authorizes calling the
// gateway at all; the per-call user header scopes the call to one human.
func (Gateway) GetGatewayAPIKey() string {
	return GetEnv("ARCADE_API_KEY", "")
}

func (Gateway) GetGatewayMCPURL() string {
	return GetEnv("ARCADE_MCP_URL", "https://api.arcade.dev/v1/mcp")
}
