package config

import "fmt"

// ProviderConfig describes the identity-provider app registration used for
// sign-in. The defaults target an Azure AD v2.0 tenant, but any OIDC issuer
// that returns oid/tid claims works.
type ProviderConfig interface {
	GetProviderIssuer() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetApplicationURI() string
	GetBaseScopes() []string
	GetExchangeWorkers() int64
}

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetProviderIssuer() string {
	if issuer := GetEnv("AAD_ISSUER", ""); issuer != "" {
		return issuer
	}
	tenant := GetEnv("AAD_TENANT_ID", "common")
	return fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", tenant)
}

func (Provider) GetClientID() string {
	return GetEnv("AAD_CLIENT_ID", "")
}

func (Provider) GetClientSecret() string {
	return GetEnv("AAD_CLIENT_SECRET", "")
}

func (Provider) GetRedirectURI() string {
	return GetEnv("AAD_REDIRECT_URI", "http://localhost:8080/auth/callback")
}

// GetApplicationURI returns the app ID URI whose /access scope authorizes
// calls into the agent runtime.
func (Provider) GetApplicationURI() string {
	return GetEnv("AAD_APPLICATION_URI", "")
}

// GetBaseScopes are the scopes requested on every login and token refresh.
func (p Provider) GetBaseScopes() []string {
	scopes := []string{"email"}
	if appURI := p.GetApplicationURI(); appURI != "" {
		scopes = append(scopes, appURI+"/access")
	}
	return scopes
}

// GetExchangeWorkers bounds how many authorization-code exchanges may block
// on the provider at once.
func (Provider) GetExchangeWorkers() int64 {
	return 8
}
