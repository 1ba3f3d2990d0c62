// Package identity performs the authorization-code exchange with the
// identity provider, verifies the returned identity assertion, and serves
// refreshed tokens out of the durable token cache.
package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"

	"agentgate/internal/config"
	errs "agentgate/internal/errors"
	"agentgate/internal/metrics"
	"agentgate/tokencache"
)

// Login is the outcome of a successful identity exchange.
type Login struct {
	UserKey string
	Email   string
	Name    string
}

// TokenPair is a currently-valid access/identity token pair.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

// Provider wires the OIDC issuer, the app registration, and the token cache
// store. It is constructed once at startup and read-only afterwards.
type Provider struct {
	oidcProvider *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	endpoint     oauth2.Endpoint
	clientID     string
	clientSecret string
	redirectURI  string
	baseScopes   []string
	store        tokencache.Store
	httpClient   *http.Client

	// Bounds concurrent blocking calls to the provider so a slow exchange
	// cannot stall every other in-flight session.
	workers *semaphore.Weighted

	nowTime func() time.Time
}

// Option modifies the Provider instance.
type Option func(*Provider)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// New discovers the issuer's endpoints and builds the ID token verifier.
// Claims are only ever trusted after that verifier accepts them.
func New(ctx context.Context, cfg config.ProviderConfig, store tokencache.Store, options ...Option) (*Provider, error) {
	oidcProvider, err := oidc.NewProvider(ctx, cfg.GetProviderIssuer())
	if err != nil {
		return nil, errs.Wrapf(err, "[identity New] provider discovery for %q", cfg.GetProviderIssuer())
	}

	p := &Provider{
		oidcProvider: oidcProvider,
		verifier:     oidcProvider.Verifier(&oidc.Config{ClientID: cfg.GetClientID()}),
		endpoint:     oidcProvider.Endpoint(),
		clientID:     cfg.GetClientID(),
		clientSecret: cfg.GetClientSecret(),
		redirectURI:  cfg.GetRedirectURI(),
		baseScopes:   cfg.GetBaseScopes(),
		store:        store,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		workers:      semaphore.NewWeighted(cfg.GetExchangeWorkers()),
		nowTime:      time.Now,
	}

	for _, opt := range options {
		opt(p)
	}

	return p, nil
}

// AuthCodeURL returns the provider authorization URL for a login attempt.
// state is the CSRF nonce the callback must echo back.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauthConfig(nil).AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for tokens, verifies the id_token,
// derives the durable user key and persists the token cache blob under it.
// Exactly one store write happens per successful exchange; if the write
// fails the whole exchange fails rather than degrading to session-only auth.
func (p *Provider) Exchange(ctx context.Context, code string, requestedScopes []string) (Login, error) {
	if err := p.workers.Acquire(ctx, 1); err != nil {
		return Login{}, errs.Wrapf(err, "[Exchange] worker acquire")
	}
	defer p.workers.Release(1)

	conf := p.oauthConfig(requestedScopes)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		metrics.ExchangesTotal.WithLabelValues("exchange_failed").Inc()
		return Login{}, errs.Wrapf(errs.ErrTokenExchange, "provider rejected authorization code: %v", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		metrics.ExchangesTotal.WithLabelValues("exchange_failed").Inc()
		return Login{}, errs.Wrapf(errs.ErrTokenExchange, "no id_token in provider response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		metrics.ExchangesTotal.WithLabelValues("verify_failed").Inc()
		return Login{}, errs.Wrapf(errs.ErrIdentityVerification, "id_token rejected: %v", err)
	}

	var claims struct {
		OID   string `json:"oid"`
		TID   string `json:"tid"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		metrics.ExchangesTotal.WithLabelValues("verify_failed").Inc()
		return Login{}, errs.Wrapf(errs.ErrIdentityVerification, "claims decode: %v", err)
	}
	if claims.OID == "" || claims.TID == "" {
		metrics.ExchangesTotal.WithLabelValues("verify_failed").Inc()
		return Login{}, errs.Wrapf(errs.ErrIdentityVerification, "missing oid or tid claim")
	}

	userKey := claims.OID + "." + claims.TID

	blob, err := encodeBlob(tok, rawIDToken, conf.Scopes, p.nowTime())
	if err != nil {
		return Login{}, errs.Wrapf(err, "[Exchange] encode token cache blob")
	}
	if err := p.store.Put(ctx, userKey, blob); err != nil {
		metrics.ExchangesTotal.WithLabelValues("persist_failed").Inc()
		return Login{}, errs.Wrapf(err, "[Exchange] persist token cache")
	}

	metrics.ExchangesTotal.WithLabelValues("ok").Inc()
	log.Debug().Str("user_key", userKey).Msg("identity exchange completed")

	return Login{UserKey: userKey, Email: claims.Email, Name: claims.Name}, nil
}

// mergedScopes is the full scope set for a provider call: the protocol
// scopes, the base login scopes, and any per-request extras not already
// covered.
func (p *Provider) mergedScopes(extraScopes []string) []string {
	scopes := []string{oidc.ScopeOpenID, "profile", oidc.ScopeOfflineAccess}
	scopes = append(scopes, p.baseScopes...)
	for _, s := range extraScopes {
		if !scopesCovered(scopes, []string{s}) {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func (p *Provider) oauthConfig(extraScopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Endpoint:     p.endpoint,
		RedirectURL:  p.redirectURI,
		Scopes:       p.mergedScopes(extraScopes),
	}
}
