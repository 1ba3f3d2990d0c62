package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	errs "agentgate/internal/errors"
	"agentgate/internal/metrics"
	"agentgate/tokencache"
)

// expirySkew keeps a cached access token from being handed out moments
// before the provider stops accepting it.
const expirySkew = time.Minute

// Tokens returns a currently-valid access/identity token pair for userKey.
// The base login scopes are always required; requestedScopes widen them. A
// cached pair that still covers the full set is served without a provider
// round trip. Otherwise the refresh token is redeemed for exactly that set
// and the mutated blob is re-persisted before the pair is returned; a stale
// blob left behind after a refresh would make the next caller refresh again
// or present a rotated-away token.
func (p *Provider) Tokens(ctx context.Context, userKey string, requestedScopes []string) (TokenPair, error) {
	raw, err := p.store.Get(ctx, userKey)
	if err != nil {
		if errors.Is(err, tokencache.ErrNotFound) {
			return TokenPair{}, errs.Wrapf(errs.ErrCacheMissing, "user %s", userKey)
		}
		return TokenPair{}, errs.Wrapf(err, "[Tokens] token cache read")
	}

	blob, err := decodeBlob(raw)
	if err != nil {
		return TokenPair{}, errs.Wrapf(errs.ErrCacheMissing, "corrupt token cache entry: %v", err)
	}

	required := p.mergedScopes(requestedScopes)
	now := p.nowTime()
	if p.cachedPairValid(blob, resourceScopes(required), now) {
		metrics.RefreshesTotal.WithLabelValues("cached").Inc()
		return TokenPair{AccessToken: blob.AccessToken, IDToken: blob.IDToken}, nil
	}

	if blob.RefreshToken == "" {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return TokenPair{}, errs.Wrapf(errs.ErrTokenRefresh, "no refresh token cached")
	}

	granted, err := p.refreshGrant(ctx, blob.RefreshToken, required)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return TokenPair{}, errs.Wrapf(errs.ErrTokenRefresh, "provider rejected refresh: %v", err)
	}

	rawIDToken := granted.idToken
	if rawIDToken == "" {
		rawIDToken = blob.IDToken
	}
	refreshToken := granted.refreshToken
	if refreshToken == "" {
		refreshToken = blob.RefreshToken
	}
	// Record only what the provider says it granted; a provider that omits
	// the scope field granted the same set as before.
	scopes := granted.scopes
	if len(scopes) == 0 {
		scopes = blob.Scopes
	}

	tok := &oauth2.Token{AccessToken: granted.accessToken, RefreshToken: refreshToken, Expiry: granted.expiry}
	updated, err := encodeBlob(tok, rawIDToken, scopes, now)
	if err != nil {
		return TokenPair{}, errs.Wrapf(err, "[Tokens] encode refreshed blob")
	}
	if err := p.store.Put(ctx, userKey, updated); err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return TokenPair{}, errs.Wrapf(err, "[Tokens] persist refreshed blob")
	}

	metrics.RefreshesTotal.WithLabelValues("refreshed").Inc()
	log.Debug().Str("user_key", userKey).Msg("token pair refreshed")

	return TokenPair{AccessToken: granted.accessToken, IDToken: rawIDToken}, nil
}

// tokenResponse is the token endpoint's answer to a refresh grant.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// grantedTokens is the outcome of one refresh grant. scopes holds what the
// provider reported granting, which may be narrower than what was asked.
type grantedTokens struct {
	accessToken  string
	refreshToken string
	idToken      string
	expiry       time.Time
	scopes       []string
}

// refreshGrant redeems a refresh token directly against the token endpoint.
// The scope parameter has to ride along explicitly: without it the provider
// re-grants only the originally consented scopes, so a widened request
// would silently never happen.
func (p *Provider) refreshGrant(ctx context.Context, refreshToken string, scopes []string) (grantedTokens, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"scope":         {strings.Join(scopes, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return grantedTokens{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return grantedTokens{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return grantedTokens{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, payload)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return grantedTokens{}, err
	}
	if body.AccessToken == "" {
		return grantedTokens{}, errors.New("token endpoint returned no access token")
	}

	granted := grantedTokens{
		accessToken:  body.AccessToken,
		refreshToken: body.RefreshToken,
		idToken:      body.IDToken,
		scopes:       strings.Fields(body.Scope),
	}
	if body.ExpiresIn > 0 {
		granted.expiry = p.nowTime().Add(time.Duration(body.ExpiresIn) * time.Second)
	}
	return granted, nil
}

// resourceScopes strips the OIDC protocol scopes. Cached-pair coverage is
// judged on resource scopes only: providers do not consistently echo the
// protocol scopes back in refresh responses, and requiring them would force
// a refresh on every call once granted scopes are recorded.
func resourceScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		switch s {
		case oidc.ScopeOpenID, "profile", oidc.ScopeOfflineAccess:
			continue
		}
		out = append(out, s)
	}
	return out
}

func (p *Provider) cachedPairValid(blob cacheBlob, requiredScopes []string, now time.Time) bool {
	if blob.AccessToken == "" || blob.IDToken == "" {
		return false
	}
	if !now.Add(expirySkew).Before(blob.Expiry) {
		return false
	}
	if !scopesCovered(blob.Scopes, requiredScopes) {
		return false
	}
	return idTokenFresh(blob.IDToken, now)
}

// idTokenFresh checks the cached id_token's exp claim without verifying the
// signature; the token was verified when it entered the cache.
func idTokenFresh(rawIDToken string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(expirySkew).Before(exp.Time)
}
