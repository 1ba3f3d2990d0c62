package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "test-client-1"
	testClientSecret = "test-secret-1"
	testRedirectURI  = "http://localhost:8080/auth/callback"
	testOID          = "aaaaaaaa-1111-2222-3333-444444444444"
	testTID          = "bbbbbbbb-5555-6666-7777-888888888888"
	testEmail        = "john.doe@example.com"
	testName         = "John Doe"
	testKeyID        = "test-key-1"
)

// oidcStub is a minimal OpenID Connect issuer: discovery document, JWKS and
// token endpoint, signing id_tokens with a throwaway RSA key.
type oidcStub struct {
	t   *testing.T
	key *rsa.PrivateKey
	srv *httptest.Server

	mu               sync.Mutex
	tokenCalls       int
	lastRefreshScope string

	accessToken  string
	refreshToken string
	expiresIn    int
	failExchange bool
	failRefresh  bool
	omitScope    bool
	breakSig     bool
	extraClaims  map[string]any
	dropClaims   []string
}

func newOIDCStub(t *testing.T) *oidcStub {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s := &oidcStub{
		t:            t,
		key:          key,
		accessToken:  "access-token-1",
		refreshToken: "refresh-token-1",
		expiresIn:    3600,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", s.discoveryHandler)
	mux.HandleFunc("/keys", s.jwksHandler)
	mux.HandleFunc("/token", s.tokenHandler)

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)

	return s
}

func (s *oidcStub) issuer() string { return s.srv.URL }

func (s *oidcStub) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

// refreshScope returns the scope parameter of the last refresh grant.
func (s *oidcStub) refreshScope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefreshScope
}

func (s *oidcStub) discoveryHandler(w http.ResponseWriter, _ *http.Request) {
	writeStubJSON(w, http.StatusOK, map[string]any{
		"issuer":                                s.srv.URL,
		"authorization_endpoint":                s.srv.URL + "/authorize",
		"token_endpoint":                        s.srv.URL + "/token",
		"jwks_uri":                              s.srv.URL + "/keys",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (s *oidcStub) jwksHandler(w http.ResponseWriter, _ *http.Request) {
	writeStubJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(s.key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(s.key.E)).Bytes()),
		}},
	})
}

func (s *oidcStub) tokenHandler(w http.ResponseWriter, r *http.Request) {
	require.NoError(s.t, r.ParseForm())

	s.mu.Lock()
	s.tokenCalls++
	if r.Form.Get("grant_type") == "refresh_token" {
		s.lastRefreshScope = r.Form.Get("scope")
	}
	failExchange, failRefresh, omitScope := s.failExchange, s.failRefresh, s.omitScope
	s.mu.Unlock()

	switch r.Form.Get("grant_type") {
	case "authorization_code":
		if failExchange {
			writeStubJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
	case "refresh_token":
		if failRefresh {
			writeStubJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
	default:
		writeStubJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	resp := map[string]any{
		"access_token":  s.accessToken,
		"token_type":    "Bearer",
		"expires_in":    s.expiresIn,
		"refresh_token": s.refreshToken,
		"id_token":      s.mintIDToken(),
	}
	// Real providers echo what they granted; a request without a scope
	// parameter gets no scope field back.
	if scope := r.Form.Get("scope"); scope != "" && !omitScope {
		resp["scope"] = scope
	}
	writeStubJSON(w, http.StatusOK, resp)
}

// mintIDToken signs an id_token for the stub's test identity. extraClaims
// override defaults; dropClaims removes claims entirely.
func (s *oidcStub) mintIDToken() string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.srv.URL,
		"aud":   testClientID,
		"sub":   "subject-1",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"oid":   testOID,
		"tid":   testTID,
		"email": testEmail,
		"name":  testName,
	}
	for k, v := range s.extraClaims {
		claims[k] = v
	}
	for _, k := range s.dropClaims {
		delete(claims, k)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(s.key)
	require.NoError(s.t, err)

	if s.breakSig {
		// Flip a character inside the signature segment so the structure
		// stays valid base64url but the signature no longer verifies.
		b := []byte(signed)
		last := len(b) - 1
		if b[last] == 'A' {
			b[last] = 'B'
		} else {
			b[last] = 'A'
		}
		signed = string(b)
	}

	return signed
}

func writeStubJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// stubProviderConfig satisfies config.ProviderConfig against the stub issuer.
type stubProviderConfig struct {
	issuer string
}

func (c stubProviderConfig) GetProviderIssuer() string { return c.issuer }
func (c stubProviderConfig) GetClientID() string       { return testClientID }
func (c stubProviderConfig) GetClientSecret() string   { return testClientSecret }
func (c stubProviderConfig) GetRedirectURI() string    { return testRedirectURI }
func (c stubProviderConfig) GetApplicationURI() string { return "" }
func (c stubProviderConfig) GetBaseScopes() []string   { return []string{"email"} }
func (c stubProviderConfig) GetExchangeWorkers() int64 { return 2 }
