package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	errs "agentgate/internal/errors"
	"agentgate/sessions"
)

// LoginHandler starts the sign-in flow. It issues a CSRF state nonce, binds
// it to a fresh session and returns the provider authorization URL for the
// frontend to redirect to.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateRandomString(16)
		sessionID := generateRandomString(32)

		record := sessions.Record{
			Nonce:     state,
			ExpiresAt: time.Now().Add(s.config.GetMaxSessionAge()),
		}
		if err := s.sessions.Upsert(sessionID, record); err != nil {
			log.Error().Err(err).Msg("login: session create failed")
			http.Error(w, "failed to start login", http.StatusInternalServerError)
			return
		}

		s.setSessionCookie(w, r, sessionID)
		writeJSON(w, http.StatusOK, map[string]string{"auth_url": s.identity.AuthCodeURL(state)})
	}
}

// AuthCallbackHandler completes sign-in after the provider redirect. The
// state parameter must match the nonce issued at login initiation before
// any provider call or cache write happens.
func (s *Server) AuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		scopes := strings.Fields(r.URL.Query().Get("scopes"))

		if code == "" {
			http.Error(w, "Auth Callback Error: No authorization code provided", http.StatusBadRequest)
			return
		}

		sessionID, record, ok := s.currentSession(r)
		if !ok {
			http.Error(w, "Auth Callback Error: No login in progress", http.StatusBadRequest)
			return
		}
		if state == "" || record.Nonce == "" || state != record.Nonce {
			http.Error(w, "Auth Callback Error: State mismatch", http.StatusBadRequest)
			return
		}

		login, err := s.identity.Exchange(r.Context(), code, scopes)
		if err != nil {
			log.Error().Err(err).Msg("auth callback: exchange failed")
			http.Error(w, "Auth Callback Error: "+safeExchangeMessage(err), http.StatusBadRequest)
			return
		}

		record.Nonce = "" // single use
		record.UserKey = login.UserKey
		record.Email = login.Email
		record.Name = login.Name
		record.AuthTime = time.Now()
		record.ExpiresAt = record.AuthTime.Add(s.config.GetMaxSessionAge())

		if err := s.sessions.Upsert(sessionID, record); err != nil {
			log.Error().Err(err).Msg("auth callback: session update failed")
			http.Error(w, "Auth Callback Error: Failed to establish session", http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// AuthStatusHandler reports whether the request carries an authenticated,
// unexpired session.
func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, record, ok := s.currentSession(r)
		authenticated := ok && record.Authenticated(time.Now())
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
	}
}

// LogoutHandler clears all session state unconditionally.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, _, ok := s.currentSession(r); ok {
			if err := s.sessions.Delete(sessionID); err != nil {
				log.Error().Err(err).Msg("logout: session delete failed")
			}
		}
		s.clearSessionCookie(w)
		w.WriteHeader(http.StatusOK)
	}
}

// TokensHandler serves a fresh access/identity token pair for the session
// user, refreshing through the provider when the cached pair has expired.
// The base login scopes are always enforced by the identity service; no
// extra scopes are requested here. Session expiry alone does not invalidate
// the durable cache entry; the user re-authenticates and refresh continues
// from the persisted blob.
func (s *Server) TokensHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, record, ok := s.currentSession(r)
		if !ok || !record.Authenticated(time.Now()) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token Issuance Error: No valid session"})
			return
		}

		pair, err := s.identity.Tokens(r.Context(), record.UserKey, nil)
		if err != nil {
			log.Error().Err(err).Str("user_key", record.UserKey).Msg("token issuance failed")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token Issuance Error: " + safeTokenMessage(err)})
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// safeExchangeMessage maps exchange failures to stable, user-safe text.
// Raw provider errors stay in the logs.
func safeExchangeMessage(err error) string {
	switch {
	case errs.Is(err, errs.ErrIdentityVerification):
		return "Failed to verify id_token"
	case errs.Is(err, errs.ErrTokenExchange):
		return "Token exchange failed"
	default:
		return "Sign-in could not be completed"
	}
}

func safeTokenMessage(err error) string {
	switch {
	case errs.Is(err, errs.ErrCacheMissing):
		return "No token info found in cache"
	case errs.Is(err, errs.ErrTokenRefresh):
		return "Token refresh rejected, please sign in again"
	default:
		return "Could not issue tokens"
	}
}
