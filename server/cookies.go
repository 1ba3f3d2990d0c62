package server

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"agentgate/sessions"
)

// sessionCookieName is the cookie carrying the signed session ID
const sessionCookieName = "agentgate_session"

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// signSessionID produces the cookie value: sessionID.signature. The session
// store itself is server-side; the signature stops a client fabricating
// plausible-looking IDs cheaply.
func (s *Server) signSessionID(sessionID string) string {
	mac := hmac.New(sha256.New, s.config.GetSessionSecret())
	mac.Write([]byte(sessionID))
	return sessionID + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifySessionCookie splits and checks a cookie value, returning the
// session ID when the signature matches.
func (s *Server) verifySessionCookie(value string) (string, bool) {
	idx := strings.LastIndexByte(value, '.')
	if idx <= 0 {
		return "", false
	}
	sessionID := value[:idx]
	if !hmac.Equal([]byte(s.signSessionID(sessionID)), []byte(value)) {
		return "", false
	}
	return sessionID, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.signSessionID(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// currentSession resolves the request's session record from its cookie.
func (s *Server) currentSession(r *http.Request) (string, sessions.Record, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", sessions.Record{}, false
	}

	sessionID, ok := s.verifySessionCookie(cookie.Value)
	if !ok {
		return "", sessions.Record{}, false
	}

	record, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", sessions.Record{}, false
	}

	return sessionID, record, true
}
