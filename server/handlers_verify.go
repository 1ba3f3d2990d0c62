package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"agentgate/gateway"
	"agentgate/internal/metrics"
)

// ArcadeVerifyHandler is the gateway's custom user verifier endpoint.
//
// The consent flow itself runs in a browser context the gateway controls.
// Without this handshake, an attacker holding a victim's flow_id could
// complete their own OAuth consent and bind it to the victim's tool
// access. Here the session-authenticated identity corroborates the flow
// server to server, out of band from the browser redirect chain.
func (s *Server) ArcadeVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := r.URL.Query().Get("flow_id")
		if flowID == "" {
			http.Error(w, "Arcade Verify Error: Missing required parameter: flow_id", http.StatusBadRequest)
			return
		}

		// The user key must come from the login session; it has to match the
		// user the tool call was scoped to when the flow started.
		_, record, ok := s.currentSession(r)
		if !ok || !record.Authenticated(time.Now()) {
			http.Error(w, "Arcade Verify Error: User not authenticated. Please log in first.", http.StatusUnauthorized)
			return
		}

		confirmation, err := s.gateway.ConfirmUser(r.Context(), flowID, record.UserKey)
		if err != nil {
			metrics.VerificationsTotal.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("flow_id", flowID).Msg("gateway confirm_user failed")
			http.Error(w, "Arcade Verify Error: Failed to verify user.", http.StatusBadRequest)
			return
		}

		// Consent completion is not idempotent; never retried here.
		auth, err := s.gateway.WaitForCompletion(r.Context(), confirmation.AuthID)
		if err != nil {
			metrics.VerificationsTotal.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("flow_id", flowID).Msg("gateway wait_for_completion failed")
			http.Error(w, "Arcade Verify Error: Failed to verify user.", http.StatusBadRequest)
			return
		}

		if auth.Status != gateway.StatusCompleted {
			metrics.VerificationsTotal.WithLabelValues(auth.Status).Inc()
			http.Error(w, "Arcade Verify Error: Authorization status: "+auth.Status, http.StatusBadRequest)
			return
		}

		metrics.VerificationsTotal.WithLabelValues("completed").Inc()

		if confirmation.NextURI != "" {
			http.Redirect(w, r, confirmation.NextURI, http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(authorizationSuccessPage))
	}
}

// authorizationSuccessPage is shown when the gateway supplies no
// continuation URL after a completed consent.
const authorizationSuccessPage = `<!DOCTYPE html>
<html>
<head>
	<title>Authorization Successful</title>
	<style>
		body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
		.card { padding: 2rem; border-radius: 8px; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1); text-align: center; max-width: 400px; }
		h1 { color: #10b981; margin-top: 0; }
		p { color: #6b7280; }
	</style>
</head>
<body>
	<div class="card">
		<h1>Authorization Successful</h1>
		<p>You have successfully authorized the application.</p>
		<p>You can close this window and return to the application.</p>
	</div>
</body>
</html>
`
