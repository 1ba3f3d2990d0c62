package identity

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// cacheBlob is the serialized token-cache entry persisted per user key. The
// store treats it as opaque bytes; only this package reads or writes it.
type cacheBlob struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IDToken      string    `json:"id_token"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func encodeBlob(tok *oauth2.Token, rawIDToken string, scopes []string, now time.Time) ([]byte, error) {
	return json.Marshal(cacheBlob{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawIDToken,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
		UpdatedAt:    now,
	})
}

func decodeBlob(b []byte) (cacheBlob, error) {
	var blob cacheBlob
	err := json.Unmarshal(b, &blob)
	return blob, err
}

// scopesCovered reports whether every requested scope is already present in
// the cached scope list.
func scopesCovered(cached, requested []string) bool {
	have := make(map[string]struct{}, len(cached))
	for _, s := range cached {
		have[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := have[s]; !ok {
			return false
		}
	}
	return true
}
