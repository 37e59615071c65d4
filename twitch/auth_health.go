package twitchirc

import (
	"encoding/json"
	"net/http"
	"time"
)

// AuthHealthResponse is the JSON body of the auth health endpoint.
type AuthHealthResponse struct {
	HasToken         bool      `json:"has_token"`
	LastRefreshTime  time.Time `json:"last_refresh_time"`
	ExpirationTime   time.Time `json:"expiration_time"`
	IsExpired        bool      `json:"is_expired"`
	HoursUntilExpiry float64   `json:"hours_until_expiry"`
}

// Static tokens from the environment carry no expiry, so assume the
// twitch default.
const tokenExpiryDuration = 12 * time.Hour

// GetAuthHealth reports the current auth token health. Tokens from the
// oauth exchange carry their own expiry; static tokens get the assumed
// one.
func (irc *IRC) GetAuthHealth() AuthHealthResponse {
	hasToken := irc.tok != nil && irc.tok.AccessToken != ""
	expirationTime := irc.tokenRefreshTime.Add(tokenExpiryDuration)
	if hasToken && !irc.tok.Expiry.IsZero() {
		expirationTime = irc.tok.Expiry
	}
	hoursUntilExpiry := time.Until(expirationTime).Hours()
	isExpired := time.Now().After(expirationTime)

	return AuthHealthResponse{
		HasToken:         hasToken,
		LastRefreshTime:  irc.tokenRefreshTime,
		ExpirationTime:   expirationTime,
		IsExpired:        isExpired,
		HoursUntilExpiry: hoursUntilExpiry,
	}
}

// AuthHealthHandler serves the auth health check. Main mounts it next
// to the metrics endpoints.
func (irc *IRC) AuthHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		health := irc.GetAuthHealth()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(health); err != nil {
			irc.logger.Error("failed to encode auth health response", "error", err.Error())
			return
		}
	}
}
