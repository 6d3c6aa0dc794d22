package oauthflow

import (
	"context"
	"time"

	"mcporter/internal/oauthvault"
	"mcporter/pkg/logging"
	"mcporter/pkg/oauth"
)

const refreshDeadline = 10 * time.Second

var fallbackTokenPaths = []string{"/oauth2/token", "/token"}

// Refresh attempts to exchange a persisted refresh token for a new access
// token, saving the result back to vault. It reports ok=false for any
// failure (missing refresh token, discovery failure, or a rejected grant)
// and never returns an error the caller must unwrap; the caller always
// falls through to the interactive flow on ok=false.
func Refresh(ctx context.Context, client *oauth.Client, vault *oauthvault.Vault, serverBaseURL string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, refreshDeadline)
	defer cancel()

	tokens, err := vault.ReadTokens()
	if err != nil || tokens == nil || tokens.RefreshToken == "" {
		return "", false
	}

	clientInfo, err := vault.ReadClientInfo()
	if err != nil || clientInfo == nil || clientInfo.ClientID == "" {
		logging.Debug("TokenRefresh", "no client registration for %s, cannot refresh", serverBaseURL)
		return "", false
	}

	refreshed, err := refreshAgainstCandidates(ctx, client, serverBaseURL, tokens.RefreshToken, clientInfo.ClientID)
	if err != nil {
		logging.Warn("TokenRefresh", "refresh failed for %s: %v", serverBaseURL, err)
		return "", false
	}

	// Servers are not required to issue a new refresh token; retain the
	// prior one when the response omits it.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tokens.RefreshToken
	}

	if err := vault.SaveTokens(refreshed); err != nil {
		logging.Warn("TokenRefresh", "saving refreshed token for %s: %v", serverBaseURL, err)
		return "", false
	}

	logging.Audit(logging.AuditEvent{Action: "token_refresh", Outcome: "success", Target: serverBaseURL})
	return refreshed.AccessToken, true
}

// refreshAgainstCandidates prefers the authorization server's advertised
// token_endpoint. Only when discovery itself fails does it fall back to the
// conventional candidate paths rooted at the server's origin, trying each in
// order and returning the first one that doesn't fail the refresh call.
func refreshAgainstCandidates(ctx context.Context, client *oauth.Client, serverBaseURL, refreshToken, clientID string) (*oauth.Token, error) {
	asURL := originOf(serverBaseURL)
	metadata, err := client.DiscoverMetadata(ctx, asURL)
	if err == nil && metadata != nil && metadata.TokenEndpoint != "" {
		return client.RefreshToken(ctx, metadata.TokenEndpoint, refreshToken, clientID)
	}

	logging.Debug("TokenRefresh", "discovery unavailable for %s, trying fallback token endpoints", asURL)
	var lastErr error
	for _, path := range fallbackTokenPaths {
		refreshed, rErr := client.RefreshToken(ctx, asURL+path, refreshToken, clientID)
		if rErr == nil {
			return refreshed, nil
		}
		lastErr = rErr
	}
	return nil, lastErr
}
