// Package oauthflow orchestrates the interactive and silent halves of OAuth
// bootstrap for one server: metadata discovery, token refresh, and the
// loopback-listener authorization-code session with dynamic client
// registration.
package oauthflow

import (
	"context"
	"net/url"
	"time"

	"mcporter/pkg/logging"
	"mcporter/pkg/oauth"
)

const discoveryDeadline = 5 * time.Second

const (
	scopeMCPTools   = "mcp:tools"
	scopeMCPConnect = "mcp:connect"
	defaultScope    = "mcp:tools"
)

// Discovered holds the outcome of a discovery pass.
type Discovered struct {
	AuthorizationServer string
	Metadata            *oauth.Metadata
	Scope               string
}

// Discover resolves the authorization server for serverBaseURL and the
// effective scope to request, per spec §4.3. It never raises: every failure
// degrades to a fallback and is logged at Warn.
func Discover(ctx context.Context, client *oauth.Client, serverBaseURL string) *Discovered {
	ctx, cancel := context.WithTimeout(ctx, discoveryDeadline)
	defer cancel()

	asURL := originOf(serverBaseURL)
	var resourceScopes []string

	prm, err := client.DiscoverProtectedResource(ctx, serverBaseURL)
	if err != nil {
		logging.Warn("OAuthDiscovery", "protected-resource metadata fetch failed for %s: %v", serverBaseURL, err)
	} else if prm != nil {
		if len(prm.AuthorizationServers) > 0 {
			asURL = prm.AuthorizationServers[0]
		}
		resourceScopes = prm.ScopesSupported
	}

	metadata, err := client.DiscoverMetadata(ctx, asURL)
	if err != nil {
		logging.Warn("OAuthDiscovery", "authorization-server metadata fetch failed for %s: %v", asURL, err)
		metadata = nil
	}

	var asScopes []string
	if metadata != nil {
		asScopes = metadata.ScopesSupported
	}

	return &Discovered{
		AuthorizationServer: asURL,
		Metadata:            metadata,
		Scope:               resolveOAuthScope(resourceScopes, asScopes, defaultScope),
	}
}

// resolveOAuthScope is total: it always returns a non-empty string. It
// prefers "mcp:tools", then "mcp:connect", then the first advertised scope,
// then fallback.
func resolveOAuthScope(resourceScopes, asScopes []string, fallback string) string {
	combined := append(append([]string{}, resourceScopes...), asScopes...)
	if contains(combined, scopeMCPTools) {
		return scopeMCPTools
	}
	if contains(combined, scopeMCPConnect) {
		return scopeMCPConnect
	}
	if len(combined) > 0 {
		return combined[0]
	}
	return fallback
}

func contains(list []string, needle string) bool {
	for _, s := range list {
		if s == needle {
			return true
		}
	}
	return false
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
