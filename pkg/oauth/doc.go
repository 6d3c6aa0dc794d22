// Package oauth provides shared OAuth 2.1 types and protocol utilities:
// token and metadata shapes, PKCE generation, WWW-Authenticate parsing, and
// an HTTP client for discovery and token operations. internal/oauthvault
// and internal/oauthflow build the file persistence and session orchestration
// on top of these primitives.
//
// # Core Components
//
//   - Token: OAuth token representation with expiry checking
//   - Metadata / ProtectedResourceMetadata: RFC 8414 / RFC 9728 server metadata
//   - AuthChallenge: parsed WWW-Authenticate header information
//   - PKCEChallenge: RFC 7636 Proof Key for Code Exchange generation
//   - ClientMetadata / ClientInformation: RFC 7591 dynamic client registration
//   - Client: metadata discovery, token exchange and refresh
//
// # Usage
//
//	import "mcporter/pkg/oauth"
//
//	challenge, err := oauth.ParseWWWAuthenticate(header)
//	pkce, err := oauth.GeneratePKCE()
//	client := oauth.NewClient()
//	metadata, err := client.DiscoverMetadata(ctx, issuer)
package oauth
