package client

import (
	"context"
	"fmt"
	"os"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"

	"mcporter/internal/classify"
	"mcporter/internal/mcpdef"
	"mcporter/internal/oauthflow"
	"mcporter/internal/oauthvault"
	"mcporter/pkg/logging"
	"mcporter/pkg/oauth"
)

const protectedResourceProbeDeadline = 5 * time.Second

// ClientContext is a live connection to one server, ready for listTools /
// callTool. It owns the underlying MCP SDK client and, for HTTP servers
// that authorized interactively, the OAuth session that produced the
// current token.
type ClientContext struct {
	Name    string
	Def     mcpdef.ServerDefinition
	MCP     mcpclient.MCPClient
	session *oauthflow.Session
}

// Close shuts down the MCP client and, if one was opened, the OAuth
// session's callback listener. Both underlying closes are best-effort:
// errors are logged, never propagated, per the "transport close errors are
// always suppressed" policy.
func (c *ClientContext) Close() error {
	if c.MCP != nil {
		if err := c.MCP.Close(); err != nil {
			logging.Debug("ClientBuilder", "closing transport for %s: %v", c.Name, err)
		}
	}
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			logging.Debug("ClientBuilder", "closing OAuth session for %s: %v", c.Name, err)
		}
	}
	return nil
}

// BuildOptions configures one Client Context Builder run.
type BuildOptions struct {
	// TokenCacheDir roots the OAuth vault for definitions that use it.
	TokenCacheDir string
	// AllowCachedAuth enables the cached-token / silent-refresh fast path.
	AllowCachedAuth bool
	// MaxOAuthAttempts bounds unauthorized-triggered reconnects. 0 disables
	// OAuth sessions entirely, even on a 401.
	MaxOAuthAttempts int
	// OAuthTimeout bounds the interactive authorization wait. Zero falls
	// back to the package default.
	OAuthTimeout time.Duration
}

// PromotionCallback is invoked when a definition gains auth=oauth during
// connection, so the caller (the runtime) can cache the promoted form.
type PromotionCallback func(promoted mcpdef.ServerDefinition)

// Build implements §4.9: the Client Context Builder. It returns the live
// context, whose Def is the (possibly promoted) definition the caller should
// cache going forward; onPromoted is also invoked on each promotion.
func Build(ctx context.Context, def mcpdef.ServerDefinition, opts BuildOptions, onPromoted PromotionCallback) (*ClientContext, error) {
	vaultDir := opts.TokenCacheDir
	if vaultDir == "" {
		var err error
		vaultDir, err = oauth.DefaultTokenDir()
		if err != nil {
			return nil, fmt.Errorf("resolving token cache directory: %w", err)
		}
	}

	if def.Command.Kind == mcpdef.CommandStdio {
		return buildStdio(ctx, def)
	}

	return buildHTTP(ctx, def, vaultDir, opts, onPromoted)
}

func buildStdio(ctx context.Context, def mcpdef.ServerDefinition) (*ClientContext, error) {
	resolved, err := mcpdef.ResolveMap(def.Command.Stdio.Env)
	if err != nil {
		return nil, fmt.Errorf("resolving stdio env for %s: %w", def.Name, err)
	}

	var result *ClientContext
	err = withScopedEnv(resolved, func() error {
		mcp, buildErr := buildStdioClient(def)
		if buildErr != nil {
			return buildErr
		}
		if initErr := initializeClient(ctx, mcp); initErr != nil {
			_ = mcp.Close()
			return fmt.Errorf("connecting to %s: %w", def.Name, initErr)
		}
		result = &ClientContext{Name: def.Name, Def: def, MCP: mcp}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func buildHTTP(ctx context.Context, def mcpdef.ServerDefinition, vaultDir string, opts BuildOptions, onPromoted PromotionCallback) (*ClientContext, error) {
	vault := oauthvault.New(vaultDir, def.Name)
	oauthClient := oauth.NewClient()
	serverBaseURL := oauth.NormalizeServerURL(def.Command.HTTP.URL)

	tokens := &tokenHolder{}
	if opts.AllowCachedAuth && def.IsOAuth() {
		if access, ok := cachedOrRefreshedToken(ctx, oauthClient, vault, serverBaseURL); ok {
			tokens.token = access
		}
	}

	maxAttempts := defaultMaxAttempts
	oauthEnabled := opts.MaxOAuthAttempts != 0
	if opts.MaxOAuthAttempts > 0 {
		maxAttempts = opts.MaxOAuthAttempts
	}

	current := def
	for {
		var session *oauthflow.Session
		if current.IsOAuth() && oauthEnabled {
			var err error
			session, err = oauthflow.New(ctx, current, vault, oauthClient, serverBaseURL)
			if err != nil {
				return nil, fmt.Errorf("opening OAuth session for %s: %w", current.Name, err)
			}
		}

		connectOpts := connectOptions{serverName: current.Name, maxAttempts: maxAttempts, oauthTimeout: opts.OAuthTimeout}

		mcp, err := connectWithAuth(ctx, func() (mcpclient.MCPClient, error) {
			return buildStreamableHTTPClient(current, tokens.headerFunc)
		}, session, tokens, connectOpts)

		if err == nil {
			return &ClientContext{Name: current.Name, Def: current, MCP: mcp, session: session}, nil
		}

		if _, isTimeout := err.(*OAuthTimeoutError); isTimeout {
			closeSession(session)
			return nil, err
		}

		result := classify.Classify(err)
		if result.Kind == classify.KindAuth && oauthEnabled {
			if promoted, ok := maybePromote(ctx, current, result.Challenge); ok {
				closeSession(session)
				current = promoted
				if onPromoted != nil {
					onPromoted(current)
				}
				continue
			}
		}

		// fall through to SSE
		sseSession := session
		if sseSession == nil && current.IsOAuth() && oauthEnabled {
			var sErr error
			sseSession, sErr = oauthflow.New(ctx, current, vault, oauthClient, serverBaseURL)
			if sErr != nil {
				return nil, fmt.Errorf("opening OAuth session for %s: %w", current.Name, sErr)
			}
		}

		mcp, sseErr := connectWithAuth(ctx, func() (mcpclient.MCPClient, error) {
			return buildSSEClient(current, tokens.headerFunc)
		}, sseSession, tokens, connectOpts)

		if sseErr == nil {
			return &ClientContext{Name: current.Name, Def: current, MCP: mcp, session: sseSession}, nil
		}

		if _, isTimeout := sseErr.(*OAuthTimeoutError); isTimeout {
			closeSession(sseSession)
			return nil, sseErr
		}

		sseResult := classify.Classify(sseErr)
		if sseResult.Kind == classify.KindAuth && oauthEnabled {
			if promoted, ok := maybePromote(ctx, current, sseResult.Challenge); ok {
				closeSession(sseSession)
				current = promoted
				if onPromoted != nil {
					onPromoted(current)
				}
				continue
			}
		}

		closeSession(sseSession)
		return nil, sseErr
	}
}

func closeSession(s *oauthflow.Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		logging.Debug("ClientBuilder", "closing OAuth session: %v", err)
	}
}

// cachedOrRefreshedToken tries Token Refresh first, then the vault's cached
// access token, per §4.9 step 1. Both paths are failure-tolerant.
func cachedOrRefreshedToken(ctx context.Context, oc *oauth.Client, vault *oauthvault.Vault, serverBaseURL string) (string, bool) {
	if token, ok := oauthflow.Refresh(ctx, oc, vault, serverBaseURL); ok {
		return token, true
	}
	return vault.ReadCachedAccessToken()
}

// maybePromote implements §4.9's maybeEnableOAuth: ad-hoc sources promote
// unconditionally, everything else must see at least one authorization
// server either named directly by the 401's WWW-Authenticate challenge or
// advertised by the protected-resource probe.
func maybePromote(ctx context.Context, def mcpdef.ServerDefinition, challenge *oauth.AuthChallenge) (mcpdef.ServerDefinition, bool) {
	if def.IsOAuth() {
		return def, false
	}
	if def.Command.Kind != mcpdef.CommandHTTP {
		return def, false
	}
	if def.Source.IsAdhoc() {
		return def.Promoted(), true
	}
	if challenge.IsOAuthChallenge() && challenge.GetIssuer() != "" {
		return def.Promoted(), true
	}

	probeCtx, cancel := context.WithTimeout(ctx, protectedResourceProbeDeadline)
	defer cancel()

	oc := oauth.NewClient()
	prm, err := oc.DiscoverProtectedResource(probeCtx, oauth.NormalizeServerURL(def.Command.HTTP.URL))
	if err != nil || prm == nil || len(prm.AuthorizationServers) == 0 {
		return def, false
	}
	return def.Promoted(), true
}

// withScopedEnv applies overrides to the process environment for the
// duration of fn, restoring the prior values unconditionally afterward.
func withScopedEnv(overrides map[string]string, fn func() error) error {
	if len(overrides) == 0 {
		return fn()
	}

	type saved struct {
		value string
		was   bool
	}
	prior := make(map[string]saved, len(overrides))
	for k, v := range overrides {
		value, was := os.LookupEnv(k)
		prior[k] = saved{value: value, was: was}
		if v == "" {
			continue
		}
		os.Setenv(k, v)
	}
	defer func() {
		for k, s := range prior {
			if s.was {
				os.Setenv(k, s.value)
			} else {
				os.Unsetenv(k)
			}
		}
	}()

	return fn()
}
