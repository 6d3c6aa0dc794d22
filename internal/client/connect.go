package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"mcporter/internal/classify"
	"mcporter/internal/oauthflow"
	"mcporter/pkg/logging"
)

// OAuthTimeoutError is raised when the interactive authorization wait
// exceeds its deadline.
type OAuthTimeoutError struct {
	ServerName string
	TimeoutMs  int
}

func (e *OAuthTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for OAuth authorization for %s after %dms", e.ServerName, e.TimeoutMs)
}

const (
	defaultMaxAttempts  = 3
	defaultOAuthTimeout = 60 * time.Second
)

// connectOptions configures one Connect-With-Auth run.
type connectOptions struct {
	serverName   string
	maxAttempts  int
	oauthTimeout time.Duration
}

// buildFunc constructs a fresh, unconnected MCP client reflecting the
// current bearer token held by tokens.
type buildFunc func() (mcpclient.MCPClient, error)

// tokenHolder is the mutable cell a HeaderFunc reads from; updated in place
// when an authorization code is exchanged mid-retry so a freshly built
// client picks up the new bearer token.
type tokenHolder struct {
	token string
}

func (t *tokenHolder) headerFunc(ctx context.Context) map[string]string {
	if t == nil || t.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + t.token}
}

// connectWithAuth implements §4.8: attempt initialize; on an auth failure
// with a session available, drive one authorization round-trip and retry,
// up to maxAttempts. Any other failure, or exhausting attempts, is
// terminal.
func connectWithAuth(ctx context.Context, build buildFunc, session *oauthflow.Session, tokens *tokenHolder, opts connectOptions) (mcpclient.MCPClient, error) {
	if opts.maxAttempts <= 0 {
		opts.maxAttempts = defaultMaxAttempts
	}
	if opts.oauthTimeout <= 0 {
		opts.oauthTimeout = defaultOAuthTimeout
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		c, err := build()
		if err != nil {
			return nil, err
		}

		initErr := initializeClient(ctx, c)
		if initErr == nil {
			return c, nil
		}
		_ = c.Close()

		result := classify.Classify(initErr)
		if result.Kind != classify.KindAuth || session == nil {
			return nil, initErr
		}

		lastErr = initErr
		if attempt >= opts.maxAttempts {
			return nil, fmt.Errorf("exceeded %d connection attempts for %s: %w", opts.maxAttempts, opts.serverName, lastErr)
		}

		if !session.DidStartAuthorization() {
			if err := startAuthorization(ctx, session); err != nil {
				return nil, fmt.Errorf("OAuth flow failed before a browser authorization could begin: %w", err)
			}
		}

		waitCtx, cancel := context.WithTimeout(ctx, opts.oauthTimeout)
		code, waitErr := session.WaitForAuthorizationCode(waitCtx)
		cancel()
		if waitErr != nil {
			if errors.Is(waitErr, context.DeadlineExceeded) {
				return nil, &OAuthTimeoutError{ServerName: opts.serverName, TimeoutMs: int(opts.oauthTimeout.Milliseconds())}
			}
			return nil, waitErr
		}

		info, err := session.EnsureClientRegistration(ctx)
		if err != nil {
			return nil, fmt.Errorf("finishing authorization for %s: %w", opts.serverName, err)
		}
		token, err := session.FinishAuth(ctx, code, info.ClientID)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code for %s: %w", opts.serverName, err)
		}
		tokens.token = token.AccessToken

		logging.Audit(logging.AuditEvent{Action: "oauth_authorize", Outcome: "success", Target: opts.serverName})
	}
}

// startAuthorization performs dynamic client registration (if needed) and
// redirects to the authorization URL, arming the session's pending-code
// wait.
func startAuthorization(ctx context.Context, session *oauthflow.Session) error {
	info, err := session.EnsureClientRegistration(ctx)
	if err != nil {
		return err
	}
	authURL, err := session.BuildAuthorizationURL(ctx, info.ClientID)
	if err != nil {
		return err
	}
	session.RedirectToAuthorization(authURL)
	return nil
}

func initializeClient(ctx context.Context, c mcpclient.MCPClient) error {
	if starter, ok := c.(interface{ Start(context.Context) error }); ok {
		if err := starter.Start(ctx); err != nil {
			return err
		}
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "mcporter",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	return err
}
