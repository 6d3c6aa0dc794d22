package oauthflow

import (
	"context"
	"errors"
	"fmt"

	"mcporter/pkg/oauth"
)

// ErrPKCEVerifierMissing is returned by FinishAuth when the code verifier
// saved by BuildAuthorizationURL is gone by the time the callback arrives
// (process restarted mid-flow, or the vault's verifier file was cleared).
var ErrPKCEVerifierMissing = errors.New("missing PKCE verifier for authorization code exchange")

// EnsureClientRegistration returns the persisted client registration for the
// session's server, performing dynamic client registration if none exists
// yet. The authorization server must advertise a registration_endpoint.
func (s *Session) EnsureClientRegistration(ctx context.Context) (*oauth.ClientInformation, error) {
	if info, err := s.ClientInformation(); err != nil {
		return nil, err
	} else if info != nil && info.ClientID != "" {
		return info, nil
	}

	if s.discovered == nil || s.discovered.Metadata == nil || s.discovered.Metadata.RegistrationEndpoint == "" {
		return nil, errors.New("authorization server does not advertise a registration endpoint")
	}

	return s.Register(ctx, s.discovered.Metadata.RegistrationEndpoint)
}

// BuildAuthorizationURL generates PKCE material, persists the verifier and
// state, and returns the URL the user should visit to authorize.
func (s *Session) BuildAuthorizationURL(ctx context.Context, clientID string) (string, error) {
	if s.discovered == nil || s.discovered.Metadata == nil || s.discovered.Metadata.AuthorizationEndpoint == "" {
		return "", errors.New("authorization server does not advertise an authorization endpoint")
	}

	pkce, err := oauth.GeneratePKCE()
	if err != nil {
		return "", fmt.Errorf("generating PKCE challenge: %w", err)
	}
	if err := s.SaveCodeVerifier(pkce.CodeVerifier); err != nil {
		return "", fmt.Errorf("persisting PKCE verifier: %w", err)
	}

	state, err := s.State()
	if err != nil {
		return "", fmt.Errorf("resolving OAuth state: %w", err)
	}

	return s.client.BuildAuthorizationURL(
		s.discovered.Metadata.AuthorizationEndpoint,
		clientID,
		s.redirectURL(),
		state,
		s.discovered.Scope,
		pkce,
	)
}

// FinishAuth exchanges an authorization code delivered to the callback
// listener for tokens, using the PKCE verifier persisted by
// BuildAuthorizationURL. It is the operation a transport's finishAuth
// capability calls in response to Connect-With-Auth.
func (s *Session) FinishAuth(ctx context.Context, code string, clientID string) (*oauth.Token, error) {
	verifier, err := s.CodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("reading PKCE verifier: %w", err)
	}
	if verifier == "" {
		return nil, ErrPKCEVerifierMissing
	}
	if s.discovered == nil || s.discovered.Metadata == nil || s.discovered.Metadata.TokenEndpoint == "" {
		return nil, errors.New("authorization server does not advertise a token endpoint")
	}

	token, err := s.client.ExchangeCode(ctx, s.discovered.Metadata.TokenEndpoint, code, s.redirectURL(), clientID, verifier)
	if err != nil {
		return nil, err
	}
	if err := s.SaveTokens(token); err != nil {
		return nil, fmt.Errorf("persisting exchanged token: %w", err)
	}
	return token, nil
}
