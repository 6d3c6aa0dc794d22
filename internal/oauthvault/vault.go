// Package oauthvault persists the OAuth artifacts one server's
// authorization needs to survive between CLI invocations: tokens, the
// dynamic client registration, the PKCE verifier, and the state nonce. Each
// artifact is its own file under tokenCacheDir/<server-name>/, so any one of
// them can be cleared independently.
package oauthvault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mcporter/pkg/logging"
	"mcporter/pkg/oauth"
)

// Scope names a subset of a vault's files for Clear.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeClient   Scope = "client"
	ScopeTokens   Scope = "tokens"
	ScopeVerifier Scope = "verifier"
)

const (
	tokensFile   = "tokens.json"
	clientFile   = "client.json"
	verifierFile = "verifier"
	stateFile    = "state"

	dirMode  = 0700
	fileMode = 0600
)

// Vault is the on-disk home of one server's OAuth artifacts.
type Vault struct {
	dir string
}

// New returns a Vault rooted at tokenCacheDir/serverName.
func New(tokenCacheDir, serverName string) *Vault {
	return &Vault{dir: filepath.Join(tokenCacheDir, serverName)}
}

// Describe returns a human-readable path for logs.
func (v *Vault) Describe() string {
	return v.dir
}

func (v *Vault) path(name string) string {
	return filepath.Join(v.dir, name)
}

func (v *Vault) ensureDir() error {
	if err := os.MkdirAll(v.dir, dirMode); err != nil {
		return fmt.Errorf("creating vault directory %s: %w", v.dir, err)
	}
	return nil
}

func (v *Vault) writeFile(name string, data []byte) error {
	if err := v.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(v.path(name), data, fileMode); err != nil {
		return fmt.Errorf("writing %s: %w", v.path(name), err)
	}
	return nil
}

func (v *Vault) readFile(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(v.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", v.path(name), err)
	}
	return data, true, nil
}

// ReadTokens returns the persisted token set, or nil if none exists.
func (v *Vault) ReadTokens() (*oauth.Token, error) {
	data, ok, err := v.readFile(tokensFile)
	if err != nil || !ok {
		return nil, err
	}
	var token oauth.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", v.path(tokensFile), err)
	}
	return &token, nil
}

// SaveTokens persists token, then clears any residual code verifier, per
// the invariant that a verifier never survives a successful exchange.
func (v *Vault) SaveTokens(token *oauth.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := v.writeFile(tokensFile, data); err != nil {
		return err
	}
	logging.Audit(logging.AuditEvent{Action: "token_save", Outcome: "success", Target: v.dir})
	return v.Clear(ScopeVerifier)
}

// ReadCachedAccessToken returns a non-expired access token if one is
// persisted, judging expiry by ExpiresIn plus the tokens file's mtime per
// spec, falling back to the token's own ExpiresAt when ExpiresIn is absent.
func (v *Vault) ReadCachedAccessToken() (string, bool) {
	token, err := v.ReadTokens()
	if err != nil || token == nil || token.AccessToken == "" {
		return "", false
	}

	info, statErr := os.Stat(v.path(tokensFile))
	if statErr == nil && token.ExpiresIn > 0 {
		expiresAt := info.ModTime().Add(time.Duration(token.ExpiresIn) * time.Second)
		if time.Now().Add(oauth.DefaultExpiryMargin).After(expiresAt) {
			return "", false
		}
		return token.AccessToken, true
	}

	if token.IsExpired() {
		return "", false
	}
	return token.AccessToken, true
}

// ReadClientInfo returns the persisted dynamic client registration, or nil.
func (v *Vault) ReadClientInfo() (*oauth.ClientInformation, error) {
	data, ok, err := v.readFile(clientFile)
	if err != nil || !ok {
		return nil, err
	}
	var info oauth.ClientInformation
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", v.path(clientFile), err)
	}
	return &info, nil
}

// SaveClientInfo persists a dynamic client registration.
func (v *Vault) SaveClientInfo(info *oauth.ClientInformation) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding client info: %w", err)
	}
	return v.writeFile(clientFile, data)
}

// ReadCodeVerifier returns the persisted PKCE verifier, or "" if none.
func (v *Vault) ReadCodeVerifier() (string, error) {
	data, ok, err := v.readFile(verifierFile)
	if err != nil || !ok {
		return "", err
	}
	return string(data), nil
}

// SaveCodeVerifier persists the PKCE verifier for the in-flight exchange.
func (v *Vault) SaveCodeVerifier(verifier string) error {
	return v.writeFile(verifierFile, []byte(verifier))
}

// ReadState returns the persisted OAuth state nonce, or "" if none.
func (v *Vault) ReadState() (string, error) {
	data, ok, err := v.readFile(stateFile)
	if err != nil || !ok {
		return "", err
	}
	return string(data), nil
}

// SaveState persists the OAuth state nonce.
func (v *Vault) SaveState(state string) error {
	return v.writeFile(stateFile, []byte(state))
}

// Clear deletes exactly the files implied by scope.
func (v *Vault) Clear(scope Scope) error {
	var files []string
	switch scope {
	case ScopeAll:
		files = []string{tokensFile, clientFile, verifierFile, stateFile}
	case ScopeClient:
		files = []string{clientFile}
	case ScopeTokens:
		files = []string{tokensFile}
	case ScopeVerifier:
		files = []string{verifierFile}
	default:
		return fmt.Errorf("unknown vault scope %q", scope)
	}
	for _, f := range files {
		if err := os.Remove(v.path(f)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", v.path(f), err)
		}
	}
	return nil
}
