package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mcporter/internal/authfetch"
	"mcporter/internal/mcpdef"
	"mcporter/internal/oauthvault"
	"mcporter/pkg/logging"
	"mcporter/pkg/oauth"
)

const (
	defaultCallbackHost = "127.0.0.1"
	defaultCallbackPort = 33418
	defaultCallbackPath = "/"
	fallbackCallbackPath = "/callback"

	// DefaultClientURI is advertised to authorization servers during dynamic
	// client registration; it has no runtime behavior.
	DefaultClientURI = "https://github.com/modelcontextprotocol"
)

// codeResult is delivered to whoever is waiting on an authorization code.
type codeResult struct {
	code string
	err  error
}

// Session is one server's OAuth authorization-code flow: a loopback HTTP
// callback listener, the PKCE/state artifacts, and the dynamic client
// registration metadata composed for that server.
type Session struct {
	def    mcpdef.ServerDefinition
	vault  *oauthvault.Vault
	client *oauth.Client

	host             string
	port             int
	path             string
	usedFallbackPort bool

	listener net.Listener
	srv      *http.Server

	discovered *Discovered
	grantTypes []string
	metadata   oauth.ClientMetadata

	mu          sync.Mutex
	authStarted bool
	pending     chan codeResult
	closed      bool
}

// New builds and starts an OAuth Session for def, per spec §4.5.
func New(ctx context.Context, def mcpdef.ServerDefinition, vault *oauthvault.Vault, client *oauth.Client, serverBaseURL string) (*Session, error) {
	host, port, path := callbackAddress(def.OAuthRedirectURL)

	listener, boundPort, usedFallback, err := bindLoopback(host, port)
	if err != nil {
		return nil, fmt.Errorf("binding OAuth callback listener: %w", err)
	}

	s := &Session{
		def:              def,
		vault:            vault,
		client:           client,
		host:             host,
		port:             boundPort,
		path:             path,
		usedFallbackPort: usedFallback,
		listener:         listener,
	}

	discovery := Discover(ctx, client, serverBaseURL)
	s.discovered = discovery
	s.grantTypes = resolveGrantTypes(discovery.Metadata)
	s.metadata = s.composeClientMetadata(discovery.Scope)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCallback)
	s.srv = &http.Server{Handler: mux}

	go func() {
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("OAuthSession", "callback listener for %s stopped: %v", s.def.Name, err)
		}
	}()

	return s, nil
}

func callbackAddress(redirectURL string) (host string, port int, path string) {
	host, port, path = defaultCallbackHost, defaultCallbackPort, defaultCallbackPath
	if redirectURL == "" {
		return host, port, path
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return host, port, path
	}
	if h := u.Hostname(); h != "" {
		host = h
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	if u.Path != "" {
		path = u.Path
	}
	return host, port, path
}

// bindLoopback tries the requested port first, falling back to an
// OS-assigned port on EADDRINUSE.
func bindLoopback(host string, port int) (net.Listener, int, bool, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err == nil {
		return listener, port, false, nil
	}
	if !isAddrInUse(err) {
		return nil, 0, false, err
	}

	fallbackAddr := net.JoinHostPort(host, "0")
	listener, err = net.Listen("tcp", fallbackAddr)
	if err != nil {
		return nil, 0, false, err
	}
	boundPort := listener.Addr().(*net.TCPAddr).Port
	logging.Warn("OAuthSession", "port %d in use, falling back to OS-assigned port %d", port, boundPort)
	return listener, boundPort, true, nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}

// redirectURL returns the effective callback URL for this session.
func (s *Session) redirectURL() string {
	return fmt.Sprintf("http://%s/%s", net.JoinHostPort(s.host, strconv.Itoa(s.port)), trimLeadingSlash(s.path))
}

func trimLeadingSlash(p string) string {
	if len(p) > 0 && p[0] == '/' {
		return p[1:]
	}
	return p
}

func (s *Session) composeClientMetadata(scope string) oauth.ClientMetadata {
	redirectURIs := []string{s.redirectURL()}
	if s.def.OAuthRedirectURL == "" {
		redirectURIs = append(redirectURIs,
			"http://127.0.0.1/",
			fmt.Sprintf("http://127.0.0.1:%d/", defaultCallbackPort),
		)
	}
	return oauth.ClientMetadata{
		ClientName:              s.def.EffectiveClientName(),
		ClientURI:               DefaultClientURI,
		RedirectURIs:            dedupeStrings(redirectURIs),
		GrantTypes:              s.grantTypes,
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "none",
		ApplicationType:         "native",
		Scope:                   scope,
	}
}

func resolveGrantTypes(metadata *oauth.Metadata) []string {
	want := map[string]bool{"authorization_code": true, "refresh_token": true}
	if metadata == nil || len(metadata.GrantTypesSupported) == 0 {
		return []string{"authorization_code", "refresh_token"}
	}
	var intersection []string
	for _, g := range metadata.GrantTypesSupported {
		if want[g] {
			intersection = append(intersection, g)
		}
	}
	if len(intersection) == 0 {
		return []string{"authorization_code", "refresh_token"}
	}
	return intersection
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ClientMetadata returns the dynamic-client-registration metadata composed
// for this session.
func (s *Session) ClientMetadata() oauth.ClientMetadata {
	return s.metadata
}

// RedirectURL returns the callback URL the session listens on.
func (s *Session) RedirectURL() string {
	return s.redirectURL()
}

// Discovered returns the discovery outcome used to compose this session.
func (s *Session) Discovered() *Discovered {
	return s.discovered
}

// State returns the persisted OAuth state nonce, generating and persisting
// one on first use.
func (s *Session) State() (string, error) {
	state, err := s.vault.ReadState()
	if err != nil {
		return "", err
	}
	if state != "" {
		return state, nil
	}
	state = uuid.NewString()
	if err := s.vault.SaveState(state); err != nil {
		return "", err
	}
	return state, nil
}

// ClientInformation returns the persisted dynamic client registration.
func (s *Session) ClientInformation() (*oauth.ClientInformation, error) {
	return s.vault.ReadClientInfo()
}

// SaveClientInformation persists a dynamic client registration.
func (s *Session) SaveClientInformation(info *oauth.ClientInformation) error {
	return s.vault.SaveClientInfo(info)
}

// Register performs dynamic client registration against registrationEndpoint
// using the composed client metadata, through the registration-aware fetch
// wrapper.
func (s *Session) Register(ctx context.Context, registrationEndpoint string) (*oauth.ClientInformation, error) {
	registrar := oauth.NewClient(oauth.WithHTTPClient(&http.Client{Transport: authfetch.New(nil)}))
	info, err := registrar.RegisterClient(ctx, registrationEndpoint, s.metadata)
	if err != nil {
		return nil, err
	}
	if err := s.SaveClientInformation(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Tokens returns the persisted token set.
func (s *Session) Tokens() (*oauth.Token, error) {
	return s.vault.ReadTokens()
}

// SaveTokens persists a freshly obtained token set.
func (s *Session) SaveTokens(token *oauth.Token) error {
	return s.vault.SaveTokens(token)
}

// CodeVerifier returns the persisted PKCE verifier.
func (s *Session) CodeVerifier() (string, error) {
	return s.vault.ReadCodeVerifier()
}

// SaveCodeVerifier persists the PKCE verifier for the in-flight exchange.
func (s *Session) SaveCodeVerifier(verifier string) error {
	return s.vault.SaveCodeVerifier(verifier)
}

// InvalidateCredentials clears the named scope of vault artifacts.
func (s *Session) InvalidateCredentials(scope oauthvault.Scope) error {
	return s.vault.Clear(scope)
}

// DidStartAuthorization reports whether RedirectToAuthorization has run for
// this session; Connect-With-Auth uses this to distinguish "dynamic
// registration failed before a browser could open" from "waiting on the
// user".
func (s *Session) DidStartAuthorization() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authStarted
}

// RedirectToAuthorization records that authorization has started, arms a
// fresh pending-code channel, and best-effort opens the system browser.
func (s *Session) RedirectToAuthorization(authURL string) {
	s.mu.Lock()
	s.authStarted = true
	s.pending = make(chan codeResult, 1)
	s.mu.Unlock()

	logging.Info("OAuthSession", "opening browser to authorize %s", s.def.Name)
	fmt.Printf("Open this URL to authorize %s:\n  %s\n", s.def.Name, authURL)
	openBrowser(authURL)
}

// WaitForAuthorizationCode blocks until the callback handler delivers a code
// or error, the session is closed, or ctx is done.
func (s *Session) WaitForAuthorizationCode(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.pending == nil {
		if s.closed {
			s.mu.Unlock()
			return "", errors.New("OAuth session closed before receiving authorization code")
		}
		s.pending = make(chan codeResult, 1)
	}
	pending := s.pending
	s.mu.Unlock()

	select {
	case result := <-pending:
		return result.code, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != s.path && r.URL.Path != fallbackCallbackPath {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	code := query.Get("code")
	oauthErr := query.Get("error")
	state := query.Get("state")

	expectedState, err := s.vault.ReadState()
	if err == nil && state != "" && expectedState != "" && state != expectedState {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<html><body>Invalid OAuth state</body></html>")
		s.deliver(codeResult{err: errors.New("invalid OAuth state")})
		return
	}

	switch {
	case code != "":
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html><body>Authorization complete. You can close this window.</body></html>")
		s.deliver(codeResult{code: code})
	case oauthErr != "":
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "<html><body>Authorization failed: %s</body></html>", oauthErr)
		s.deliver(codeResult{err: fmt.Errorf("authorization error: %s", oauthErr)})
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "<html><body>Missing authorization code</body></html>")
		s.deliver(codeResult{err: errors.New("missing authorization code")})
	}
}

func (s *Session) deliver(result codeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(chan codeResult, 1)
	}
	select {
	case s.pending <- result:
	default:
	}
}

// Close rejects any pending authorization wait and shuts down the callback
// listener. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.pending != nil {
		select {
		case s.pending <- codeResult{err: errors.New("OAuth session closed before receiving authorization code")}:
		default:
		}
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// openBrowser best-effort launches the system browser; failures are logged,
// never raised, since the printed URL remains usable manually.
func openBrowser(rawURL string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		logging.Debug("OAuthSession", "could not launch browser: %v", err)
	}
}
