package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"mcporter/internal/classify"
	"mcporter/internal/client"
	"mcporter/internal/config"
	"mcporter/internal/mcpdef"
	"mcporter/internal/runtime"
)

// Persistent flags shared by every subcommand that touches the server
// registry.
var (
	flagConfigPath string
	flagNoAuth     bool
)

func registerConfigFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagConfigPath, "config", "", "server definitions file (default ~/.config/mcporter/servers.yaml)")
}

// newStore resolves flagConfigPath (or the default location) into a Store.
func newStore() (*config.Store, error) {
	path := flagConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.NewStore(path), nil
}

// newRuntime builds a Runtime with every definition in the store
// registered, and BuildOptions/timeouts sourced from the environment
// variables the core consumes.
func newRuntime(store *config.Store) (*runtime.Runtime, error) {
	defs, err := store.Load()
	if err != nil {
		return nil, err
	}

	buildOpts := client.BuildOptions{
		AllowCachedAuth:  true,
		MaxOAuthAttempts: 3,
		OAuthTimeout:     envDuration("MCPORTER_OAUTH_TIMEOUT_MS", "MCPORTER_OAUTH_TIMEOUT", 60*time.Second),
	}
	if flagNoAuth {
		buildOpts.MaxOAuthAttempts = 0
	}

	rt := runtime.New(buildOpts)
	rt.ListTimeout = envDuration("MCPORTER_LIST_TIMEOUT", "", 30*time.Second)
	rt.CallTimeout = envDuration("MCPORTER_CALL_TIMEOUT", "", 60*time.Second)

	for _, def := range defs {
		rt.RegisterDefinition(def, true)
	}
	return rt, nil
}

// envDuration reads name (an integer count of milliseconds) or, if unset,
// alias, falling back to def. Both spellings exist because
// MCPORTER_OAUTH_TIMEOUT_MS has a documented alias MCPORTER_OAUTH_TIMEOUT.
func envDuration(name, alias string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" && alias != "" {
		raw = os.Getenv(alias)
	}
	if raw == "" {
		return def
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// resolveServer turns a CLI argument into a registered server name, adding
// an ephemeral ad-hoc definition to rt first when arg names no configured
// server but is an http(s) URL. Any other unknown argument, including a
// shell command, is an error.
func resolveServer(rt *runtime.Runtime, arg string) (string, error) {
	if _, ok := rt.GetDefinition(arg); ok {
		return arg, nil
	}

	switch {
	case strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://"):
		def := mcpdef.Adhoc(arg, mcpdef.Command{Kind: mcpdef.CommandHTTP, HTTP: &mcpdef.HTTPCommand{URL: arg}})
		rt.RegisterDefinition(def, true)
		return arg, nil
	default:
		return "", fmt.Errorf("unknown server %q: add it with `mcporter servers add` or pass a URL", arg)
	}
}

// wrapConnectError turns a bare auth-classified connect failure into an
// *AuthRequiredError when the caller disabled interactive authorization
// (--no-auth), so the CLI exits with ExitCodeAuthRequired instead of the
// generic ExitCodeError.
func wrapConnectError(serverName string, autoAuthorize bool, err error) error {
	if err == nil {
		return nil
	}
	if !autoAuthorize && classify.IsAuth(err) {
		return &AuthRequiredError{ServerName: serverName}
	}
	return err
}
