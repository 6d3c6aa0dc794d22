package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"mcporter/internal/mcpdef"
	"mcporter/internal/oauthvault"
	"mcporter/internal/runtime"
	"mcporter/pkg/auth"
	"mcporter/pkg/oauth"
)

var authQuiet bool

// authCmd is the parent command group for every OAuth lifecycle operation.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth authorization for MCP servers",
	Long: `Manage OAuth authorization for MCP servers that require it.

Examples:
  mcporter auth login weather    # authorize against the "weather" server
  mcporter auth status           # show authorization state for every server
  mcporter auth logout weather   # clear cached tokens for one server`,
}

func init() {
	registerConfigFlags(authCmd.PersistentFlags())
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "suppress progress output")

	authCmd.AddCommand(newAuthLoginCmd())
	authCmd.AddCommand(newAuthStatusCmd())
	authCmd.AddCommand(newAuthLogoutCmd())
}

func authPrintln(a ...interface{}) {
	if !authQuiet {
		fmt.Println(a...)
	}
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <server>",
		Short: "Run the OAuth authorization flow for a server",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuthLogin,
	}
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	rt, err := newRuntime(store)
	if err != nil {
		return err
	}
	defer rt.Close("")

	name, err := resolveServer(rt, args[0])
	if err != nil {
		return err
	}

	var sp *spinner.Spinner
	if !authQuiet {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		sp.Suffix = fmt.Sprintf(" waiting for authorization of %s (check your browser)...", name)
		sp.Start()
	}

	_, err = rt.ListTools(cmd.Context(), name, runtime.ListOptions{AutoAuthorize: true})

	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return &AuthFailedError{ServerName: name, Reason: err.Error()}
	}

	authPrintln("Authorized", name)
	return nil
}

func newAuthStatusCmd() *cobra.Command {
	var serverFilter string
	c := &cobra.Command{
		Use:   "status",
		Short: "Show authorization state for configured servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(serverFilter)
		},
	}
	c.Flags().StringVarP(&serverFilter, "server", "s", "", "limit to one server")
	return c
}

func runAuthStatus(serverFilter string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	defs, err := store.Load()
	if err != nil {
		return err
	}

	tokenCacheDir, err := oauth.DefaultTokenDir()
	if err != nil {
		return err
	}

	const nameColumnWidth = 20
	for _, def := range defs {
		if serverFilter != "" && def.Name != serverFilter {
			continue
		}
		if !def.IsOAuth() {
			continue
		}

		dir := tokenCacheDir
		if def.TokenCacheDir != "" {
			dir = def.TokenCacheDir
		}
		status := statusFor(def.Name, dir)

		switch {
		case status.Error != "":
			fmt.Printf("%-*s %s (%s)\n", nameColumnWidth, status.ServerName, "error", status.Error)
		case status.Authenticated:
			fmt.Printf("%-*s %s\n", nameColumnWidth, status.ServerName, "authenticated")
		case status.Expired && status.HasRefreshToken:
			fmt.Printf("%-*s %s\n", nameColumnWidth, status.ServerName, "expired (refreshable)")
		case status.Expired:
			fmt.Printf("%-*s %s\n", nameColumnWidth, status.ServerName, "expired")
		default:
			fmt.Printf("%-*s %s\n", nameColumnWidth, status.ServerName, "not authenticated")
		}
	}
	return nil
}

// statusFor reads one server's vault and reports its authorization state
// without making a network call.
func statusFor(serverName, tokenCacheDir string) auth.Status {
	vault := oauthvault.New(tokenCacheDir, serverName)

	token, err := vault.ReadTokens()
	if err != nil {
		return auth.Status{ServerName: serverName, Error: err.Error()}
	}

	status := auth.Status{ServerName: serverName}
	if info, err := vault.ReadClientInfo(); err == nil && info != nil {
		status.ClientID = info.ClientID
	}
	if token == nil {
		return status
	}

	status.HasRefreshToken = token.RefreshToken != ""
	if token.IsExpired() {
		status.Expired = true
		return status
	}
	status.Authenticated = true
	return status
}

func newAuthLogoutCmd() *cobra.Command {
	var all, yes bool
	c := &cobra.Command{
		Use:   "logout [server]",
		Short: "Clear cached OAuth tokens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout(args, all, yes)
		},
	}
	c.Flags().BoolVar(&all, "all", false, "clear tokens for every configured server")
	c.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt for --all")
	return c
}

func runAuthLogout(args []string, all, yes bool) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	defs, err := store.Load()
	if err != nil {
		return err
	}

	tokenCacheDir, err := oauth.DefaultTokenDir()
	if err != nil {
		return err
	}

	if !all {
		if len(args) != 1 {
			return fmt.Errorf("logout requires a server name, or --all")
		}
		def, ok := findDef(defs, args[0])
		if !ok {
			def = mcpdef.ServerDefinition{Name: args[0]}
		}
		if err := clearVault(def, tokenCacheDir); err != nil {
			return err
		}
		authPrintln("Cleared tokens for", args[0])
		return nil
	}

	if !yes {
		fmt.Printf("This clears cached tokens for %d server(s). Continue? [y/N]: ", len(defs))
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	for _, def := range defs {
		if err := clearVault(def, tokenCacheDir); err != nil {
			return err
		}
	}
	authPrintln("Cleared tokens for", len(defs), "server(s).")
	return nil
}

func findDef(defs []mcpdef.ServerDefinition, name string) (mcpdef.ServerDefinition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return mcpdef.ServerDefinition{}, false
}

// clearVault wipes one server's entire vault (tokens, client registration,
// PKCE verifier and state nonce).
func clearVault(def mcpdef.ServerDefinition, defaultTokenCacheDir string) error {
	dir := defaultTokenCacheDir
	if def.TokenCacheDir != "" {
		dir = def.TokenCacheDir
	}
	vault := oauthvault.New(dir, def.Name)
	if err := vault.Clear(oauthvault.ScopeAll); err != nil {
		return fmt.Errorf("clearing tokens for %s: %w", def.Name, err)
	}
	return nil
}
