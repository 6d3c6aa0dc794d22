package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mcporter/internal/mcpdef"
)

var (
	serverAddArgs          []string
	serverAddHeaders       []string
	serverAddEnv           []string
	serverAddAuth          bool
	serverAddEphemeral     bool
	serverAddOverwrite     bool
	serverAddClientName    string
	serverAddRedirectURL   string
	serverAddAllowedTools  []string
	serverAddBlockedTools  []string
	serverAddTokenCacheDir string
)

func newServersCmd() *cobra.Command {
	serversCmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the persisted server registry",
	}
	registerConfigFlags(serversCmd.PersistentFlags())

	serversCmd.AddCommand(newServersAddCmd())
	serversCmd.AddCommand(newServersRemoveCmd())
	serversCmd.AddCommand(newServersListCmd())
	return serversCmd
}

func newServersAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add <name> <url-or-command> [args...]",
		Short: "Register a server definition",
		Long: `Register a server definition backed by a streamable-HTTP URL or a stdio
command.

Examples:
  mcporter servers add weather https://weather.example.com/mcp
  mcporter servers add files npx -- -y @modelcontextprotocol/server-filesystem /tmp`,
		Args: cobra.MinimumNArgs(2),
		RunE: runServersAdd,
	}
	c.Flags().StringArrayVar(&serverAddHeaders, "header", nil, "HTTP header as name=value (repeatable, HTTP servers only)")
	c.Flags().StringArrayVar(&serverAddEnv, "env", nil, "environment variable as name=value (repeatable, stdio servers only)")
	c.Flags().BoolVar(&serverAddAuth, "oauth", false, "mark this server as requiring OAuth up front")
	c.Flags().BoolVar(&serverAddEphemeral, "ephemeral", false, "close the connection after every call instead of keeping it alive")
	c.Flags().BoolVar(&serverAddOverwrite, "force", false, "replace an existing definition with the same name")
	c.Flags().StringVar(&serverAddClientName, "client-name", "", "OAuth client_name presented during registration")
	c.Flags().StringVar(&serverAddRedirectURL, "redirect-url", "", "OAuth redirect URI override")
	c.Flags().StringArrayVar(&serverAddAllowedTools, "allow-tool", nil, "expose only these tools (repeatable)")
	c.Flags().StringArrayVar(&serverAddBlockedTools, "block-tool", nil, "hide these tools (repeatable)")
	c.Flags().StringVar(&serverAddTokenCacheDir, "token-cache-dir", "", "OAuth vault directory override")
	return c
}

func runServersAdd(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	name := args[0]
	target := args[1]
	rest := args[2:]

	def := mcpdef.ServerDefinition{
		Name:             name,
		ClientName:       serverAddClientName,
		OAuthRedirectURL: serverAddRedirectURL,
		AllowedTools:     serverAddAllowedTools,
		BlockedTools:     serverAddBlockedTools,
		TokenCacheDir:    serverAddTokenCacheDir,
	}
	if serverAddAuth {
		def.Auth = "oauth"
	}
	if serverAddEphemeral {
		def.Lifecycle.Mode = mcpdef.LifecycleEphemeral
	}

	if isURL(target) {
		headers, err := parseKeyValueFlags(serverAddHeaders)
		if err != nil {
			return err
		}
		def.Command = mcpdef.Command{Kind: mcpdef.CommandHTTP, HTTP: &mcpdef.HTTPCommand{URL: target, Headers: headers}}
	} else {
		env, err := parseKeyValueFlags(serverAddEnv)
		if err != nil {
			return err
		}
		def.Command = mcpdef.Command{Kind: mcpdef.CommandStdio, Stdio: &mcpdef.StdioCommand{Exe: target, Args: rest, Env: env}}
	}

	if err := store.Add(def, serverAddOverwrite); err != nil {
		return err
	}
	fmt.Printf("Added server %q.\n", name)
	return nil
}

func newServersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Remove a registered server definition",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed server %q.\n", args[0])
			return nil
		},
	}
}

func newServersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List registered server definitions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			defs, err := store.Load()
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Println("No servers registered.")
				return nil
			}
			for _, def := range defs {
				fmt.Printf("%-20s %s\n", def.Name, describeCommand(def))
			}
			return nil
		},
	}
}

func describeCommand(def mcpdef.ServerDefinition) string {
	switch def.Command.Kind {
	case mcpdef.CommandHTTP:
		suffix := ""
		if def.IsOAuth() {
			suffix = " (oauth)"
		}
		return def.Command.HTTP.URL + suffix
	case mcpdef.CommandStdio:
		return fmt.Sprintf("%s %v", def.Command.Stdio.Exe, def.Command.Stdio.Args)
	default:
		return "<unknown>"
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func parseKeyValueFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid %q: expected name=value", entry)
		}
		out[key] = value
	}
	return out, nil
}
