// Package cmd implements the mcporter command-line interface: a thin cobra
// tree over internal/runtime, internal/config and internal/oauthvault.
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"mcporter/internal/client"
)

// Exit codes, per the runtime's error-handling design: 0 success, 1 general
// error, 2 authorization required, 3 the OAuth flow itself failed.
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeAuthRequired = 2
	ExitCodeAuthFailed   = 3
)

// rootCmd is the entry point when mcporter is invoked with no subcommand.
var rootCmd = &cobra.Command{
	Use:   "mcporter",
	Short: "A command-line control plane for MCP servers",
	Long: `mcporter connects to Model Context Protocol servers over stdio,
streamable-HTTP or SSE, handles OAuth bootstrap when a server demands it,
and lets you list and call tools from the shell.`,
	SilenceUsage: true,
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the version injected by SetVersion.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the command tree and translates a returned error into the
// process exit code. Called from main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcporter version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error returned from a command's RunE to a process
// exit code. An AuthRequiredError means the server needs authorization and
// none is cached; an *client.OAuthTimeoutError means a flow was attempted
// and did not complete in time.
func getExitCode(err error) int {
	var authRequired *AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var timeout *client.OAuthTimeoutError
	if errors.As(err, &timeout) {
		return ExitCodeAuthFailed
	}

	var authFailed *AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newServersCmd())
	rootCmd.AddCommand(authCmd)
}
