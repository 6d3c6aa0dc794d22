// Package client builds and drives MCP SDK transports for one server
// definition: the concrete stdio/streamable-HTTP/SSE client, the
// connect-retry-after-auth state machine, and the context assembled from a
// successful connection.
package client

import (
	"context"
	"fmt"
	"os"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"

	"mcporter/internal/mcpdef"
)

// HeaderFunc resolves the HTTP headers to attach to an outbound request,
// recomputed per request so a refreshed bearer token is picked up without
// rebuilding the transport.
type HeaderFunc func(ctx context.Context) map[string]string

// buildStdioClient spawns the definition's subprocess and wraps it in an MCP
// stdio client. Env placeholders are resolved, blanks are dropped, and the
// result is merged over the parent process environment.
func buildStdioClient(def mcpdef.ServerDefinition) (mcpclient.MCPClient, error) {
	cmd := def.Command.Stdio
	resolved, err := mcpdef.ResolveMap(cmd.Env)
	if err != nil {
		return nil, fmt.Errorf("resolving stdio env for %s: %w", def.Name, err)
	}

	c, err := mcpclient.NewStdioMCPClient(cmd.Exe, mergeEnv(resolved), cmd.Args...)
	if err != nil {
		return nil, fmt.Errorf("starting stdio server %s: %w", def.Name, err)
	}
	return c, nil
}

// mergeEnv overlays non-blank overrides onto the process environment, per
// spec §4.6's "filter out blanks, merge over the process environment".
func mergeEnv(overrides map[string]string) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range overrides {
		if v == "" {
			continue
		}
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

func resolveHeaders(def mcpdef.ServerDefinition) (map[string]string, error) {
	headers, err := mcpdef.ResolveMap(def.Command.HTTP.Headers)
	if err != nil {
		return nil, fmt.Errorf("resolving headers for %s: %w", def.Name, err)
	}
	return headers, nil
}

// combineHeaderFunc merges the definition's static, placeholder-resolved
// headers with the dynamic auth headerFunc. Static headers take precedence:
// a dynamic header is only added when the definition does not already set
// that header name.
func combineHeaderFunc(static map[string]string, dynamic HeaderFunc) func(context.Context) map[string]string {
	return func(ctx context.Context) map[string]string {
		combined := make(map[string]string, len(static))
		for k, v := range static {
			combined[k] = v
		}
		if dynamic != nil {
			for k, v := range dynamic(ctx) {
				if _, already := combined[k]; !already {
					combined[k] = v
				}
			}
		}
		return combined
	}
}

// buildStreamableHTTPClient constructs a streamable-HTTP MCP client for def.
// authHeaders, when non-nil, is consulted on every request so a token
// refreshed mid-session is picked up without reconnecting.
func buildStreamableHTTPClient(def mcpdef.ServerDefinition, authHeaders HeaderFunc) (mcpclient.MCPClient, error) {
	headers, err := resolveHeaders(def)
	if err != nil {
		return nil, err
	}

	var opts []transport.StreamableHTTPCOption
	if authHeaders != nil {
		opts = append(opts, transport.WithHTTPHeaderFunc(combineHeaderFunc(headers, authHeaders)))
	} else if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}

	c, err := mcpclient.NewStreamableHttpClient(def.Command.HTTP.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating streamable-HTTP client for %s: %w", def.Name, err)
	}
	return c, nil
}

// buildSSEClient constructs an SSE MCP client for def. The SSE transport
// resolves headers once at connection time rather than per-request, so a
// refreshed token requires reconnecting.
func buildSSEClient(def mcpdef.ServerDefinition, authHeaders HeaderFunc) (mcpclient.MCPClient, error) {
	headers, err := resolveHeaders(def)
	if err != nil {
		return nil, err
	}
	if authHeaders != nil {
		if headers == nil {
			headers = make(map[string]string)
		}
		for k, v := range authHeaders(context.Background()) {
			if _, already := headers[k]; !already {
				headers[k] = v
			}
		}
	}

	var opts []transport.ClientOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHeaders(headers))
	}

	c, err := mcpclient.NewSSEMCPClient(def.Command.HTTP.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating SSE client for %s: %w", def.Name, err)
	}
	return c, nil
}
