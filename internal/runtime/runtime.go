// Package runtime keeps the process-wide server registry: one cached
// ClientContext per server name, the connect-on-demand path that builds one
// when missing, and the listTools/callTool operations collaborators drive
// the system through.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"mcporter/internal/client"
	"mcporter/internal/mcpdef"
	"mcporter/pkg/logging"
)

const (
	defaultListTimeout = 30 * time.Second
	defaultCallTimeout = 60 * time.Second
)

// ErrToolNotFound is returned by CallTool when the server's error response
// indicates the requested tool name doesn't exist on it (JSON-RPC method/tool
// not found), as opposed to a transport failure or a tool-level error result.
var ErrToolNotFound = errors.New("tool not found")

// ToolInfo is the shape listTools returns for one server tool.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema interface{}
}

// ListOptions configures one listTools call.
type ListOptions struct {
	AutoAuthorize bool
	IncludeSchema bool
}

// CallOptions configures one callTool call.
type CallOptions struct {
	Args map[string]interface{}
}

// entry is the cache slot for one server: its current definition (which may
// have been promoted to OAuth since registration), the live context once
// built, and the mutex serializing every operation that touches it.
type entry struct {
	mu  sync.Mutex
	def mcpdef.ServerDefinition
	ctx *client.ClientContext
}

// Runtime is the process-wide map of server name to connection state. All
// cross-server operations run fully concurrently; per-server operations are
// serialized by the entry's own mutex, per §5's ordering guarantees.
type Runtime struct {
	mu      sync.RWMutex
	entries map[string]*entry

	BuildOptions client.BuildOptions

	// ListTimeout and CallTimeout bound listTools/callTool, per server,
	// past the connect step. Zero falls back to the package default.
	ListTimeout time.Duration
	CallTimeout time.Duration
}

// New returns an empty runtime. opts configures every connection this
// runtime builds (OAuth attempt budget, cached-auth policy, vault location).
func New(opts client.BuildOptions) *Runtime {
	return &Runtime{
		entries:      make(map[string]*entry),
		BuildOptions: opts,
	}
}

func (r *Runtime) listTimeout() time.Duration {
	if r.ListTimeout > 0 {
		return r.ListTimeout
	}
	return defaultListTimeout
}

func (r *Runtime) callTimeout() time.Duration {
	if r.CallTimeout > 0 {
		return r.CallTimeout
	}
	return defaultCallTimeout
}

// RegisterDefinition adds or replaces a server definition. When overwrite is
// false and the name already exists, it is a no-op that reports false.
// Whenever an existing definition is replaced, any cached context for that
// name is closed first so the next connect rebuilds with the new definition.
func (r *Runtime) RegisterDefinition(def mcpdef.ServerDefinition, overwrite bool) bool {
	r.mu.Lock()
	e, exists := r.entries[def.Name]
	if exists && !overwrite {
		r.mu.Unlock()
		return false
	}
	if !exists {
		e = &entry{}
		r.entries[def.Name] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		r.closeEntryLocked(e)
	}
	e.def = def
	return true
}

// GetDefinitions returns every registered server definition.
func (r *Runtime) GetDefinitions() []mcpdef.ServerDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcpdef.ServerDefinition, 0, len(r.entries))
	for _, e := range r.entries {
		e.mu.Lock()
		out = append(out, e.def)
		e.mu.Unlock()
	}
	return out
}

// GetDefinition returns the named server's current definition.
func (r *Runtime) GetDefinition(name string) (mcpdef.ServerDefinition, bool) {
	e, ok := r.lookup(name)
	if !ok {
		return mcpdef.ServerDefinition{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.def, true
}

func (r *Runtime) lookup(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// ListTools returns the named server's tools, applying the definition's
// allow/block filter. autoAuthorize, when false, disables OAuth for this
// call only (used by collaborators that want a non-interactive probe).
func (r *Runtime) ListTools(ctx context.Context, name string, opts ListOptions) ([]ToolInfo, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown server %q", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cc, err := r.connectLocked(ctx, e, opts.AutoAuthorize)
	if err != nil {
		return nil, err
	}

	listCtx, cancel := context.WithTimeout(ctx, r.listTimeout())
	defer cancel()

	result, err := cc.MCP.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		r.closeEntryLocked(e)
		return nil, fmt.Errorf("listing tools for %s: %w", name, err)
	}

	out := make([]ToolInfo, 0, len(result.Tools))
	for _, tool := range result.Tools {
		if !e.def.AllowTool(tool.Name) {
			continue
		}
		info := ToolInfo{Name: tool.Name, Description: tool.Description}
		if opts.IncludeSchema {
			info.InputSchema = tool.InputSchema
		}
		out = append(out, info)
	}

	r.settleLifecycle(e)
	return out, nil
}

// CallTool invokes one tool on the named server and applies the
// definition's result projection, if one is configured for that tool.
func (r *Runtime) CallTool(ctx context.Context, name, tool string, opts CallOptions) (interface{}, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown server %q", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cc, err := r.connectLocked(ctx, e, true)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout())
	defer cancel()

	result, err := cc.MCP.CallTool(callCtx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: tool, Arguments: opts.Args},
	})
	if err != nil {
		r.closeEntryLocked(e)
		if isToolNotFound(err) {
			return nil, fmt.Errorf("calling %s on %s: %w", tool, name, ErrToolNotFound)
		}
		return nil, fmt.Errorf("calling %s on %s: %w", tool, name, err)
	}

	r.settleLifecycle(e)

	mapping, hasMapping := e.def.ResultMapping[tool]
	if !hasMapping || len(mapping.Pick) == 0 {
		return result, nil
	}

	decoded, err := extractJSON(result)
	if err != nil || decoded == nil {
		return result, nil
	}
	return project(decoded, mapping.Pick), nil
}

// Close shuts down one cached context, or every cached context when name is
// empty.
func (r *Runtime) Close(name string) error {
	if name != "" {
		e, ok := r.lookup(name)
		if !ok {
			return nil
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		r.closeEntryLocked(e)
		return nil
	}

	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		r.closeEntryLocked(e)
		e.mu.Unlock()
	}
	return nil
}

// connectLocked returns the entry's cached context, building one if absent.
// Caller must hold e.mu.
func (r *Runtime) connectLocked(ctx context.Context, e *entry, autoAuthorize bool) (*client.ClientContext, error) {
	if e.ctx != nil {
		return e.ctx, nil
	}

	buildOpts := r.BuildOptions
	if !autoAuthorize {
		buildOpts.MaxOAuthAttempts = 0
	}

	cc, err := client.Build(ctx, e.def, buildOpts, func(promoted mcpdef.ServerDefinition) {
		e.def = promoted
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", e.def.Name, err)
	}
	e.ctx = cc
	return cc, nil
}

// settleLifecycle closes an ephemeral entry's context right after a call
// completes; keep-alive entries stay cached. Caller must hold e.mu.
func (r *Runtime) settleLifecycle(e *entry) {
	if e.def.Lifecycle.Mode == mcpdef.LifecycleEphemeral {
		r.closeEntryLocked(e)
	}
}

// closeEntryLocked closes and clears e.ctx if set. Caller must hold e.mu.
func (r *Runtime) closeEntryLocked(e *entry) {
	if e.ctx == nil {
		return
	}
	if err := e.ctx.Close(); err != nil {
		logging.Debug("Runtime", "closing context for %s: %v", e.def.Name, err)
	}
	e.ctx = nil
}

// isToolNotFound reports whether err is the JSON-RPC "tool not found" /
// "method not found" response mcp-go surfaces as a plain error string.
func isToolNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tool not found") || strings.Contains(msg, "unknown tool") ||
		strings.Contains(msg, "method not found")
}
