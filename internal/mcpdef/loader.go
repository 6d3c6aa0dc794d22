package mcpdef

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"mcporter/pkg/logging"
)

// document is the top-level collaborator-supplied shape: a map keyed by
// server name, as described in spec §6 ("Server definition shape").
type document struct {
	MCPServers map[string]yaml.Node `yaml:"mcpServers"`
}

// LoadFile reads a YAML document from path and decodes every entry under
// mcpServers into a ServerDefinition, sorted by name for deterministic
// iteration order.
func LoadFile(path string) ([]ServerDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading server definitions from %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing server definitions from %s: %w", path, err)
	}
	logging.Info("MCPDef", "loaded %d server definition(s) from %s", len(defs), path)
	return defs, nil
}

// Parse decodes a YAML document into a sorted slice of ServerDefinitions.
func Parse(data []byte) ([]ServerDefinition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	names := make([]string, 0, len(doc.MCPServers))
	for name := range doc.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]ServerDefinition, 0, len(names))
	for _, name := range names {
		node := doc.MCPServers[name]
		def, err := decodeEntry(name, &node)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// raw decodes the single-spelling fields of one mcpServers entry. Fields
// accepted in both camelCase and snake_case spellings per spec §6 are not
// here: yaml.v3 cannot express two tags on one field, so decodeEntry reads
// them from a generic map instead.
type raw struct {
	Description string            `yaml:"description"`
	URL         string            `yaml:"url"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Cwd         string            `yaml:"cwd"`
	Headers     map[string]string `yaml:"headers"`
	Env         map[string]string `yaml:"env"`
	Auth        string            `yaml:"auth"`
}

func decodeEntry(name string, node *yaml.Node) (ServerDefinition, error) {
	var r raw
	if err := node.Decode(&r); err != nil {
		return ServerDefinition{}, fmt.Errorf("decoding entry: %w", err)
	}

	var generic map[string]interface{}
	if err := node.Decode(&generic); err != nil {
		return ServerDefinition{}, fmt.Errorf("decoding entry: %w", err)
	}

	def := ServerDefinition{
		Name:             name,
		Auth:             r.Auth,
		TokenCacheDir:    firstString(generic, "tokenCacheDir", "token_cache_dir"),
		ClientName:       firstString(generic, "clientName", "client_name"),
		OAuthRedirectURL: firstString(generic, "oauthRedirectUrl", "oauth_redirect_url"),
		AllowedTools:     firstStringSlice(generic, "allowedTools", "allowed_tools"),
		BlockedTools:     firstStringSlice(generic, "blockedTools", "blocked_tools"),
		Source:           Source{Kind: "local", Path: name},
	}

	if r.URL != "" {
		def.Command = Command{Kind: CommandHTTP, HTTP: &HTTPCommand{URL: r.URL, Headers: r.Headers}}
	} else if r.Command != "" {
		def.Command = Command{Kind: CommandStdio, Stdio: &StdioCommand{Exe: r.Command, Args: r.Args, Cwd: r.Cwd, Env: r.Env}}
	} else {
		return ServerDefinition{}, fmt.Errorf("neither url nor command specified")
	}

	mapping, err := decodeResultMapping(generic)
	if err != nil {
		return ServerDefinition{}, err
	}
	def.ResultMapping = mapping

	def.Lifecycle = decodeLifecycle(generic)

	return def, nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func firstStringSlice(m map[string]interface{}, keys ...string) []string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		list, ok := v.([]interface{})
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func decodeResultMapping(m map[string]interface{}) (map[string]ProjectionSpec, error) {
	raw, ok := m["resultMapping"]
	if !ok {
		raw, ok = m["result_mapping"]
	}
	if !ok {
		return nil, nil
	}
	outer, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("resultMapping must be a map")
	}
	mapping := make(map[string]ProjectionSpec, len(outer))
	for tool, spec := range outer {
		specMap, ok := spec.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("resultMapping[%s] must be a map", tool)
		}
		pickRaw, ok := specMap["pick"]
		if !ok {
			continue
		}
		pickList, ok := pickRaw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("resultMapping[%s].pick must be a list", tool)
		}
		pick := make([]string, 0, len(pickList))
		for _, p := range pickList {
			if s, ok := p.(string); ok {
				pick = append(pick, s)
			}
		}
		mapping[tool] = ProjectionSpec{Pick: pick}
	}
	return mapping, nil
}

func decodeLifecycle(m map[string]interface{}) Lifecycle {
	raw, ok := m["lifecycle"]
	if !ok {
		return Lifecycle{Mode: LifecycleKeepAlive}
	}
	lc, ok := raw.(map[string]interface{})
	if !ok {
		return Lifecycle{Mode: LifecycleKeepAlive}
	}
	mode := LifecycleKeepAlive
	if s, ok := lc["mode"].(string); ok && s == string(LifecycleEphemeral) {
		mode = LifecycleEphemeral
	}
	lifecycle := Lifecycle{Mode: mode}
	if idle, ok := lc["idleTimeoutMs"]; ok {
		if f, ok := idle.(int); ok {
			lifecycle.IdleTimeoutMs = &f
		}
	}
	return lifecycle
}

// Adhoc builds the unconfigured, URL-driven definition the CLI constructs
// when a user passes a bare URL or command instead of a configured name.
func Adhoc(name string, command Command) ServerDefinition {
	return ServerDefinition{
		Name:      name,
		Command:   command,
		Lifecycle: Lifecycle{Mode: LifecycleEphemeral},
		Source:    Source{Kind: "local", Path: AdhocPath},
	}
}
