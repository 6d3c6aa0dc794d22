package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"mcporter/internal/mcpdef"
	"mcporter/pkg/logging"
)

const (
	userConfigDir      = ".config/mcporter"
	definitionFileName = "servers.yaml"
)

// DefaultPath returns ~/.config/mcporter/servers.yaml, creating no
// directories; callers needing the directory to exist call Save.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, userConfigDir, definitionFileName), nil
}

// Store is the on-disk home of the mcpServers document. It round-trips
// through mcpdef so the same placeholder-tolerant decoding applies whether
// a definition was hand-edited or written by `mcporter servers add`.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads and decodes the document, returning an empty slice (not an
// error) when the file does not yet exist.
func (s *Store) Load() ([]mcpdef.ServerDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	defs, err := mcpdef.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return defs, nil
}

// Save writes defs back to the document, replacing its contents.
func (s *Store) Save(defs []mcpdef.ServerDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := map[string]interface{}{"mcpServers": encodeAll(defs)}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding server definitions: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	logging.Info("Config", "saved %d server definition(s) to %s", len(defs), s.path)
	return nil
}

// Add inserts or, with overwrite, replaces the definition named def.Name.
func (s *Store) Add(def mcpdef.ServerDefinition, overwrite bool) error {
	defs, err := s.Load()
	if err != nil {
		return err
	}
	for i, existing := range defs {
		if existing.Name == def.Name {
			if !overwrite {
				return fmt.Errorf("server %q already exists", def.Name)
			}
			defs[i] = def
			return s.Save(defs)
		}
	}
	defs = append(defs, def)
	return s.Save(defs)
}

// Remove deletes the definition named name, returning an error if absent.
func (s *Store) Remove(name string) error {
	defs, err := s.Load()
	if err != nil {
		return err
	}
	for i, existing := range defs {
		if existing.Name == name {
			defs = append(defs[:i], defs[i+1:]...)
			return s.Save(defs)
		}
	}
	return fmt.Errorf("server %q not found", name)
}

func encodeAll(defs []mcpdef.ServerDefinition) map[string]interface{} {
	out := make(map[string]interface{}, len(defs))
	for _, def := range defs {
		out[def.Name] = encodeOne(def)
	}
	return out
}

func encodeOne(def mcpdef.ServerDefinition) map[string]interface{} {
	entry := map[string]interface{}{}

	switch def.Command.Kind {
	case mcpdef.CommandStdio:
		entry["command"] = def.Command.Stdio.Exe
		if len(def.Command.Stdio.Args) > 0 {
			entry["args"] = def.Command.Stdio.Args
		}
		if def.Command.Stdio.Cwd != "" {
			entry["cwd"] = def.Command.Stdio.Cwd
		}
		if len(def.Command.Stdio.Env) > 0 {
			entry["env"] = def.Command.Stdio.Env
		}
	case mcpdef.CommandHTTP:
		entry["url"] = def.Command.HTTP.URL
		if len(def.Command.HTTP.Headers) > 0 {
			entry["headers"] = def.Command.HTTP.Headers
		}
	}

	if def.Auth != "" {
		entry["auth"] = def.Auth
	}
	if def.TokenCacheDir != "" {
		entry["tokenCacheDir"] = def.TokenCacheDir
	}
	if def.ClientName != "" {
		entry["clientName"] = def.ClientName
	}
	if def.OAuthRedirectURL != "" {
		entry["oauthRedirectUrl"] = def.OAuthRedirectURL
	}
	if len(def.AllowedTools) > 0 {
		entry["allowedTools"] = def.AllowedTools
	}
	if len(def.BlockedTools) > 0 {
		entry["blockedTools"] = def.BlockedTools
	}
	if def.Lifecycle.Mode == mcpdef.LifecycleEphemeral {
		entry["lifecycle"] = map[string]interface{}{"mode": string(mcpdef.LifecycleEphemeral)}
	}
	return entry
}
