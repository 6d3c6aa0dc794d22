// Package config locates and persists the server definitions document: the
// single YAML file under the mcpServers key that the CLI collaborator reads
// definitions from and that `mcporter servers add/rm` edits in place.
package config
