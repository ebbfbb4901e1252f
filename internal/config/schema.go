package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/rurhook/internal/model"
)

//go:embed schema.toml
var defaultSchemaTOML string

// PluginSchema lists the fields accepted from one plugin.
type PluginSchema struct {
	Prefix  string   `toml:"prefix"`
	Numeric []string `toml:"numeric"`
	Textual []string `toml:"textual"`
}

// Schema holds the known-key allowlists for every plugin.
type Schema struct {
	Plugins map[string]PluginSchema `toml:"plugins"`

	index [len(model.Plugins)]map[string]model.ValueKind
}

// DefaultSchema decodes the built-in allowlists.
func DefaultSchema() (*Schema, error) {
	var s Schema
	if _, err := toml.Decode(defaultSchemaTOML, &s); err != nil {
		return nil, fmt.Errorf("decoding built-in schema: %w", err)
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchema returns the built-in schema with any plugin tables from the file
// at path replacing the defaults. An empty path yields the defaults.
func LoadSchema(path string) (*Schema, error) {
	s, err := DefaultSchema()
	if err != nil || path == "" {
		return s, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // schema path is configured by the operator
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	var override Schema
	if _, err := toml.Decode(string(data), &override); err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	for name, ps := range override.Plugins {
		if _, ok := model.ParsePluginKind(name); !ok {
			return nil, fmt.Errorf("schema %s: unknown plugin %q", path, name)
		}
		s.Plugins[name] = ps
	}

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) build() error {
	for _, kind := range model.Plugins {
		ps, ok := s.Plugins[kind.String()]
		if !ok {
			return fmt.Errorf("schema: missing plugin %q", kind)
		}
		fields := make(map[string]model.ValueKind, len(ps.Numeric)+len(ps.Textual))
		for _, name := range ps.Numeric {
			fields[name] = model.IntValue
		}
		for _, name := range ps.Textual {
			if _, dup := fields[name]; dup {
				return fmt.Errorf("schema: %s field %q is both numeric and textual", kind, name)
			}
			fields[name] = model.StringValue
		}
		s.index[kind] = fields
	}
	return nil
}

// Lookup reports whether field is accepted for kind and which type it carries.
func (s *Schema) Lookup(kind model.PluginKind, field string) (model.ValueKind, bool) {
	vk, ok := s.index[kind][field]
	return vk, ok
}

// Prefix returns the resource-name prefix for kind.
func (s *Schema) Prefix(kind model.PluginKind) string {
	return s.Plugins[kind.String()].Prefix
}

// Fields returns the accepted field names for kind, sorted.
func (s *Schema) Fields(kind model.PluginKind) []string {
	names := make([]string, 0, len(s.index[kind]))
	for name := range s.index[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
