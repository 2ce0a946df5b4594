package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Write saves cfg as YAML, creating the directory. The file holds the
// session cookie, so it is owner-only.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	return writeYAML(path, cfg)
}

// SetValue edits one dotted key, e.g. "stats.default_duration", in an
// existing file through the yaml.v3 node tree, so comments and key order
// survive. Missing parent mappings are created.
func SetValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", configPath, err)
	}
	if doc.Kind == 0 {
		// Empty file.
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mappingNode()}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("%s is not a YAML mapping", configPath)
	}

	parent := doc.Content[0]
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child := lookup(parent, part)
		if child == nil {
			child = mappingNode()
			parent.Content = append(parent.Content, stringNode(part), child)
		} else if child.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is not a mapping", part)
		}
		parent = child
	}

	leaf := parts[len(parts)-1]
	if v := lookup(parent, leaf); v != nil {
		// Drop the old tag so yaml.v3 infers one for the new value.
		*v = yaml.Node{Kind: yaml.ScalarNode, Value: value, HeadComment: v.HeadComment, LineComment: v.LineComment}
	} else {
		parent.Content = append(parent.Content, stringNode(leaf), &yaml.Node{Kind: yaml.ScalarNode, Value: value})
	}
	return writeYAML(configPath, &doc)
}

// writeYAML encodes v with two-space indents and writes it owner-only.
func writeYAML(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func mappingNode() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"} }

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// lookup returns the value under key in a mapping node, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
