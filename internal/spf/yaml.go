package spf

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML mapping of parameter names to scalars or sequences.
// Sequences become groups; nested sequences are flattened in order, so
// permutations can be written one per line. Booleans map to "on" and "off".
func LoadYAML(path string) (*Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	p, err := ParseYAML(b)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	p.path = path
	return p, nil
}

// ParseYAML decodes YAML parameters from memory.
func ParseYAML(b []byte) (*Params, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	p := New()
	if doc.Kind == 0 {
		return p, nil
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("top level must be a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			p.Set(key, scalarToken(val))
		case yaml.SequenceNode:
			var toks []string
			if err := flatten(val, &toks); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			p.SetGroup(key, toks...)
		default:
			return nil, fmt.Errorf("%s: unsupported value at line %d", key, val.Line)
		}
	}
	return p, nil
}

func flatten(n *yaml.Node, out *[]string) error {
	for _, c := range n.Content {
		switch c.Kind {
		case yaml.ScalarNode:
			*out = append(*out, scalarToken(c))
		case yaml.SequenceNode:
			if err := flatten(c, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported item at line %d", c.Line)
		}
	}
	return nil
}

func scalarToken(n *yaml.Node) string {
	if n.Tag == "!!bool" {
		var b bool
		if err := n.Decode(&b); err == nil {
			if b {
				return SwitchOn
			}
			return "off"
		}
	}
	return n.Value
}
