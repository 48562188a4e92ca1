// Package yaml reads and writes group configuration files.
//
// Two layouts are accepted. The compact one is an ordered mapping from group
// name to categories:
//
//	Sweden:
//	  - Category:Battles_involving_Sweden
//	Norway: Category:Battles_involving_Norway
//
// The explicit one is a list of groups:
//
//	- name: Sweden
//	  categories: [Category:Battles_involving_Sweden]
//
// Group order follows the file in both cases.
package yaml

import (
	"bytes"
	"os"

	"github.com/fwojciec/battletally"
	"gopkg.in/yaml.v3"
)

// LoadGroups reads groups from a file.
func LoadGroups(path string) ([]battletally.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGroups(data)
}

// ParseGroups decodes and validates a group configuration.
func ParseGroups(data []byte) ([]battletally.Group, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, battletally.Errorf(battletally.EINVALID, "invalid groups file: %v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, battletally.Errorf(battletally.EINVALID, "groups file is empty")
	}

	var groups []battletally.Group
	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, value := root.Content[i], root.Content[i+1]
			categories, err := decodeCategories(key.Value, value)
			if err != nil {
				return nil, err
			}
			groups = append(groups, battletally.Group{Name: key.Value, Categories: categories})
		}
	case yaml.SequenceNode:
		if err := root.Decode(&groups); err != nil {
			return nil, battletally.Errorf(battletally.EINVALID, "invalid groups list: %v", err)
		}
	default:
		return nil, battletally.Errorf(battletally.EINVALID, "groups file must be a mapping or a list")
	}

	if err := battletally.ValidateGroups(groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// decodeCategories accepts a single category or a list of them.
func decodeCategories(group string, node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil, nil
		}
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var categories []string
		if err := node.Decode(&categories); err != nil {
			return nil, battletally.Errorf(battletally.EINVALID, "group %q: %v", group, err)
		}
		return categories, nil
	}
	return nil, battletally.Errorf(battletally.EINVALID, "group %q: categories must be a string or a list", group)
}

// MarshalGroups encodes groups in the compact mapping layout.
func MarshalGroups(groups []battletally.Group) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, g := range groups {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range g.Categories {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: g.Name},
			seq,
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
