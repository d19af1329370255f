// Package configmerge owns the persisted configuration document of a
// destination tree. It deep-merges partial fragments into the document
// with field-aware rules so repeated runs never duplicate entries, and
// supports a dual mode that keeps template and value outputs separate.
//
// Documents are modeled as yaml.Node trees rather than plain maps: the
// persisted file keeps its key order and comments across a
// load-merge-write cycle.
package configmerge

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/RD2153874/flowsource/pkg/errors"
)

// Document is an ordered mapping of configuration keys to scalars,
// nested mappings, or sequences. The zero value is not usable; use
// NewDocument or Parse.
type Document struct {
	root *yaml.Node
}

// Fragment is a partial Document merged into a target exactly once and
// then discarded. It is never persisted on its own.
type Fragment = Document

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: emptyMapping()}
}

// Parse decodes data into a Document. The top level must be a mapping;
// an empty input yields an empty document.
func Parse(data []byte) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "invalid configuration document")
	}
	if len(doc.Content) == 0 {
		return NewDocument(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrConfigParse, "configuration document root must be a mapping")
	}
	return &Document{root: root}, nil
}

// ParseFragment decodes data into a Fragment.
func ParseFragment(data []byte) (*Fragment, error) {
	return Parse(data)
}

// Encode serializes the document with two-space indentation, preserving
// key order and comments.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to serialize configuration document")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to finish serialization")
	}
	return buf.Bytes(), nil
}

// Decode unmarshals the document into out, typically a map or struct.
// Mostly useful for inspection and tests.
func (d *Document) Decode(out interface{}) error {
	return d.root.Decode(out)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{root: cloneNode(d.root)}
}

// IsEmpty reports whether the document has no top-level keys.
func (d *Document) IsEmpty() bool {
	return len(d.root.Content) == 0
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}

func isMapping(n *yaml.Node) bool  { return n != nil && n.Kind == yaml.MappingNode }
func isSequence(n *yaml.Node) bool { return n != nil && n.Kind == yaml.SequenceNode }

// findKey returns the index of the key node with the given value inside
// a mapping's Content slice, or -1.
func findKey(mapping *yaml.Node, key string) int {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// entryField returns the scalar value of a field inside a sequence
// entry, when the entry is a mapping and the field is scalar.
func entryField(entry *yaml.Node, field string) (string, bool) {
	if !isMapping(entry) {
		return "", false
	}
	idx := findKey(entry, field)
	if idx < 0 {
		return "", false
	}
	val := entry.Content[idx+1]
	if val.Kind != yaml.ScalarNode {
		return "", false
	}
	return val.Value, true
}

// canonical returns a normalized encoding of a node, used as an
// identity key for duplicate detection in generic sequences.
func canonical(n *yaml.Node) string {
	data, err := yaml.Marshal(n)
	if err != nil {
		return n.Value
	}
	return string(data)
}
