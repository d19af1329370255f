package configmerge

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Field names that get merge rules beyond plain recursion. The persisted
// document schema is open, so these are matched by name at any depth.
const (
	// providerMapField maps provider names to their auth configuration.
	providerMapField = "providers"

	// secretKeysField lists backend signing keys, identified by secret.
	secretKeysField = "keys"

	// catalogLocationsField lists catalog sources, identified by target.
	catalogLocationsField = "locations"
)

// integrationListFields are per-host integration lists, identified by
// the host field of each entry.
var integrationListFields = map[string]bool{
	"github":    true,
	"gitlab":    true,
	"azure":     true,
	"bitbucket": true,
}

// Merger loads, merges and persists configuration documents. One Merger
// serves one run; it also owns the dual-mode accumulation state.
type Merger struct {
	fs  afero.Fs
	log zerolog.Logger

	dual          dualState
	templateFrags []*Fragment
	valueFrags    []*Fragment
}

// NewMerger creates a Merger operating through fs.
func NewMerger(fs afero.Fs, logger zerolog.Logger) *Merger {
	return &Merger{fs: fs, log: logger}
}

// Load reads and parses the persisted document at path. Absent or
// unparseable files yield an empty document with a warning, never an
// error: merges must be able to bootstrap a file that does not exist yet.
func (m *Merger) Load(path string) *Document {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		m.log.Warn().Str("path", path).Err(err).Msg("Configuration document not readable, starting empty")
		return NewDocument()
	}
	doc, err := Parse(data)
	if err != nil {
		m.log.Warn().Str("path", path).Err(err).Msg("Configuration document not parseable, starting empty")
		return NewDocument()
	}
	return doc
}

// Merge returns a new document combining target and fragment. Neither
// input is mutated. Rules, per fragment field:
//
//  1. provider maps are shallow-unioned, fragment wins per provider key
//  2. per-host integration lists replace-by-host, else append
//  3. mappings recurse
//  4. secret-key lists dedup by secret, catalog locations by target,
//     other sequences by canonical entry encoding
//  5. anything else is overwritten by the fragment
func (m *Merger) Merge(target *Document, fragment *Fragment) *Document {
	merged := target.Clone()
	mergeMapping(merged.root, fragment.root)
	return merged
}

// MergeIntoFile loads the document at path, merges fragment into it and
// writes the result back as a whole-file rewrite. Failures are logged
// and reported as false; the calling phase decides whether to continue.
// The document is fully serialized before any byte is written, so a
// failed write never leaves a half-serialized file behind.
func (m *Merger) MergeIntoFile(path string, fragment *Fragment, label string) bool {
	doc := m.Load(path)
	merged := m.Merge(doc, fragment)

	data, err := merged.Encode()
	if err != nil {
		m.log.Error().Str("path", path).Str("label", label).Err(err).Msg("Failed to serialize merged document")
		return false
	}
	if err := afero.WriteFile(m.fs, path, data, 0644); err != nil {
		m.log.Error().Str("path", path).Str("label", label).Err(err).Msg("Failed to write merged document")
		return false
	}

	m.log.Info().Str("path", path).Str("label", label).Msg("Merged configuration fragment")
	return true
}

func mergeMapping(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key := src.Content[i]
		val := src.Content[i+1]

		idx := findKey(dst, key.Value)
		if idx < 0 {
			dst.Content = append(dst.Content, cloneNode(key), cloneNode(val))
			continue
		}
		dstVal := dst.Content[idx+1]

		switch {
		case key.Value == providerMapField && isMapping(dstVal) && isMapping(val):
			unionMapping(dstVal, val)
		case integrationListFields[key.Value] && isSequence(dstVal) && isSequence(val):
			replaceOrAppendByField(dstVal, val, "host")
		case isMapping(dstVal) && isMapping(val):
			mergeMapping(dstVal, val)
		case isSequence(dstVal) && isSequence(val):
			switch key.Value {
			case secretKeysField:
				appendUniqueByField(dstVal, val, "secret")
			case catalogLocationsField:
				appendUniqueByField(dstVal, val, "target")
			default:
				appendUnique(dstVal, val)
			}
		default:
			dst.Content[idx+1] = cloneNode(val)
		}
	}
}

// unionMapping shallow-unions src into dst; src wins on key conflicts.
func unionMapping(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key := src.Content[i]
		val := src.Content[i+1]
		if idx := findKey(dst, key.Value); idx >= 0 {
			dst.Content[idx+1] = cloneNode(val)
		} else {
			dst.Content = append(dst.Content, cloneNode(key), cloneNode(val))
		}
	}
}

// replaceOrAppendByField merges sequence entries by the identity field:
// an incoming entry with the same identity replaces the existing entry
// entirely, which is how a placeholder entry gets upgraded to a real
// one. Entries without the field fall back to canonical dedup.
func replaceOrAppendByField(dst, src *yaml.Node, field string) {
	for _, entry := range src.Content {
		id, ok := entryField(entry, field)
		if !ok {
			appendEntryUnique(dst, entry)
			continue
		}
		replaced := false
		for i, existing := range dst.Content {
			if existingID, ok := entryField(existing, field); ok && existingID == id {
				dst.Content[i] = cloneNode(entry)
				replaced = true
				break
			}
		}
		if !replaced {
			dst.Content = append(dst.Content, cloneNode(entry))
		}
	}
}

// appendUniqueByField appends entries whose identity field value is not
// already present. Unlike replaceOrAppendByField, an existing entry is
// kept as-is.
func appendUniqueByField(dst, src *yaml.Node, field string) {
	seen := make(map[string]bool)
	for _, existing := range dst.Content {
		if id, ok := entryField(existing, field); ok {
			seen[id] = true
		}
	}
	for _, entry := range src.Content {
		id, ok := entryField(entry, field)
		if !ok {
			appendEntryUnique(dst, entry)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		dst.Content = append(dst.Content, cloneNode(entry))
	}
}

// appendUnique appends entries whose canonical encoding is not already
// present in dst. Encoding equality rather than scalar-only equality
// keeps repeated merges idempotent for sequences of mappings too.
func appendUnique(dst, src *yaml.Node) {
	seen := make(map[string]bool, len(dst.Content))
	for _, existing := range dst.Content {
		seen[canonical(existing)] = true
	}
	for _, entry := range src.Content {
		key := canonical(entry)
		if seen[key] {
			continue
		}
		seen[key] = true
		dst.Content = append(dst.Content, cloneNode(entry))
	}
}

// appendEntryUnique appends a single entry unless an encoding-equal one
// already exists.
func appendEntryUnique(dst, entry *yaml.Node) {
	key := canonical(entry)
	for _, existing := range dst.Content {
		if canonical(existing) == key {
			return
		}
	}
	dst.Content = append(dst.Content, cloneNode(entry))
}
