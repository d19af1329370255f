package configmerge

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Report is the advisory result of a document sanity check. It never
// blocks a write; phases surface the warnings and move on.
type Report struct {
	IsValid  bool
	Warnings []string
}

// Validate checks the document for duplicate provider keys and for
// duplicate secret values in signing-key lists. The YAML parser keeps
// duplicate keys in the node tree, so a hand-edited document with two
// blocks for the same provider is detectable here.
func (m *Merger) Validate(doc *Document) Report {
	report := Report{IsValid: true}
	walkValidate(doc.root, "", &report)
	for _, w := range report.Warnings {
		m.log.Warn().Str("warning", w).Msg("Configuration document check")
	}
	return report
}

func walkValidate(n *yaml.Node, parentKey string, report *Report) {
	switch n.Kind {
	case yaml.MappingNode:
		seen := make(map[string]bool)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if seen[key] {
				report.IsValid = false
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("duplicate key %q under %q", key, displayKey(parentKey)))
			}
			seen[key] = true
			walkValidate(n.Content[i+1], key, report)
		}
	case yaml.SequenceNode:
		if parentKey == secretKeysField {
			checkDuplicateField(n, secretKeysField, "secret", report)
		}
		if parentKey == catalogLocationsField {
			checkDuplicateField(n, catalogLocationsField, "target", report)
		}
		for _, entry := range n.Content {
			walkValidate(entry, parentKey, report)
		}
	}
}

func checkDuplicateField(seq *yaml.Node, listName, field string, report *Report) {
	seen := make(map[string]bool)
	for _, entry := range seq.Content {
		val, ok := entryField(entry, field)
		if !ok {
			continue
		}
		if seen[val] {
			report.IsValid = false
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("duplicate %s value in %q list", field, listName))
		}
		seen[val] = true
	}
}

func displayKey(key string) string {
	if key == "" {
		return "document root"
	}
	return key
}
