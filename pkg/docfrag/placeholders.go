package docfrag

import (
	"regexp"
	"strings"
)

// canonicalRe is the single placeholder-detection rule used everywhere:
// an environment-variable token like ${GITHUB_CLIENT_ID}.
var canonicalRe = regexp.MustCompile(`^\$\{[A-Z][A-Z0-9_]*\}$`)

// IsPlaceholder reports whether a scalar value is a placeholder token
// in the canonical form.
func IsPlaceholder(value string) bool {
	return canonicalRe.MatchString(strings.TrimSpace(value))
}

// CanonicalPlaceholder returns the canonical token for a field name,
// e.g. GITHUB_CLIENT_ID -> ${GITHUB_CLIENT_ID}.
func CanonicalPlaceholder(field string) string {
	return "${" + field + "}"
}

// placeholderForms are the textual conventions documentation uses for
// the same logical field. All of them resolve to one replacement.
func placeholderForms(field string) []string {
	return []string{
		"${" + field + "}",
		"[" + field + "]",
		"<" + field + ">",
	}
}

// SubstitutePlaceholders replaces every known placeholder convention for
// each field in mapping with its value. A field with an empty value is
// normalized to the canonical ${FIELD} form rather than blanked, so the
// output stays syntactically valid and visibly unconfigured.
func SubstitutePlaceholders(text string, mapping map[string]string) string {
	for field, value := range mapping {
		replacement := value
		if replacement == "" {
			replacement = CanonicalPlaceholder(field)
		}
		for _, form := range placeholderForms(field) {
			text = strings.ReplaceAll(text, form, replacement)
		}
	}
	return text
}
