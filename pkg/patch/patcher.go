// Package patch applies idempotent textual edits to generated
// TypeScript/JSX source. It deliberately stays at the pattern level
// rather than parsing the target language: every primitive checks for a
// uniquely-identifying substring first, so repeated runs against a
// partially migrated tree are no-ops instead of corruption.
package patch

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Patcher applies edit primitives to source text. All methods are pure:
// they return the patched text and never touch the filesystem.
type Patcher struct {
	log zerolog.Logger
}

// NewPatcher creates a Patcher that reports skipped edits on logger.
func NewPatcher(logger zerolog.Logger) *Patcher {
	return &Patcher{log: logger}
}

// importLineRe matches a whole import statement line.
var importLineRe = regexp.MustCompile(`(?m)^import\s+.*$`)

// ExtendImport ensures newIdentifier is imported from moduleID. An
// existing named-import statement for moduleID gets the identifier added
// to its list; otherwise a fresh import line is appended after the last
// import statement. Already-imported identifiers are left alone.
func (p *Patcher) ExtendImport(text, moduleID, newIdentifier string) string {
	namedImportRe := regexp.MustCompile(
		`import\s*\{([^}]*)\}\s*from\s*['"]` + regexp.QuoteMeta(moduleID) + `['"]`)

	if loc := namedImportRe.FindStringSubmatchIndex(text); loc != nil {
		body := text[loc[2]:loc[3]]
		if identifierRe(newIdentifier).MatchString(body) {
			p.log.Debug().Str("module", moduleID).Str("identifier", newIdentifier).
				Msg("Identifier already imported, skipping")
			return text
		}
		return text[:loc[2]] + extendIdentifierList(body, newIdentifier) + text[loc[3]:]
	}

	newImport := "import { " + newIdentifier + " } from '" + moduleID + "';"
	lines := importLineRe.FindAllStringIndex(text, -1)
	if len(lines) == 0 {
		return newImport + "\n" + text
	}
	end := importStatementEnd(text, lines[len(lines)-1])
	return text[:end] + "\n" + newImport + text[end:]
}

// importStatementEnd returns the offset just past the last line of the
// import statement starting at match. A single-line import ends on its
// own line; a multi-line named import ends on the line carrying its
// closing brace, so the new import cannot land inside the brace block.
func importStatementEnd(text string, match []int) int {
	line := text[match[0]:match[1]]
	if strings.Count(line, "{") <= strings.Count(line, "}") {
		return match[1]
	}
	closing := matchBracket(text, match[0]+strings.IndexByte(line, '{'), '{', '}')
	if closing < 0 {
		return match[1]
	}
	if nl := strings.IndexByte(text[closing:], '\n'); nl >= 0 {
		return closing + nl
	}
	return len(text)
}

// extendIdentifierList appends an identifier to an import list body,
// preserving single-line and multi-line formatting and any trailing
// comma convention.
func extendIdentifierList(body, identifier string) string {
	trimmed := strings.TrimRight(body, " \t\n")
	tail := body[len(trimmed):]

	if strings.TrimSpace(trimmed) == "" {
		return " " + identifier + " "
	}
	if strings.HasSuffix(trimmed, ",") {
		if strings.Contains(body, "\n") {
			return trimmed + "\n" + listIndent(body) + identifier + "," + tail
		}
		return trimmed + " " + identifier + "," + tail
	}
	return trimmed + ", " + identifier + tail
}

// InsertDeclarationBeforeAnchor inserts declarationText on its own lines
// immediately before the line containing the first occurrence of
// anchorMarker. The first non-empty line of the declaration serves as
// the existence marker; when it is already present, or the anchor is
// missing, the text is returned unchanged.
func (p *Patcher) InsertDeclarationBeforeAnchor(text, declarationText, anchorMarker string) string {
	marker := firstNonEmptyLine(declarationText)
	if marker == "" {
		return text
	}
	if strings.Contains(text, marker) {
		p.log.Debug().Str("marker", marker).Msg("Declaration already present, skipping")
		return text
	}
	idx := strings.Index(text, anchorMarker)
	if idx < 0 {
		p.log.Warn().Str("anchor", anchorMarker).Msg("Anchor not found, declaration not inserted")
		return text
	}

	lineStart := strings.LastIndexByte(text[:idx], '\n') + 1
	decl := strings.TrimRight(declarationText, "\n") + "\n\n"
	return text[:lineStart] + decl + text[lineStart:]
}

// ExtendArrayLiteral prepends newEntryText inside the named array
// literal, keeping existing entries. The entry text itself is the
// existence marker.
func (p *Patcher) ExtendArrayLiteral(text, arrayName, newEntryText string) string {
	declRe := regexp.MustCompile(
		`(?:const|let|var)\s+` + regexp.QuoteMeta(arrayName) + `\s*(?::[^=]+)?=\s*\[`)
	loc := declRe.FindStringIndex(text)
	if loc == nil {
		p.log.Warn().Str("array", arrayName).Msg("Array literal not found, entry not inserted")
		return text
	}

	open := loc[1] - 1
	closing := matchBracket(text, open, '[', ']')
	if closing < 0 {
		p.log.Warn().Str("array", arrayName).Msg("Array literal not terminated, entry not inserted")
		return text
	}

	body := text[open+1 : closing]
	entry := strings.TrimSpace(newEntryText)
	if strings.Contains(body, entry) {
		p.log.Debug().Str("array", arrayName).Msg("Array entry already present, skipping")
		return text
	}

	if strings.TrimSpace(body) == "" {
		return text[:open+1] + "\n  " + entry + ",\n" + text[closing:]
	}
	if !strings.Contains(body, "\n") {
		return text[:open+1] + entry + ", " + strings.TrimLeft(body, " ") + text[closing:]
	}
	indent := listIndent(body)
	return text[:open+1] + "\n" + indent + entry + "," + body + text[closing:]
}

// WireNamedOption ensures optionKey: optionValue appears in the object
// argument of the named call. The option is appended before the closing
// brace of the first object argument; an existing key is left untouched.
func (p *Patcher) WireNamedOption(text, callName, optionKey, optionValue string) string {
	callRe := regexp.MustCompile(regexp.QuoteMeta(callName) + `\s*\(`)
	loc := callRe.FindStringIndex(text)
	if loc == nil {
		p.log.Warn().Str("call", callName).Msg("Call expression not found, option not wired")
		return text
	}

	open := strings.IndexByte(text[loc[1]:], '{')
	if open < 0 {
		p.log.Warn().Str("call", callName).Msg("Call has no object argument, option not wired")
		return text
	}
	open += loc[1]
	closing := matchBracket(text, open, '{', '}')
	if closing < 0 {
		p.log.Warn().Str("call", callName).Msg("Object argument not terminated, option not wired")
		return text
	}

	body := text[open+1 : closing]
	// shorthand properties ({ apis }) count as present just like apis: x
	keyRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(optionKey) + `\s*(?:[:,]|\z)`)
	if keyRe.MatchString(body) {
		p.log.Debug().Str("call", callName).Str("option", optionKey).
			Msg("Option already wired, skipping")
		return text
	}

	entry := optionKey + ": " + optionValue
	trimmed := strings.TrimRight(body, " \t\n")
	tail := body[len(trimmed):]

	var newBody string
	switch {
	case strings.TrimSpace(trimmed) == "":
		newBody = " " + entry + " "
	case strings.Contains(body, "\n"):
		if !strings.HasSuffix(trimmed, ",") {
			trimmed += ","
		}
		newBody = trimmed + "\n" + listIndent(body) + entry + "," + tail
	default:
		if !strings.HasSuffix(trimmed, ",") {
			trimmed += ","
		}
		newBody = trimmed + " " + entry + tail
	}
	return text[:open+1] + newBody + text[closing:]
}

// Section markers understood by ReplaceMarkedSection.
const (
	sectionMarkerPrefix = "// flowsource:"
	sectionBeginSuffix  = ":begin"
	sectionEndSuffix    = ":end"
)

// SectionMarkers returns the begin/end marker lines for a section id,
// for callers that generate marked source.
func SectionMarkers(sectionID string) (string, string) {
	return sectionMarkerPrefix + sectionID + sectionBeginSuffix,
		sectionMarkerPrefix + sectionID + sectionEndSuffix
}

// ReplaceMarkedSection wraps (shouldComment true) or unwraps the block
// between the section's begin and end markers in a block comment. The
// source inside stays intact, so a disabled provider implementation can
// be re-enabled by a later run.
func (p *Patcher) ReplaceMarkedSection(text, sectionID string, shouldComment bool) string {
	begin, end := SectionMarkers(sectionID)

	beginIdx := strings.Index(text, begin)
	endIdx := strings.Index(text, end)
	if beginIdx < 0 || endIdx < 0 || endIdx < beginIdx {
		p.log.Warn().Str("section", sectionID).Msg("Section markers not found, skipping")
		return text
	}

	// region spans full lines between the marker lines
	regionStart := beginIdx + len(begin)
	if nl := strings.IndexByte(text[regionStart:], '\n'); nl >= 0 {
		regionStart += nl + 1
	}
	regionEnd := strings.LastIndexByte(text[:endIdx], '\n') + 1

	region := text[regionStart:regionEnd]
	commented := strings.HasPrefix(strings.TrimSpace(region), "/*")

	if shouldComment {
		if commented {
			p.log.Debug().Str("section", sectionID).Msg("Section already commented, skipping")
			return text
		}
		return text[:regionStart] + "/*\n" + region + "*/\n" + text[regionEnd:]
	}

	if !commented {
		p.log.Debug().Str("section", sectionID).Msg("Section not commented, skipping")
		return text
	}
	unwrapped := strings.Replace(region, "/*\n", "", 1)
	if idx := strings.LastIndex(unwrapped, "*/"); idx >= 0 {
		rest := strings.TrimPrefix(unwrapped[idx+2:], "\n")
		unwrapped = unwrapped[:idx] + rest
	}
	return text[:regionStart] + unwrapped + text[regionEnd:]
}

// matchBracket returns the index of the bracket closing the one at open,
// or -1. String and comment syntax is not tracked; generated source does
// not place unbalanced brackets in literals near the patched regions.
func matchBracket(text string, open int, openCh, closeCh byte) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// listIndent returns the indentation of the first indented line in a
// multi-line list body, defaulting to two spaces.
func listIndent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var indent strings.Builder
		for _, r := range line {
			if r != ' ' && r != '\t' {
				break
			}
			indent.WriteRune(r)
		}
		if indent.Len() > 0 {
			return indent.String()
		}
	}
	return "  "
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func identifierRe(identifier string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(identifier) + `\b`)
}
