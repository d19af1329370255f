// Package docfrag extracts configuration fragments from parsed
// documentation. It never reads documentation files itself; it consumes
// the section/code-block tree an external parser (pkg/mddocs) produced.
package docfrag

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/RD2153874/flowsource/pkg/configmerge"
)

// Section is a titled slice of documentation prose.
type Section struct {
	Title   string
	Content string
}

// CodeBlock is a fenced code block with its language tag.
type CodeBlock struct {
	Language string
	Content  string
}

// DocTree is the parsed shape of one documentation file.
type DocTree struct {
	Sections   []Section
	CodeBlocks []CodeBlock
}

// Extractor filters documentation code blocks into config fragments.
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates an Extractor reporting skipped blocks on logger.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{log: logger}
}

// ExtractFragments returns the fragments parsed from code blocks whose
// language matches languageTag and whose content mentions at least one
// of the keywords (case-insensitive). An empty keyword list admits every
// block of the language. Blocks that fail to parse as structured data
// are skipped with a warning, in document order.
func (e *Extractor) ExtractFragments(tree *DocTree, languageTag string, keywords []string) []*configmerge.Fragment {
	var fragments []*configmerge.Fragment
	for _, block := range tree.CodeBlocks {
		if !strings.EqualFold(block.Language, languageTag) {
			continue
		}
		if !relevant(block.Content, keywords) {
			e.log.Debug().Str("language", block.Language).Msg("Code block matches no keyword, skipping")
			continue
		}
		fragment, err := configmerge.ParseFragment([]byte(block.Content))
		if err != nil {
			e.log.Warn().Err(err).Msg("Documentation code block is not valid structured data, skipping")
			continue
		}
		fragments = append(fragments, fragment)
	}
	return fragments
}

func relevant(content string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lowered := strings.ToLower(content)
	for _, keyword := range keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
