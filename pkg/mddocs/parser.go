// Package mddocs parses provider documentation written in markdown into
// the section/code-block tree consumed by pkg/docfrag.
package mddocs

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/RD2153874/flowsource/pkg/docfrag"
)

// Parse segments a markdown document into titled sections and fenced
// code blocks. Section content is the raw source text between one
// heading and the next; fenced blocks keep their language tag.
func Parse(source []byte) *docfrag.DocTree {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	tree := &docfrag.DocTree{}
	var current *docfrag.Section
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = body.String()
			tree.Sections = append(tree.Sections, *current)
		}
		body.Reset()
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			current = &docfrag.Section{Title: nodeText(heading, source)}
			continue
		}

		if fenced, ok := n.(*ast.FencedCodeBlock); ok {
			block := docfrag.CodeBlock{
				Language: fencedLanguage(fenced, source),
				Content:  blockLines(fenced, source),
			}
			tree.CodeBlocks = append(tree.CodeBlocks, block)
		}

		if current != nil {
			body.WriteString(rawText(n, source))
			body.WriteString("\n")
		}
	}
	flush()

	return tree
}

func fencedLanguage(n *ast.FencedCodeBlock, source []byte) string {
	if lang := n.Language(source); lang != nil {
		return string(lang)
	}
	return ""
}

// blockLines reconstructs the raw content of a block node from its
// source line segments.
func blockLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}
	return sb.String()
}

// rawText returns the source text a node spans, including the text of
// nested inline nodes for paragraph-like blocks.
func rawText(n ast.Node, source []byte) string {
	if n.Lines().Len() > 0 {
		return blockLines(n, source)
	}
	return nodeText(n, source)
}

// nodeText concatenates the text segments of a node's inline children.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			continue
		}
		sb.WriteString(nodeText(c, source))
	}
	return sb.String()
}
