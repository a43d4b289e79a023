package documentloaders

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/sevigo/pdfchat/schema"
)

// Markdown loads a markdown file from disk as a single document, stripping
// markup so only readable text is embedded.
type Markdown struct {
	path string
}

// NewMarkdown creates a loader for the markdown file at path.
func NewMarkdown(path string) *Markdown {
	return &Markdown{path: path}
}

// Load parses the markdown and extracts its plain text.
func (l *Markdown) Load(_ context.Context) ([]schema.Document, error) {
	source, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: failed to read markdown %s: %w", l.path, err)
	}

	content, err := extractMarkdownText(source)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: failed to parse markdown %s: %w", l.path, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("documentloaders: markdown %s contains no text", l.path)
	}

	doc := schema.NewDocument(content, map[string]any{
		"source": l.path,
		"format": "markdown",
	})
	return []schema.Document{doc}, nil
}

// extractMarkdownText walks the goldmark AST and collects text content.
// Block boundaries become blank lines so the splitter can separate on them.
func extractMarkdownText(source []byte) (string, error) {
	parser := goldmark.New().Parser()
	root := parser.Parse(gtext.NewReader(source))

	var sb strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindParagraph, ast.KindHeading, ast.KindListItem,
				ast.KindBlockquote, ast.KindCodeBlock, ast.KindFencedCodeBlock:
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.CodeBlock:
			writeBlockLines(&sb, node, source)
		case *ast.FencedCodeBlock:
			writeBlockLines(&sb, node, source)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return cleanExtractedText(sb.String()), nil
}

func writeBlockLines(sb *strings.Builder, node ast.Node, source []byte) {
	lines := node.Lines()
	for i := range lines.Len() {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}
}
