package application

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const maxSnippetLength = 200

// RenderedBody is a post body converted to HTML.
type RenderedBody struct {
	Title   string
	Snippet string
	HTML    string
}

// MarkdownRenderer converts a post body to HTML.
type MarkdownRenderer interface {
	Render(markdown string) (*RenderedBody, error)
}

// rootLinkTransformer prefixes site-absolute links and images ("/post/x")
// with the blog's base URL, so rendered posts work outside the site (feeds,
// the JSON API).
type rootLinkTransformer struct {
	baseURL string
}

func (t *rootLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Link:
			if isSiteAbsolute(string(v.Destination)) {
				v.Destination = []byte(t.baseURL + string(v.Destination))
			}
		case *ast.Image:
			if isSiteAbsolute(string(v.Destination)) {
				v.Destination = []byte(t.baseURL + string(v.Destination))
			}
		}
		return ast.WalkContinue, nil
	})
}

func isSiteAbsolute(dest string) bool {
	return strings.HasPrefix(dest, "/") && !strings.HasPrefix(dest, "//")
}

type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer returns a goldmark-backed renderer. An empty baseURL
// leaves links untouched.
func NewMarkdownRenderer(baseURL string) *GoldmarkRenderer {
	parserOpts := []parser.Option{parser.WithAutoHeadingID()}
	if baseURL != "" {
		parserOpts = append(parserOpts, parser.WithASTTransformers(
			util.Prioritized(&rootLinkTransformer{baseURL: strings.TrimSuffix(baseURL, "/")}, 100),
		))
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &GoldmarkRenderer{md: md}
}

func (r *GoldmarkRenderer) Render(markdown string) (*RenderedBody, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &RenderedBody{
		Title:   extractHeading(markdown),
		Snippet: extractSnippet(markdown),
		HTML:    buf.String(),
	}, nil
}

// extractHeading returns the text of a leading "# " heading, or "".
func extractHeading(markdown string) string {
	first, _, _ := strings.Cut(markdown, "\n")
	title, found := strings.CutPrefix(strings.TrimSpace(first), "# ")
	if !found {
		return ""
	}
	return strings.TrimSpace(title)
}

// extractSnippet returns the first paragraph as plain-ish text, truncated at
// a word boundary.
func extractSnippet(markdown string) string {
	var para []string

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || isBlockMarker(trimmed) {
			if len(para) > 0 {
				break
			}
			continue
		}
		para = append(para, trimmed)
	}

	snippet := strings.Join(para, " ")
	if len(snippet) <= maxSnippetLength {
		return snippet
	}

	snippet = snippet[:maxSnippetLength]
	if i := strings.LastIndexAny(snippet, " \t"); i > 0 {
		snippet = snippet[:i]
	}
	return snippet + "..."
}

func isBlockMarker(line string) bool {
	for _, prefix := range []string{"#", "```", "---", "***", "- ", "* ", "+ ", "|", ">"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
