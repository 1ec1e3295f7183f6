package render

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
)

// CodeBlocks replaces fenced code blocks in rendered HTML with chroma
// highlighted markup. The org renderer highlights during rendering; this
// post-processor covers markdown output.
type CodeBlocks struct{}

// NewCodeBlocks creates the code highlighting post-processor.
func NewCodeBlocks() *CodeBlocks { return &CodeBlocks{} }

// Name implements PostProcessor.
func (c *CodeBlocks) Name() string { return "codeblocks" }

// PostProcess implements PostProcessor.
func (c *CodeBlocks) PostProcess(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "<pre>") {
		return input, nil
	}

	nodes, err := parseFragment(input)
	if err != nil {
		return "", err
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for child := n.FirstChild; child != nil; {
			next := child.NextSibling
			if lang, source, ok := codeBlock(child); ok {
				if highlighted, err := HighlightCode(source, lang); err == nil {
					n.InsertBefore(&html.Node{Type: html.RawNode, Data: highlighted}, child)
					n.RemoveChild(child)
				}
			} else {
				walk(child)
			}
			child = next
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// codeBlock matches <pre><code class="language-x">…</code></pre> and
// returns the language and source text.
func codeBlock(n *html.Node) (lang, source string, ok bool) {
	if n.Type != html.ElementNode || n.Data != "pre" {
		return "", "", false
	}
	code := n.FirstChild
	if code == nil || code.Type != html.ElementNode || code.Data != "code" {
		return "", "", false
	}
	class := attr(code, "class")
	if !strings.HasPrefix(class, "language-") {
		return "", "", false
	}
	return strings.TrimPrefix(class, "language-"), textRaw(code), true
}

func textRaw(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return buf.String()
}
