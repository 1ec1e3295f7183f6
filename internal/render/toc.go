package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"squirrelwiki/internal/slug"
)

// TOC replaces a <!--toc--> marker in rendered HTML with a nested list of
// the document's headings, assigning anchor ids to headings that lack one.
type TOC struct {
	// MinHeadings suppresses the list for documents with fewer headings.
	MinHeadings int
}

// NewTOC creates the table-of-contents post-processor.
func NewTOC(minHeadings int) *TOC {
	if minHeadings < 1 {
		minHeadings = 1
	}
	return &TOC{MinHeadings: minHeadings}
}

// Name implements PostProcessor.
func (t *TOC) Name() string { return "toc" }

type heading struct {
	level int
	id    string
	text  string
}

// PostProcess implements PostProcessor.
func (t *TOC) PostProcess(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "<!--toc-->") {
		return input, nil
	}

	nodes, err := parseFragment(input)
	if err != nil {
		return "", err
	}

	var headings []heading
	seen := make(map[string]int)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6' {
			level := int(n.Data[1] - '0')
			text := textContent(n)
			id := attr(n, "id")
			if id == "" {
				id = slug.Make(text)
				if id == "" {
					id = "section"
				}
				if count := seen[id]; count > 0 {
					id = id + "-" + strconv.Itoa(count)
				}
				setAttr(n, "id", id)
			}
			seen[id]++
			headings = append(headings, heading{level: level, id: id, text: text})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	listHTML := ""
	if len(headings) >= t.MinHeadings {
		listHTML = renderList(headings)
	}

	// Swap the marker comments for the rendered list.
	var replace func(n *html.Node)
	replace = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.CommentNode && strings.TrimSpace(c.Data) == "toc" {
				if listHTML != "" {
					n.InsertBefore(&html.Node{Type: html.RawNode, Data: listHTML}, c)
				}
				n.RemoveChild(c)
			} else {
				replace(c)
			}
			c = next
		}
	}
	for _, n := range nodes {
		replace(n)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.CommentNode && strings.TrimSpace(n.Data) == "toc" {
			if listHTML != "" {
				buf.WriteString(listHTML)
			}
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func renderList(headings []heading) string {
	var buf bytes.Buffer
	buf.WriteString(`<nav class="toc">`)

	level := 0
	for _, h := range headings {
		for level < h.level {
			buf.WriteString("<ul>")
			level++
		}
		for level > h.level {
			buf.WriteString("</ul>")
			level--
		}
		fmt.Fprintf(&buf, `<li><a href="#%s">%s</a></li>`, h.id, escapeText(h.text))
	}
	for level > 0 {
		buf.WriteString("</ul>")
		level--
	}

	buf.WriteString("</nav>")
	return buf.String()
}

func parseFragment(input string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(input), body)
}

func textContent(n *html.Node) string {
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
