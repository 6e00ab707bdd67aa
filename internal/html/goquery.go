package html

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderOptions control how a parsed tree is mirrored into x/net/html nodes.
type RenderOptions struct {
	// InlineStyles writes each element's computed style into its style
	// attribute, replacing any existing one
	InlineStyles bool
}

// GoQueryDocument mirrors a parsed Document as an x/net/html tree so that it
// can be rendered and queried with goquery.
type GoQueryDocument struct {
	doc   *goquery.Document
	index map[*html.Node]*Element
	nodes map[*Element]*html.Node
}

// NewGoQueryDocument converts d. The mirror is a snapshot; later changes to
// d are not reflected.
func NewGoQueryDocument(d *Document, opts RenderOptions) *GoQueryDocument {
	gd := &GoQueryDocument{
		index: make(map[*html.Node]*Element),
		nodes: make(map[*Element]*html.Node),
	}

	root := &html.Node{Type: html.DocumentNode}
	gd.convertChildren(root, d, opts)
	gd.doc = goquery.NewDocumentFromNode(root)
	return gd
}

func (d *GoQueryDocument) convertChildren(dst *html.Node, src Container, opts RenderOptions) {
	for _, child := range src.Children() {
		switch n := child.(type) {
		case *Text:
			dst.AppendChild(&html.Node{Type: html.TextNode, Data: n.Value()})
		case *Element:
			node := &html.Node{
				Type:     html.ElementNode,
				Data:     n.TagName,
				DataAtom: atom.Lookup([]byte(n.TagName)),
				Attr:     convertAttributes(n, opts),
			}
			d.index[node] = n
			d.nodes[n] = node
			dst.AppendChild(node)
			d.convertChildren(node, n, opts)
		}
	}
}

func convertAttributes(el *Element, opts RenderOptions) []html.Attribute {
	attrs := make([]html.Attribute, 0, len(el.Attributes)+1)
	for _, a := range el.Attributes {
		if opts.InlineStyles && a.Name == "style" {
			continue
		}
		attrs = append(attrs, html.Attribute{Key: a.Name, Val: a.Value})
	}
	if opts.InlineStyles && len(el.Style) > 0 {
		attrs = append(attrs, html.Attribute{Key: "style", Val: el.Style.String()})
	}
	return attrs
}

// QuerySelector returns the first element matching the selector
func (d *GoQueryDocument) QuerySelector(selector string) (*Element, error) {
	elements, err := d.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("no element found for selector: %s", selector)
	}
	return elements[0], nil
}

// QuerySelectorAll returns all elements matching the selector in document
// order. Unlike goquery's Find, an invalid selector is an error.
func (d *GoQueryDocument) QuerySelectorAll(selector string) ([]*Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}

	selection := d.doc.FindMatcher(matcher)
	elements := make([]*Element, 0, selection.Length())
	selection.Each(func(_ int, s *goquery.Selection) {
		if el, ok := d.index[s.Get(0)]; ok {
			elements = append(elements, el)
		}
	})
	return elements, nil
}

// HTML returns the complete document as markup.
func (d *GoQueryDocument) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}
	return out, nil
}

// OuterHTML returns the markup of el including the element itself.
func (d *GoQueryDocument) OuterHTML(el *Element) (string, error) {
	node, ok := d.nodes[el]
	if !ok {
		return "", fmt.Errorf("element <%s> is not part of this document", el.TagName)
	}

	var buf strings.Builder
	if err := html.Render(&buf, node); err != nil {
		return "", fmt.Errorf("failed to render <%s>: %w", el.TagName, err)
	}
	return buf.String(), nil
}
