package html

import (
	"strings"

	"htmlcss/internal/css"
)

// NodeType identifies the variant of a Node.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	}
	return "unknown"
}

// Node is a document tree node: *Document, *Element or *Text.
type Node interface {
	Type() NodeType
	// Parent returns the node this one was appended to, nil for the root.
	Parent() Node
	setParent(Node)
}

// Container is a node that owns children: *Document or *Element.
type Container interface {
	Node
	Children() []Node
	AppendChild(child Node)
}

// Attribute is a single name/value pair of an element.
type Attribute struct {
	Name  string
	Value string
}

// Document is the root of a parsed tree.
type Document struct {
	children []Node
}

// NewDocument creates an empty document root.
func NewDocument() *Document {
	return &Document{}
}

func (d *Document) Type() NodeType   { return DocumentNode }
func (d *Document) Parent() Node     { return nil }
func (d *Document) setParent(Node)   { panic("html: document cannot have a parent") }
func (d *Document) Children() []Node { return d.children }

// AppendChild adds child as the last child of the document.
func (d *Document) AppendChild(child Node) {
	child.setParent(d)
	d.children = append(d.children, child)
}

// Elements returns every element of the document in document order.
func (d *Document) Elements() []*Element {
	var out []*Element
	walkElements(d, func(el *Element) { out = append(out, el) })
	return out
}

// Element is a markup element with its computed style.
type Element struct {
	TagName    string
	Attributes []Attribute // in source order
	Style      css.ComputedStyle

	children []Node
	// parent does not own the element, it is used for ancestor walks only
	parent Node
}

// NewElement creates a detached element.
func NewElement(tagName string, attrs []Attribute) *Element {
	return &Element{
		TagName:    tagName,
		Attributes: attrs,
		Style:      make(css.ComputedStyle),
	}
}

func (e *Element) Type() NodeType   { return ElementNode }
func (e *Element) Parent() Node     { return e.parent }
func (e *Element) Children() []Node { return e.children }

func (e *Element) setParent(p Node) {
	if e.parent != nil {
		panic("html: element " + e.TagName + " already has a parent")
	}
	e.parent = p
}

// AppendChild adds child as the last child of the element.
func (e *Element) AppendChild(child Node) {
	child.setParent(e)
	e.children = append(e.children, child)
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ID returns the element's id attribute
func (e *Element) ID() string {
	id, _ := e.Attr("id")
	return id
}

// Class returns the element's class attribute verbatim.
func (e *Element) Class() string {
	class, _ := e.Attr("class")
	return class
}

// ParentElement returns the enclosing element, nil at the top level.
func (e *Element) ParentElement() *Element {
	el, _ := e.parent.(*Element)
	return el
}

// Ancestors returns enclosing elements, innermost first.
func (e *Element) Ancestors() []*Element {
	var out []*Element
	for p := e.ParentElement(); p != nil; p = p.ParentElement() {
		out = append(out, p)
	}
	return out
}

// Text returns the concatenated text of all descendant text nodes.
func (e *Element) Text() string {
	var sb strings.Builder
	collectText(e, &sb)
	return sb.String()
}

// Text is a run of character data.
type Text struct {
	buf    strings.Builder
	parent Node
}

// NewText creates a detached text node holding value.
func NewText(value string) *Text {
	t := &Text{}
	t.buf.WriteString(value)
	return t
}

func (t *Text) Type() NodeType { return TextNode }
func (t *Text) Parent() Node   { return t.parent }

func (t *Text) setParent(p Node) {
	if t.parent != nil {
		panic("html: text node already has a parent")
	}
	t.parent = p
}

// Value returns the text content.
func (t *Text) Value() string { return t.buf.String() }

// AppendRune extends the text run by one character.
func (t *Text) AppendRune(r rune) { t.buf.WriteRune(r) }

func collectText(c Container, sb *strings.Builder) {
	for _, child := range c.Children() {
		switch n := child.(type) {
		case *Text:
			sb.WriteString(n.Value())
		case *Element:
			collectText(n, sb)
		}
	}
}

func walkElements(c Container, fn func(*Element)) {
	for _, child := range c.Children() {
		if el, ok := child.(*Element); ok {
			fn(el)
			walkElements(el, fn)
		}
	}
}
