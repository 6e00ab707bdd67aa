package engine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"htmlcss/internal/config"
	"htmlcss/internal/css"
	"htmlcss/internal/html"
)

// Dump writes the document tree in a text format: tree or json.
func (e *Engine) Dump(res *Result, w io.Writer, format config.Format) error {
	switch format {
	case config.FormatTree:
		bw := bufio.NewWriter(w)
		writeTree(bw, res.Document, 0, e.config.Output.Indent)
		return bw.Flush()
	case config.FormatJSON:
		enc := json.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", e.config.Output.Indent)
		if err := enc.Encode(toJSON(res.Document)); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported dump format %q", format)
}

// writeTree prints one line per node:
//
//	<div id="box"> {width: 500px}
//	  "text"
func writeTree(w *bufio.Writer, c html.Container, depth int, indent string) {
	for _, child := range c.Children() {
		w.WriteString(strings.Repeat(indent, depth))
		switch n := child.(type) {
		case *html.Text:
			w.WriteString(strconv.Quote(n.Value()))
			w.WriteByte('\n')
		case *html.Element:
			w.WriteString(startTag(n))
			if len(n.Style) > 0 {
				w.WriteString(" {" + n.Style.String() + "}")
			}
			w.WriteByte('\n')
			writeTree(w, n, depth+1, indent)
		}
	}
}

func startTag(el *html.Element) string {
	var sb strings.Builder
	sb.WriteString("<" + el.TagName)
	for _, a := range el.Attributes {
		sb.WriteString(" " + a.Name + "=" + strconv.Quote(a.Value))
	}
	sb.WriteString(">")
	return sb.String()
}

// DumpStyles writes every element's computed style with the specificity of
// the winning rule, one property per line.
func (e *Engine) DumpStyles(res *Result, w io.Writer) error {
	return e.DumpElements(res.Document.Elements(), w)
}

// DumpElements writes each element's start tag followed by its computed
// style.
func (e *Engine) DumpElements(elements []*html.Element, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, el := range elements {
		path := elementPath(el)
		bw.WriteString(path + " " + startTag(el) + "\n")
		for _, prop := range el.Style.Properties() {
			v := el.Style[prop]
			fmt.Fprintf(bw, "%s%s: %s %s\n", e.config.Output.Indent, prop, v.Value, v.Specificity)
		}
	}
	return bw.Flush()
}

// elementPath names el by its ancestor chain, outermost first, e.g. body>div.
func elementPath(el *html.Element) string {
	ancestors := el.Ancestors()
	parts := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		parts = append(parts, ancestors[i].TagName)
	}
	parts = append(parts, el.TagName)
	return strings.Join(parts, ">")
}

type jsonNode struct {
	Type       string               `json:"type"`
	Tag        string               `json:"tag,omitempty"`
	Attributes []jsonAttribute      `json:"attributes,omitempty"`
	Style      map[string]jsonValue `json:"style,omitempty"`
	Text       string               `json:"text,omitempty"`
	Children   []jsonNode           `json:"children,omitempty"`
}

type jsonAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type jsonValue struct {
	Value       string `json:"value"`
	Specificity [4]int `json:"specificity"`
}

func toJSON(n html.Node) jsonNode {
	out := jsonNode{Type: n.Type().String()}
	switch n := n.(type) {
	case *html.Text:
		out.Text = n.Value()
		return out
	case *html.Element:
		out.Tag = n.TagName
		for _, a := range n.Attributes {
			out.Attributes = append(out.Attributes, jsonAttribute{Name: a.Name, Value: a.Value})
		}
		if len(n.Style) > 0 {
			out.Style = make(map[string]jsonValue, len(n.Style))
			for prop, v := range n.Style {
				out.Style[prop] = jsonValue{Value: v.Value, Specificity: specificityArray(v.Specificity)}
			}
		}
	}
	if c, ok := n.(html.Container); ok {
		for _, child := range c.Children() {
			out.Children = append(out.Children, toJSON(child))
		}
	}
	return out
}

func specificityArray(s css.Specificity) [4]int {
	return [4]int{s.Inline, s.IDs, s.Classes, s.Elements}
}
