// Package parser builds a document tree from markup, computing each
// element's style from the style sheets seen earlier in the same input.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"htmlcss/internal/css"
	"htmlcss/internal/html"
	"htmlcss/internal/layout"
	"htmlcss/internal/resolver"
)

// StyleSheetParser turns the text of a style container into rules.
type StyleSheetParser interface {
	Parse(text string) ([]css.Rule, error)
}

// Stats describes the work done by one parse.
type Stats struct {
	Chars     int
	Tokens    int
	Elements  int
	TextNodes int
	Rules     int
	Matched   int
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger. Parsing logs at debug level only.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithLayout sets the collaborator that receives closed elements.
func WithLayout(l layout.Layouter) Option {
	return func(p *Parser) { p.layout = l }
}

// WithStyleSheetParser replaces the default style sheet parser.
func WithStyleSheetParser(sp StyleSheetParser) Option {
	return func(p *Parser) { p.sheets = sp }
}

// WithStyleContainers sets the tags whose text content is parsed as a
// style sheet when they close. The default is "style".
func WithStyleContainers(tags ...string) Option {
	return func(p *Parser) {
		p.containers = make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			p.containers[tag] = struct{}{}
		}
	}
}

// Parser consumes tokens and maintains the stack of open elements. Input is
// pushed one character at a time with Feed; Close finishes the parse and
// returns the document.
type Parser struct {
	tokenizer *html.Tokenizer

	doc   *html.Document
	stack []html.Container // doc is always at the bottom
	text  *html.Text       // open text run, nil after any tag

	store   *resolver.RuleStore
	cascade *resolver.Resolver

	sheets     StyleSheetParser
	layout     layout.Layouter
	containers map[string]struct{}
	log        *zap.Logger

	elements  int
	textNodes int
}

// New creates a parser ready for input.
func New(opts ...Option) *Parser {
	p := &Parser{
		log:        zap.NewNop(),
		containers: map[string]struct{}{"style": {}},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Named("parser")
	if p.sheets == nil {
		p.sheets = css.NewParser(p.log)
	}

	p.store = resolver.NewRuleStore()
	p.cascade = resolver.New(p.store, p.log)
	p.tokenizer = html.NewTokenizer(p.handle)
	p.Reset()
	return p
}

// Reset discards the current document, rules and errors.
func (p *Parser) Reset() {
	p.tokenizer.Reset()
	p.doc = html.NewDocument()
	p.stack = []html.Container{p.doc}
	p.text = nil
	p.store.Reset()
	p.cascade.Reset()
	p.elements = 0
	p.textNodes = 0
}

// Feed consumes one character.
func (p *Parser) Feed(r rune) error {
	return p.tokenizer.Feed(r)
}

// FeedString consumes every character of s.
func (p *Parser) FeedString(s string) error {
	for _, r := range s {
		if err := p.tokenizer.Feed(r); err != nil {
			return err
		}
	}
	return nil
}

// Close signals end of input and returns the finished document.
func (p *Parser) Close() (*html.Document, error) {
	if err := p.tokenizer.Close(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// Parse runs a complete parse of input, resetting any previous state.
func (p *Parser) Parse(input string) (*html.Document, error) {
	p.Reset()
	if err := p.FeedString(input); err != nil {
		return nil, err
	}
	return p.Close()
}

// ParseReader runs a complete parse of everything read from r.
func (p *Parser) ParseReader(r io.Reader) (*html.Document, error) {
	p.Reset()

	br := bufio.NewReader(r)
	for {
		c, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		if err := p.Feed(c); err != nil {
			return nil, err
		}
	}
	return p.Close()
}

// Rules returns the rules registered so far, in discovery order.
func (p *Parser) Rules() []css.Rule { return p.store.Rules() }

// Stats reports counters for the current parse.
func (p *Parser) Stats() Stats {
	return Stats{
		Chars:     p.tokenizer.Chars(),
		Tokens:    p.tokenizer.Tokens(),
		Elements:  p.elements,
		TextNodes: p.textNodes,
		Rules:     p.store.Len(),
		Matched:   p.cascade.Matched(),
	}
}

func (p *Parser) top() html.Container {
	return p.stack[len(p.stack)-1]
}

// ancestors returns the open elements, innermost first.
func (p *Parser) ancestors() []*html.Element {
	out := make([]*html.Element, 0, len(p.stack)-1)
	for i := len(p.stack) - 1; i > 0; i-- {
		out = append(out, p.stack[i].(*html.Element))
	}
	return out
}

func (p *Parser) handle(tok html.Token) error {
	switch tok.Type {
	case html.StartTagToken:
		p.startTag(tok)
	case html.EndTagToken:
		return p.endTag(tok)
	case html.TextToken:
		p.appendText(tok.Char)
	case html.EOFToken:
		return p.finish()
	}
	return nil
}

func (p *Parser) startTag(tok html.Token) {
	p.text = nil

	el := html.NewElement(tok.Name, tok.Attributes)
	p.cascade.Resolve(el, p.ancestors())
	p.top().AppendChild(el)
	p.elements++

	if !tok.SelfClosing {
		p.stack = append(p.stack, el)
	}
}

func (p *Parser) endTag(tok html.Token) error {
	p.text = nil

	if len(p.stack) == 1 {
		return &html.TreeError{Kind: html.NoOpenElement, Got: tok.Name, Pos: p.tokenizer.Pos()}
	}

	el := p.top().(*html.Element)
	if el.TagName != tok.Name {
		return &html.TreeError{
			Kind:     html.MismatchedEndTag,
			Expected: el.TagName,
			Got:      tok.Name,
			Pos:      p.tokenizer.Pos(),
		}
	}

	if _, ok := p.containers[el.TagName]; ok {
		if err := p.registerStyles(el); err != nil {
			return err
		}
	}

	if p.layout != nil {
		p.layout.Layout(el)
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

// registerStyles parses the single text child of a style container.
// Containers with no text, or with mixed content, contribute nothing.
func (p *Parser) registerStyles(el *html.Element) error {
	children := el.Children()
	if len(children) != 1 {
		return nil
	}
	text, ok := children[0].(*html.Text)
	if !ok {
		return nil
	}

	rules, err := p.sheets.Parse(text.Value())
	if err != nil {
		return fmt.Errorf("%s: <%s>: %w", p.tokenizer.Pos(), el.TagName, err)
	}
	p.store.Add(rules...)

	p.log.Debug("Style rules registered",
		zap.String("container", el.TagName),
		zap.Int("rules", len(rules)),
		zap.Int("total", p.store.Len()))
	return nil
}

func (p *Parser) appendText(r rune) {
	if p.text == nil {
		p.text = html.NewText("")
		p.top().AppendChild(p.text)
		p.textNodes++
	}
	p.text.AppendRune(r)
}

func (p *Parser) finish() error {
	p.text = nil
	if len(p.stack) > 1 {
		el := p.top().(*html.Element)
		return &html.TreeError{Kind: html.UnclosedElement, Expected: el.TagName, Pos: p.tokenizer.Pos()}
	}

	p.log.Debug("Parse finished",
		zap.Int("elements", p.elements),
		zap.Int("rules", p.store.Len()))
	return nil
}

// Parse is a convenience wrapper running a fresh parser over input.
func Parse(input string, opts ...Option) (*html.Document, error) {
	return New(opts...).Parse(input)
}

// ParseReader is a convenience wrapper running a fresh parser over r.
func ParseReader(r io.Reader, opts ...Option) (*html.Document, error) {
	return New(opts...).ParseReader(r)
}
