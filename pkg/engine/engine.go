// Package engine runs the markup parser with style resolution and prints or
// queries the result.
package engine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"htmlcss/internal/config"
	"htmlcss/internal/css"
	"htmlcss/internal/html"
	"htmlcss/internal/layout"
	"htmlcss/internal/parser"
)

// Engine parses documents according to a configuration
type Engine struct {
	config *config.Config
	log    *zap.Logger
	layout layout.Layouter
}

// New creates an engine with the given configuration
func New(cfg *config.Config, log *zap.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		config: cfg,
		log:    log.Named("engine"),
	}
}

// NewWithDefaults creates an engine with default configuration and no logging
func NewWithDefaults() *Engine {
	return New(config.Default(), nil)
}

// Result contains a parsed document and what was learned while building it
type Result struct {
	Document        *html.Document
	Rules           []css.Rule      // Style rules in discovery order
	ProcessingStats ProcessingStats // Performance and processing statistics
}

// ProcessingStats contains counters from one parse
type ProcessingStats struct {
	CharsRead         int   // Characters consumed
	TokensEmitted     int   // Tokens produced by the tokenizer
	ElementsProcessed int   // Elements created
	TextNodes         int   // Text runs created
	CSSRulesParsed    int   // Rules registered from style containers
	SelectorsMatched  int   // Total (element, rule) matches found
	ProcessingTimeMs  int64 // Processing time in milliseconds
}

// WithLayout hands every closed element to l, after the trace collaborator
// when parser.trace_layout is set.
func (e *Engine) WithLayout(l layout.Layouter) *Engine {
	e.layout = l
	return e
}

func (e *Engine) newParser() *parser.Parser {
	opts := []parser.Option{
		parser.WithLogger(e.log),
		parser.WithStyleContainers(e.config.Parser.StyleContainers...),
	}

	var chain layout.Chain
	if e.config.Parser.TraceLayout {
		chain = append(chain, layout.NewTrace(e.log))
	}
	if e.layout != nil {
		chain = append(chain, e.layout)
	}
	if len(chain) > 0 {
		opts = append(opts, parser.WithLayout(chain))
	}
	return parser.New(opts...)
}

// Parse builds the document for src. Every call uses a fresh parser.
func (e *Engine) Parse(src string) (*Result, error) {
	return e.run(func(p *parser.Parser) (*html.Document, error) {
		return p.Parse(src)
	})
}

// ParseReader builds the document for everything read from r.
func (e *Engine) ParseReader(r io.Reader) (*Result, error) {
	return e.run(func(p *parser.Parser) (*html.Document, error) {
		return p.ParseReader(r)
	})
}

func (e *Engine) run(parse func(*parser.Parser) (*html.Document, error)) (*Result, error) {
	start := time.Now()

	p := e.newParser()
	doc, err := parse(p)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	st := p.Stats()
	res := &Result{
		Document: doc,
		Rules:    p.Rules(),
		ProcessingStats: ProcessingStats{
			CharsRead:         st.Chars,
			TokensEmitted:     st.Tokens,
			ElementsProcessed: st.Elements,
			TextNodes:         st.TextNodes,
			CSSRulesParsed:    st.Rules,
			SelectorsMatched:  st.Matched,
			ProcessingTimeMs:  time.Since(start).Milliseconds(),
		},
	}

	e.log.Debug("Document parsed",
		zap.Int("elements", st.Elements),
		zap.Int("rules", st.Rules),
		zap.Int("matched", st.Matched),
		zap.Int64("ms", res.ProcessingStats.ProcessingTimeMs))
	return res, nil
}

// Render writes the document as HTML. With output.inline_styles set, each
// element's computed style replaces its style attribute.
func (e *Engine) Render(res *Result, w io.Writer) error {
	gd := html.NewGoQueryDocument(res.Document, html.RenderOptions{
		InlineStyles: e.config.Output.InlineStyles,
	})
	out, err := gd.HTML()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	return nil
}

// RenderString is a convenience method returning the rendered HTML
func (e *Engine) RenderString(res *Result) (string, error) {
	var sb strings.Builder
	if err := e.Render(res, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Query returns elements matching a CSS selector, in document order. The
// full selector syntax is supported here, not only the subset used for
// style resolution.
func (e *Engine) Query(res *Result, selector string) ([]*html.Element, error) {
	return html.NewGoQueryDocument(res.Document, html.RenderOptions{}).QuerySelectorAll(selector)
}

// QueryHTML returns the markup of every element matching selector, in
// document order.
func (e *Engine) QueryHTML(res *Result, selector string) ([]string, error) {
	gd := html.NewGoQueryDocument(res.Document, html.RenderOptions{
		InlineStyles: e.config.Output.InlineStyles,
	})
	elements, err := gd.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(elements))
	for _, el := range elements {
		markup, err := gd.OuterHTML(el)
		if err != nil {
			return nil, err
		}
		out = append(out, markup)
	}
	return out, nil
}

// Print writes res in the configured output format.
func (e *Engine) Print(res *Result, w io.Writer) error {
	switch e.config.Output.Format {
	case config.FormatHTML:
		return e.Render(res, w)
	default:
		return e.Dump(res, w, e.config.Output.Format)
	}
}

// ParseHTML is a convenience function parsing src with default configuration
func ParseHTML(src string) (*html.Document, error) {
	res, err := NewWithDefaults().Parse(src)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}
