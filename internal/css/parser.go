package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	cssparse "github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser turns the text content of a style container into rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new style sheet parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses style sheet text into rules in source order. A rule with a
// grouped selector ("h1, h2") yields one rule per selector, in order, sharing
// the declarations. Any malformed construct fails the whole sheet with a
// *ParseError.
func (p *Parser) Parse(text string) ([]Rule, error) {
	parser := cssparse.NewParser(parse.NewInputString(text), false)

	var (
		rules     []Rule
		selectors []Selector
		decls     []Declaration
		inRuleset bool
	)

	current := func() string {
		if len(selectors) == 0 {
			return ""
		}
		return selectors[0].String()
	}

	for {
		start := parser.Offset()
		gt, _, data := parser.Next()

		switch gt {
		case cssparse.ErrorGrammar:
			err := parser.Err()
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, &ParseError{Selector: current(), Msg: "malformed style sheet", Err: err}
			}
			if inRuleset {
				return nil, &ParseError{Selector: current(), Msg: "missing '}'"}
			}
			p.log.Debug("Parsed style sheet", zap.Int("bytes", len(text)), zap.Int("rules", len(rules)))
			return rules, nil

		case cssparse.CommentGrammar:
			continue

		case cssparse.AtRuleGrammar:
			// @import, @charset and friends carry nothing the cascade can use
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case cssparse.BeginAtRuleGrammar:
			p.log.Debug("Skipping @-rule block", zap.String("rule", string(data)))
			if err := p.skipAtRuleBlock(parser); err != nil {
				return nil, err
			}

		case cssparse.QualifiedRuleGrammar:
			sel := selectorText(data, parser.Values())
			return nil, &ParseError{Selector: sel, Msg: "selector without declaration block"}

		case cssparse.BeginRulesetGrammar:
			if inRuleset {
				return nil, &ParseError{Selector: current(), Msg: "nested rule sets are not supported"}
			}
			var err error
			if selectors, err = parseSelectorGroup(selectorText(data, parser.Values())); err != nil {
				return nil, err
			}
			decls = nil
			inRuleset = true

		case cssparse.DeclarationGrammar, cssparse.CustomPropertyGrammar:
			if !inRuleset {
				return nil, &ParseError{Msg: "declaration outside of a rule set: " + string(data)}
			}
			property := strings.TrimSpace(string(data))
			value, err := valueText(declarationSource(text, start, parser.Offset()))
			if err != nil {
				return nil, &ParseError{Selector: current(), Msg: err.Error() + " in " + property}
			}
			if property == "" || value == "" {
				return nil, &ParseError{Selector: current(), Msg: "declaration without value: " + property}
			}
			decls = append(decls, Declaration{Property: property, Value: value})

		case cssparse.EndRulesetGrammar:
			if !inRuleset {
				return nil, &ParseError{Msg: "unexpected '}'"}
			}
			// end of input closes a rule set too
			if end := parser.Offset(); end == 0 || text[end-1] != '}' {
				return nil, &ParseError{Selector: current(), Msg: "missing '}'"}
			}
			for _, sel := range selectors {
				rules = append(rules, Rule{
					Selector:     sel,
					Declarations: append([]Declaration(nil), decls...),
				})
			}
			selectors, decls, inRuleset = nil, nil, false

		case cssparse.TokenGrammar:
			return nil, &ParseError{Selector: current(), Msg: "unexpected token " + strings.TrimSpace(string(data))}

		default:
			p.log.Debug("Ignoring grammar element", zap.Stringer("grammar", gt))
		}
	}
}

// skipAtRuleBlock consumes everything up to the end of the current @-rule
// block, including nested blocks.
func (p *Parser) skipAtRuleBlock(parser *cssparse.Parser) error {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case cssparse.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return &ParseError{Msg: "malformed @-rule block", Err: err}
			}
			return &ParseError{Msg: "unterminated @-rule block"}
		case cssparse.BeginAtRuleGrammar:
			depth++
		case cssparse.EndAtRuleGrammar:
			depth--
		}
	}
	return nil
}

// selectorText rebuilds selector source from grammar data and its tokens.
func selectorText(data []byte, values []cssparse.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return sb.String()
}

// parseSelectorGroup splits a comma separated selector list.
func parseSelectorGroup(text string) ([]Selector, error) {
	var selectors []Selector
	for part := range strings.SplitSeq(text, ",") {
		sel := ParseSelector(part)
		if len(sel) == 0 {
			return nil, &ParseError{Selector: strings.TrimSpace(text), Msg: "empty selector"}
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

// declarationSource returns the source of a declaration that ended at end,
// without its terminating ';' or '}'.
func declarationSource(text string, start, end int) string {
	if end > len(text) {
		end = len(text)
	}
	if end > start && (text[end-1] == ';' || text[end-1] == '}') {
		end--
	}
	if start > end {
		return ""
	}
	return text[start:end]
}

// valueText returns the value of a declaration exactly as written: everything
// after the first colon with comments removed and the ends trimmed.
func valueText(src string) (string, error) {
	l := cssparse.NewLexer(parse.NewInputString(src))
	for {
		tt, _ := l.Next()
		if tt == cssparse.ErrorToken {
			return "", nil
		}
		if tt == cssparse.ColonToken {
			break
		}
	}

	var sb strings.Builder
	gap := false
	for {
		tt, data := l.Next()
		switch tt {
		case cssparse.ErrorToken:
			return strings.TrimSpace(sb.String()), nil
		case cssparse.CommentToken:
			gap = true
			continue
		case cssparse.BadStringToken:
			return "", errors.New("unterminated string")
		case cssparse.StringToken:
			if !closedString(data) {
				return "", errors.New("unterminated string")
			}
		case cssparse.ColonToken:
			if strings.TrimSpace(sb.String()) == "" {
				return "", errors.New("unexpected ':'")
			}
		}
		if tt == cssparse.WhitespaceToken {
			gap = false
		} else if gap {
			if s := sb.String(); s != "" && !strings.HasSuffix(s, " ") {
				sb.WriteByte(' ')
			}
			gap = false
		}
		sb.Write(data)
	}
}

// closedString reports whether a string token ends with its own unescaped
// quote. The lexer accepts strings cut off by the end of input.
func closedString(data []byte) bool {
	if len(data) < 2 || data[len(data)-1] != data[0] {
		return false
	}
	escapes := 0
	for i := len(data) - 2; i > 0 && data[i] == '\\'; i-- {
		escapes++
	}
	return escapes%2 == 0
}
