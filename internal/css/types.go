package css

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Specificity represents selector specificity with individual components:
// inline, IDs, classes, elements. Inline is kept for the shape of the tuple,
// nothing in this engine sets it.
type Specificity struct {
	Inline   int // style="" attribute, never populated
	IDs      int // #id selectors
	Classes  int // .class selectors
	Elements int // tag selectors
}

// Compare returns -1 if s < other, 0 if equal, 1 if s > other.
// Components are compared left to right.
func (s Specificity) Compare(other Specificity) int {
	if s.Inline != other.Inline {
		if s.Inline > other.Inline {
			return 1
		}
		return -1
	}
	if s.IDs != other.IDs {
		if s.IDs > other.IDs {
			return 1
		}
		return -1
	}
	if s.Classes != other.Classes {
		if s.Classes > other.Classes {
			return 1
		}
		return -1
	}
	if s.Elements != other.Elements {
		if s.Elements > other.Elements {
			return 1
		}
		return -1
	}

	return 0 // Equal specificity
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s.Inline, s.IDs, s.Classes, s.Elements)
}

// Declaration represents a single property declaration. Value is opaque.
type Declaration struct {
	Property string
	Value    string
}

// Selector is a descendant selector: simple selectors in source order,
// outermost ancestor first and the target element last.
type Selector []string

// ParseSelector splits selector text on whitespace.
func ParseSelector(text string) Selector {
	return Selector(strings.Fields(text))
}

// Reversed returns the parts with the target selector at index 0.
func (s Selector) Reversed() []string {
	parts := make([]string, len(s))
	for i, part := range s {
		parts[len(s)-1-i] = part
	}
	return parts
}

// Specificity counts id, class and tag selectors among the parts.
func (s Selector) Specificity() Specificity {
	var spec Specificity
	for _, part := range s {
		switch {
		case strings.HasPrefix(part, "#"):
			spec.IDs++
		case strings.HasPrefix(part, "."):
			spec.Classes++
		default:
			spec.Elements++
		}
	}
	return spec
}

func (s Selector) String() string {
	return strings.Join(s, " ")
}

// Rule represents a single style rule with its selector and declarations
type Rule struct {
	Selector     Selector
	Declarations []Declaration // in source order
}

// Specificity returns the specificity of the rule's selector.
func (r Rule) Specificity() Specificity {
	return r.Selector.Specificity()
}

func (r Rule) String() string {
	parts := make([]string, 0, len(r.Declarations))
	for _, d := range r.Declarations {
		parts = append(parts, d.Property+": "+d.Value)
	}
	return fmt.Sprintf("%s { %s }", r.Selector, strings.Join(parts, "; "))
}

// StyleValue is a resolved value together with the specificity of the rule
// that supplied it.
type StyleValue struct {
	Value       string
	Specificity Specificity
}

// ComputedStyle maps property names to their resolved values.
type ComputedStyle map[string]StyleValue

// Get returns the value of property and whether it is set.
func (cs ComputedStyle) Get(property string) (string, bool) {
	v, ok := cs[property]
	return v.Value, ok
}

// Properties returns property names in sorted order.
func (cs ComputedStyle) Properties() []string {
	properties := make([]string, 0, len(cs))
	for property := range cs {
		properties = append(properties, property)
	}
	sort.Strings(properties)
	return properties
}

// String converts the style to inline style attribute syntax.
func (cs ComputedStyle) String() string {
	if len(cs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(cs))
	for _, property := range cs.Properties() {
		parts = append(parts, fmt.Sprintf("%s: %s", property, cs[property].Value))
	}
	return strings.Join(parts, "; ")
}

// ErrStyleParse matches every *ParseError with errors.Is.
var ErrStyleParse = errors.New("style sheet parse error")

// ParseError reports style sheet text the sub-parser rejected.
type ParseError struct {
	Selector string // selector of the rule being parsed, if any
	Msg      string
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("style sheet")
	if e.Selector != "" {
		fmt.Fprintf(&b, " (rule %q)", e.Selector)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrStyleParse }
