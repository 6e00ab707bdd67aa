package resolver

import (
	"strings"

	"go.uber.org/zap"

	"htmlcss/internal/css"
	"htmlcss/internal/html"
)

// RuleStore holds style rules in the order they were discovered.
type RuleStore struct {
	rules []css.Rule
}

// NewRuleStore creates an empty store.
func NewRuleStore() *RuleStore {
	return &RuleStore{}
}

// Add appends rules in order.
func (s *RuleStore) Add(rules ...css.Rule) {
	s.rules = append(s.rules, rules...)
}

// Rules returns the stored rules. The slice must not be modified.
func (s *RuleStore) Rules() []css.Rule { return s.rules }

// Len returns the number of stored rules.
func (s *RuleStore) Len() int { return len(s.rules) }

// Reset drops all rules.
func (s *RuleStore) Reset() { s.rules = nil }

// Resolver handles cascade resolution for elements as they are created.
type Resolver struct {
	store   *RuleStore
	log     *zap.Logger
	matched int
}

// New creates a resolver reading rules from store.
func New(store *RuleStore, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		store: store,
		log:   log.Named("cascade"),
	}
}

// Matched returns the number of (element, rule) matches found so far.
func (r *Resolver) Matched() int { return r.matched }

// Reset clears the match counter.
func (r *Resolver) Reset() { r.matched = 0 }

// Resolve computes the style of el from the rules known at this point and
// stores it on the element. ancestors lists the enclosing elements,
// innermost first. Rules are applied in store order: a declaration is taken
// when the property is unset or the rule's specificity is strictly higher
// than the one already stored, so on ties the first rule wins.
func (r *Resolver) Resolve(el *html.Element, ancestors []*html.Element) css.ComputedStyle {
	if el.Style == nil {
		el.Style = make(css.ComputedStyle)
	}

	for _, rule := range r.store.Rules() {
		if !Matches(el, ancestors, rule.Selector) {
			continue
		}
		r.matched++

		spec := rule.Specificity()
		r.log.Debug("Rule matches element",
			zap.String("element", el.TagName),
			zap.Stringer("selector", rule.Selector),
			zap.Stringer("specificity", spec))

		for _, decl := range rule.Declarations {
			if shouldReplace(el.Style, decl.Property, spec) {
				el.Style[decl.Property] = css.StyleValue{Value: decl.Value, Specificity: spec}
			}
		}
	}
	return el.Style
}

// shouldReplace determines if a declaration with specificity spec should
// replace the current value of property.
func shouldReplace(style css.ComputedStyle, property string, spec css.Specificity) bool {
	existing, ok := style[property]
	if !ok {
		return true
	}
	return spec.Compare(existing.Specificity) > 0
}

// Matches reports whether selector applies to el given its ancestors,
// innermost first.
//
// The target must match the rightmost part. Ancestors are then walked
// outward once; each ancestor that matches the pending part consumes it.
// There is no backtracking and an ancestor consumes at most one part, so
// "p p a" needs two p ancestors.
func Matches(el *html.Element, ancestors []*html.Element, selector css.Selector) bool {
	parts := selector.Reversed()
	if !MatchSimple(el, part(parts, 0)) {
		return false
	}

	next := 1
	for _, ancestor := range ancestors {
		if MatchSimple(ancestor, part(parts, next)) {
			next++
		}
	}
	return next >= len(parts)
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// MatchSimple matches one simple selector: ".name" against the class
// attribute, "#name" against the id attribute, anything else against the
// tag name. Attribute values must be equal to the name. An empty selector
// never matches.
func MatchSimple(el *html.Element, selector string) bool {
	if selector == "" || el == nil {
		return false
	}

	switch {
	case strings.HasPrefix(selector, "."):
		class, ok := el.Attr("class")
		return ok && class == selector[1:]
	case strings.HasPrefix(selector, "#"):
		id, ok := el.Attr("id")
		return ok && id == selector[1:]
	}
	return el.TagName == selector
}
