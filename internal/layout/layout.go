// Package layout holds collaborators that receive elements from the tree
// builder as soon as they are closed.
package layout

import (
	"go.uber.org/zap"

	"htmlcss/internal/html"
)

// Layouter receives every element once its end tag has been processed.
// The element's subtree and computed style are final at that point.
type Layouter interface {
	Layout(el *html.Element)
}

// Func adapts a plain function to Layouter.
type Func func(el *html.Element)

func (f Func) Layout(el *html.Element) { f(el) }

// Trace logs each closed element.
type Trace struct {
	log *zap.Logger
}

// NewTrace creates a tracing collaborator. Elements are logged at debug level.
func NewTrace(log *zap.Logger) *Trace {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trace{log: log.Named("layout")}
}

func (t *Trace) Layout(el *html.Element) {
	t.log.Debug("Element closed",
		zap.String("tag", el.TagName),
		zap.Int("children", len(el.Children())),
		zap.Int("depth", len(el.Ancestors())),
		zap.Stringer("style", el.Style))
}

// Chain hands each element to every collaborator in order. Nil entries are
// skipped.
type Chain []Layouter

func (c Chain) Layout(el *html.Element) {
	for _, l := range c {
		if l != nil {
			l.Layout(el)
		}
	}
}
