package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"htmlcss/internal/css"
	"htmlcss/internal/html"
)

func TestTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	parent := html.NewElement("div", nil)
	child := html.NewElement("p", nil)
	child.Style["color"] = css.StyleValue{Value: "red"}
	parent.AppendChild(child)
	child.AppendChild(html.NewText("x"))

	NewTrace(zap.New(core)).Layout(child)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "layout", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "p", fields["tag"])
	assert.EqualValues(t, 1, fields["children"])
	assert.EqualValues(t, 1, fields["depth"])
	assert.Equal(t, "color: red", fields["style"])
}

func TestTrace_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() { NewTrace(nil).Layout(html.NewElement("a", nil)) })
}

func TestChain(t *testing.T) {
	var calls []string
	record := func(name string) Layouter {
		return Func(func(el *html.Element) { calls = append(calls, name+":"+el.TagName) })
	}
	core, logs := observer.New(zap.DebugLevel)

	chain := Chain{record("first"), nil, NewTrace(zap.New(core)), record("second")}
	chain.Layout(html.NewElement("x", nil))

	assert.Equal(t, []string{"first:x", "second:x"}, calls)
	assert.Equal(t, 1, logs.Len())
}
