package html

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches every *SyntaxError with errors.Is.
	ErrSyntax = errors.New("markup syntax error")
	// ErrTreeStructure matches every *TreeError with errors.Is.
	ErrTreeStructure = errors.New("tree structure error")
)

// Position is a 1-based line and column in the input.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports a character that is not allowed in the current
// tokenizer state.
type SyntaxError struct {
	State   State
	Char    rune
	TagName string // tag being tokenized, empty outside of tags
	Pos     Position
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s: unexpected %q in %s state", e.Pos, e.Char, e.State)
	if e.TagName != "" {
		msg += fmt.Sprintf(" (tag %q)", e.TagName)
	}
	return msg
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// TreeErrorKind classifies a TreeError.
type TreeErrorKind int

const (
	// MismatchedEndTag is an end tag that does not close the current element.
	MismatchedEndTag TreeErrorKind = iota
	// NoOpenElement is an end tag with only the document on the stack.
	NoOpenElement
	// UnclosedElement is end of input with elements still open.
	UnclosedElement
	// UnterminatedTag is end of input in the middle of a tag.
	UnterminatedTag
)

func (k TreeErrorKind) String() string {
	switch k {
	case MismatchedEndTag:
		return "mismatched closing tag"
	case NoOpenElement:
		return "closing tag without open element"
	case UnclosedElement:
		return "unclosed element"
	case UnterminatedTag:
		return "unterminated tag"
	}
	return fmt.Sprintf("TreeErrorKind(%d)", int(k))
}

// TreeError reports input that cannot form a properly nested tree.
type TreeError struct {
	Kind     TreeErrorKind
	Expected string // tag name of the open element, if any
	Got      string // tag name found in the input, if any
	State    State  // tokenizer state, meaningful for UnterminatedTag
	Pos      Position
}

func (e *TreeError) Error() string {
	switch e.Kind {
	case MismatchedEndTag:
		return fmt.Sprintf("%s: %s: </%s> does not close <%s>", e.Pos, e.Kind, e.Got, e.Expected)
	case NoOpenElement:
		return fmt.Sprintf("%s: %s: </%s>", e.Pos, e.Kind, e.Got)
	case UnclosedElement:
		return fmt.Sprintf("%s: %s: <%s> is still open at end of input", e.Pos, e.Kind, e.Expected)
	case UnterminatedTag:
		if e.Got != "" {
			return fmt.Sprintf("%s: %s: input ended in %s state (tag %q)", e.Pos, e.Kind, e.State, e.Got)
		}
		return fmt.Sprintf("%s: %s: input ended in %s state", e.Pos, e.Kind, e.State)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Kind)
}

func (e *TreeError) Is(target error) bool { return target == ErrTreeStructure }
