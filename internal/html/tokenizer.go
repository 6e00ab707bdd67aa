package html

import (
	"errors"
	"fmt"
)

// State is a lexical state of the tokenizer.
type State int

const (
	DataState State = iota
	TagOpenState
	EndTagOpenState
	TagNameState
	BeforeAttributeNameState
	AttributeNameState
	AfterAttributeNameState
	BeforeAttributeValueState
	RawAttributeValueState
	QuotedAttributeValueState
	SelfClosingTagOpenState
	TagClosedState
)

var stateNames = [...]string{
	DataState:                 "Data",
	TagOpenState:              "TagOpen",
	EndTagOpenState:           "EndTagOpen",
	TagNameState:              "TagName",
	BeforeAttributeNameState:  "BeforeAttributeName",
	AttributeNameState:        "AttributeName",
	AfterAttributeNameState:   "AfterAttributeName",
	BeforeAttributeValueState: "BeforeAttributeValue",
	RawAttributeValueState:    "RawAttributeValue",
	QuotedAttributeValueState: "QuotedAttributeValue",
	SelfClosingTagOpenState:   "SelfClosingTagOpen",
	TagClosedState:            "TagClosed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrInputClosed is returned when characters are fed after end of input.
var ErrInputClosed = errors.New("html: input already closed")

// TokenHandler consumes tokens as the tokenizer emits them. A non-nil error
// halts the tokenizer and is returned to the caller of Feed or Close.
type TokenHandler func(Token) error

// Tokenizer is a character driven state machine. The caller pushes the
// input one character at a time with Feed and signals end of input with
// Close. The first error halts the machine: every later call returns it
// until Reset.
type Tokenizer struct {
	emit TokenHandler

	state State
	quote rune      // closing quote in QuotedAttributeValueState
	tok   Token     // tag being built
	attr  Attribute // attribute being built

	pos    Position
	last   rune
	count  int
	tokens int
	closed bool
	err    error
}

// NewTokenizer creates a tokenizer in the Data state.
func NewTokenizer(emit TokenHandler) *Tokenizer {
	t := &Tokenizer{emit: emit}
	t.Reset()
	return t
}

// Reset returns the tokenizer to its initial state, dropping any error.
func (t *Tokenizer) Reset() {
	*t = Tokenizer{emit: t.emit, pos: Position{Line: 1}}
}

// State returns the current lexical state.
func (t *Tokenizer) State() State { return t.state }

// Pos returns the position of the last character fed.
func (t *Tokenizer) Pos() Position { return t.pos }

// Chars returns the number of characters consumed.
func (t *Tokenizer) Chars() int { return t.count }

// Tokens returns the number of tokens emitted.
func (t *Tokenizer) Tokens() int { return t.tokens }

// Err returns the error that halted the tokenizer, if any.
func (t *Tokenizer) Err() error { return t.err }

// Feed consumes one character.
func (t *Tokenizer) Feed(r rune) error {
	if t.err != nil {
		return t.err
	}
	if t.closed {
		return ErrInputClosed
	}
	t.advance(r)

	for {
		reconsume, err := t.step(r)
		if err != nil {
			t.err = err
			return err
		}
		if !reconsume {
			return nil
		}
	}
}

// Close signals end of input and emits the EOF token. End of input inside
// a tag is an UnterminatedTag tree error.
func (t *Tokenizer) Close() error {
	if t.err != nil {
		return t.err
	}
	if t.closed {
		return ErrInputClosed
	}
	if t.state != DataState {
		t.err = &TreeError{Kind: UnterminatedTag, Got: t.tok.Name, State: t.state, Pos: t.pos}
		return t.err
	}
	t.closed = true
	if err := t.send(Token{Type: EOFToken}); err != nil {
		t.err = err
		return err
	}
	return nil
}

func (t *Tokenizer) advance(r rune) {
	if t.last == '\n' {
		t.pos.Line++
		t.pos.Column = 0
	}
	t.pos.Column++
	t.last = r
	t.count++
}

// step runs one transition for r. reconsume asks for r to be dispatched
// again in the new state.
func (t *Tokenizer) step(r rune) (reconsume bool, err error) {
	switch t.state {
	case DataState:
		if r == '<' {
			t.state = TagOpenState
			return false, nil
		}
		return false, t.send(Token{Type: TextToken, Char: r})

	case TagOpenState:
		switch {
		case r == '/':
			t.state = EndTagOpenState
			return false, nil
		case isLetter(r):
			t.tok = Token{Type: StartTagToken}
			t.state = TagNameState
			return true, nil
		}

	case EndTagOpenState:
		if isLetter(r) {
			t.tok = Token{Type: EndTagToken}
			t.state = TagNameState
			return true, nil
		}

	case TagNameState:
		switch {
		case isLetter(r):
			t.tok.Name += string(r)
			return false, nil
		case isSpace(r):
			t.state = BeforeAttributeNameState
			return false, nil
		case r == '>':
			t.state = TagClosedState
			return true, nil
		case r == '/':
			t.state = SelfClosingTagOpenState
			return false, nil
		}

	case BeforeAttributeNameState:
		switch {
		case isSpace(r):
			return false, nil
		case isLetter(r):
			t.attr = Attribute{}
			t.state = AttributeNameState
			return true, nil
		case r == '>':
			t.state = TagClosedState
			return true, nil
		case r == '/':
			t.state = SelfClosingTagOpenState
			return false, nil
		}

	case AttributeNameState:
		switch {
		case isLetter(r):
			t.attr.Name += string(r)
			return false, nil
		case isSpace(r):
			t.state = AfterAttributeNameState
			return false, nil
		case r == '=':
			t.state = BeforeAttributeValueState
			return false, nil
		}

	case AfterAttributeNameState:
		switch {
		case isSpace(r):
			return false, nil
		case r == '=':
			t.state = BeforeAttributeValueState
			return false, nil
		}

	case BeforeAttributeValueState:
		switch {
		case isSpace(r):
			return false, nil
		case r == '"' || r == '\'':
			t.quote = r
			t.state = QuotedAttributeValueState
			return false, nil
		case isLetter(r):
			t.state = RawAttributeValueState
			return true, nil
		}

	case RawAttributeValueState:
		switch {
		case isLetter(r):
			t.attr.Value += string(r)
			return false, nil
		case isSpace(r):
			t.commitAttr()
			t.state = BeforeAttributeNameState
			return false, nil
		case r == '>':
			t.commitAttr()
			t.state = TagClosedState
			return true, nil
		case r == '/':
			t.commitAttr()
			t.state = SelfClosingTagOpenState
			return false, nil
		}

	case QuotedAttributeValueState:
		if r == t.quote {
			t.commitAttr()
			t.state = BeforeAttributeNameState
			return false, nil
		}
		t.attr.Value += string(r)
		return false, nil

	case SelfClosingTagOpenState:
		switch {
		case isSpace(r):
			return false, nil
		case r == '>':
			t.tok.SelfClosing = true
			t.state = TagClosedState
			return true, nil
		}

	case TagClosedState:
		if r == '>' {
			tok := t.tok
			t.tok = Token{}
			t.state = DataState
			return false, t.send(tok)
		}
	}

	return false, &SyntaxError{State: t.state, Char: r, TagName: t.tok.Name, Pos: t.pos}
}

func (t *Tokenizer) commitAttr() {
	t.tok.setAttr(t.attr)
	t.attr = Attribute{}
}

func (t *Tokenizer) send(tok Token) error {
	t.tokens++
	if t.emit == nil {
		return nil
	}
	return t.emit(tok)
}

// isLetter reports ASCII letters only; digits, hyphens and non-ASCII
// letters are not part of tag or attribute names.
func isLetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isSpace(r rune) bool {
	return r == '\t' || r == '\n' || r == '\f' || r == ' '
}
