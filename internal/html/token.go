package html

import (
	"fmt"
	"strings"
)

// TokenType is the kind of a structural token.
type TokenType int

const (
	StartTagToken TokenType = iota
	EndTagToken
	TextToken
	EOFToken
)

func (t TokenType) String() string {
	switch t {
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case TextToken:
		return "Text"
	case EOFToken:
		return "EOF"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is what the tokenizer hands to its consumer. Name, Attributes and
// SelfClosing are set for tags, Char for text.
type Token struct {
	Type        TokenType
	Name        string
	Attributes  []Attribute
	SelfClosing bool
	Char        rune
}

// setAttr records an attribute; a repeated name overwrites the earlier
// value and keeps its position.
func (t *Token) setAttr(a Attribute) {
	for i := range t.Attributes {
		if t.Attributes[i].Name == a.Name {
			t.Attributes[i].Value = a.Value
			return
		}
	}
	t.Attributes = append(t.Attributes, a)
}

func (t Token) String() string {
	switch t.Type {
	case StartTagToken:
		var sb strings.Builder
		sb.WriteString("<" + t.Name)
		for _, a := range t.Attributes {
			fmt.Fprintf(&sb, " %s=%q", a.Name, a.Value)
		}
		if t.SelfClosing {
			sb.WriteString("/")
		}
		sb.WriteString(">")
		return sb.String()
	case EndTagToken:
		return "</" + t.Name + ">"
	case TextToken:
		return fmt.Sprintf("%q", t.Char)
	}
	return t.Type.String()
}
