package html

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenize feeds input and returns every emitted token.
func tokenize(t *testing.T, input string) ([]Token, error) {
	t.Helper()

	var tokens []Token
	tz := NewTokenizer(func(tok Token) error {
		tokens = append(tokens, tok)
		return nil
	})
	for _, r := range input {
		if err := tz.Feed(r); err != nil {
			return tokens, err
		}
	}
	return tokens, tz.Close()
}

func TestTokenizer_StartEndAndText(t *testing.T) {
	tokens, err := tokenize(t, "<p>hi</p>")
	require.NoError(t, err)

	want := []Token{
		{Type: StartTagToken, Name: "p"},
		{Type: TextToken, Char: 'h'},
		{Type: TextToken, Char: 'i'},
		{Type: EndTagToken, Name: "p"},
		{Type: EOFToken},
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizer_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Attribute
	}{
		{"double quoted", `<div id="box">`, []Attribute{{"id", "box"}}},
		{"single quoted", `<div id='box'>`, []Attribute{{"id", "box"}}},
		{"raw", `<div id=box>`, []Attribute{{"id", "box"}}},
		{"raw before slash", `<img src=logo/>`, []Attribute{{"src", "logo"}}},
		{"spaces around equals", `<div id = "box" >`, []Attribute{{"id", "box"}}},
		{"quoted keeps whitespace", `<p title=" a  b ">`, []Attribute{{"title", " a  b "}}},
		{"quoted keeps other quote", `<p title="it's">`, []Attribute{{"title", "it's"}}},
		{"order preserved", `<a href="x" class="c" id="i">`, []Attribute{{"href", "x"}, {"class", "c"}, {"id", "i"}}},
		{"adjacent quoted", `<a x="1"y="2">`, []Attribute{{"x", "1"}, {"y", "2"}}},
		{"duplicate replaced in place", `<a x="1" y="2" x="3">`, []Attribute{{"x", "3"}, {"y", "2"}}},
		{"empty value", `<a x="">`, []Attribute{{"x", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := tokenize(t, tt.input)
			require.NoError(t, err)
			require.NotEmpty(t, tokens)
			assert.Equal(t, StartTagToken, tokens[0].Type)
			assert.Equal(t, tt.want, tokens[0].Attributes)
		})
	}
}

func TestTokenizer_SelfClosing(t *testing.T) {
	for _, input := range []string{"<br/>", "<br />", "<br / >", `<img src="a"/>`} {
		tokens, err := tokenize(t, input)
		require.NoError(t, err, input)
		require.Len(t, tokens, 2, input)
		assert.True(t, tokens[0].SelfClosing, input)
		assert.Equal(t, EOFToken, tokens[1].Type)
	}
}

func TestTokenizer_EndTagAttributesIgnoredByType(t *testing.T) {
	tokens, err := tokenize(t, `</div class="x">`)
	require.NoError(t, err)
	assert.Equal(t, EndTagToken, tokens[0].Type)
	assert.Equal(t, "div", tokens[0].Name)
}

func TestTokenizer_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		state State
		char  rune
	}{
		{"space after lt", "< p>", TagOpenState, ' '},
		{"digit in tag name", "<h1>", TagNameState, '1'},
		{"hyphen in tag name", "<my-tag>", TagNameState, '-'},
		{"end tag not letter", "</1>", EndTagOpenState, '1'},
		{"valueless attribute", "<input disabled >", AfterAttributeNameState, '>'},
		{"valueless attribute at gt", "<input disabled>", AttributeNameState, '>'},
		{"attribute then slash", "<input disabled/>", AttributeNameState, '/'},
		{"digit raw value", "<td width=10>", BeforeAttributeValueState, '1'},
		{"digit inside raw value", "<td width=ab1>", RawAttributeValueState, '1'},
		{"junk after slash", "<br/x>", SelfClosingTagOpenState, 'x'},
		{"carriage return is not whitespace", "<p\r>", TagNameState, '\r'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokenize(t, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var serr *SyntaxError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.state, serr.State)
			assert.Equal(t, tt.char, serr.Char)
		})
	}
}

func TestTokenizer_SyntaxErrorContext(t *testing.T) {
	_, err := tokenize(t, "<p>\n<div id=\"a\" 9>")
	var serr *SyntaxError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "div", serr.TagName)
	assert.Equal(t, Position{Line: 2, Column: 13}, serr.Pos)
	assert.Equal(t, `2:13: unexpected '9' in BeforeAttributeName state (tag "div")`, serr.Error())
}

func TestTokenizer_EOFInsideTag(t *testing.T) {
	_, err := tokenize(t, "<div")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTreeStructure))

	var terr *TreeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, UnterminatedTag, terr.Kind)
	assert.Equal(t, TagNameState, terr.State)
	assert.Equal(t, "div", terr.Got)
}

func TestTokenizer_HaltsAfterError(t *testing.T) {
	var count int
	tz := NewTokenizer(func(Token) error { count++; return nil })

	require.NoError(t, tz.Feed('a'))
	require.NoError(t, tz.Feed('<'))
	first := tz.Feed(' ')
	require.Error(t, first)

	assert.Equal(t, first, tz.Feed('b'))
	assert.Equal(t, first, tz.Close())
	assert.Equal(t, 1, count)

	tz.Reset()
	assert.NoError(t, tz.Err())
	assert.Equal(t, DataState, tz.State())
	require.NoError(t, tz.Feed('b'))
	require.NoError(t, tz.Close())
	assert.Equal(t, 3, count)
	assert.ErrorIs(t, tz.Feed('c'), ErrInputClosed)
}

func TestTokenizer_HandlerErrorHalts(t *testing.T) {
	stop := errors.New("stop")
	tz := NewTokenizer(func(tok Token) error {
		if tok.Type == StartTagToken {
			return stop
		}
		return nil
	})
	for _, r := range "<a" {
		require.NoError(t, tz.Feed(r))
	}
	assert.ErrorIs(t, tz.Feed('>'), stop)
	assert.ErrorIs(t, tz.Feed('x'), stop)
}

func TestTokenizer_Counters(t *testing.T) {
	tz := NewTokenizer(nil)
	for _, r := range "ab<i>c</i>" {
		require.NoError(t, tz.Feed(r))
	}
	require.NoError(t, tz.Close())
	assert.Equal(t, 10, tz.Chars())
	assert.Equal(t, 6, tz.Tokens())
}
