package xferlog

import "strings"

// Tokenizer hands out one token per field position, switching delimiter
// sets as the layout requires. It only ever moves forward.
type Tokenizer struct {
	s     string
	pos   int
	field Field
}

// NewTokenizer returns a tokenizer over the line with its terminator
// ("\n" or "\r\n") removed. The caller's string is never modified.
func NewTokenizer(line string) *Tokenizer {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return &Tokenizer{s: line}
}

// Field returns the position of the most recently requested token.
func (t *Tokenizer) Field() Field {
	return t.field
}

// Next returns the token for the next field position. It reports false
// when the line has no more text, or once all field positions are used up.
//
// Leading delimiters of the position's set are skipped, the token runs up to
// the next delimiter of the same set, and that one delimiter byte is consumed.
func (t *Tokenizer) Next() (Token, bool) {
	if int(t.field) >= NumFields {
		return Token{}, false
	}
	t.field++
	d := DelimFor(t.field)
	set := d.chars()

	for t.pos < len(t.s) && strings.IndexByte(set, t.s[t.pos]) >= 0 {
		t.pos++
	}
	if t.pos >= len(t.s) {
		return Token{}, false
	}

	start := t.pos
	for t.pos < len(t.s) && strings.IndexByte(set, t.s[t.pos]) < 0 {
		t.pos++
	}
	text := t.s[start:t.pos]
	if t.pos < len(t.s) {
		t.pos++
	}

	return Token{Text: text, Field: t.field, Delim: d}, true
}

// Tokens splits the whole line, stopping at the first missing position.
func Tokens(line string) []Token {
	t := NewTokenizer(line)
	var out []Token
	for {
		tok, ok := t.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

// DelimFor returns the delimiter set that ends the token at position f.
// Only hour and minute end at a colon; the second ends at the space that
// follows HH:MM:SS.
func DelimFor(f Field) Delim {
	if f == FieldHour || f == FieldMinute {
		return DelimColon
	}
	return DelimSpace
}
