package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	testCases := []struct {
		input    string
		expected Kind
	}{
		{"let", LET},
		{"fn", FN},
		{"if", IF},
		{"else", ELSE},
		{"while", WHILE},
		{"for", FOR},
		{"in", IN},
		{"return", RETURN},
		{"true", TRUE},
		{"false", FALSE},
		{"and", AND},
		{"or", OR},
		{"not", NOT},
		{"x", IDENT},
		{"Let", IDENT}, // keyword matching is case-sensitive
		{"letter", IDENT},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, LookupIdent(tc.input), tc.input)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "EOF", EOF.String())
	assert.Equal(t, "+", PLUS.String())
	assert.Equal(t, "..", DOTDOT.String())
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "3", Token{Kind: NUMBER, Num: 3}.String())
	assert.Equal(t, "hi", Token{Kind: STRING, Text: "hi"}.String())
	assert.Equal(t, "x", Token{Kind: IDENT, Text: "x"}.String())
	assert.Equal(t, "let", Token{Kind: LET}.String())
}
