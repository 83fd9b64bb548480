package metrics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrorType categorizes a mistyped glyph by what was expected.
type ErrorType int

const (
	// ErrorPunctuation means a punctuation mark was expected.
	ErrorPunctuation ErrorType = iota
	// ErrorCase means the right letter was typed in the wrong case.
	ErrorCase
	// ErrorNumber means a digit was expected.
	ErrorNumber
	// ErrorOther covers every remaining mismatch.
	ErrorOther
)

// String returns the lowercase name of the category.
func (t ErrorType) String() string {
	switch t {
	case ErrorPunctuation:
		return "punctuation"
	case ErrorCase:
		return "case"
	case ErrorNumber:
		return "number"
	default:
		return "other"
	}
}

// Classify assigns a category to a mismatch between expected and actual.
// Rules apply in order: punctuation, case, number, other.
func Classify(expected, actual string) ErrorType {
	r, _ := utf8.DecodeRuneInString(expected)
	if r == utf8.RuneError {
		return ErrorOther
	}
	if unicode.IsPunct(r) {
		return ErrorPunctuation
	}
	if isASCIILetter(expected) && expected != actual && strings.ToLower(expected) == strings.ToLower(actual) {
		return ErrorCase
	}
	if unicode.IsDigit(r) {
		return ErrorNumber
	}
	return ErrorOther
}

// ErrorTypeCounts tallies mismatches per category.
type ErrorTypeCounts struct {
	Punctuation int `json:"punctuation" yaml:"punctuation"`
	Case        int `json:"case" yaml:"case"`
	Number      int `json:"number" yaml:"number"`
	Other       int `json:"other" yaml:"other"`
}

// Add increments the counter for t.
func (c *ErrorTypeCounts) Add(t ErrorType) {
	switch t {
	case ErrorPunctuation:
		c.Punctuation++
	case ErrorCase:
		c.Case++
	case ErrorNumber:
		c.Number++
	default:
		c.Other++
	}
}

// Total returns the sum of all categories.
func (c ErrorTypeCounts) Total() int {
	return c.Punctuation + c.Case + c.Number + c.Other
}

func isASCIILetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	b := s[0]
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
