package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		expected, actual string
		want             ErrorType
	}{
		{expected: ".", actual: "a", want: ErrorPunctuation},
		{expected: "!", actual: "?", want: ErrorPunctuation},
		{expected: "«", actual: "<", want: ErrorPunctuation},
		{expected: "A", actual: "a", want: ErrorCase},
		{expected: "h", actual: "H", want: ErrorCase},
		{expected: "A", actual: "b", want: ErrorOther},
		{expected: "7", actual: "x", want: ErrorNumber},
		{expected: "7", actual: "8", want: ErrorNumber},
		{expected: " ", actual: "x", want: ErrorOther},
		{expected: "é", actual: "É", want: ErrorOther},
		{expected: "", actual: "x", want: ErrorOther},
	}
	for _, tt := range tests {
		t.Run(tt.expected+"/"+tt.actual, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.expected, tt.actual))
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "punctuation", ErrorPunctuation.String())
	assert.Equal(t, "case", ErrorCase.String())
	assert.Equal(t, "number", ErrorNumber.String())
	assert.Equal(t, "other", ErrorOther.String())
}

func TestErrorTypeCountsAdd(t *testing.T) {
	var c ErrorTypeCounts
	c.Add(ErrorCase)
	c.Add(ErrorPunctuation)
	c.Add(ErrorCase)
	c.Add(ErrorOther)
	assert.Equal(t, ErrorTypeCounts{Punctuation: 1, Case: 2, Other: 1}, c)
	assert.Equal(t, 4, c.Total())
}
