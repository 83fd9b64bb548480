package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typemeter/internal/metrics"
)

const wrongSpaceGlyph = "•"

type styledGlyph struct {
	s       string
	width   int
	isSpace bool
}

func buildStyledGlyphs(target, typed []string, cursorIndex int) []styledGlyph {
	current := wordForCursor(findWords(target), cursorIndex)
	matches := metrics.Compare(target, typed)

	out := make([]styledGlyph, 0, len(target))
	for i, g := range target {
		displayed := g
		style := pendingStyle
		switch {
		case i < len(typed) && g == " " && typed[i] != " ":
			displayed = wrongSpaceGlyph
			style = incorrectStyle
		case i < len(typed) && matches[i]:
			style = correctStyle
		case i < len(typed):
			style = incorrectStyle
		case g != " " && current != nil && i >= current.start && i < current.end:
			style = currentWordStyle
		}
		if i == cursorIndex && i >= len(typed) {
			style = style.Underline(true)
		}
		out = append(out, styledGlyph{
			s:       style.Render(displayed),
			width:   runewidth.StringWidth(displayed),
			isSpace: g == " ",
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func findWords(target []string) []wordRange {
	var words []wordRange
	start := -1
	for i, g := range target {
		if g == " " {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(target)})
	}
	return words
}

// wordForCursor returns the word containing the cursor or the next word after it.
func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	if len(words) == 0 {
		return nil
	}
	if cursorIndex < 0 {
		return &words[0]
	}
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return &words[len(words)-1]
}

func renderStyledGlyphs(glyphs []styledGlyph) string {
	var b strings.Builder
	for _, item := range glyphs {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledGlyphs breaks lines at the last space that fits, or mid-word when none does.
func wrapStyledGlyphs(glyphs []styledGlyph, width int) string {
	if width <= 0 {
		return renderStyledGlyphs(glyphs)
	}
	var lines []string
	line := make([]styledGlyph, 0, len(glyphs))
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(glyphs); {
		item := glyphs[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, renderStyledGlyphs(line[:lastSpace]))
				line = append([]styledGlyph{}, line[lastSpace+1:]...)
			} else {
				lines = append(lines, renderStyledGlyphs(line))
				line = line[:0]
			}
			lineWidth, lastSpace = measureLine(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	lines = append(lines, renderStyledGlyphs(line))
	return strings.Join(lines, "\n")
}

func measureLine(line []styledGlyph) (width, lastSpace int) {
	lastSpace = -1
	for i, item := range line {
		width += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}
