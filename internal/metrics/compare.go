package metrics

// Compare reports, for every typed glyph, whether it matches the target glyph at
// the same position. Typed positions past the end of the target have nothing to
// match and are reported as mismatches.
func Compare(target, typed []string) []bool {
	out := make([]bool, len(typed))
	for i, g := range typed {
		if i >= len(target) {
			break
		}
		out[i] = g == target[i]
	}
	return out
}

// CountCorrect returns the number of typed glyphs that match the target.
func CountCorrect(target, typed []string) int {
	correct := 0
	for i, g := range typed {
		if i >= len(target) {
			break
		}
		if g == target[i] {
			correct++
		}
	}
	return correct
}

// Mismatches returns the positions where typed differs from target.
func Mismatches(target, typed []string) []int {
	var out []int
	for i, ok := range Compare(target, typed) {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}
