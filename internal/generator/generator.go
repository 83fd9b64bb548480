// Package generator builds typing text sequences.
package generator

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"
)

const (
	// Punctuation content guarantees at least this share of punctuated words.
	minPunctPct = 0.35
	minCapsPct  = 0.2
	numberPct   = 0.3
)

// Request describes the text to generate.
type Request struct {
	Words    []string
	Quotes   []string
	Count    int
	Content  string
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
	// Weak biases word choice toward words containing these key names.
	Weak       map[string]struct{}
	WeakFactor float64
}

// Generator produces randomized typing text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Text joins the generated sequence into the target string.
func (g *Generator) Text(req Request) string {
	return strings.Join(g.Generate(req), " ")
}

// Generate returns the words of a practice text for the requested content kind.
func (g *Generator) Generate(req Request) []string {
	if req.Content == model.ContentQuotes && len(req.Quotes) > 0 {
		return g.quote(req)
	}
	if len(req.Words) == 0 || req.Count <= 0 {
		return nil
	}
	caps, punct := req.CapsPct, req.PunctPct
	if req.Content == model.ContentPunctuation {
		caps = max(caps, minCapsPct)
		punct = max(punct, minPunctPct)
	}
	pick := g.uniform(req.Words)
	if len(req.Weak) > 0 && req.WeakFactor > 0 {
		pick = g.weighted(req.Words, req.Weak, req.WeakFactor)
	}

	result := make([]string, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		if req.Content == model.ContentNumbers && g.rnd.Float64() < numberPct {
			result = append(result, g.number())
			continue
		}
		word := pick()
		word = applyCaps(g.rnd, word, caps)
		word = applyPunct(g.rnd, word, punct, req.PunctSet)
		result = append(result, word)
	}
	return result
}

// quote picks whole quotes until at least Count words are collected. A
// non-positive Count yields a single quote.
func (g *Generator) quote(req Request) []string {
	var result []string
	for len(result) == 0 || len(result) < req.Count {
		q := req.Quotes[g.rnd.Intn(len(req.Quotes))]
		result = append(result, strings.Fields(q)...)
	}
	return result
}

func (g *Generator) uniform(words []string) func() string {
	return func() string {
		return words[g.rnd.Intn(len(words))]
	}
}

// weighted favours words by 1 + factor per weak key they contain.
func (g *Generator) weighted(words []string, weak map[string]struct{}, factor float64) func() string {
	cumulative := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		weakCount := 0
		for _, r := range word {
			if _, ok := weak[metrics.KeyName(string(r))]; ok {
				weakCount++
			}
		}
		total += 1.0 + float64(weakCount)*factor
		cumulative[i] = total
	}
	return func() string {
		r := g.rnd.Float64() * total
		for j, c := range cumulative {
			if r < c {
				return words[j]
			}
		}
		return words[len(words)-1]
	}
}

func (g *Generator) number() string {
	digits := 1 + g.rnd.Intn(4)
	limit := 1
	for i := 0; i < digits; i++ {
		limit *= 10
	}
	return strconv.Itoa(g.rnd.Intn(limit))
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}
