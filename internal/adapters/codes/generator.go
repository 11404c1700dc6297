// Package codes generates the short verification codes mailed to registrants.
package codes

import (
	"math/rand/v2"

	"eventregistrations/internal/domain"
)

// DefaultLength is the verification code length used by the intake workflow.
const DefaultLength = 6

// Three disjoint alphabets. Ambiguous glyphs (I, O, l, o, 0) are excluded so
// the code survives being read over the phone or retyped from a printout.
var alphabets = []string{
	"ABCDEFGHJKLMNPQRSTUVWXYZ",
	"abcdefghijkmnpqrstuvwxyz",
	"123456789",
}

type generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a CodeGenerator drawing from the given randomness
// source. Pass a seeded source in tests for deterministic output.
func NewGenerator(rnd *rand.Rand) domain.CodeGenerator {
	return &generator{rnd: rnd}
}

// Generate produces a code of the given length. Each character is drawn from
// a randomly chosen alphabet and inserted at a random position in the
// accumulating sequence, so the result is not ordered alphabet-major.
// Non-positive lengths fall back to DefaultLength.
func (g *generator) Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	chars := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		alphabet := alphabets[g.rnd.IntN(len(alphabets))]
		c := alphabet[g.rnd.IntN(len(alphabet))]
		pos := g.rnd.IntN(len(chars) + 1)
		chars = append(chars, 0)
		copy(chars[pos+1:], chars[pos:])
		chars[pos] = c
	}
	return string(chars)
}
