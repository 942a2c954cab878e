package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func countRevealed(hint string) int {
	n := 0
	for _, r := range hint {
		if r != '_' && r != ' ' {
			n++
		}
	}
	return n
}

func TestRevealCountBounds(t *testing.T) {
	total := 60 * time.Second

	assert.Equal(t, 0, RevealCount("elephant", 0, total))
	assert.Equal(t, 4, RevealCount("elephant", total, total), "never more than half the letters")
	assert.Equal(t, 1, RevealCount("ab", total, total))
	assert.Equal(t, 0, RevealCount("a", total, total), "a single letter is never given away")
	assert.Equal(t, 0, RevealCount("elephant", -time.Second, total))
	assert.Equal(t, 4, RevealCount("elephant", 2*total, total))
	assert.Equal(t, 0, RevealCount("elephant", time.Second, 0))
}

func TestRevealCountMonotonic(t *testing.T) {
	total := 60 * time.Second
	prev := 0
	for elapsed := time.Duration(0); elapsed <= total; elapsed += time.Second {
		k := RevealCount("strawberry", elapsed, total)
		assert.GreaterOrEqual(t, k, prev)
		prev = k
	}
	assert.Equal(t, 5, prev)
}

func TestHintAtStart(t *testing.T) {
	hint := HintAt("ice cream", 0, time.Minute)
	assert.Equal(t, "___ _____", hint, "spaces stay visible, letters start hidden")
}

func TestHintAtRevealsInPlace(t *testing.T) {
	word := "elephant"
	total := 60 * time.Second
	hint := HintAt(word, 30*time.Second, total)

	assert.Len(t, hint, len(word))
	assert.Equal(t, RevealCount(word, 30*time.Second, total), countRevealed(hint))
	for i, r := range hint {
		if r != '_' {
			assert.Equal(t, rune(word[i]), r, "revealed letters keep their position")
		}
	}
}

func TestHintAtDeterministic(t *testing.T) {
	// Reconnecting clients must be able to recompute the exact hint everyone
	// else already has.
	a := HintAt("waterfall", 40*time.Second, time.Minute)
	b := HintAt("waterfall", 40*time.Second, time.Minute)
	assert.Equal(t, a, b)
}

func TestHintRevealsAccumulate(t *testing.T) {
	word := "lighthouse"
	total := 100 * time.Second
	var prev string
	for elapsed := time.Duration(0); elapsed <= total; elapsed += 10 * time.Second {
		hint := HintAt(word, elapsed, total)
		if prev != "" {
			for i := range prev {
				if prev[i] != '_' {
					assert.Equal(t, prev[i], hint[i], "an already revealed letter never hides again")
				}
			}
		}
		prev = hint
	}
	assert.Equal(t, 5, countRevealed(prev))
	assert.True(t, strings.ContainsRune(prev, '_'), "half the word stays hidden even at expiry")
}
