package game

import (
	"hash/fnv"
	"sort"
	"strings"
	"time"
)

// Hint reveal is a pure function of (word, elapsed, total) so a reconnecting
// client can be resynchronized to exactly the hint everyone else sees. At
// most half the letters are ever revealed; positions come out in an order
// seeded by the word itself.

// RevealCount returns how many letters of word are revealed after `elapsed`
// of a `total`-long turn.
func RevealCount(word string, elapsed, total time.Duration) int {
	max := maxReveals(word)
	if max == 0 || total <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	// Checkpoints at fixed fractions of the turn: one more letter each time
	// elapsed crosses total*i/(max+1).
	k := int(float64(max+1) * float64(elapsed) / float64(total))
	if k > max {
		k = max
	}
	return k
}

// HintAt renders the partially revealed word: revealed letters in place,
// underscores elsewhere, spaces kept as-is.
func HintAt(word string, elapsed, total time.Duration) string {
	revealed := make(map[int]bool)
	order := revealOrder(word)
	n := RevealCount(word, elapsed, total)
	for i := 0; i < n && i < len(order); i++ {
		revealed[order[i]] = true
	}

	var b strings.Builder
	for i, r := range []rune(word) {
		switch {
		case r == ' ':
			b.WriteRune(' ')
		case revealed[i]:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func maxReveals(word string) int {
	letters := 0
	for _, r := range word {
		if r != ' ' {
			letters++
		}
	}
	return letters / 2
}

// revealOrder is a deterministic shuffle of the word's letter positions,
// keyed on the word so every server-side computation agrees.
func revealOrder(word string) []int {
	runes := []rune(word)
	order := make([]int, 0, len(runes))
	for i, r := range runes {
		if r != ' ' {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		return positionWeight(word, order[a]) < positionWeight(word, order[b])
	})
	return order
}

func positionWeight(word string, pos int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(word))
	h.Write([]byte{byte(pos), byte(pos >> 8)})
	// Tie-break on position so the order is total even on hash collisions.
	return h.Sum64()<<8 | uint64(pos&0xff)
}
