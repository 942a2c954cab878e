package game

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// Scoring policy. Pure functions, no room state: guesser points decay
// linearly with elapsed turn time, the drawer bonus grows with how many
// people guessed and how fast they were.
const (
	maxGuessPoints = 500
	minGuessPoints = 50

	closeGuessDistance = 2
)

// GuesserPoints returns the points for a correct guess with `remaining` of
// `total` turn time left: maxGuessPoints at full time down to minGuessPoints
// at expiry.
func GuesserPoints(remaining, total time.Duration) int {
	if total <= 0 {
		return minGuessPoints
	}
	frac := float64(remaining) / float64(total)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return minGuessPoints + int(frac*float64(maxGuessPoints-minGuessPoints)+0.5)
}

// DrawerBonus is a quarter of the points handed out to guessers this turn.
// More guessers and faster guesses both raise it; nobody guessing means zero.
func DrawerBonus(awarded []int) int {
	sum := 0
	for _, points := range awarded {
		sum += points
	}
	return sum / 4
}

// NormalizeGuess trims and casefolds a guess for comparison.
func NormalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsCorrectGuess compares a raw guess against the current word,
// case-insensitively and whitespace-trimmed.
func IsCorrectGuess(guess, word string) bool {
	return NormalizeGuess(guess) == NormalizeGuess(word)
}

// IsCloseGuess reports a near miss: not the word, but within a small edit
// distance of it.
func IsCloseGuess(guess, word string) bool {
	g, w := NormalizeGuess(guess), NormalizeGuess(word)
	if g == w || g == "" {
		return false
	}
	return levenshtein.ComputeDistance(g, w) <= closeGuessDistance
}
