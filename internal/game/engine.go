// internal/game/engine.go
//
// Guess evaluation for the codebreaker engine.
// Responsibilities:
//   - Validate secret/guess pairs (length, alphabet).
//   - Score guesses with the two-pass duplicate-safe algorithm.
//   - Parse player input ("1234", "1 2 3 4") into codes.
//
// Evaluation is pure: no state, deterministic for fixed inputs.
package game

import (
	"fmt"
	"strings"
	"unicode"
)

// Evaluate scores guess against secret under the default rules' alphabet.
func Evaluate(secret, guess Code) (Feedback, error) {
	return DefaultRules().Evaluate(secret, guess)
}

// Evaluate scores guess against secret.
//
// Pass 1:
//   - Count exact matches; every other secret digit goes into a per-value
//     pool of unconsumed digits.
//
// Pass 2:
//   - For each non-exact guess digit, if the pool still holds that value,
//     count a value match and take one from the pool.
//
// The pool makes repeated digits count exactly once each: secret 1123 vs
// guess 1114 yields 2 exact, 0 value, 2 none.
func (r Rules) Evaluate(secret, guess Code) (Feedback, error) {
	if len(secret) != len(guess) {
		return Feedback{}, fmt.Errorf("%w: secret has %d digits, guess has %d", ErrLengthMismatch, len(secret), len(guess))
	}
	if err := r.checkDigits(secret); err != nil {
		return Feedback{}, fmt.Errorf("secret: %w", err)
	}
	if err := r.checkDigits(guess); err != nil {
		return Feedback{}, err
	}

	n := len(guess)
	exact := make([]bool, n)
	var pool [10]int
	var fb Feedback

	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			exact[i] = true
			fb.ExactMatches++
		} else {
			pool[secret[i]]++
		}
	}

	for i := 0; i < n; i++ {
		if exact[i] {
			continue
		}
		if d := guess[i]; pool[d] > 0 {
			pool[d]--
			fb.ValueMatches++
		}
	}

	fb.NoMatches = n - fb.ExactMatches - fb.ValueMatches
	return fb, nil
}

// Solved reports whether fb is a winning evaluation for r.
func (r Rules) Solved(fb Feedback) bool {
	return fb.ExactMatches == r.CodeLength
}

// ParseCode converts player input into a Code. Spaces, commas and dashes
// between digits are ignored. Non-digit characters fail with ErrInvalidDigit,
// a wrong digit count with ErrLengthMismatch.
func (r Rules) ParseCode(s string) (Code, error) {
	out := make(Code, 0, r.CodeLength)
	for i, ch := range strings.TrimSpace(s) {
		switch {
		case ch == ' ' || ch == ',' || ch == '-':
			continue
		case ch >= '0' && ch <= '9':
			out = append(out, Digit(ch-'0'))
		case unicode.IsDigit(ch):
			return nil, fmt.Errorf("%w: non-ASCII digit %q at offset %d", ErrInvalidDigit, ch, i)
		default:
			return nil, fmt.Errorf("%w: %q at offset %d is not a digit", ErrInvalidDigit, ch, i)
		}
	}
	if err := r.CheckCode(out); err != nil {
		return nil, err
	}
	return out, nil
}
