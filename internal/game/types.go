// internal/game/types.go
//
// Core type definitions for the codebreaker engine.
// Defines:
//   - Digit / Code: the secret and guess sequences.
//   - Feedback: exact / value / no-match counts for one evaluation.
//   - Attempt: a scored guess with its 1-based number.
//   - State: in_progress → won | lost.
//   - Rules: code length, digit alphabet and attempt budget.

package game

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultCodeLength  = 4
	defaultMinDigit    = 0
	defaultMaxDigit    = 9
	defaultMaxAttempts = 10
)

// Digit is a single code symbol in [0,9].
type Digit int

// Code is an ordered sequence of digits (a secret or a guess).
type Code []Digit

// String renders the code as contiguous digits, e.g. "0427".
func (c Code) String() string {
	var b strings.Builder
	for _, d := range c {
		b.WriteString(strconv.Itoa(int(d)))
	}
	return b.String()
}

// Equal reports whether both codes hold the same digits in the same order.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c Code) Clone() Code {
	if c == nil {
		return nil
	}
	out := make(Code, len(c))
	copy(out, c)
	return out
}

// Feedback is the result of evaluating one guess against a secret.
// ExactMatches + ValueMatches + NoMatches always equals the code length.
type Feedback struct {
	ExactMatches int `json:"exactMatches"` // right digit, right position
	ValueMatches int `json:"valueMatches"` // right digit, wrong position
	NoMatches    int `json:"noMatches"`
}

func (f Feedback) String() string {
	return fmt.Sprintf("%d-%d-%d", f.ExactMatches, f.ValueMatches, f.NoMatches)
}

// Attempt pairs a submitted guess with its feedback.
type Attempt struct {
	Number   int      `json:"number"` // 1-based within the session
	Guess    Code     `json:"guess"`
	Feedback Feedback `json:"feedback"`
}

// State is the session lifecycle state.
type State string

const (
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Terminal reports whether no further guesses are accepted.
func (s State) Terminal() bool {
	return s == StateWon || s == StateLost
}

// Rules configures a session: code length, inclusive digit alphabet and
// the number of guesses allowed.
type Rules struct {
	CodeLength  int `json:"codeLength" toml:"code_length"`
	MinDigit    int `json:"minDigit" toml:"min_digit"`
	MaxDigit    int `json:"maxDigit" toml:"max_digit"`
	MaxAttempts int `json:"maxAttempts" toml:"max_attempts"`
}

// DefaultRules returns the classic 4 digits, 0-9, 10 attempts.
func DefaultRules() Rules {
	return Rules{
		CodeLength:  defaultCodeLength,
		MinDigit:    defaultMinDigit,
		MaxDigit:    defaultMaxDigit,
		MaxAttempts: defaultMaxAttempts,
	}
}

// Validate rejects rules no session could be played with.
func (r Rules) Validate() error {
	switch {
	case r.CodeLength < 1:
		return fmt.Errorf("code length must be positive, got %d", r.CodeLength)
	case r.MinDigit < 0 || r.MaxDigit > 9:
		return fmt.Errorf("digit range must lie within 0-9, got %d-%d", r.MinDigit, r.MaxDigit)
	case r.MinDigit > r.MaxDigit:
		return fmt.Errorf("min digit %d exceeds max digit %d", r.MinDigit, r.MaxDigit)
	case r.MaxAttempts < 1:
		return fmt.Errorf("max attempts must be positive, got %d", r.MaxAttempts)
	}
	return nil
}

// inAlphabet reports whether d is a legal digit under r.
func (r Rules) inAlphabet(d Digit) bool {
	return int(d) >= r.MinDigit && int(d) <= r.MaxDigit
}

// CheckCode verifies length and alphabet of c.
func (r Rules) CheckCode(c Code) error {
	if len(c) != r.CodeLength {
		return fmt.Errorf("%w: want %d digits, got %d", ErrLengthMismatch, r.CodeLength, len(c))
	}
	return r.checkDigits(c)
}

func (r Rules) checkDigits(c Code) error {
	for i, d := range c {
		if !r.inAlphabet(d) {
			return fmt.Errorf("%w: %d at position %d outside %d-%d", ErrInvalidDigit, d, i+1, r.MinDigit, r.MaxDigit)
		}
	}
	return nil
}
