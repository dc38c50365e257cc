// internal/game/session.go
//
// A single codebreaker session.
// Responsibilities:
//   - Own the secret, the attempt history and the attempt budget.
//   - Apply guesses and track state transitions: in_progress → won/lost.
//   - Expose read-only views (state, history, snapshot) for renderers.
//
// A Session is driven by one caller at a time; it does no locking.
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session holds the state of one game.
type Session struct {
	id        string
	rules     Rules
	gen       Generator
	secret    Code
	history   []Attempt
	state     State
	startedAt time.Time
	now       func() time.Time
}

// NewSession validates rules and starts a fresh game using gen for secrets.
// A nil gen is replaced by an entropy-seeded RandomGenerator.
func NewSession(rules Rules, gen Generator) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		g, err := NewEntropyGenerator()
		if err != nil {
			return nil, err
		}
		gen = g
	}
	s := &Session{
		id:    uuid.NewString(),
		rules: rules,
		gen:   gen,
		now:   time.Now,
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// Start draws a new secret, clears history and sets state to in_progress.
// It may be called at any time; the current game is abandoned.
func (s *Session) Start() error {
	secret, err := s.gen.Generate(s.rules.CodeLength, s.rules.MinDigit, s.rules.MaxDigit)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	s.secret = secret
	s.history = nil
	s.state = StateInProgress
	s.startedAt = s.now()
	return nil
}

// Reset is Start under its "new game" name.
func (s *Session) Reset() error { return s.Start() }

// SubmitGuess validates and scores guess, appends the attempt and updates
// state.
//
// State transitions:
//   - ExactMatches == code length → won.
//   - Else if history reaches MaxAttempts → lost.
//
// Guesses in a terminal state fail with ErrSessionTerminal and leave history
// untouched.
func (s *Session) SubmitGuess(guess Code) (Attempt, error) {
	if s.state.Terminal() {
		return Attempt{}, fmt.Errorf("%w: game already %s", ErrSessionTerminal, s.state)
	}
	if err := s.rules.CheckCode(guess); err != nil {
		return Attempt{}, err
	}
	fb, err := s.rules.Evaluate(s.secret, guess)
	if err != nil {
		return Attempt{}, err
	}

	a := Attempt{
		Number:   len(s.history) + 1,
		Guess:    guess.Clone(),
		Feedback: fb,
	}
	s.history = append(s.history, a)

	if s.rules.Solved(fb) {
		s.state = StateWon
	} else if len(s.history) >= s.rules.MaxAttempts {
		s.state = StateLost
	}
	return a, nil
}

// RemainingAttempts is MaxAttempts minus attempts used, never below zero.
func (s *Session) RemainingAttempts() int {
	if n := s.rules.MaxAttempts - len(s.history); n > 0 {
		return n
	}
	return 0
}

// RevealSecret discloses the secret once the game is over.
func (s *Session) RevealSecret() (Code, error) {
	if !s.state.Terminal() {
		return nil, fmt.Errorf("%w: secret is only revealed after the game ends", ErrSessionTerminal)
	}
	return s.secret.Clone(), nil
}

// ID is the session id; it survives Reset.
func (s *Session) ID() string { return s.id }

// Rules returns the rules the session was created with.
func (s *Session) Rules() Rules { return s.rules }

// State reports whether the game is in progress, won or lost.
func (s *Session) State() State { return s.state }

// StartedAt is when the current secret was drawn.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// History returns a copy of the attempts made so far, oldest first.
func (s *Session) History() []Attempt {
	out := make([]Attempt, len(s.history))
	for i, a := range s.history {
		a.Guess = a.Guess.Clone()
		out[i] = a
	}
	return out
}

// Snapshot is a self-contained view of a session for renderers.
// Secret is set only in a terminal state.
type Snapshot struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Rules     Rules     `json:"rules"`
	Attempts  []Attempt `json:"attempts"`
	Remaining int       `json:"remaining"`
	StartedAt time.Time `json:"startedAt"`
	Secret    Code      `json:"secret,omitempty"`
}

// Snapshot captures the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Rules:     s.rules,
		Attempts:  s.History(),
		Remaining: s.RemainingAttempts(),
		StartedAt: s.startedAt,
	}
	if s.state.Terminal() {
		snap.Secret = s.secret.Clone()
	}
	return snap
}
