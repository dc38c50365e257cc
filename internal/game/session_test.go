package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixedSession(t *testing.T, secret Code, maxAttempts int) *Session {
	t.Helper()
	rules := DefaultRules()
	rules.MaxAttempts = maxAttempts
	s, err := NewSession(rules, FixedGenerator(secret))
	require.NoError(t, err)
	return s
}

func TestSession_Win(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 10)
	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 10, s.RemainingAttempts())

	a, err := s.SubmitGuess(Code{4, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Number)
	assert.Equal(t, Feedback{ValueMatches: 4}, a.Feedback)
	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 9, s.RemainingAttempts())

	a, err = s.SubmitGuess(Code{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Number)
	assert.Equal(t, StateWon, s.State())

	secret, err := s.RevealSecret()
	require.NoError(t, err)
	assert.Equal(t, Code{1, 2, 3, 4}, secret)
}

func TestSession_Loss(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 3)

	for i := 1; i <= 3; i++ {
		assert.Equal(t, StateInProgress, s.State())
		before := s.RemainingAttempts()
		a, err := s.SubmitGuess(Code{0, 0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, i, a.Number)
		assert.Equal(t, before-1, s.RemainingAttempts())
	}
	assert.Equal(t, StateLost, s.State())
	assert.Equal(t, 0, s.RemainingAttempts())
}

func TestSession_WinOnLastAttempt(t *testing.T) {
	s := newFixedSession(t, Code{9, 9, 9, 9}, 2)
	_, err := s.SubmitGuess(Code{0, 0, 0, 0})
	require.NoError(t, err)
	_, err = s.SubmitGuess(Code{9, 9, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, StateWon, s.State())
}

func TestSession_TerminalRejectsGuesses(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 10)
	_, err := s.SubmitGuess(Code{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = s.SubmitGuess(Code{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrSessionTerminal)
	assert.Len(t, s.History(), 1)
	assert.Equal(t, 9, s.RemainingAttempts())
}

func TestSession_InvalidGuessesDoNotCount(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 10)

	_, err := s.SubmitGuess(Code{1, 2, 3})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = s.SubmitGuess(Code{1, 2, 3, 11})
	assert.ErrorIs(t, err, ErrInvalidDigit)

	assert.Empty(t, s.History())
	assert.Equal(t, 10, s.RemainingAttempts())
	assert.Equal(t, StateInProgress, s.State())
}

func TestSession_RevealSecretWhileInProgress(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 10)
	_, err := s.RevealSecret()
	assert.ErrorIs(t, err, ErrSessionTerminal)
	assert.Nil(t, s.Snapshot().Secret)
}

func TestSession_Reset(t *testing.T) {
	s, err := NewSession(DefaultRules(), NewGenerator(7))
	require.NoError(t, err)
	id := s.ID()

	for s.State() == StateInProgress {
		_, err := s.SubmitGuess(Code{0, 0, 0, 0})
		require.NoError(t, err)
	}
	require.True(t, s.State().Terminal())

	require.NoError(t, s.Reset())
	assert.Equal(t, id, s.ID())
	assert.Equal(t, StateInProgress, s.State())
	assert.Empty(t, s.History())
	assert.Equal(t, 10, s.RemainingAttempts())

	_, err = s.SubmitGuess(Code{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, s.History()[0].Number)
}

func TestSession_HistoryIsACopy(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 10)
	guess := Code{5, 6, 7, 8}
	_, err := s.SubmitGuess(guess)
	require.NoError(t, err)

	guess[0] = 1
	h := s.History()
	h[0].Guess[1] = 2
	h[0].Number = 99

	again := s.History()
	assert.Equal(t, Code{5, 6, 7, 8}, again[0].Guess)
	assert.Equal(t, 1, again[0].Number)
}

func TestSession_Snapshot(t *testing.T) {
	s := newFixedSession(t, Code{1, 2, 3, 4}, 10)
	_, err := s.SubmitGuess(Code{1, 2, 0, 0})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.ID)
	assert.Equal(t, StateInProgress, snap.State)
	assert.Equal(t, 9, snap.Remaining)
	require.Len(t, snap.Attempts, 1)
	assert.Equal(t, Feedback{ExactMatches: 2, NoMatches: 2}, snap.Attempts[0].Feedback)
	assert.Nil(t, snap.Secret)

	_, err = s.SubmitGuess(Code{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Code{1, 2, 3, 4}, s.Snapshot().Secret)
}

func TestNewSession_RejectsBadRules(t *testing.T) {
	_, err := NewSession(Rules{CodeLength: 0, MaxDigit: 9, MaxAttempts: 1}, nil)
	assert.Error(t, err)

	_, err = NewSession(DefaultRules(), FixedGenerator{1, 2, 3})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNewSession_DefaultGenerator(t *testing.T) {
	s, err := NewSession(DefaultRules(), nil)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, s.State())
}
