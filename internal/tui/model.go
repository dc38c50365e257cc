// Package tui is the terminal front-end: one game session rendered with
// bubbletea. The model only reads session snapshots; every rule lives in
// internal/game.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/game"
)

const (
	defaultWidth  = 48
	historyRows   = 12
	chromeHeight  = 9 // title, rules, input box, banner, status, help
	minHistoryRow = 3
)

type Model struct {
	session *game.Session
	input   textinput.Model
	history viewport.Model
	help    help.Model
	keys    KeyMap

	status string
	err    error
	width  int
	height int
}

// New starts a session with rules and gen (nil gen draws from entropy).
func New(rules game.Rules, gen game.Generator) (Model, error) {
	sess, err := game.NewSession(rules, gen)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Placeholder = strings.Repeat("_", rules.CodeLength)
	ti.Prompt = "guess › "
	ti.CharLimit = rules.CodeLength
	ti.Width = rules.CodeLength + 1
	ti.Focus()

	m := Model{
		session: sess,
		input:   ti,
		history: viewport.New(defaultWidth, historyRows),
		help:    help.New(),
		keys:    Keys,
		width:   defaultWidth,
	}
	m.refresh()
	log.Debug().Str("gameId", sess.ID()).Msg("game started")
	return m, nil
}

// Session exposes the underlying session (read-only use).
func (m Model) Session() *game.Session { return m.session }

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.history.Width = max(msg.Width-4, 20)
		m.history.Height = max(msg.Height-chromeHeight, minHistoryRow)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.NewGame):
			m.newGame()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			m.submit()
			return m, nil
		case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
			var cmd tea.Cmd
			m.history, cmd = m.history.Update(msg)
			return m, cmd
		}
		if msg.Type == tea.KeyRunes {
			msg.Runes = m.filterRunes(msg.Runes)
			if len(msg.Runes) == 0 {
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// filterRunes keeps only digits of the configured alphabet.
func (m Model) filterRunes(rs []rune) []rune {
	rules := m.session.Rules()
	out := rs[:0:0]
	for _, r := range rs {
		if r < '0' || r > '9' {
			continue
		}
		d := int(r - '0')
		if d < rules.MinDigit || d > rules.MaxDigit {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *Model) submit() {
	if m.session.State().Terminal() {
		m.status = "game over, press C-n for a new game"
		return
	}
	code, err := m.session.Rules().ParseCode(m.input.Value())
	if err == nil {
		_, err = m.session.SubmitGuess(code)
	}
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = ""
	m.input.Reset()

	if st := m.session.State(); st.Terminal() {
		log.Info().
			Str("gameId", m.session.ID()).
			Str("state", string(st)).
			Int("attempts", len(m.session.History())).
			Msg("game finished")
		m.input.Blur()
	}
	m.refresh()
}

func (m *Model) newGame() {
	if err := m.session.Reset(); err != nil {
		m.err = err
		return
	}
	log.Debug().Str("gameId", m.session.ID()).Msg("game reset")
	m.err = nil
	m.status = "new secret drawn"
	m.input.Reset()
	m.input.Focus()
	m.refresh()
}

// refresh re-renders the attempt history into the viewport.
func (m *Model) refresh() {
	snap := m.session.Snapshot()
	if len(snap.Attempts) == 0 {
		m.history.SetContent(MutedStyle.Render("no guesses yet"))
		return
	}
	rows := make([]string, 0, len(snap.Attempts))
	for _, a := range snap.Attempts {
		rows = append(rows, renderAttempt(a))
	}
	m.history.SetContent(strings.Join(rows, "\n"))
	m.history.GotoBottom()
}

func renderAttempt(a game.Attempt) string {
	digits := make([]string, len(a.Guess))
	for i, d := range a.Guess {
		digits[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s  %s  %s",
		NumberStyle.Render(fmt.Sprintf("#%02d", a.Number)),
		DigitStyle.Render(strings.Join(digits, " ")),
		renderPegs(a.Feedback),
	)
}

// renderPegs draws one peg per position: exact, then value, then none.
func renderPegs(fb game.Feedback) string {
	return ExactStyle.Render(strings.Repeat(pegGlyph, fb.ExactMatches)) +
		ValueStyle.Render(strings.Repeat(pegGlyph, fb.ValueMatches)) +
		MissStyle.Render(strings.Repeat(pegGlyph, fb.NoMatches))
}

func (m Model) View() string {
	var b strings.Builder
	rules := m.session.Rules()

	b.WriteString(TitleStyle.Render("CODEBREAKER"))
	b.WriteString("\n")
	b.WriteString(RulesStyle.Render(fmt.Sprintf("%d digits %d-%d, %d attempts",
		rules.CodeLength, rules.MinDigit, rules.MaxDigit, rules.MaxAttempts)))
	b.WriteString("\n")
	b.WriteString(HistoryStyle.Render(m.history.View()))
	b.WriteString("\n")

	switch m.session.State() {
	case game.StateWon:
		secret, _ := m.session.RevealSecret()
		b.WriteString(WonStyle.Render(fmt.Sprintf("cracked %s in %d!", secret, len(m.session.History()))))
	case game.StateLost:
		secret, _ := m.session.RevealSecret()
		b.WriteString(LostStyle.Render("out of attempts, the code was " + secret.String()))
	default:
		b.WriteString(InputStyle.Render(m.input.View()))
	}
	b.WriteString("\n")

	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) statusBar() string {
	left := fmt.Sprintf("remaining: %d", m.session.RemainingAttempts())
	right := m.status
	if m.err != nil {
		right = ErrorStyle.Render(m.err.Error())
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return StatusBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}
