package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/codebreaker/internal/config"
	"github.com/robalobadob/codebreaker/internal/daily"
	"github.com/robalobadob/codebreaker/internal/database"
	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/store"
)

type testEnv struct {
	srv *Server
	ts  *httptest.Server
	db  *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Server.DBPath = filepath.Join(t.TempDir(), "test.db")

	db, err := database.OpenAndMigrate(cfg.Server.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(store.NewMemoryStore(), db, cfg)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, db: db}
}

// client is one browser: its own cookie jar, hence its own owner id.
type client struct {
	t    *testing.T
	base string
	hc   *http.Client
}

func (e *testEnv) client(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.ts.URL, hc: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the response into out (if non-nil).
func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *client) newGame(seed int64) game.Snapshot {
	c.t.Helper()
	var snap game.Snapshot
	status := c.do(http.MethodPost, "/game/new", map[string]any{"seed": seed}, &snap)
	require.Equal(c.t, http.StatusOK, status)
	return snap
}

func (c *client) guess(id, g string) (int, guessRes) {
	c.t.Helper()
	var res guessRes
	status := c.do(http.MethodPost, "/game/guess", guessReq{GameID: id, Guess: g}, &res)
	return status, res
}

func secretFor(t *testing.T, seed int64) game.Code {
	t.Helper()
	code, err := game.NewGenerator(seed).Generate(4, 0, 9)
	require.NoError(t, err)
	return code
}

// wrongGuess returns a code that shares no position with secret.
func wrongGuess(secret game.Code) string {
	out := make(game.Code, len(secret))
	for i, d := range secret {
		out[i] = (d + 1) % 10
	}
	return out.String()
}

func errCode(t *testing.T, c *client, method, path string, body any) (int, string) {
	t.Helper()
	var res map[string]string
	status := c.do(method, path, body, &res)
	return status, res["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	var res map[string]bool
	status := env.client(t).do(http.MethodGet, "/health", nil, &res)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, res["ok"])
}

func TestGameFlow(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	snap := c.newGame(42)
	assert.Equal(t, game.StateInProgress, snap.State)
	assert.Equal(t, 10, snap.Remaining)
	assert.Empty(t, snap.Secret)

	secret := secretFor(t, 42)

	status, res := c.guess(snap.ID, wrongGuess(secret))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, res.Attempt.Number)
	assert.Equal(t, 0, res.Attempt.Feedback.ExactMatches)
	assert.Equal(t, 9, res.Game.Remaining)

	status, res = c.guess(snap.ID, secret.String())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, game.StateWon, res.Game.State)
	assert.Equal(t, 4, res.Attempt.Feedback.ExactMatches)
	assert.Equal(t, secret, res.Game.Secret)

	status, code := errCode(t, c, http.MethodPost, "/game/guess", guessReq{GameID: snap.ID, Guess: secret.String()})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "session_terminal", code)

	var n int
	require.NoError(t, env.db.QueryRow(`SELECT COUNT(*) FROM games WHERE session_id=? AND status='won' AND attempts=2 AND user_id IS NULL`, snap.ID).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGuessErrors(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	snap := c.newGame(7)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"invalid digit", guessReq{GameID: snap.ID, Guess: "12a4"}, http.StatusBadRequest, "invalid_digit"},
		{"too short", guessReq{GameID: snap.ID, Guess: "123"}, http.StatusBadRequest, "length_mismatch"},
		{"too long", guessReq{GameID: snap.ID, Guess: "12345"}, http.StatusBadRequest, "length_mismatch"},
		{"unknown game", guessReq{GameID: "nope", Guess: "1234"}, http.StatusNotFound, "not_found"},
		{"bad json", "not an object", http.StatusBadRequest, "bad_json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := errCode(t, c, http.MethodPost, "/game/guess", tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}

	// rejected guesses do not consume attempts
	var got game.Snapshot
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/game/"+snap.ID, nil, &got))
	assert.Equal(t, 10, got.Remaining)
	assert.Empty(t, got.Attempts)
}

func TestOwnerIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.client(t)
	bob := env.client(t)

	snap := alice.newGame(1)

	status, code := errCode(t, bob, http.MethodGet, "/game/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", code)

	status, _ = bob.guess(snap.ID, "1234")
	assert.Equal(t, http.StatusNotFound, status)

	var got game.Snapshot
	assert.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/game/"+snap.ID, nil, &got))
	assert.Equal(t, snap.ID, got.ID)
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	snap := c.newGame(3)

	status, _ := c.guess(snap.ID, wrongGuess(secretFor(t, 3)))
	require.Equal(t, http.StatusOK, status)

	var got game.Snapshot
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/game/"+snap.ID+"/reset", nil, &got))
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, game.StateInProgress, got.State)
	assert.Empty(t, got.Attempts)
	assert.Equal(t, 10, got.Remaining)
}

func TestAuthAndStats(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	// an anonymous finished game is claimed on signup
	anon := c.newGame(5)
	status, _ := c.guess(anon.ID, secretFor(t, 5).String())
	require.Equal(t, http.StatusOK, status)

	creds := credentialsReq{Username: "player_one", Password: "correct horse"}
	var signup map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/signup", creds, &signup))
	assert.Equal(t, "player_one", signup["username"])
	assert.NotEmpty(t, signup["token"])

	other := env.client(t)
	status, code := errCode(t, other, http.MethodPost, "/auth/signup", creds)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "username_taken", code)

	status, code = errCode(t, other, http.MethodPost, "/auth/login", credentialsReq{Username: "player_one", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", code)

	var me authUser
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "player_one", me.Username)

	var mine []gameRow
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/games/mine", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, anon.ID, mine[0].SessionID)

	// a win and a loss as the user
	won := c.newGame(11)
	status, _ = c.guess(won.ID, wrongGuess(secretFor(t, 11)))
	require.Equal(t, http.StatusOK, status)
	status, _ = c.guess(won.ID, secretFor(t, 11).String())
	require.Equal(t, http.StatusOK, status)

	lost := c.newGame(12)
	miss := wrongGuess(secretFor(t, 12))
	for i := 0; i < 10; i++ {
		status, _ = c.guess(lost.ID, miss)
		require.Equal(t, http.StatusOK, status)
	}

	var stats map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 2, stats["gamesPlayed"])
	assert.EqualValues(t, 1, stats["wins"])
	assert.EqualValues(t, 0, stats["streak"])
	assert.EqualValues(t, 2, stats["bestAttempts"])

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/games/mine", nil, &mine))
	assert.Len(t, mine, 3)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, nil))
	status, _ = errCode(t, c, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// login works with any casing of the username
	require.Equal(t, http.StatusOK, other.do(http.MethodPost, "/auth/login", credentialsReq{Username: "PLAYER_ONE", Password: "correct horse"}, nil))
	require.Equal(t, http.StatusOK, other.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "player_one", me.Username)
}

func TestValidateSignup(t *testing.T) {
	assert.NoError(t, validateSignup("abc_123", "password"))
	assert.Error(t, validateSignup("ab", "password"))
	assert.Error(t, validateSignup("bad name", "password"))
	assert.Error(t, validateSignup("abc", "short"))
}

func TestDaily(t *testing.T) {
	env := newTestEnv(t)
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := day
	env.srv.now = func() time.Time { return clock }

	secret, err := daily.Generator(day, env.srv.cfg.Server.DailySalt).Generate(4, 0, 9)
	require.NoError(t, err)

	alice := env.client(t)
	bob := env.client(t)

	var a dailyNewRes
	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/daily/new", nil, &a))
	require.NotNil(t, a.Game)
	assert.Equal(t, "2026-03-01", a.Date)
	assert.False(t, a.Played)

	// asking again returns the same session
	var again dailyNewRes
	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/daily/new", nil, &again))
	assert.Equal(t, a.Game.ID, again.Game.ID)

	status, code := errCode(t, alice, http.MethodPost, "/daily/guess", guessReq{GameID: "other", Guess: "1234"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no_session", code)

	clock = day.Add(90 * time.Second)
	var res guessRes
	require.Equal(t, http.StatusOK, alice.do(http.MethodPost, "/daily/guess", guessReq{GameID: a.Game.ID, Guess: secret.String()}, &res))
	assert.Equal(t, game.StateWon, res.Game.State)

	// bob shares the secret and loses
	var b dailyNewRes
	require.Equal(t, http.StatusOK, bob.do(http.MethodPost, "/daily/new", nil, &b))
	require.NotNil(t, b.Game)
	assert.NotEqual(t, a.Game.ID, b.Game.ID)
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, bob.do(http.MethodPost, "/daily/guess", guessReq{GameID: b.Game.ID, Guess: wrongGuess(secret)}, nil))
	}

	for _, c := range []*client{alice, bob} {
		var played dailyNewRes
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &played))
		assert.True(t, played.Played)
		assert.Nil(t, played.Game)
	}

	var lb lbRes
	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/daily/leaderboard", nil, &lb))
	assert.Equal(t, "2026-03-01", lb.Date)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 1, lb.Top[0].Attempts)
	assert.Equal(t, 90000, lb.Top[0].ElapsedMs)

	require.Equal(t, http.StatusOK, alice.do(http.MethodGet, "/daily/leaderboard?date=2026-02-28", nil, &lb))
	assert.Empty(t, lb.Top)
}

func TestAnonSessionsFollowSignup(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	snap := c.newGame(11)
	secret := secretFor(t, 11)
	status, _ := c.guess(snap.ID, wrongGuess(secret))
	require.Equal(t, http.StatusOK, status)

	var today dailyNewRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &today))
	require.NotNil(t, today.Game)

	creds := credentialsReq{Username: "late_signup", Password: "correct horse"}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/signup", creds, nil))

	// the in-progress game carries over to the account
	status, res := c.guess(snap.ID, secret.String())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, res.Attempt.Number)
	assert.Equal(t, game.StateWon, res.Game.State)

	var stats map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/stats/me", nil, &stats))
	assert.EqualValues(t, 1, stats["wins"])

	// so does today's daily session
	var again dailyNewRes
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/daily/new", nil, &again))
	require.NotNil(t, again.Game)
	assert.Equal(t, today.Game.ID, again.Game.ID)

	// live sessions stay with the account across logout/login
	live := c.newGame(12)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/logout", nil, nil))
	status, _ = errCode(t, c, http.MethodGet, "/game/"+live.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/login", creds, nil))
	var got game.Snapshot
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/game/"+live.ID, nil, &got))
	assert.Equal(t, game.StateInProgress, got.State)
}

func TestCookieLifetimeIgnoresServerClock(t *testing.T) {
	env := newTestEnv(t)
	env.srv.now = func() time.Time { return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC) }

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/game/new", nil)
	id := env.srv.ensureAnonID(w, r)
	require.NotEmpty(t, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, anonCookieName, cookies[0].Name)
	assert.Equal(t, anonCookieAge, cookies[0].MaxAge)
	assert.True(t, cookies[0].Expires.IsZero())

	w = httptest.NewRecorder()
	env.srv.setAuthCookie(w, "tok", env.srv.now().Add(time.Hour))
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}
