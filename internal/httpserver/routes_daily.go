// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's game
//   - GET  /daily/leaderboard → top 20 winners for today (or ?date=YYYY-MM-DD)
//
// Every player gets the same secret for a date (HMAC of date + salt).
// One play per player per date: the outcome is stored once the game ends,
// win or loss.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/codebreaker/internal/daily"
	"github.com/robalobadob/codebreaker/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	mu       sync.Mutex
	sessions map[string]*dailySession // keyed by owner|date
}

type dailySession struct {
	sess  *game.Session
	date  string
	start time.Time
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		sessions: make(map[string]*dailySession),
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

func (d *dailyServer) today() (time.Time, string) {
	now := d.srv.now().UTC()
	return now, daily.DateKey(now)
}

// dailyNewRes is returned by /daily/new. Game is nil once played.
type dailyNewRes struct {
	Date   string         `json:"date"`
	Played bool           `json:"played"`
	Game   *game.Snapshot `json:"game,omitempty"`
}

// handleNew returns the caller's session for today, creating it if needed.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	owner := d.srv.owner(w, r)
	now, date := d.today()

	played, err := d.store.AlreadyPlayed(r.Context(), owner, date)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Played: true})
		return
	}

	key := owner + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	ds, ok := d.sessions[key]
	if !ok {
		sess, err := game.NewSession(d.srv.cfg.Game, daily.Generator(now, d.srv.cfg.Server.DailySalt))
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "new_game_failed")
			return
		}
		ds = &dailySession{sess: sess, date: date, start: d.srv.now()}
		d.sessions[key] = ds
		d.dropStale(date)
	}
	snap := ds.sess.Snapshot()
	_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Game: &snap})
}

// claim re-keys from's daily sessions to to. A session to already holds
// for the same date wins.
func (d *dailyServer) claim(from, to string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for k, ds := range d.sessions {
		if !strings.HasPrefix(k, from+"|") {
			continue
		}
		delete(d.sessions, k)
		nk := to + "|" + ds.date
		if _, taken := d.sessions[nk]; !taken {
			d.sessions[nk] = ds
			n++
		}
	}
	return n
}

// dropStale forgets sessions from earlier dates. Caller holds d.mu.
func (d *dailyServer) dropStale(today string) {
	for k, ds := range d.sessions {
		if ds.date != today {
			delete(d.sessions, k)
		}
	}
}

// handleGuess applies a guess to today's session and stores the outcome
// when the game ends.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	owner := d.srv.owner(w, r)
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	_, date := d.today()

	d.mu.Lock()
	ds, ok := d.sessions[owner+"|"+date]
	if !ok || ds.sess.ID() != req.GameID {
		d.mu.Unlock()
		writeErr(w, http.StatusConflict, "no_session")
		return
	}
	var res guessRes
	code, err := ds.sess.Rules().ParseCode(req.Guess)
	if err == nil {
		res.Attempt, err = ds.sess.SubmitGuess(code)
	}
	res.Game = ds.sess.Snapshot()
	d.mu.Unlock()
	if err != nil {
		writeGameErr(w, err)
		return
	}

	if res.Game.State.Terminal() {
		result := daily.Result{
			UserID:    owner,
			Date:      date,
			Won:       res.Game.State == game.StateWon,
			Attempts:  len(res.Game.Attempts),
			ElapsedMs: int(d.srv.now().Sub(ds.start).Milliseconds()),
		}
		if err := d.store.InsertResult(r.Context(), result); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("date", date).Msg("insert daily result")
		}
	}
	_ = json.NewEncoder(w).Encode(res)
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		_, date = d.today()
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
