// internal/httpserver/server.go
//
// HTTP server wiring for the codebreaker backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): POST /game/new, GET /game/{id},
//     POST /game/guess, POST /game/{id}/reset.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: see auth.go.
//
// Notes:
//   - Each live session belongs to one client (user id, else anon cookie id);
//     other clients get 404 for it.
//   - Finished games are recorded in SQLite; live sessions never are.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/config"
	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/store"
)

// Server bundles router, live session store, DB handle and settings.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
	daily *dailyServer
	cfg   config.Config
	now   func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db, cfg: cfg, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service":   "codebreaker",
			"rules":     s.cfg.Game,
			"endpoints": []string{"/health", "POST /game/new", "GET /game/{id}", "POST /game/guess", "POST /game/{id}/reset", "/daily/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints: optional auth (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/guess", s.handleGuess)
		r.Get("/game/{id}", s.handleGetGame)
		r.Post("/game/{id}/reset", s.handleReset)
	})

	// Daily Challenge: optional auth
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.Server.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeErr writes {"error":code} with status.
func writeErr(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// writeGameErr maps engine and store errors onto HTTP responses.
func writeGameErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrInvalidDigit):
		writeErr(w, http.StatusBadRequest, "invalid_digit")
	case errors.Is(err, game.ErrLengthMismatch):
		writeErr(w, http.StatusBadRequest, "length_mismatch")
	case errors.Is(err, game.ErrSessionTerminal):
		writeErr(w, http.StatusConflict, "session_terminal")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeErr(w, http.StatusServiceUnavailable, "timeout")
	default:
		log.Error().Err(err).Msg("game operation")
		writeErr(w, http.StatusInternalServerError, "internal")
	}
}

// ------------------------------ GAME ---------------------------------------

// newGameReq is the payload for POST /game/new.
type newGameReq struct {
	Seed *int64 `json:"seed"` // optional fixed seed (testing / replays); ignored in production
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}
type guessRes struct {
	Attempt game.Attempt  `json:"attempt"`
	Game    game.Snapshot `json:"game"`
}

// handleNewGame creates a new in-memory session owned by the caller.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	var gen game.Generator
	if req.Seed != nil && !s.cfg.Server.Production {
		gen = game.NewGenerator(*req.Seed)
	}
	sess, err := game.NewSession(s.cfg.Game, gen)
	if err != nil {
		log.Error().Err(err).Msg("new session")
		writeErr(w, http.StatusInternalServerError, "new_game_failed")
		return
	}

	s.pruneIdle(r.Context())
	owner := s.owner(w, r)
	if err := s.store.Add(r.Context(), owner, sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeErr(w, http.StatusInternalServerError, "save_failed")
		return
	}
	hlog.FromRequest(r).Debug().Str("gameId", sess.ID()).Str("owner", owner).Msg("game started")
	_ = json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleGetGame returns the caller's session snapshot.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	var snap game.Snapshot
	err := s.store.Do(r.Context(), chi.URLParam(r, "id"), s.owner(w, r), func(gs *game.Session) error {
		snap = gs.Snapshot()
		return nil
	})
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// handleGuess parses and applies a guess, then records the outcome if the
// guess ended the game.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}

	owner := s.owner(w, r)
	var res guessRes
	err := s.store.Do(r.Context(), req.GameID, owner, func(gs *game.Session) error {
		code, err := gs.Rules().ParseCode(req.Guess)
		if err != nil {
			return err
		}
		a, err := gs.SubmitGuess(code)
		if err != nil {
			return err
		}
		res = guessRes{Attempt: a, Game: gs.Snapshot()}
		return nil
	})
	if err != nil {
		writeGameErr(w, err)
		return
	}

	if res.Game.State.Terminal() {
		s.recordFinished(r, owner, res.Game)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// handleReset abandons the current game and starts a new secret in place.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var snap game.Snapshot
	err := s.store.Do(r.Context(), chi.URLParam(r, "id"), s.owner(w, r), func(gs *game.Session) error {
		if err := gs.Reset(); err != nil {
			return err
		}
		snap = gs.Snapshot()
		return nil
	})
	if err != nil {
		writeGameErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// recordFinished persists a finished game and (for users) bumps stats in a
// best-effort transaction. Failures are logged, never surfaced.
func (s *Server) recordFinished(r *http.Request, owner string, snap game.Snapshot) {
	logger := hlog.FromRequest(r).With().Str("gameId", snap.ID).Str("state", string(snap.State)).Logger()
	logger.Info().Int("attempts", len(snap.Attempts)).Msg("game finished")

	me := userFrom(r.Context())
	var userID, anonID any
	if me != nil {
		userID = me.ID
	} else {
		anonID = owner
	}

	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		logger.Warn().Err(err).Msg("begin record tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO games (id, session_id, user_id, anonymous_id, code_length, max_attempts, status, attempts, started_at, finished_at)
	                  VALUES (?,?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), snap.ID, userID, anonID, snap.Rules.CodeLength, snap.Rules.MaxAttempts,
		string(snap.State), len(snap.Attempts),
		snap.StartedAt.UTC().Format(time.RFC3339), s.now().UTC().Format(time.RFC3339))
	if err != nil {
		logger.Warn().Err(err).Msg("insert game row")
		return
	}
	if me != nil {
		if err := bumpStats(tx, me.ID, snap.State == game.StateWon, len(snap.Attempts)); err != nil {
			logger.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		logger.Warn().Err(err).Msg("commit record tx")
	}
}

// pruneIdle drops live sessions idle longer than the configured window.
func (s *Server) pruneIdle(ctx context.Context) {
	if s.cfg.Server.SessionIdleMin <= 0 {
		return
	}
	cutoff := s.now().Add(-time.Duration(s.cfg.Server.SessionIdleMin) * time.Minute)
	s.store.Prune(ctx, cutoff)
}
