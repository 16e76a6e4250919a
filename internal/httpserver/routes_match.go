// internal/httpserver/routes_match.go
//
// HTTP routes for match sessions, mounted under /matches:
//   - POST   /matches                → create a session and start its first game
//   - GET    /matches                → list session IDs
//   - GET    /matches/{id}           → state view (projected score, checkout, hint)
//   - POST   /matches/{id}/start     → new game on the same session (undoable)
//   - POST   /matches/{id}/darts     → add a dart to the turn in progress
//   - DELETE /matches/{id}/darts/last → remove the last dart
//   - POST   /matches/{id}/validate  → validate the turn (bust / win / normal)
//   - POST   /matches/{id}/undo      → undo the last start or validation
//   - POST   /matches/{id}/reset     → clear the match and its history
//   - POST   /matches/{id}/finish    → force the current player to win
//   - DELETE /matches/{id}           → drop the session
//   - GET    /matches/{id}/live      → websocket state feed (no timeout)
//
// Every successful mutation is saved, published to live watchers and
// answered with the new state view.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/darts/apps/go-server/internal/checkout"
	"github.com/robalobadob/darts/apps/go-server/internal/dart"
	"github.com/robalobadob/darts/apps/go-server/internal/game"
	"github.com/robalobadob/darts/apps/go-server/internal/store"
)

// mountMatches registers all /matches routes.
func (s *Server) mountMatches(r chi.Router, timeout func(http.Handler) http.Handler) {
	r.Route("/matches", func(r chi.Router) {
		r.Get("/{id}/live", s.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)

			r.Group(func(r chi.Router) {
				r.Use(s.requireScorer())
				r.Post("/{id}/start", s.handleStart)
				r.Post("/{id}/darts", s.handleAddDart)
				r.Delete("/{id}/darts/last", s.handleRemoveDart)
				r.Post("/{id}/validate", s.handleValidate)
				r.Post("/{id}/undo", s.handleUndo)
				r.Post("/{id}/reset", s.handleReset)
				r.Post("/{id}/finish", s.handleFinish)
				r.Delete("/{id}", s.handleDelete)
			})
		})
	})
}

// ------------------------------- views -------------------------------------

// dartView is a dart with its derived points and label.
type dartView struct {
	Base       int    `json:"base"`
	Multiplier string `json:"multiplier"`
	Points     int    `json:"points"`
	Label      string `json:"label"`
}

func viewDarts(ds []dart.Dart) []dartView {
	out := make([]dartView, len(ds))
	for i, d := range ds {
		out[i] = dartView{Base: d.Base, Multiplier: d.Multiplier.Letter(), Points: d.Points(), Label: d.Label()}
	}
	return out
}

// stateView is what clients render.
type stateView struct {
	MatchID   string          `json:"matchId"`
	Mode      game.Mode       `json:"mode"`
	DoubleOut bool            `json:"doubleOut"`
	Started   bool            `json:"started"`
	Players   []game.Player   `json:"players"`
	Current   int             `json:"current"`
	Turn      []dartView      `json:"turn"`
	TurnTotal int             `json:"turnTotal"`
	Projected *int            `json:"projected"`
	Checkout  []string        `json:"checkout"`
	Hint      string          `json:"hint"`
	Log       []game.LogEntry `json:"log"`
	CanUndo   bool            `json:"canUndo"`
}

// view builds the state view, asking the solver for a live suggestion.
// Callers hold s.mu.
func view(sess *store.Session) stateView {
	m := sess.Engine.Match()
	v := stateView{
		MatchID:   sess.ID,
		Mode:      m.Mode,
		DoubleOut: m.DoubleOut,
		Started:   m.Started,
		Players:   m.Players,
		Current:   m.Current,
		Turn:      viewDarts(m.Turn),
		TurnTotal: m.Turn.Total(),
		Checkout:  []string{},
		Hint:      m.Hint(),
		Log:       sess.Engine.Log(),
		CanUndo:   sess.Engine.CanUndo(),
	}
	if v.Players == nil {
		v.Players = []game.Player{}
	}
	if v.Log == nil {
		v.Log = []game.LogEntry{}
	}
	if projected, ok := sess.Engine.ProjectedRemaining(); ok {
		v.Projected = &projected
		if m.Mode.Countdown() {
			if sug, found := checkout.BestCheckout(projected, m.DoubleOut); found {
				v.Checkout = sug.Codes()
			}
		}
	}
	return v
}

// outcomeView is a validated turn with a ready-made log line.
type outcomeView struct {
	Kind       game.OutcomeKind `json:"kind"`
	Player     int              `json:"player"`
	Name       string           `json:"name"`
	Darts      []dartView       `json:"darts"`
	Total      int              `json:"total"`
	StartScore int              `json:"startScore"`
	Score      int              `json:"score"`
	Reason     string           `json:"reason,omitempty"`
	Summary    string           `json:"summary"`
}

func viewOutcome(o game.Outcome) *outcomeView {
	return &outcomeView{
		Kind:       o.Kind,
		Player:     o.Player,
		Name:       o.Name,
		Darts:      viewDarts(o.Darts),
		Total:      o.Total,
		StartScore: o.StartScore,
		Score:      o.Score,
		Reason:     o.Reason,
		Summary:    o.Summary(),
	}
}

type actionRes struct {
	State   stateView    `json:"state"`
	Outcome *outcomeView `json:"outcome,omitempty"`
}

// ------------------------------ errors -------------------------------------

// writeGameError maps engine errors to status codes. None of them change state.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidConfig):
		http.Error(w, `{"error":"invalid_config"}`, http.StatusBadRequest)
	case errors.Is(err, game.ErrNoGame):
		http.Error(w, `{"error":"no_game"}`, http.StatusConflict)
	case errors.Is(err, game.ErrTurnFull):
		http.Error(w, `{"error":"turn_full"}`, http.StatusConflict)
	case errors.Is(err, game.ErrIllegalDart):
		http.Error(w, `{"error":"illegal_dart"}`, http.StatusBadRequest)
	case errors.Is(err, game.ErrEmptyTurn):
		http.Error(w, `{"error":"empty_turn"}`, http.StatusConflict)
	case errors.Is(err, game.ErrNothingToUndo):
		http.Error(w, `{"error":"nothing_to_undo"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("unexpected engine error")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// ------------------------------ create/read --------------------------------

// startReq is the game configuration accepted at game start.
type startReq struct {
	Mode        string   `json:"mode"`
	DoubleOut   *bool    `json:"doubleOut"` // default true
	PlayerCount int      `json:"playerCount"`
	Names       []string `json:"names"`
}

func (q startReq) config() (game.Config, error) {
	mode, err := game.ParseMode(q.Mode)
	if err != nil {
		return game.Config{}, err
	}
	doubleOut := true
	if q.DoubleOut != nil {
		doubleOut = *q.DoubleOut
	}
	return game.Config{Mode: mode, DoubleOut: doubleOut, PlayerCount: q.PlayerCount, Names: q.Names}, nil
}

type createRes struct {
	MatchID   string    `json:"matchId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	State     stateView `json:"state"`
}

// handleCreate starts a game on a new session and hands out its scorer token.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	cfg, err := req.config()
	if err != nil {
		writeGameError(w, err)
		return
	}

	sess := store.NewSession(game.WithUndoDepth(s.cfg.UndoDepth))
	if err := sess.Engine.StartGame(cfg); err != nil {
		writeGameError(w, err)
		return
	}
	tok, exp, err := s.signScorerToken(sess.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign scorer token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	state := view(sess) // before Save publishes the session to other requests
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save match")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("match", sess.ID).Str("mode", string(cfg.Mode)).Int("players", cfg.PlayerCount).Msg("match created")

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createRes{MatchID: sess.ID, Token: tok, ExpiresAt: exp.UTC(), State: state})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ids, err := s.store.List(r.Context())
	s.mu.RUnlock()
	if err != nil {
		log.Error().Err(err).Msg("list matches")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string][]string{"matches": ids})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(view(sess))
}

// handleLive upgrades to a websocket and streams the state view. The watcher
// joins under the read lock, so it gets either the state before a mutation
// and then its publish, or the state after it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	_, err := s.store.Get(r.Context(), id)
	s.mu.RUnlock()
	if err != nil {
		writeStoreError(w, err)
		return
	}

	c, err := s.hub.Upgrade(w, r)
	if err != nil {
		log.Warn().Err(err).Str("match", id).Msg("live upgrade")
		return
	}

	s.mu.RLock()
	sess, err := s.store.Get(r.Context(), id)
	if err == nil {
		s.hub.Join(id, c, view(sess))
	}
	s.mu.RUnlock()
	if err != nil {
		// Deleted between the check and the upgrade.
		c.Reject(websocket.CloseGoingAway, "match gone")
		return
	}
	s.hub.Watch(id, c)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("load match")
	http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
}

// ------------------------------ mutations ----------------------------------

// mutate loads the session, runs fn on its engine, then saves and publishes.
// fn may return an outcome to include in the response.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(e *game.Engine) (*game.Outcome, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out, err := fn(sess.Engine)
	if err != nil {
		writeGameError(w, err)
		return
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Str("match", id).Msg("save match")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	res := actionRes{State: view(sess)}
	if out != nil {
		res.Outcome = viewOutcome(*out)
		scorer, _ := r.Context().Value(ctxScorerKey{}).(string)
		log.Debug().Str("match", scorer).Str("player", out.Name).
			Str("outcome", string(out.Kind)).Int("total", out.Total).Msg("turn validated")
	}
	s.hub.Publish(id, res.State)
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	cfg, err := req.config()
	if err != nil {
		writeGameError(w, err)
		return
	}
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		return nil, e.StartGame(cfg)
	})
}

// addDartReq is {base, multiplier}; multiplier is "S"/"D"/"T" and defaults to S.
type addDartReq struct {
	Base       int    `json:"base"`
	Multiplier string `json:"multiplier"`
}

func (s *Server) handleAddDart(w http.ResponseWriter, r *http.Request) {
	var req addDartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	mult := dart.Single
	if req.Multiplier != "" {
		m, err := dart.ParseMultiplier(req.Multiplier)
		if err != nil {
			writeGameError(w, err)
			return
		}
		mult = m
	}
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		return nil, e.AddDart(req.Base, mult)
	})
}

func (s *Server) handleRemoveDart(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		e.RemoveLastDart()
		return nil, nil
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		out, err := e.ValidateTurn()
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		return nil, e.Undo()
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		e.Reset()
		return nil, nil
	})
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) (*game.Outcome, error) {
		out, err := e.ForceFinish()
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.hub.Drop(id)
	log.Info().Str("match", id).Msg("match deleted")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
