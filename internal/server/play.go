package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/treesleuth/internal/catalog"
	"github.com/playperu/treesleuth/internal/game"
	"github.com/playperu/treesleuth/internal/leaderboard"
	"github.com/playperu/treesleuth/internal/progress"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

var (
	errUnknownAction     = errors.New("unknown action")
	errUnknownMode       = errors.New("unknown mode")
	errUnknownCategory   = errors.New("unknown category")
	errUnknownEvidence   = errors.New("unknown evidence type")
	errUnknownScene      = errors.New("unknown scene")
	errInvalidConfidence = errors.New("confidence must be 50, 75 or 90")
	errMissingGuess      = errors.New("speciesId or name is required")
	errNoCase            = errors.New("no case in progress")
	errDailyPlayed       = errors.New("today's daily case is already played")
)

// Action types accepted by Apply.
const (
	actionStart    = "start"
	actionReveal   = "reveal"
	actionGuess    = "guess"
	actionNext     = "next"
	actionScene    = "scene"
	actionReset    = "reset"
	actionCategory = "category"
	actionComplete = "complete"
)

// ActionRequest is a player action as sent over HTTP or WebSocket. Only the
// fields of the given Type are read.
type ActionRequest struct {
	Type         string                  `json:"type"`
	Mode         game.Mode               `json:"mode,omitempty"`
	Category     string                  `json:"category,omitempty"`
	EvidenceType treesleuth.EvidenceType `json:"evidenceType,omitempty"`
	SpeciesID    string                  `json:"speciesId,omitempty"`
	Name         string                  `json:"name,omitempty"`
	Confidence   treesleuth.Confidence   `json:"confidence,omitempty"`
	Scene        game.Scene              `json:"scene,omitempty"`
	CategoryID   string                  `json:"categoryId,omitempty"`
}

type PlayConfig struct {
	CaseSeconds  int
	TickInterval time.Duration
	SessionTTL   time.Duration
}

// Play runs the sessions: it picks species, drives countdowns, fans cues out
// to subscribers and records finished cases.
type Play struct {
	catalog  *catalog.Catalog
	store    *progress.Store
	ranker   leaderboard.Ranker
	sessions *Registry
	broker   *Broker
	logger   *slog.Logger
	cfg      PlayConfig
	now      func() time.Time

	// ctx bounds countdown goroutines and background writes.
	ctx context.Context
}

func NewPlay(ctx context.Context, logger *slog.Logger, cat *catalog.Catalog, store *progress.Store, ranker leaderboard.Ranker, cfg PlayConfig) *Play {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	return &Play{
		catalog:  cat,
		store:    store,
		ranker:   ranker,
		sessions: NewRegistry(),
		broker:   NewBroker(),
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		ctx:      ctx,
	}
}

// NewSession creates a session. A non-empty playerID resumes that player's
// stored progress; it must be a UUID.
func (p *Play) NewSession(name, playerID string) (*Session, error) {
	if playerID == "" {
		playerID = uuid.NewString()
	} else if _, err := uuid.Parse(playerID); err != nil {
		return nil, fmt.Errorf("invalid player id: %w", err)
	}
	if name == "" {
		name = "Sleuth " + playerID[:4]
	}

	s := &Session{
		ID:    playerID,
		Token: uuid.NewString(),
		Name:  name,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	s.machine = game.NewMachine(game.NewState(p.cfg.CaseSeconds), p.sink(s))
	s.touch(p.now())
	s = p.sessions.Add(s)

	p.logger.Info("session created", "player", s.ID, "name", s.Name)
	return s, nil
}

// Session looks up a live session by token and marks it active.
func (p *Play) Session(token string) (*Session, bool) {
	s, ok := p.sessions.Get(token)
	if ok {
		s.touch(p.now())
	}
	return s, ok
}

func (p *Play) View(s *Session) StateView {
	return newStateView(p.catalog, s.machine.State(), s.Candidates())
}

func (p *Play) sink(s *Session) game.CueSink {
	return func(st game.State, cues []game.Cue) {
		s.touch(p.now())

		// A finished case is in progress before subscribers hear of it.
		if st.Case != nil && st.Case.Complete && s.markRecorded(st.Case.Number) {
			p.record(s, st)
		}

		view := newStateView(p.catalog, st, s.Candidates())
		p.broker.Publish(s.ID, Event{Type: eventState, Cues: cues, State: &view})
	}
}

// record persists a finished case. Failures are logged; the game goes on.
func (p *Play) record(s *Session, st game.State) {
	at := p.now()
	r, ok := progress.ResultFrom(st, at)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), 5*time.Second)
	defer cancel()

	if _, err := p.store.Record(ctx, s.ID, r); err != nil {
		p.logger.Error("recording result", "player", s.ID, "error", err)
	}

	var err error
	switch r.Mode {
	case game.ModeDaily:
		err = p.ranker.Submit(ctx, leaderboard.BoardDaily, at, s.ID, s.Name, r.Score)
	case game.ModeExpedition:
		err = p.ranker.Submit(ctx, leaderboard.BoardExpedition, at, s.ID, s.Name, r.RunScore)
	}
	if err != nil {
		p.logger.Warn("submitting score", "player", s.ID, "error", err)
	}
}

// Apply validates req and dispatches it to the session's machine. It returns
// the cues of the transition; none means the action was ignored.
func (p *Play) Apply(ctx context.Context, s *Session, req ActionRequest) ([]game.Cue, error) {
	m := s.machine
	at := p.now()

	switch req.Type {
	case actionStart:
		return p.start(ctx, s, req.Mode, req.Category)

	case actionReveal:
		if !req.EvidenceType.Valid() {
			return nil, errUnknownEvidence
		}
		if !m.CaseActive() {
			return nil, errNoCase
		}
		return m.Dispatch(game.RevealEvidence{Type: req.EvidenceType, At: at}), nil

	case actionGuess:
		if !req.Confidence.Valid() {
			return nil, errInvalidConfidence
		}
		id, err := p.resolveGuess(req.SpeciesID, req.Name)
		if err != nil {
			return nil, err
		}
		if !m.CaseActive() {
			return nil, errNoCase
		}
		return m.Dispatch(game.MakeGuess{SpeciesID: id, Confidence: req.Confidence, At: at}), nil

	case actionNext:
		s.stopCountdown()
		return m.Dispatch(game.NextTree{}), nil

	case actionScene:
		if !req.Scene.Valid() {
			return nil, errUnknownScene
		}
		return m.Dispatch(game.SetScene{Scene: req.Scene}), nil

	case actionReset:
		s.stopCountdown()
		return m.Dispatch(game.ResetGame{}), nil

	case actionCategory:
		if _, ok := catalog.CategoryFilter(req.CategoryID); !ok {
			return nil, errUnknownCategory
		}
		return m.Dispatch(game.SetPracticeCategory{CategoryID: req.CategoryID}), nil

	case actionComplete:
		return m.Dispatch(game.CompleteCase{}), nil
	}
	return nil, errUnknownAction
}

// resolveGuess maps a guess to a species id. A name that matches nothing is
// kept as typed and simply scores as wrong.
func (p *Play) resolveGuess(speciesID, name string) (string, error) {
	if speciesID != "" {
		return speciesID, nil
	}
	if name == "" {
		return "", errMissingGuess
	}
	if sp, ok := p.catalog.Resolve(name); ok {
		return sp.ID, nil
	}
	return name, nil
}

func (p *Play) start(ctx context.Context, s *Session, mode game.Mode, category string) ([]game.Cue, error) {
	if !mode.Valid() {
		return nil, errUnknownMode
	}
	s.startMu.Lock()
	defer s.startMu.Unlock()

	at := p.now()
	settings := p.store.Settings(ctx, s.ID)

	if mode == game.ModeDaily && p.store.Progress(ctx, s.ID).PlayedDaily(at) {
		return nil, errDailyPlayed
	}

	if mode == game.ModePractice && category != "" {
		if _, ok := catalog.CategoryFilter(category); !ok {
			return nil, errUnknownCategory
		}
		s.machine.Dispatch(game.SetPracticeCategory{CategoryID: category})
	}

	s.mu.Lock()
	species, err := p.pickSpecies(s.rng, mode, s.machine.State().PracticeCategory, settings.PreferredRegion, at)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.candidates = summarize(p.catalog.Candidates(s.rng, species, settings.Difficulty.CandidateCount()))
	s.mu.Unlock()

	start := game.StartGame{Mode: mode, Species: species, At: at}
	if mode == game.ModeExpedition {
		start.Region = settings.PreferredRegion
	}

	cd := s.machine.Start(start)
	if cd == nil {
		return nil, nil
	}

	cctx, cancel := context.WithCancel(p.ctx)
	s.setCountdown(cancel)
	go func() {
		defer cancel()
		if err := cd.RunEvery(cctx, p.cfg.TickInterval); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn("countdown stopped", "player", s.ID, "error", err)
		}
	}()

	p.logger.Debug("case started", "player", s.ID, "mode", mode, "species", species.ID)
	return []game.Cue{game.CueSelect}, nil
}

func (p *Play) pickSpecies(rng *rand.Rand, mode game.Mode, category string, region treesleuth.Region, at time.Time) (treesleuth.TreeSpecies, error) {
	switch mode {
	case game.ModeDaily:
		return p.catalog.Daily(at)

	case game.ModePractice:
		filter, ok := catalog.CategoryFilter(category)
		if !ok {
			return treesleuth.TreeSpecies{}, errUnknownCategory
		}
		return p.catalog.Random(rng, filter)

	case game.ModeExpedition:
		sp, err := p.catalog.Random(rng, func(s treesleuth.TreeSpecies) bool { return s.InRegion(region) })
		if errors.Is(err, catalog.ErrEmpty) {
			return p.catalog.Random(rng, nil)
		}
		return sp, err
	}
	return p.catalog.Random(rng, nil)
}

// RunReaper drops sessions idle for longer than the session TTL until ctx is
// done.
func (p *Play) RunReaper(ctx context.Context) error {
	interval := min(p.cfg.SessionTTL/4, time.Minute)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			// Closing the event channels ends open SSE and WebSocket streams
			// so the HTTP server can drain.
			for _, s := range p.sessions.Close() {
				p.broker.Close(s.ID)
			}
			return nil
		case <-t.C:
			p.reap()
		}
	}
}

func (p *Play) reap() int {
	reaped := p.sessions.Reap(p.now().Add(-p.cfg.SessionTTL))
	for _, s := range reaped {
		p.broker.Close(s.ID)
	}
	if len(reaped) > 0 {
		p.logger.Info("reaped idle sessions", "count", len(reaped), "remaining", p.sessions.Len())
	}
	return len(reaped)
}
