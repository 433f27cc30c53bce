// Package combat implements the real-time hybrid combat loop: light player
// turns against enemies on independent attack timers, with quick-time-event
// challenges on both offense and defense. All time inside the loop is
// simulated minutes from the session clock; only the inactivity rule and the
// background ticker observe real time.
package combat

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/secondavita/engine/internal/clock"
	"github.com/secondavita/engine/internal/observability"
)

// Engine owns the live combat sessions and their background tick tasks.
// Sessions are independent; the engine only routes by ID and manages
// ticker lifecycles.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*Session
	tickers  map[string]*Ticker

	clk          *clock.Clock
	settings     Settings
	tickInterval time.Duration
	logger       *zap.Logger
}

// NewEngine creates an Engine driving sessions from clk at tickInterval.
//
// Precondition: clk and logger must be non-nil; tickInterval > 0.
func NewEngine(clk *clock.Clock, settings Settings, tickInterval time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		sessions:     make(map[string]*Session),
		tickers:      make(map[string]*Ticker),
		clk:          clk,
		settings:     settings,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// StartSession creates a session for player, registers it, and starts its
// background ticker.
func (g *Engine) StartSession(player *PlayerState, seed int64) *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := NewSession(g.clk, player, seed, g.settings, g.logger)
	s.logger = observability.SessionLogger(g.logger, s.ID)
	t := NewTicker(g.tickInterval, func() { g.tickSession(s.ID) })
	g.sessions[s.ID] = s
	g.tickers[s.ID] = t
	t.Start()
	g.logger.Info("combat session started", zap.String("combat_session", s.ID))
	return s
}

// tickSession runs one tick for the identified session. A stale callback for
// a removed or ended session is a safe no-op; an ended session also tears
// down its ticker registration.
func (g *Engine) tickSession(id string) {
	g.mu.Lock()
	s, ok := g.sessions[id]
	g.mu.Unlock()
	if !ok {
		return
	}
	s.Tick()
	if ended, _ := s.Ended(); ended {
		g.remove(id, "")
	}
}

// Get returns the session with the given ID.
func (g *Engine) Get(id string) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	return s, ok
}

// Len returns the number of registered sessions.
func (g *Engine) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// EndSession force-destroys a session, stopping its ticker. Sessions that
// already ended on their own (victory, flee, death) are torn down by their
// ticker; calling EndSession on them, or on an unknown ID, is a no-op.
func (g *Engine) EndSession(id string) {
	g.remove(id, "aborted")
}

// remove unregisters the session and stops its ticker. When result is
// non-empty the session is ended with it first.
func (g *Engine) remove(id, result string) {
	g.mu.Lock()
	s, ok := g.sessions[id]
	t := g.tickers[id]
	delete(g.sessions, id)
	delete(g.tickers, id)
	g.mu.Unlock()
	if !ok {
		return
	}
	if t != nil {
		t.Stop()
	}
	if result != "" {
		s.End(result)
	}
	g.logger.Info("combat session removed", zap.String("combat_session", id))
}

// Shutdown stops every ticker and drops all sessions. In-flight callbacks may
// complete; no further ticks fire.
func (g *Engine) Shutdown() {
	g.mu.Lock()
	ids := make([]string, 0, len(g.sessions))
	for id := range g.sessions {
		ids = append(ids, id)
	}
	g.mu.Unlock()
	for _, id := range ids {
		g.remove(id, "aborted")
	}
}
