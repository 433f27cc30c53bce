package combat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/secondavita/engine/internal/clock"
	"github.com/secondavita/engine/internal/config"
	"github.com/secondavita/engine/internal/game/assets"
	"github.com/secondavita/engine/internal/game/rng"
)

// Settings carries the tunable combat parameters a Session is created with.
// Values come from configuration; DefaultSettings matches the shipped defaults.
type Settings struct {
	// InactivityAttackSeconds is the real-time idle threshold after which
	// every live enemy's next attack is pulled to now.
	InactivityAttackSeconds float64
	// AttackAllCooldownFloorMinutes is the minimum area-attack cooldown.
	AttackAllCooldownFloorMinutes float64
	// ComplexQTECodes switches offense/defense challenges from single-key
	// prompts to generated alphanumeric codes.
	ComplexQTECodes bool
	// QTECodeLengthMin/Max bound generated code length.
	QTECodeLengthMin int
	QTECodeLengthMax int
	// QTEAlphabet is the character set generated codes are drawn from.
	QTEAlphabet string
	// DefensiveQTEWindowMinutes is the default defense window for mobs that
	// do not specify one.
	DefensiveQTEWindowMinutes float64
	// OffensiveQTEWindowMinutes is the window granted to offense challenges.
	OffensiveQTEWindowMinutes float64
	// Reinforcement is the probabilistic reinforcement policy.
	Reinforcement ReinforcementPolicy
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		InactivityAttackSeconds:       3,
		AttackAllCooldownFloorMinutes: 2,
		ComplexQTECodes:               false,
		QTECodeLengthMin:              3,
		QTECodeLengthMax:              5,
		QTEAlphabet:                   "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		DefensiveQTEWindowMinutes:     4,
		OffensiveQTEWindowMinutes:     4,
		Reinforcement:                 DefaultReinforcementPolicy(),
	}
}

// SettingsFromConfig maps the loaded combat configuration onto Settings.
func SettingsFromConfig(c config.CombatConfig) Settings {
	return Settings{
		InactivityAttackSeconds:       c.InactivityAttackSeconds,
		AttackAllCooldownFloorMinutes: c.AttackAllCooldownFloorMinutes,
		ComplexQTECodes:               c.QTE.ComplexCodes,
		QTECodeLengthMin:              c.QTE.CodeLengthMin,
		QTECodeLengthMax:              c.QTE.CodeLengthMax,
		QTEAlphabet:                   c.QTE.Alphabet,
		DefensiveQTEWindowMinutes:     c.QTE.DefensiveWindowMinutes,
		OffensiveQTEWindowMinutes:     c.QTE.OffensiveWindowMinutes,
		Reinforcement: ReinforcementPolicy{
			BaseChance:           c.Reinforcement.BaseChance,
			LongFightBonus:       c.Reinforcement.LongFightBonus,
			LongFightMinutes:     c.Reinforcement.LongFightMinutes,
			VeryLongFightBonus:   c.Reinforcement.VeryLongFightBonus,
			VeryLongFightMinutes: c.Reinforcement.VeryLongFightMinutes,
			LastEnemyBonus:       c.Reinforcement.LastEnemyBonus,
			MinIntervalMinutes:   c.Reinforcement.MinIntervalMinutes,
		},
	}
}

// Session is the aggregate owning one combat encounter: the enemy list,
// distance, focus, the active quick-time-event, and the seeded RNG stream.
//
// A single logical owner governs a Session; the background tick task and the
// foreground command path are serialized through the session mutex. Every
// exported operation is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	// ID uniquely identifies the session.
	ID string

	clk      *clock.Clock
	stream   *rng.Stream
	log      *EventLog
	logger   *zap.Logger
	settings Settings

	player  *PlayerState
	enemies []*Enemy

	distance   int
	focusIndex int
	activeQTE  *Challenge

	startedTotal     float64
	lastPlayerAction time.Time
	lastTickTotal    float64

	// attackAllReadyTotal is the simulated minute the area attack unlocks at.
	attackAllReadyTotal float64
	// lastReinforcementTotal is the last reinforcement success; negative
	// infinity semantics are represented by startedTotal - policy interval.
	lastReinforcementTotal float64
	reinforced             bool

	// nameCounts tracks display-name duplicates for the _2, _3 suffixes.
	nameCounts map[string]int

	// reinforceProfile is the profile reinforcements are drawn from, captured
	// on the first spawn of the session.
	reinforceProfile *assets.MobProfile

	ended     bool
	endResult string
}

// NewSession creates an empty session bound to clk and seeded with seed.
// The session emits no events until the first enemy spawn.
//
// Precondition: clk, player, and logger must be non-nil.
func NewSession(clk *clock.Clock, player *PlayerState, seed int64, settings Settings, logger *zap.Logger) *Session {
	now := clk.NowTotalMinutes()
	s := &Session{
		ID:               uuid.NewString(),
		clk:              clk,
		stream:           rng.NewStream(seed),
		log:              NewEventLog(logger),
		logger:           logger,
		settings:         settings,
		player:           player,
		focusIndex:       0,
		startedTotal:     now,
		lastPlayerAction: clk.RealNow(),
		lastTickTotal:    now,
		nameCounts:       make(map[string]int),
	}
	s.lastReinforcementTotal = now - settings.Reinforcement.MinIntervalMinutes
	return s
}

// Events returns the session's append-only event log.
func (s *Session) Events() *EventLog { return s.log }

// Player returns a copy of the player's combat state taken under the session
// lock. Mutation belongs to session operations.
func (s *Session) Player() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.player
}

// Ended reports whether the session has been destroyed (victory, flee, death).
func (s *Session) Ended() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended, s.endResult
}

// Distance returns the current player-enemy distance.
func (s *Session) Distance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.distance
}

// Enemies returns value snapshots of the enemy list in spawn order, taken
// under the session lock. The background tick task keeps mutating the live
// enemies; callers never observe one mid-update.
func (s *Session) Enemies() []Enemy {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Enemy, len(s.enemies))
	for i, e := range s.enemies {
		cp[i] = e.snapshot()
	}
	return cp
}

// ActiveQTE returns a copy of the active challenge, or nil.
func (s *Session) ActiveQTE() *Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeQTE == nil {
		return nil
	}
	cp := *s.activeQTE
	return &cp
}

// FirstLiveEnemy returns a snapshot of the lowest-index live enemy. This is
// the derived read-only view that replaces the legacy "primary enemy" alias.
func (s *Session) FirstLiveEnemy() (Enemy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.firstLiveLocked(); e != nil {
		return e.snapshot(), true
	}
	return Enemy{}, false
}

func (s *Session) firstLiveLocked() *Enemy {
	for _, e := range s.enemies {
		if e.Alive() {
			return e
		}
	}
	return nil
}

func (s *Session) liveCountLocked() int {
	n := 0
	for _, e := range s.enemies {
		if e.Alive() {
			n++
		}
	}
	return n
}

// SetSeed reseeds the session's RNG stream. Test-only determinism hook.
func (s *Session) SetSeed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream.Reseed(seed)
}

// SpawnEnemy adds count enemies built from profile, emitting combat_started
// on the first spawn of the session.
//
// Precondition: profile must be normalized and validated; count >= 1.
// Postcondition: Returns snapshots of the spawned enemies, or a ValidationError.
func (s *Session) SpawnEnemy(profile *assets.MobProfile, count int) ([]Enemy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, ErrSessionEnded
	}
	if profile == nil {
		return nil, &ValidationError{Field: "enemy", Reason: "unknown profile"}
	}
	if count < 1 {
		return nil, &ValidationError{Field: "count", Reason: fmt.Sprintf("must be >= 1, got %d", count)}
	}

	now := s.clk.NowTotalMinutes()
	first := len(s.enemies) == 0
	if first {
		s.reinforceProfile = profile
	}
	spawned := make([]Enemy, 0, count)
	for i := 0; i < count; i++ {
		e := s.buildEnemyLocked(profile, now, 0)
		s.enemies = append(s.enemies, e)
		spawned = append(spawned, e.snapshot())
	}

	if first {
		s.appendLocked(Event{
			Event:        EventCombatStarted,
			TotalMinutes: now,
			Payload:      map[string]any{"enemy": profile.ID, "count": count},
		})
	}
	s.logger.Info("enemies spawned",
		zap.String("profile", profile.ID),
		zap.Int("count", count),
		zap.Int("total", len(s.enemies)),
	)
	return spawned, nil
}

// buildEnemyLocked is the single enemy constructor shared by manual spawns,
// reinforcements, and the area spawn system. jitter shifts the first attack
// time to desynchronize defense windows.
func (s *Session) buildEnemyLocked(profile *assets.MobProfile, now, jitter float64) *Enemy {
	window := profile.DefensiveQTEWindow
	if window <= 0 {
		window = s.settings.DefensiveQTEWindowMinutes
	}
	name := profile.Name
	s.nameCounts[profile.Name]++
	if n := s.nameCounts[profile.Name]; n > 1 {
		name = fmt.Sprintf("%s_%d", profile.Name, n)
	}
	e := &Enemy{
		ID:                       uuid.NewString(),
		ProfileID:                profile.ID,
		Name:                     name,
		HP:                       profile.HP,
		MaxHP:                    profile.HP,
		Attack:                   profile.Attack,
		AttackIntervalMinutes:    profile.AttackIntervalMinutes,
		AttackIntervalMultiplier: profile.AttackIntervalMultiplier,
		DefensiveQTEWindow:       window,
		AttackDamageMultiplier:   profile.AttackDamageMultiplier,
		QTEChance:                profile.QTEChance,
		QTEPrompts:               profile.QTEPrompts,
		State:                    StateIdle,
	}
	e.NextAttackTotal = now + e.EffectiveInterval() + jitter
	return e
}

// Focus sets the focused enemy by 1-based index among all enemies.
//
// Postcondition: On success the focus_set event is emitted; a dead or
// out-of-range index yields a ValidationError with no mutation.
func (s *Session) Focus(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	s.touchLocked()
	if index < 1 || index > len(s.enemies) {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("index %d out of range 1..%d", index, len(s.enemies))}
	}
	e := s.enemies[index-1]
	if !e.Alive() {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("enemy %d is defeated", index)}
	}
	s.focusIndex = index - 1
	s.appendLocked(Event{
		Event:        EventFocusSet,
		TotalMinutes: s.clk.NowTotalMinutes(),
		Payload:      map[string]any{"index": index, "enemy": e.Name},
	})
	return nil
}

// FocusIndex returns the 0-based index of the focused enemy.
func (s *Session) FocusIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focusIndex
}

// targetLocked resolves the enemy a bare attack hits: the explicit 1-based
// target when given, else the focus if alive, else the lowest-index live enemy.
func (s *Session) targetLocked(target int) (int, *Enemy, error) {
	if target != 0 {
		if target < 1 || target > len(s.enemies) {
			return 0, nil, &ValidationError{Field: "target", Reason: fmt.Sprintf("index %d out of range 1..%d", target, len(s.enemies))}
		}
		e := s.enemies[target-1]
		if !e.Alive() {
			return 0, nil, &ValidationError{Field: "target", Reason: fmt.Sprintf("enemy %d is defeated", target)}
		}
		return target - 1, e, nil
	}
	if s.focusIndex < len(s.enemies) && s.enemies[s.focusIndex].Alive() {
		return s.focusIndex, s.enemies[s.focusIndex], nil
	}
	for i, e := range s.enemies {
		if e.Alive() {
			return i, e, nil
		}
	}
	return 0, nil, &ValidationError{Field: "target", Reason: "no live enemies"}
}

// touchLocked records player activity for the inactivity rule.
func (s *Session) touchLocked() {
	s.lastPlayerAction = s.clk.RealNow()
}

func (s *Session) appendLocked(e Event) {
	s.log.Append(e)
}

// afterDefeatLocked handles the bookkeeping shared by every damage path:
// cancelling a defense window whose enemy fell, focus auto-switch when the
// focused enemy fell, and session end when no live enemies remain.
func (s *Session) afterDefeatLocked(now float64) {
	if q := s.activeQTE; q != nil && q.Kind == KindDefense &&
		q.EnemyIndex < len(s.enemies) && !s.enemies[q.EnemyIndex].Alive() {
		// The pending attack dies with its attacker.
		s.activeQTE = nil
	}
	if s.liveCountLocked() == 0 {
		s.endLocked(now, "victory")
		return
	}
	if s.focusIndex < len(s.enemies) && !s.enemies[s.focusIndex].Alive() {
		for i, e := range s.enemies {
			if e.Alive() {
				s.focusIndex = i
				s.appendLocked(Event{
					Event:        EventFocusAutoSwitch,
					TotalMinutes: now,
					Payload:      map[string]any{"index": i + 1, "enemy": e.Name},
				})
				break
			}
		}
	}
}

// End destroys the session with the given result. Idempotent.
func (s *Session) End(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked(s.clk.NowTotalMinutes(), result)
}

// endLocked destroys the session: the active challenge is cleared atomically
// with the ended flag, so pending tick callbacks become no-ops.
func (s *Session) endLocked(now float64, result string) {
	if s.ended {
		return
	}
	s.ended = true
	s.endResult = result
	s.activeQTE = nil
	s.appendLocked(Event{
		Event:        EventCombatEnded,
		TotalMinutes: now,
		Payload:      map[string]any{"result": result},
	})
	s.logger.Info("combat ended", zap.String("result", result))
}

// clampLocked enforces the defensive invariants: non-negative distance and
// hp. Violations are logged since they indicate a scheduling bug.
func (s *Session) clampLocked() {
	if s.distance < 0 {
		s.logger.Warn("distance clamped", zap.Int("was", s.distance))
		s.distance = 0
	}
	if s.player.HP < 0 {
		s.logger.Warn("player hp clamped", zap.Int("was", s.player.HP))
		s.player.HP = 0
	}
}
