package combat

import (
	"sync"

	"go.uber.org/zap"
)

// Event names produced by the engine.
const (
	EventCombatStarted        = "combat_started"
	EventCombatEnded          = "combat_ended"
	EventPlayerAttack         = "player_attack"
	EventAreaAttack           = "area_attack"
	EventThrow                = "throw"
	EventThrowSplash          = "throw_splash"
	EventHeavyCleave          = "heavy_cleave"
	EventStatusTick           = "status_tick"
	EventQTEOffenseSuccess    = "qte_offense_success"
	EventQTEOffenseFail       = "qte_offense_fail"
	EventQTEDefenseSuccess    = "qte_defense_success"
	EventQTEDefenseFail       = "qte_defense_fail"
	EventIncomingAttack       = "incoming_attack"
	EventFocusSet             = "focus_set"
	EventFocusAutoSwitch      = "focus_auto_switch"
	EventReinforcementSpawned = "reinforcement_spawned"
	EventEnemyAdvance         = "enemy_advance"
	EventFleeFailed           = "flee_failed"
	EventPush                 = "push"
	EventReload               = "reload"
)

// Event is one append-only telemetry record.
type Event struct {
	// Type is always "combat" for entries produced by this package.
	Type string `json:"type"`
	// Event is the event name, one of the Event* constants.
	Event string `json:"event"`
	// TotalMinutes is the simulated-minute timestamp of the event.
	TotalMinutes float64 `json:"total_minutes"`
	// Payload carries event-specific fields.
	Payload map[string]any `json:"payload,omitempty"`
}

// EventLog is an append-only structured sink consumed by telemetry and tests.
// It is safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []Event
	logger *zap.Logger
}

// NewEventLog creates an empty EventLog mirroring appends to logger at debug level.
//
// Precondition: logger must be non-nil (use zap.NewNop() to discard).
func NewEventLog(logger *zap.Logger) *EventLog {
	return &EventLog{logger: logger}
}

// Append records an event. The Type field is forced to "combat".
func (l *EventLog) Append(e Event) {
	e.Type = "combat"
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
	l.logger.Debug("combat event",
		zap.String("event", e.Event),
		zap.Float64("total_minutes", e.TotalMinutes),
		zap.Any("payload", e.Payload),
	)
}

// Snapshot returns a copy of all events appended so far.
func (l *EventLog) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]Event, len(l.events))
	copy(cp, l.events)
	return cp
}

// Len returns the number of events appended so far.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Names returns the ordered event names, a compact form for determinism checks.
func (l *EventLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.events))
	for i, e := range l.events {
		names[i] = e.Event
	}
	return names
}
