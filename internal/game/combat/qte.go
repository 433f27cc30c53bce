package combat

import (
	"strings"

	"go.uber.org/zap"

	"github.com/secondavita/engine/internal/game/assets"
)

// ChallengeKind distinguishes offense challenges (earn a bonus) from defense
// challenges (avoid an incoming attack).
type ChallengeKind int

const (
	// KindOffense challenges open after a successful player attack.
	KindOffense ChallengeKind = iota
	// KindDefense challenges open when an enemy attack comes due.
	KindDefense
)

// String returns a human-readable kind label.
func (k ChallengeKind) String() string {
	if k == KindDefense {
		return "defense"
	}
	return "offense"
}

// Challenge is one active quick-time-event. At most one Challenge is active
// per session; while an offense challenge is open all enemy timers are
// suspended session-wide.
type Challenge struct {
	Kind ChallengeKind
	// EnemyIndex is the 0-based index of the enemy the challenge concerns.
	EnemyIndex int
	// Prompt is the text presented to the player.
	Prompt string
	// Expected is the code that resolves the challenge successfully.
	Expected string
	// Effect is the offense bonus granted on success; empty for defense.
	Effect assets.QTEEffect
	// WindowEndTotal and CreatedTotal are simulated-minute timestamps.
	WindowEndTotal float64
	CreatedTotal   float64

	// suspendMark tracks how far timer suspension has been accounted for
	// while an offense challenge is open.
	suspendMark float64
}

// QTEOutcome is the result of resolving a challenge input.
type QTEOutcome int

const (
	// QTESuccess: the input matched within the window.
	QTESuccess QTEOutcome = iota
	// QTEFail: the window had already closed; resolved as a timeout.
	QTEFail
	// QTEMismatch: the input was wrong; penalties identical to a timeout.
	QTEMismatch
)

// String returns a human-readable outcome label.
func (o QTEOutcome) String() string {
	switch o {
	case QTESuccess:
		return "success"
	case QTEFail:
		return "fail"
	case QTEMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// defaultDefenseKey is the legacy single-key parry input.
const defaultDefenseKey = "d"

// generateCodeLocked draws an alphanumeric challenge code from the session
// stream: one draw for the length, one per character.
func (s *Session) generateCodeLocked() string {
	n := s.stream.IntRange(s.settings.QTECodeLengthMin, s.settings.QTECodeLengthMax)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(s.settings.QTEAlphabet[s.stream.Intn(len(s.settings.QTEAlphabet))])
	}
	return b.String()
}

// openDefenseLocked transitions the enemy to incoming and opens its defense
// window. Emits incoming_attack exactly once per window.
//
// Precondition: no challenge is active; the enemy is alive and idle.
func (s *Session) openDefenseLocked(idx int, now float64) {
	e := s.enemies[idx]
	e.State = StateIncoming
	expected := defaultDefenseKey
	prompt := "Parry! Press " + defaultDefenseKey
	if s.settings.ComplexQTECodes {
		expected = s.generateCodeLocked()
		prompt = "Parry! Enter " + expected
	}
	s.activeQTE = &Challenge{
		Kind:           KindDefense,
		EnemyIndex:     idx,
		Prompt:         prompt,
		Expected:       expected,
		WindowEndTotal: now + e.DefensiveQTEWindow,
		CreatedTotal:   now,
	}
	s.appendLocked(Event{
		Event:        EventIncomingAttack,
		TotalMinutes: now,
		Payload:      map[string]any{"enemy": e.Name, "index": idx + 1, "window_end": s.activeQTE.WindowEndTotal},
	})
}

// maybeOpenOffenseLocked rolls the enemy's qte_chance after a successful
// player hit and opens an offense challenge on success. While the challenge
// is open, all enemy timers are suspended session-wide.
//
// Draw order: one chance draw; then one prompt-pool draw; then code draws
// when complex codes are enabled.
func (s *Session) maybeOpenOffenseLocked(idx int, now float64) bool {
	e := s.enemies[idx]
	if s.activeQTE != nil || len(e.QTEPrompts) == 0 {
		return false
	}
	if !s.stream.Chance(e.QTEChance) {
		return false
	}
	p := e.QTEPrompts[s.stream.Intn(len(e.QTEPrompts))]
	expected := p.Expected
	prompt := p.Prompt
	if s.settings.ComplexQTECodes {
		expected = s.generateCodeLocked()
		prompt = p.Prompt + " [" + expected + "]"
	}
	s.activeQTE = &Challenge{
		Kind:           KindOffense,
		EnemyIndex:     idx,
		Prompt:         prompt,
		Expected:       expected,
		Effect:         p.Effect,
		WindowEndTotal: now + s.settings.OffensiveQTEWindowMinutes,
		CreatedTotal:   now,
		suspendMark:    now,
	}
	return true
}

// accountSuspensionLocked shifts every live enemy's next attack forward by
// the time elapsed under offense suspension since the last accounting.
// Accounting stops at the window end: a late tick or a late answer must not
// hold timers past the challenge's own deadline.
func (s *Session) accountSuspensionLocked(now float64) {
	q := s.activeQTE
	if q == nil || q.Kind != KindOffense {
		return
	}
	end := now
	if end > q.WindowEndTotal {
		end = q.WindowEndTotal
	}
	delta := end - q.suspendMark
	if delta <= 0 {
		return
	}
	for _, e := range s.enemies {
		if e.Alive() {
			e.NextAttackTotal += delta
		}
	}
	q.suspendMark = end
}

// ResolveQTE resolves the active challenge against input.
//
// A missing challenge yields a ValidationError. An input past the window is
// not exceptional: it resolves as a timeout (QTEFail) with the designed
// penalty. A wrong input within the window is QTEMismatch with the same
// penalties as a timeout.
func (s *Session) ResolveQTE(input string) (QTEOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return QTEFail, ErrSessionEnded
	}
	if s.activeQTE == nil {
		return QTEFail, &ValidationError{Field: "qte", Reason: "no active challenge"}
	}
	s.touchLocked()
	now := s.clk.NowTotalMinutes()
	q := s.activeQTE

	if now >= q.WindowEndTotal {
		s.expireChallengeLocked(now)
		return QTEFail, nil
	}

	if !strings.EqualFold(strings.TrimSpace(input), q.Expected) {
		if q.Kind == KindOffense {
			s.offenseFailLocked(now, "mismatch")
		} else {
			s.defenseFailLocked(q.EnemyIndex, now, "mismatch")
		}
		return QTEMismatch, nil
	}

	if q.Kind == KindOffense {
		s.offenseSuccessLocked(now)
	} else {
		s.defenseSuccessLocked(q.EnemyIndex, now)
	}
	return QTESuccess, nil
}

// expireChallengeLocked resolves the active challenge as a timeout.
func (s *Session) expireChallengeLocked(now float64) {
	q := s.activeQTE
	if q.Kind == KindOffense {
		s.offenseFailLocked(now, "timeout")
	} else {
		s.defenseFailLocked(q.EnemyIndex, now, "timeout")
	}
}

// offenseSuccessLocked applies the challenge effect and closes the challenge.
func (s *Session) offenseSuccessLocked(now float64) {
	q := s.activeQTE
	s.accountSuspensionLocked(now)
	payload := map[string]any{"effect": string(q.Effect)}

	if q.EnemyIndex < len(s.enemies) && s.enemies[q.EnemyIndex].Alive() {
		e := s.enemies[q.EnemyIndex]
		payload["enemy"] = e.Name
		switch q.Effect {
		case assets.EffectReduceNextDamage:
			e.DamageReduction++
		case assets.EffectStagger:
			// The wound-up attack is lost: the interval restarts from now.
			e.NextAttackTotal = now + e.EffectiveInterval()
		case assets.EffectBonusDamage:
			dmg := s.player.Weapon.Damage
			if dmg < 1 {
				dmg = 1
			}
			e.ApplyDamage(dmg)
			payload["damage"] = dmg
			payload["enemy_hp"] = e.HP
		case assets.EffectPush:
			s.distance++
			payload["distance"] = s.distance
		}
	}

	s.activeQTE = nil
	s.appendLocked(Event{Event: EventQTEOffenseSuccess, TotalMinutes: now, Payload: payload})
	s.logger.Debug("offense qte resolved",
		zap.String("outcome", "success"),
		zap.String("effect", string(q.Effect)),
	)

	if q.Effect == assets.EffectBonusDamage {
		s.afterDefeatLocked(now)
	}
}

// offenseFailLocked closes a failed offense challenge: no bonus, and the
// challenge enemy's next attack is pulled one simulated minute earlier.
func (s *Session) offenseFailLocked(now float64, reason string) {
	q := s.activeQTE
	s.accountSuspensionLocked(now)
	payload := map[string]any{"reason": reason}
	if q.EnemyIndex < len(s.enemies) && s.enemies[q.EnemyIndex].Alive() {
		e := s.enemies[q.EnemyIndex]
		payload["enemy"] = e.Name
		e.NextAttackTotal -= 1
		if e.NextAttackTotal < now {
			e.NextAttackTotal = now
		}
	}
	s.activeQTE = nil
	s.appendLocked(Event{Event: EventQTEOffenseFail, TotalMinutes: now, Payload: payload})
}

// defenseSuccessLocked cancels the pending damage and restarts the enemy's
// attack interval from now.
func (s *Session) defenseSuccessLocked(idx int, now float64) {
	e := s.enemies[idx]
	if !e.Alive() {
		s.activeQTE = nil
		return
	}
	e.State = StateIdle
	e.NextAttackTotal = now + e.EffectiveInterval()
	s.activeQTE = nil
	s.appendLocked(Event{
		Event:        EventQTEDefenseSuccess,
		TotalMinutes: now,
		Payload:      map[string]any{"enemy": e.Name, "index": idx + 1},
	})
}

// defenseFailLocked lands the pending attack: damage is rounded once and that
// value is both reported and subtracted; the enemy returns to idle with a
// freshly scheduled interval.
func (s *Session) defenseFailLocked(idx int, now float64, reason string) {
	e := s.enemies[idx]
	if !e.Alive() {
		// The window's enemy died to another damage source in the meantime;
		// a corpse cannot land its pending attack.
		s.activeQTE = nil
		return
	}
	dmg := roundDamage(e.AttackDamageMultiplier * float64(e.EffectiveAttack()))
	s.player.ApplyDamage(dmg)
	e.State = StateIdle
	e.NextAttackTotal = now + e.EffectiveInterval()
	s.activeQTE = nil
	s.appendLocked(Event{
		Event:        EventQTEDefenseFail,
		TotalMinutes: now,
		Payload: map[string]any{
			"enemy":     e.Name,
			"index":     idx + 1,
			"reason":    reason,
			"damage":    dmg,
			"player_hp": s.player.HP,
		},
	})
	s.logger.Debug("defense qte resolved",
		zap.String("outcome", reason),
		zap.Int("damage", dmg),
		zap.Int("player_hp", s.player.HP),
	)
	if s.player.HP == 0 {
		s.endLocked(now, "defeat")
	}
}
