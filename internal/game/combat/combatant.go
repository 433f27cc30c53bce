package combat

import (
	"math"

	"github.com/secondavita/engine/internal/game/assets"
)

// EnemyState is the per-enemy scheduling state.
type EnemyState int

const (
	// StateIdle means the enemy is waiting for its next attack time.
	StateIdle EnemyState = iota
	// StateIncoming means an attack is due and its defense window is open.
	StateIncoming
	// StateDefeated is terminal: hp reached zero.
	StateDefeated
)

// String returns a human-readable state label.
func (s EnemyState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIncoming:
		return "incoming"
	case StateDefeated:
		return "defeated"
	default:
		return "unknown"
	}
}

// statusInstance is one active damage-over-time effect on an enemy.
type statusInstance struct {
	spec assets.StatusSpec
	// expiresTotal is the simulated minute the effect ends at.
	expiresTotal float64
	// lastTickTotal is the last whole-minute boundary already ticked.
	lastTickTotal float64
}

// Enemy is one hostile combatant owned by a Session.
//
// Invariant: State == StateDefeated ⇔ HP == 0.
// Invariant: NextAttackTotal advances monotonically except on defensive
// success (interval reset) or the inactivity penalty (pulled to now).
type Enemy struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// ProfileID is the source MobProfile ID.
	ProfileID string
	// Name is the display name, suffixed _2, _3, ... on duplicates.
	Name string
	// HP and MaxHP are the current and maximum hit points.
	HP    int
	MaxHP int
	// Attack is the base damage applied on a defense timeout.
	Attack int
	// AttackIntervalMinutes × AttackIntervalMultiplier is the simulated gap
	// between attacks.
	AttackIntervalMinutes    float64
	AttackIntervalMultiplier float64
	// DefensiveQTEWindow is the defense window in simulated minutes.
	DefensiveQTEWindow float64
	// AttackDamageMultiplier scales timeout damage.
	AttackDamageMultiplier float64
	// QTEChance is the probability of an offense challenge after a player hit.
	QTEChance float64
	// QTEPrompts is the pool of offense challenges.
	QTEPrompts []assets.QTEPrompt
	// NextAttackTotal is the simulated minute the next attack lands at.
	NextAttackTotal float64
	// State is the scheduling state.
	State EnemyState
	// DamageReduction is the cumulative reduce_next_damage stack (floor 0
	// applied at damage time, so the stack itself may exceed Attack).
	DamageReduction int

	statuses []statusInstance
}

// Alive reports whether the enemy can still act or be targeted.
func (e *Enemy) Alive() bool { return e.State != StateDefeated }

// EffectiveInterval returns the scheduled gap between attacks in simulated minutes.
func (e *Enemy) EffectiveInterval() float64 {
	return e.AttackIntervalMinutes * e.AttackIntervalMultiplier
}

// EffectiveAttack returns the attack value after cumulative reduction, floored at 0.
func (e *Enemy) EffectiveAttack() int {
	a := e.Attack - e.DamageReduction
	if a < 0 {
		return 0
	}
	return a
}

// ApplyDamage reduces HP by amount, flooring at zero, and transitions to
// StateDefeated when HP reaches zero.
//
// Precondition: amount >= 0.
// Postcondition: HP >= 0; State == StateDefeated iff HP == 0.
func (e *Enemy) ApplyDamage(amount int) {
	e.HP -= amount
	if e.HP <= 0 {
		e.HP = 0
		e.State = StateDefeated
	}
}

// snapshot returns a value copy safe to hand outside the session lock.
func (e *Enemy) snapshot() Enemy {
	cp := *e
	cp.statuses = nil
	return cp
}

// PlayerState is the player's combat-relevant state within a session.
type PlayerState struct {
	// HP and MaxHP are the player's hit points.
	HP    int
	MaxHP int
	// Stamina gates repeated actions; low stamina degrades hit chance.
	Stamina    int
	MaxStamina int
	// Weapon is the equipped weapon profile (immutable reference data).
	Weapon *assets.WeaponProfile
	// AmmoInClip and AmmoReserve track ranged ammunition.
	AmmoInClip  int
	AmmoReserve int
	// UsesLeft tracks remaining throwable uses.
	UsesLeft int
}

// NewPlayerState creates a PlayerState equipped with weapon, with ammunition
// and uses initialized from the profile.
//
// Precondition: hp > 0; weapon must be non-nil and validated.
func NewPlayerState(hp, stamina int, weapon *assets.WeaponProfile) *PlayerState {
	return &PlayerState{
		HP:          hp,
		MaxHP:       hp,
		Stamina:     stamina,
		MaxStamina:  stamina,
		Weapon:      weapon,
		AmmoInClip:  weapon.ClipSize,
		AmmoReserve: weapon.AmmoReserve,
		UsesLeft:    weapon.Uses,
	}
}

// ApplyDamage reduces the player's HP by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: HP >= 0.
func (p *PlayerState) ApplyDamage(amount int) {
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
}

// spendStamina deducts cost, flooring at zero, and reports whether the player
// was below cost before the deduction (degraded swing).
func (p *PlayerState) spendStamina(cost int) bool {
	degraded := p.Stamina < cost
	p.Stamina -= cost
	if p.Stamina < 0 {
		p.Stamina = 0
	}
	return degraded
}

// regenStamina restores stamina for elapsed simulated minutes, capped at max.
func (p *PlayerState) regenStamina(minutes float64) {
	if minutes <= 0 {
		return
	}
	p.Stamina += int(minutes * staminaRegenPerMinute)
	if p.Stamina > p.MaxStamina {
		p.Stamina = p.MaxStamina
	}
}

// staminaRegenPerMinute is the passive stamina recovery rate.
const staminaRegenPerMinute = 2

// roundDamage converts a scaled damage value to the integer that is both
// displayed and subtracted from hit points. Rounding happens exactly once,
// here; callers must reuse the returned value everywhere.
func roundDamage(v float64) int {
	d := int(math.Round(v))
	if d < 0 {
		return 0
	}
	return d
}
