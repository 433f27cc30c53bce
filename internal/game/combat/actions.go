package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/secondavita/engine/internal/game/assets"
)

// degradedHitFactor halves hit chance when a swing is taken below its
// stamina cost.
const degradedHitFactor = 0.5

// Attack swings or fires the equipped weapon at the resolved target: the
// explicit 1-based index when given, otherwise the focused enemy, otherwise
// the lowest-index live enemy. Pass 0 for no explicit target.
//
// Attacking the enemy whose defense window is open forfeits the parry: the
// pending hit lands first, then the attack proceeds if the player survives.
//
// Draw order on the stream: hit, then crit (hit only), then the offense
// challenge rolls. Misses consume only the hit draw.
//
// Postcondition: On success a player_attack event is emitted; validation
// failures mutate nothing and emit nothing.
func (s *Session) Attack(target int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	w := s.player.Weapon
	if w.IsThrowable() {
		return &ValidationError{Field: "weapon", Reason: "throwables are used with throw, not attack"}
	}
	idx, e, err := s.targetLocked(target)
	if err != nil {
		return err
	}
	if !w.IsRanged() && s.distance > 0 {
		return &ValidationError{Field: "distance", Reason: "target is out of melee range"}
	}
	if w.IsRanged() && s.player.AmmoInClip < 1 {
		return &ValidationError{Field: "ammo", Reason: "clip is empty, reload first"}
	}

	s.touchLocked()
	now := s.clk.NowTotalMinutes()

	if q := s.activeQTE; q != nil && q.Kind == KindDefense && q.EnemyIndex == idx {
		s.defenseFailLocked(idx, now, "interrupted")
		if s.ended {
			return nil
		}
	}

	if w.IsRanged() {
		s.player.AmmoInClip--
	}
	degraded := s.player.spendStamina(w.StaminaCost)

	hitChance := w.HitChance
	if degraded {
		hitChance *= degradedHitFactor
	}
	if !s.stream.Chance(hitChance) {
		s.appendLocked(Event{
			Event:        EventPlayerAttack,
			TotalMinutes: now,
			Payload:      map[string]any{"enemy": e.Name, "index": idx + 1, "hit": false},
		})
		return nil
	}

	crit := w.CritChance > 0 && s.stream.Chance(w.CritChance)
	dmg := w.Damage
	if crit {
		dmg = roundDamage(float64(w.Damage) * w.CritMultiplier)
	}
	e.ApplyDamage(dmg)
	s.appendLocked(Event{
		Event:        EventPlayerAttack,
		TotalMinutes: now,
		Payload: map[string]any{
			"enemy":    e.Name,
			"index":    idx + 1,
			"hit":      true,
			"crit":     crit,
			"damage":   dmg,
			"enemy_hp": e.HP,
		},
	})
	if w.Status != nil && e.Alive() {
		s.applyStatusLocked(e, now)
	}
	if w.Category == assets.CategoryHeavy && w.CleaveTargets > 1 {
		s.cleaveLocked(idx, dmg, now)
	}

	s.afterDefeatLocked(now)
	if s.ended {
		return nil
	}
	if e.Alive() {
		s.maybeOpenOffenseLocked(idx, now)
	}
	s.clampLocked()
	return nil
}

// cleaveLocked carries a heavy hit into the next live enemies after the
// primary target, in index order, reusing the already-rounded primary damage
// as the scaling base.
func (s *Session) cleaveLocked(primary, dmg int, now float64) {
	extra := s.player.Weapon.CleaveTargets - 1
	for i := primary + 1; i < len(s.enemies) && extra > 0; i++ {
		e := s.enemies[i]
		if !e.Alive() {
			continue
		}
		cleaveDmg := roundDamage(float64(dmg) * s.player.Weapon.CleaveFactor)
		e.ApplyDamage(cleaveDmg)
		s.appendLocked(Event{
			Event:        EventHeavyCleave,
			TotalMinutes: now,
			Payload:      map[string]any{"enemy": e.Name, "index": i + 1, "damage": cleaveDmg, "enemy_hp": e.HP},
		})
		extra--
	}
}

// applyStatusLocked attaches the weapon's status to e, refreshing the expiry
// when an instance of the same status is already active.
func (s *Session) applyStatusLocked(e *Enemy, now float64) {
	spec := *s.player.Weapon.Status
	for i := range e.statuses {
		if e.statuses[i].spec.ID == spec.ID {
			e.statuses[i].expiresTotal = now + spec.DurationMinutes
			return
		}
	}
	e.statuses = append(e.statuses, statusInstance{
		spec:          spec,
		expiresTotal:  now + spec.DurationMinutes,
		lastTickTotal: now,
	})
}

// AttackAll sweeps every live enemy for reduced damage. The sweep always
// lands; its cost is the cooldown, the larger of the configured floor and the
// mean live-enemy attack interval.
//
// Postcondition: When the cooldown has not elapsed, a ValidationError is
// returned and neither state nor the event log changes.
func (s *Session) AttackAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	w := s.player.Weapon
	if w.IsThrowable() {
		return &ValidationError{Field: "weapon", Reason: "throwables are used with throw, not attack"}
	}
	live := s.liveCountLocked()
	if live == 0 {
		return &ValidationError{Field: "target", Reason: "no live enemies"}
	}
	if !w.IsRanged() && s.distance > 0 {
		return &ValidationError{Field: "distance", Reason: "targets are out of melee range"}
	}
	if w.IsRanged() && s.player.AmmoInClip < live {
		return &ValidationError{Field: "ammo", Reason: fmt.Sprintf("need %d rounds, clip has %d", live, s.player.AmmoInClip)}
	}
	now := s.clk.NowTotalMinutes()
	if now < s.attackAllReadyTotal {
		return &ValidationError{Field: "attack_all", Reason: fmt.Sprintf("not ready for %.1f more minutes", s.attackAllReadyTotal-now)}
	}

	s.touchLocked()

	// Cooldown derives from the intervals of the enemies being swept, taken
	// before any of them fall.
	meanInterval := 0.0
	for _, e := range s.enemies {
		if e.Alive() {
			meanInterval += e.EffectiveInterval()
		}
	}
	meanInterval /= float64(live)
	cooldown := s.settings.AttackAllCooldownFloorMinutes
	if meanInterval > cooldown {
		cooldown = meanInterval
	}
	s.attackAllReadyTotal = now + cooldown

	factor := areaDamageFactor(live)
	dmg := roundDamage(float64(w.Damage) * factor)
	if w.IsRanged() {
		s.player.AmmoInClip -= live
	}
	// Sweeping costs the base swing plus one extra per additional target.
	s.player.spendStamina(w.StaminaCost * live)

	targets := make([]map[string]any, 0, live)
	for i, e := range s.enemies {
		if !e.Alive() {
			continue
		}
		e.ApplyDamage(dmg)
		targets = append(targets, map[string]any{"enemy": e.Name, "index": i + 1, "damage": dmg, "enemy_hp": e.HP})
	}
	s.appendLocked(Event{
		Event:        EventAreaAttack,
		TotalMinutes: now,
		Payload:      map[string]any{"damage": dmg, "factor": factor, "targets": targets, "cooldown": cooldown},
	})
	s.logger.Debug("area attack",
		zap.Int("targets", live),
		zap.Int("damage", dmg),
		zap.Float64("cooldown_minutes", cooldown),
	)

	s.afterDefeatLocked(now)
	s.clampLocked()
	return nil
}

// areaDamageFactor returns the per-target damage fraction for a sweep over n
// live enemies: half damage, dropping 5 points per extra target, floored at a
// quarter.
func areaDamageFactor(n int) float64 {
	f := 0.50 - 0.05*float64(n-1)
	if f < 0.25 {
		f = 0.25
	}
	return f
}

// Throw hurls count charges of the equipped throwable at the resolved target.
// Throws always land; each charge also splashes every other live enemy at the
// weapon's area factor.
func (s *Session) Throw(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	w := s.player.Weapon
	if !w.IsThrowable() {
		return &ValidationError{Field: "weapon", Reason: fmt.Sprintf("%s cannot be thrown", w.ID)}
	}
	if count < 1 {
		return &ValidationError{Field: "count", Reason: fmt.Sprintf("must be >= 1, got %d", count)}
	}
	if s.player.UsesLeft < count {
		return &ValidationError{Field: "uses", Reason: fmt.Sprintf("need %d, have %d", count, s.player.UsesLeft)}
	}
	idx, e, err := s.targetLocked(0)
	if err != nil {
		return err
	}

	s.touchLocked()
	now := s.clk.NowTotalMinutes()
	s.player.UsesLeft -= count

	splashDmg := roundDamage(float64(w.Damage) * w.AoEFactor)
	for t := 0; t < count; t++ {
		if e.Alive() {
			e.ApplyDamage(w.Damage)
			s.appendLocked(Event{
				Event:        EventThrow,
				TotalMinutes: now,
				Payload:      map[string]any{"enemy": e.Name, "index": idx + 1, "damage": w.Damage, "enemy_hp": e.HP},
			})
			if w.Status != nil && e.Alive() {
				s.applyStatusLocked(e, now)
			}
		}
		for i, other := range s.enemies {
			if i == idx || !other.Alive() {
				continue
			}
			other.ApplyDamage(splashDmg)
			s.appendLocked(Event{
				Event:        EventThrowSplash,
				TotalMinutes: now,
				Payload:      map[string]any{"enemy": other.Name, "index": i + 1, "damage": splashDmg, "enemy_hp": other.HP},
			})
		}
	}

	s.afterDefeatLocked(now)
	s.clampLocked()
	return nil
}

// Push shoves the nearest enemies back, opening one step of distance. Enemies
// at distance spend their next due attack closing it instead of striking.
func (s *Session) Push() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	if s.liveCountLocked() == 0 {
		return &ValidationError{Field: "target", Reason: "no live enemies"}
	}
	s.touchLocked()
	now := s.clk.NowTotalMinutes()
	s.distance++
	s.appendLocked(Event{
		Event:        EventPush,
		TotalMinutes: now,
		Payload:      map[string]any{"distance": s.distance},
	})
	return nil
}

// Flee attempts to escape the fight. The base chance is 30%, +30 points with
// open distance, +20 points when any live enemy is at or below 40% health,
// capped at certainty. Success destroys the session with result "fled";
// failure emits flee_failed and the fight continues.
func (s *Session) Flee() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false, ErrSessionEnded
	}
	s.touchLocked()
	now := s.clk.NowTotalMinutes()

	chance := 0.30
	if s.distance > 0 {
		chance += 0.30
	}
	for _, e := range s.enemies {
		if e.Alive() && float64(e.HP) <= 0.40*float64(e.MaxHP) {
			chance += 0.20
			break
		}
	}
	if chance > 1 {
		chance = 1
	}

	if s.stream.Chance(chance) {
		s.endLocked(now, "fled")
		return true, nil
	}
	// A botched escape draws attention: pending attacks come due immediately,
	// the same pull the inactivity rule applies.
	for _, e := range s.enemies {
		if e.Alive() && e.State == StateIdle && e.NextAttackTotal > now {
			e.NextAttackTotal = now
		}
	}
	s.appendLocked(Event{
		Event:        EventFleeFailed,
		TotalMinutes: now,
		Payload:      map[string]any{"chance": chance},
	})
	return false, nil
}

// Reload refills the clip from the reserve.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	w := s.player.Weapon
	if !w.IsRanged() {
		return &ValidationError{Field: "weapon", Reason: fmt.Sprintf("%s does not take ammunition", w.ID)}
	}
	if s.player.AmmoInClip >= w.ClipSize {
		return &ValidationError{Field: "ammo", Reason: "clip is already full"}
	}
	if s.player.AmmoReserve < 1 {
		return &ValidationError{Field: "ammo", Reason: "no reserve ammunition"}
	}
	s.touchLocked()
	now := s.clk.NowTotalMinutes()

	need := w.ClipSize - s.player.AmmoInClip
	if need > s.player.AmmoReserve {
		need = s.player.AmmoReserve
	}
	s.player.AmmoInClip += need
	s.player.AmmoReserve -= need
	s.appendLocked(Event{
		Event:        EventReload,
		TotalMinutes: now,
		Payload:      map[string]any{"loaded": need, "clip": s.player.AmmoInClip, "reserve": s.player.AmmoReserve},
	})
	return nil
}
