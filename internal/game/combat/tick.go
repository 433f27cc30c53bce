package combat

import "time"

// Tick advances the session to the clock's current simulated time and
// resolves everything that came due: challenge timeouts, status damage,
// enemy advances, newly due attacks, and one reinforcement evaluation.
// It returns the events emitted during this tick.
//
// A tick against an ended session is a silent no-op: the background task may
// race the combat's destruction and a stale callback must be safe.
//
// Resolution order within a tick is fixed (suspension accounting, inactivity,
// status damage, challenge timeout, due attacks ascending by index,
// reinforcement). Determinism depends on this order; do not reorder.
func (s *Session) Tick() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil
	}

	now := s.clk.NowTotalMinutes()
	startLen := s.log.Len()
	elapsed := now - s.lastTickTotal

	s.player.regenStamina(elapsed)
	s.accountSuspensionLocked(now)
	s.applyInactivityLocked(now)
	s.tickStatusesLocked(now)

	if !s.ended && s.activeQTE != nil && now >= s.activeQTE.WindowEndTotal {
		s.expireChallengeLocked(now)
	}

	if !s.ended {
		s.resolveDueAttacksLocked(now)
	}
	if !s.ended {
		s.evaluateReinforcementLocked(now)
	}

	s.clampLocked()
	s.lastTickTotal = now

	all := s.log.Snapshot()
	return all[startLen:]
}

// applyInactivityLocked pulls every live idle enemy's next attack to now once
// the player has been idle past the real-time threshold. The activity marker
// is reset so the pull fires once per idle stretch, not on every tick.
//
// Suspension wins: nothing is pulled while an offense challenge is open.
func (s *Session) applyInactivityLocked(now float64) {
	if s.activeQTE != nil {
		return
	}
	idle := s.clk.RealNow().Sub(s.lastPlayerAction)
	if idle < time.Duration(s.settings.InactivityAttackSeconds*float64(time.Second)) {
		return
	}
	pulled := false
	for _, e := range s.enemies {
		if e.Alive() && e.State == StateIdle && e.NextAttackTotal > now {
			e.NextAttackTotal = now
			pulled = true
		}
	}
	if pulled {
		s.lastPlayerAction = s.clk.RealNow()
	}
}

// tickStatusesLocked applies damage-over-time effects on whole simulated
// minute boundaries and drops expired instances.
func (s *Session) tickStatusesLocked(now float64) {
	for i, e := range s.enemies {
		if !e.Alive() || len(e.statuses) == 0 {
			continue
		}
		kept := e.statuses[:0]
		for _, st := range e.statuses {
			for b := st.lastTickTotal + 1; b <= now && b <= st.expiresTotal && e.Alive(); b++ {
				e.ApplyDamage(st.spec.TickDamage)
				st.lastTickTotal = b
				s.appendLocked(Event{
					Event:        EventStatusTick,
					TotalMinutes: now,
					Payload: map[string]any{
						"enemy":    e.Name,
						"index":    i + 1,
						"status":   st.spec.ID,
						"damage":   st.spec.TickDamage,
						"enemy_hp": e.HP,
					},
				})
			}
			if e.Alive() && st.expiresTotal > now {
				kept = append(kept, st)
			}
		}
		e.statuses = kept
		if !e.Alive() {
			e.statuses = nil
			s.afterDefeatLocked(now)
			if s.ended {
				return
			}
		}
	}
}

// resolveDueAttacksLocked walks enemies in ascending index order and handles
// every idle enemy whose attack time has arrived. While any challenge is
// active, further due enemies stay idle and get their window on a later tick;
// at distance, a due attack is consumed closing one step instead of landing.
func (s *Session) resolveDueAttacksLocked(now float64) {
	for i, e := range s.enemies {
		if s.ended {
			return
		}
		if !e.Alive() || e.State != StateIdle || e.NextAttackTotal > now {
			continue
		}
		if s.distance > 0 {
			s.distance--
			e.NextAttackTotal = now + e.EffectiveInterval()
			s.appendLocked(Event{
				Event:        EventEnemyAdvance,
				TotalMinutes: now,
				Payload:      map[string]any{"enemy": e.Name, "index": i + 1, "distance": s.distance},
			})
			continue
		}
		if s.activeQTE != nil {
			continue
		}
		s.openDefenseLocked(i, now)
	}
}
