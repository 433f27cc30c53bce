// Package main provides a scripted combat simulator. It wires together
// configuration, logging, the YAML asset loaders, the spawn system, and the
// combat engine, runs one automated fight, and prints the event log.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/secondavita/engine/internal/clock"
	"github.com/secondavita/engine/internal/config"
	"github.com/secondavita/engine/internal/game/assets"
	"github.com/secondavita/engine/internal/game/combat"
	"github.com/secondavita/engine/internal/game/rng"
	"github.com/secondavita/engine/internal/game/spawn"
	"github.com/secondavita/engine/internal/observability"
)

func main() {
	configPath := flag.String("config", "configs/sim.yaml", "path to configuration file")
	weaponID := flag.String("weapon", "machete", "weapon profile to equip")
	areaID := flag.String("area", "marina_district", "area whose spawn table starts the fight")
	seed := flag.Int64("seed", 1, "RNG seed for the fight")
	maxMinutes := flag.Float64("max-minutes", 120, "simulated-minute cap on the fight")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Initialize logger
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting combat simulator",
		zap.Int64("seed", *seed),
		zap.String("area", *areaID),
		zap.Float64("time_scale", cfg.Time.Scale),
	)

	// Load reference data
	weapons, err := assets.LoadWeapons(cfg.Sim.WeaponsDir)
	if err != nil {
		logger.Fatal("loading weapons", zap.Error(err))
	}
	mobs, err := assets.LoadMobs(cfg.Sim.MobsDir)
	if err != nil {
		logger.Fatal("loading mobs", zap.Error(err))
	}
	tables, err := spawn.LoadTables(cfg.Sim.SpawnsDir)
	if err != nil {
		logger.Fatal("loading spawn tables", zap.Error(err))
	}
	logger.Info("assets loaded",
		zap.Int("weapons", len(weapons)),
		zap.Int("mobs", len(mobs)),
		zap.Int("areas", len(tables)),
	)

	weapon, ok := weapons[*weaponID]
	if !ok {
		logger.Fatal("unknown weapon", zap.String("weapon", *weaponID))
	}

	// Build the engine
	clk := clock.New(cfg.Time.Scale)
	settings := combat.SettingsFromConfig(cfg.Combat)
	tickInterval := time.Duration(cfg.Sim.TickIntervalMs) * time.Millisecond
	engine := combat.NewEngine(clk, settings, tickInterval, logger)
	defer engine.Shutdown()

	player := combat.NewPlayerState(30, 20, weapon)
	session := engine.StartSession(player, *seed)

	// Roll the opening spawns; an empty roll falls back to one of each rule's
	// mob so the demo always has a fight.
	spawnStream := rng.NewStream(*seed + 1)
	system := spawn.NewSystem(tables, spawnStream, logger)
	results := system.Roll(*areaID, clk.NowTotalMinutes())
	if len(results) == 0 {
		if t, ok := tables[*areaID]; ok && len(t.Rules) > 0 {
			results = []spawn.Result{{MobID: t.Rules[0].MobID, Count: 1}}
		}
	}
	for _, r := range results {
		profile, ok := mobs[r.MobID]
		if !ok {
			logger.Fatal("spawn table references unknown mob", zap.String("mob", r.MobID))
		}
		if _, err := session.SpawnEnemy(profile, r.Count); err != nil {
			logger.Fatal("spawning enemies", zap.Error(err))
		}
	}

	runScript(session, clk, logger, *maxMinutes)

	ended, result := session.Ended()
	if !ended {
		result = "timeout"
		engine.EndSession(session.ID)
	}
	fmt.Fprintf(os.Stderr, "fight over: %s (player hp %d)\n", result, session.Player().HP)

	enc := json.NewEncoder(os.Stdout)
	for _, e := range session.Events().Snapshot() {
		if err := enc.Encode(e); err != nil {
			logger.Fatal("encoding event", zap.Error(err))
		}
	}
}

// runScript drives the fight with a simple policy: answer every challenge
// correctly, otherwise keep attacking, reloading when the clip runs dry.
func runScript(s *combat.Session, clk *clock.Clock, logger *zap.Logger, maxMinutes float64) {
	start := clk.NowTotalMinutes()
	for {
		if ended, _ := s.Ended(); ended {
			return
		}
		if clk.NowTotalMinutes()-start > maxMinutes {
			logger.Warn("fight hit the simulated-minute cap")
			return
		}
		clk.Advance(0.5)
		s.Tick()
		if ended, _ := s.Ended(); ended {
			return
		}

		if q := s.ActiveQTE(); q != nil {
			if _, err := s.ResolveQTE(q.Expected); err != nil {
				logger.Warn("resolving challenge", zap.Error(err))
			}
			continue
		}

		err := s.Attack(0)
		switch {
		case err == nil:
		case combat.IsValidation(err):
			if rerr := s.Reload(); rerr != nil && combat.IsValidation(rerr) {
				// Out of options with this weapon; try to run.
				if fled, ferr := s.Flee(); ferr != nil || fled {
					return
				}
			}
		default:
			return
		}
	}
}
