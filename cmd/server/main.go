// Command server runs the commuter dashboard: it loads configuration, wires
// the Transit Data Layer, Route & Decision Engine, Coffee Decision
// sub-engine, Zone Renderer, and pairing subsystem, then serves the HTTP
// API.
package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"commuterdash/internal/cache"
	"commuterdash/internal/coffee"
	"commuterdash/internal/config"
	"commuterdash/internal/engine"
	"commuterdash/internal/geocode"
	"commuterdash/internal/gtfsrt"
	"commuterdash/internal/httpapi"
	"commuterdash/internal/kvstore"
	"commuterdash/internal/logging"
	"commuterdash/internal/pairing"
	"commuterdash/internal/render"
	"commuterdash/internal/statictimetable"
	"commuterdash/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "commuterdash:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port := config.InitFlags(); port != 0 {
		cfg.ListeningPort = port
	}

	logger, err := logging.New("info")
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	kv, err := openKVStore(cfg)
	if err != nil {
		return fmt.Errorf("open kv store: %w", err)
	}

	timetable, err := statictimetable.Load(staticGTFSPath())
	if err != nil {
		logger.Warn("static GTFS bundle unavailable; running with no fallback timetable", zap.Error(err))
	}

	feedCache := cache.NewTTLCache(256)
	authority := gtfsrt.MelbourneAuthority("")
	transit := gtfsrt.NewClient(authority, os.Getenv("TRANSIT_API_KEY"), feedCache, timetable)

	// No bundled cafe directory ships with the server yet: coffee stops
	// always resolve to ReasonNoSlack (no viable position) until a
	// CafeLookup is wired.
	coffeeEngine := coffee.New(nil)

	var eng *engine.Engine
	if timetable != nil {
		eng = engine.New(timetable.Graph(), transit, coffeeEngine)
	}

	weatherCache := cache.NewTTLCache(64)
	weatherClient := weather.NewClient("http://api.weather.bom.gov.au/v1/observations?lat=%f&lon=%f", weatherCache)

	// Shares the same KV store pairing uses, so permanent geocode cache
	// entries and pairing entries live side by side. Only reachable through
	// the admin-gated /api/admin/geocode endpoint, never the hot
	// /api/screen path.
	geocoder := geocode.NewResolver(kv, os.Getenv("PLACES_API_KEY"))

	renderer := render.New(firstExisting(cfg.FontDirs))
	pairingManager := pairing.NewManager(kv)

	server := httpapi.New(logger, eng, weatherClient, renderer, pairingManager, geocoder, cfg.AdminPassword)

	addr := fmt.Sprintf(":%d", cfg.ListeningPort)
	logger.Sugar().Infof("listening on %s", addr)
	return http.ListenAndServe(addr, server.Router())
}

func openKVStore(cfg *config.Config) (kvstore.Store, error) {
	if cfg.KVPath == "memory" {
		return kvstore.NewMemoryStore(4096), nil
	}
	return kvstore.NewSQLiteStore(cfg.KVPath)
}

func staticGTFSPath() string {
	if p := os.Getenv("STATIC_GTFS_PATH"); p != "" {
		return p
	}
	return "./gtfs/vic_metro.zip"
}

func firstExisting(dirs []string) string {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if _, err := os.Stat(d); err == nil {
			return d
		}
	}
	if len(dirs) > 0 {
		return dirs[0]
	}
	return ""
}
