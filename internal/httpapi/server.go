// Package httpapi wires the HTTP surface: zones, full-screen
// renders, the live JSON dashboard, health/status, and device pairing.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"commuterdash/internal/config"
	"commuterdash/internal/engine"
	"commuterdash/internal/geocode"
	"commuterdash/internal/pairing"
	"commuterdash/internal/render"
	"commuterdash/internal/weather"
)

// Server holds every dependency the HTTP handlers need.
type Server struct {
	logger        *zap.Logger
	engine        *engine.Engine
	weather       *weather.Client
	renderer      *render.Renderer
	pairing       *pairing.Manager
	geocoder      *geocode.Resolver
	adminPassword string
}

// New builds a Server. Any dependency may be nil in a test harness that only
// exercises a subset of handlers. adminPassword gates the setup-wizard-facing
// admin endpoints; an empty password disables them entirely.
func New(logger *zap.Logger, eng *engine.Engine, wx *weather.Client, rnd *render.Renderer, pm *pairing.Manager, geocoder *geocode.Resolver, adminPassword string) *Server {
	return &Server{logger: logger, engine: eng, weather: wx, renderer: rnd, pairing: pm, geocoder: geocoder, adminPassword: adminPassword}
}

// Router builds the gorilla/mux router for the dashboard's HTTP endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/zones", s.handleZones).Methods(http.MethodGet)
	r.HandleFunc("/api/zone/{id}", s.handleZone).Methods(http.MethodGet)
	r.HandleFunc("/api/screen", s.handleScreen).Methods(http.MethodGet)
	r.HandleFunc("/api/livedash", s.handleLivedash).Methods(http.MethodGet)
	r.HandleFunc("/api/pair/{code}", s.handlePairGet).Methods(http.MethodGet)
	r.HandleFunc("/api/pair/{code}", s.handlePairPost).Methods(http.MethodPost)
	r.HandleFunc("/api/admin/geocode", s.handleAdminGeocode).Methods(http.MethodGet)
	// Matches a preflight on any path so corsMiddleware runs and answers it;
	// without a matching route mux replies 405 and skips the middleware.
	r.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadToken(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_token"})
}

func deviceProfileFromRequest(r *http.Request) (config.DeviceKind, config.DeviceProfile) {
	return config.LookupDevice(r.URL.Query().Get("device"))
}
