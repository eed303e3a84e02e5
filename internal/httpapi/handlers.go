package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"commuterdash/internal/config"
	"commuterdash/internal/engine"
	"commuterdash/internal/pairing"
	"commuterdash/internal/render"
	"commuterdash/internal/token"
	"commuterdash/internal/weather"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// planForRequest decodes the config token, enforces the request timing
// budget, and runs the Engine plus a weather fetch.
func (s *Server) planForRequest(r *http.Request) (engine.Journey, weather.Conditions, bool) {
	cfg, err := token.Decode(r.URL.Query().Get("token"))
	if err != nil {
		return engine.Journey{}, weather.Conditions{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.RequestBudget)
	defer cancel()

	now := time.Now()
	var journey engine.Journey
	if s.engine != nil {
		journey = s.engine.PlanJourney(ctx, cfg, now)
	} else {
		journey = engine.Journey{StatusKind: engine.StatusDisruption, DisruptionText: "No services found"}
	}

	var wx weather.Conditions
	if s.weather != nil {
		wx = s.weather.Get(ctx, cfg.Home.Latitude, cfg.Home.Longitude)
	}
	return journey, wx, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	journey, _, ok := s.planForRequest(r)
	if !ok {
		writeBadToken(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statusKind":     journey.StatusKind,
		"dataSource":     journey.DataSource,
		"disruptionText": journey.DisruptionText,
		"totalMinutes":   journey.TotalMinutes,
	})
}

func (s *Server) handleLivedash(w http.ResponseWriter, r *http.Request) {
	journey, wx, ok := s.planForRequest(r)
	if !ok {
		writeBadToken(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"journey": journey,
		"weather": wx,
	})
}

// zoneStatus is one entry of the /api/zones response: the zone's rectangle
// on the requesting device's own screen, its current content hash, and
// whether that hash differs from the one the client already has cached.
type zoneStatus struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	W       int    `json:"w"`
	H       int    `json:"h"`
	Hash    string `json:"hash"`
	Changed bool   `json:"changed"`
}

// handleZones drives partial refresh: it reports every zone's hash so the
// device can diff against the hash it cached from its last fetch and
// re-request only the zones that actually changed. A client supplies its
// cached hash per zone as a "hash.<id>" query parameter; an absent or
// mismatched hash reports changed=true.
func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	journey, wx, ok := s.planForRequest(r)
	if !ok {
		writeBadToken(w)
		return
	}
	_, profile := deviceProfileFromRequest(r)

	zones := render.ZonesForProfile(profile)
	out := make([]zoneStatus, 0, len(zones))
	for _, z := range zones {
		rendered, ok := s.renderer.RenderZone(z.ID, profile, journey, wx)
		if !ok {
			continue
		}
		clientHash := r.URL.Query().Get("hash." + z.ID)
		out = append(out, zoneStatus{
			ID:      z.ID,
			X:       z.X,
			Y:       z.Y,
			W:       z.Width,
			H:       z.Height,
			Hash:    rendered.ETag,
			Changed: clientHash != rendered.ETag,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	journey, wx, ok := s.planForRequest(r)
	if !ok {
		writeBadToken(w)
		return
	}
	_, profile := deviceProfileFromRequest(r)

	out, found := s.renderer.RenderZone(id, profile, journey, wx)
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("ETag", out.ETag)
	w.Write(out.Bytes)
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	journey, wx, ok := s.planForRequest(r)
	if !ok {
		writeBadToken(w)
		return
	}
	_, profile := deviceProfileFromRequest(r)

	out := s.renderer.RenderFull(profile, journey, wx)
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("ETag", out.ETag)
	w.Write(out.Bytes)
}

// handlePairGet is the device's poll endpoint: it returns the
// webhook URL once the wizard has completed pairing, and consumes the entry
// on a successful read (exactly-once semantics).
func (s *Server) handlePairGet(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	result, err := s.pairing.Poll(r.Context(), code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pairing_store_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminGeocode resolves a free-text address for the setup wizard,
// gated by the single admin password the deployment's environment carries.
// Per-user transit/places API keys never come from the environment — they
// travel in the config token or the KV store — but this admin surface is
// the one place a deployment-wide secret legitimately gates a request.
func (s *Server) handleAdminGeocode(w http.ResponseWriter, r *http.Request) {
	if s.adminPassword == "" || r.URL.Query().Get("admin") != s.adminPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	if s.geocoder == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "geocoder_unavailable"})
		return
	}
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_address"})
		return
	}

	loc, err := s.geocoder.Resolve(r.Context(), address)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("geocode lookup failed", zap.String("address", address), zap.Error(err))
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "geocode_failed"})
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// pairPostBody covers both steps of pairing in one shape: a device claiming
// a freshly displayed code (deviceId/deviceKind) and the wizard completing
// it with a webhook URL (webhookUrl/preferences). Which step
// ran is inferred from which fields are non-empty.
type pairPostBody struct {
	DeviceID    string          `json:"deviceId"`
	DeviceKind  string          `json:"deviceKind"`
	WebhookURL  string          `json:"webhookUrl"`
	Preferences json.RawMessage `json:"preferences"`
}

func (s *Server) handlePairPost(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var body pairPostBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	switch {
	case body.WebhookURL != "":
		if err := s.pairing.CompleteFromWizard(r.Context(), code, body.WebhookURL, body.Preferences); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pairing_store_unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "paired"})

	case body.DeviceID != "":
		status, err := s.pairing.ClaimByDevice(r.Context(), code, body.DeviceID, body.DeviceKind)
		if err == pairing.ErrCodeInUse {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "code_in_use"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
	}
}
