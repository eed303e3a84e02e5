// Package gtfsrt is the Transit Data Layer: fetching,
// decoding, caching, and normalizing GTFS-RT feeds, with fallback to static
// timetables. Per-authority header protocol, singleflight refresh, and
// Departure/ServiceAlert normalization layer directly over the raw feed.
package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"commuterdash/internal/cache"
	"commuterdash/internal/config"
	"commuterdash/internal/geo"
	"commuterdash/internal/statictimetable"
)

// Authority is one transit data provider (e.g. Victoria OpenData, PTV).
type Authority struct {
	Name           string
	HeaderName     string // e.g. "KeyId" for Victoria OpenData
	TripUpdatesURL map[geo.ModeType]string
	AlertsURL      map[geo.ModeType]string
	// CBDTerminusPrefixes/CBDTerminusIDs implement isCityLoopStop for this
	// authority (Melbourne: ids starting "26" or in {"12204","12205"}).
	CBDTerminusPrefixes []string
	CBDTerminusIDs      map[string]bool
	// LineCodeTable maps a route code (extracted via LineNamePattern) to a
	// display line name.
	LineCodeTable   map[string]string
	LineNamePattern *regexp.Regexp
}

// IsCityLoopStop reports whether stopId is a CBD terminus for this
// authority.
func (a Authority) IsCityLoopStop(stopID string) bool {
	if a.CBDTerminusIDs[stopID] {
		return true
	}
	for _, p := range a.CBDTerminusPrefixes {
		if len(stopID) >= len(p) && stopID[:len(p)] == p {
			return true
		}
	}
	return false
}

// MelbourneAuthority is the reference Victoria OpenData configuration.
func MelbourneAuthority(apiKey string) Authority {
	return Authority{
		Name:       "ptv-vic",
		HeaderName: "KeyId",
		TripUpdatesURL: map[geo.ModeType]string{
			geo.ModeTrain: "https://timetableapi.ptv.vic.gov.au/v3/gtfsr/metrotrain/tripupdates",
			geo.ModeTram:  "https://timetableapi.ptv.vic.gov.au/v3/gtfsr/tram/tripupdates",
			geo.ModeBus:   "https://timetableapi.ptv.vic.gov.au/v3/gtfsr/bus/tripupdates",
		},
		AlertsURL: map[geo.ModeType]string{
			geo.ModeTrain: "https://timetableapi.ptv.vic.gov.au/v3/gtfsr/metrotrain/alerts",
			geo.ModeTram:  "https://timetableapi.ptv.vic.gov.au/v3/gtfsr/tram/alerts",
			geo.ModeBus:   "https://timetableapi.ptv.vic.gov.au/v3/gtfsr/bus/alerts",
		},
		CBDTerminusPrefixes: []string{"26"},
		CBDTerminusIDs:      map[string]bool{"12204": true, "12205": true},
		LineNamePattern:     regexp.MustCompile(`vic-\d+-([A-Z]+)`),
		LineCodeTable: map[string]string{
			"PKM": "Pakenham", "CRG": "Cranbourne", "FRN": "Frankston",
			"SDM": "Sandringham", "BEG": "Belgrave", "GLN": "Glen Waverley",
			"ALM": "Alamein", "LIL": "Lilydale", "UFD": "Upfield",
			"CGB": "Craigieburn", "SYM": "Sunbury", "WER": "Werribee",
			"WBE": "Williamstown", "HBG": "Hurstbridge", "MER": "Mernda",
		},
	}
}

// Client is the Transit Data Layer's single entrypoint, hiding fetch/decode/
// cache/fallback behind the pure getDepartures/getServiceAlerts operations.
type Client struct {
	httpClient *http.Client
	authority  Authority
	feedCache  *cache.TTLCache
	fallback   *statictimetable.Timetable
	apiKey     string
}

// NewClient builds a transit data client for one authority. apiKey may be
// empty — an absent key always routes to the fallback timetable rather than
// failing.
func NewClient(authority Authority, apiKey string, feedCache *cache.TTLCache, fallback *statictimetable.Timetable) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.TransitDeadline},
		authority:  authority,
		feedCache:  feedCache,
		fallback:   fallback,
		apiKey:     apiKey,
	}
}

// GetDeparturesOptions configures a single getDepartures call.
type GetDeparturesOptions struct {
	APIKey string // overrides the client default for this call, if set
	Now    time.Time
}

const maxDeparturesReturned = 6

// GetDepartures returns at most the next 6 departures for a stop, sorted by
// predicted time ascending. An empty stopId yields an empty slice, never an
// error.
func (c *Client) GetDepartures(ctx context.Context, stopID string, modeType geo.ModeType, opts GetDeparturesOptions) []Departure {
	if stopID == "" {
		return nil
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = c.apiKey
	}

	if apiKey == "" {
		return c.fallbackDepartures(stopID, modeType, now)
	}

	feed, isLive := c.fetchTripUpdates(ctx, modeType, apiKey)
	if !isLive || feed == nil {
		return c.fallbackDepartures(stopID, modeType, now)
	}

	deps := c.normalizeTripUpdates(feed, stopID, now)
	if len(deps) == 0 {
		return c.fallbackDepartures(stopID, modeType, now)
	}

	sort.Slice(deps, func(i, j int) bool { return deps[i].PredictedTimeUTC.Before(deps[j].PredictedTimeUTC) })
	if len(deps) > maxDeparturesReturned {
		deps = deps[:maxDeparturesReturned]
	}
	return deps
}

func (c *Client) fallbackDepartures(stopID string, modeType geo.ModeType, now time.Time) []Departure {
	if c.fallback == nil {
		return nil
	}
	rows := c.fallback.DeparturesForStop(stopID, now)
	deps := make([]Departure, 0, len(rows))
	for _, row := range rows {
		deps = append(deps, Departure{
			StopID:             stopID,
			RouteID:            row.RouteID,
			LineName:           row.LineName,
			ScheduledTimeUTC:   row.ScheduledTimeUTC,
			PredictedTimeUTC:   row.ScheduledTimeUTC,
			DelaySeconds:       0,
			MinutesUntil:       minutesUntil(row.ScheduledTimeUTC, now),
			DestinationDisplay: row.DestinationDisplay,
			IsCitybound:        c.authority.IsCityLoopStop(row.TerminusStopID),
			IsLive:             false,
			TripID:             row.TripID,
			TerminusStopID:     row.TerminusStopID,
		})
		if len(deps) >= maxDeparturesReturned {
			break
		}
	}
	return deps
}

func minutesUntil(predicted, now time.Time) int {
	m := int(predicted.Sub(now).Round(time.Minute) / time.Minute)
	if m < 0 {
		return 0
	}
	return m
}

// fetchTripUpdates checks the feed cache, then falls through to a
// singleflight-deduped refresh carrying the authority's header. When the
// refresh fails, a stale cached feed is returned (with true) whatever its
// age, without comparing it against the fallback timetable; (nil, false) is
// returned only when there is no cached feed either, so the caller falls
// back cleanly.
func (c *Client) fetchTripUpdates(ctx context.Context, modeType geo.ModeType, apiKey string) (*gtfs.FeedMessage, bool) {
	cacheKey := fmt.Sprintf("feed:%s:%s:tripupdates", c.authority.Name, modeType)

	if e, fresh := c.feedCache.Get(cacheKey, config.FeedCacheTTL); fresh {
		if feed, ok := e.Value.(*gtfs.FeedMessage); ok {
			return feed, true
		}
	}

	url, ok := c.authority.TripUpdatesURL[modeType]
	if !ok {
		return nil, false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, config.InFlightDeadline)
	defer cancel()

	v, err, _ := c.feedCache.Refresh(cacheKey, func() (any, error) {
		return c.download(fetchCtx, url, apiKey)
	})
	if err != nil {
		// Decode/HTTP failure: keep whatever is in the cache (possibly
		// stale) and use it; only with nothing cached does the caller fall
		// back to static timetables.
		if e, ok := c.feedCache.Peek(cacheKey); ok {
			if feed, ok := e.Value.(*gtfs.FeedMessage); ok {
				return feed, true
			}
		}
		return nil, false
	}

	feed := v.(*gtfs.FeedMessage)
	c.feedCache.Set(cacheKey, feed)
	return feed, true
}

func (c *Client) download(ctx context.Context, url, apiKey string) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set(c.authority.HeaderName, apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("non-retryable feed status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode feed protobuf: %w", err)
	}
	return &feed, nil
}

// normalizeTripUpdates converts raw GTFS-RT TripUpdate entities into the
// Departure shape the Engine consumes.
func (c *Client) normalizeTripUpdates(feed *gtfs.FeedMessage, stopID string, now time.Time) []Departure {
	var out []Departure
	for _, ent := range feed.GetEntity() {
		tu := ent.GetTripUpdate()
		if tu == nil {
			continue
		}
		routeID := ""
		tripID := ""
		if td := tu.GetTrip(); td != nil {
			routeID = td.GetRouteId()
			tripID = td.GetTripId()
		}

		stus := tu.GetStopTimeUpdate()
		if len(stus) == 0 {
			continue
		}
		terminusStopID := stus[len(stus)-1].GetStopId()
		isCitybound := c.authority.IsCityLoopStop(terminusStopID)

		for _, stu := range stus {
			if stu.GetStopId() != stopID {
				continue
			}

			var predicted time.Time
			var delaySeconds int32
			if arr := stu.GetArrival(); arr != nil && arr.GetTime() != 0 {
				predicted = time.Unix(arr.GetTime(), 0).UTC()
				delaySeconds = arr.GetDelay()
			} else if dep := stu.GetDeparture(); dep != nil && dep.GetTime() != 0 {
				predicted = time.Unix(dep.GetTime(), 0).UTC()
				delaySeconds = dep.GetDelay()
			} else {
				continue
			}
			scheduled := predicted.Add(-time.Duration(delaySeconds) * time.Second)

			destDisplay := c.lineDisplay(routeID, isCitybound)

			out = append(out, Departure{
				StopID:             stopID,
				RouteID:            routeID,
				LineName:           c.lineName(routeID),
				ScheduledTimeUTC:   scheduled,
				PredictedTimeUTC:   predicted,
				DelaySeconds:       int(delaySeconds),
				MinutesUntil:       minutesUntil(predicted, now),
				DestinationDisplay: destDisplay,
				IsCitybound:        isCitybound,
				IsLive:             true,
				TripID:             tripID,
				TerminusStopID:     terminusStopID,
			})
		}
	}
	return out
}

func (c *Client) lineName(routeID string) string {
	if c.authority.LineNamePattern == nil {
		return routeID
	}
	m := c.authority.LineNamePattern.FindStringSubmatch(routeID)
	if len(m) < 2 {
		return routeID
	}
	code := m[1]
	if name, ok := c.authority.LineCodeTable[code]; ok {
		return name
	}
	return code
}

func (c *Client) lineDisplay(routeID string, isCitybound bool) string {
	if isCitybound {
		return "City Loop"
	}
	return c.lineName(routeID)
}

// GetServiceAlerts returns currently active alerts for a mode: now within
// [effectFrom, effectTo].
func (c *Client) GetServiceAlerts(ctx context.Context, modeType geo.ModeType, apiKey string, now time.Time) []ServiceAlert {
	if apiKey == "" {
		return nil
	}
	url, ok := c.authority.AlertsURL[modeType]
	if !ok {
		return nil
	}
	cacheKey := fmt.Sprintf("feed:%s:%s:alerts", c.authority.Name, modeType)

	if e, fresh := c.feedCache.Get(cacheKey, config.AlertCacheTTL); fresh {
		if alerts, ok := e.Value.([]ServiceAlert); ok {
			return activeAlerts(alerts, now)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, config.InFlightDeadline)
	defer cancel()

	v, err, _ := c.feedCache.Refresh(cacheKey, func() (any, error) {
		feed, derr := c.download(fetchCtx, url, apiKey)
		if derr != nil {
			return nil, derr
		}
		return normalizeAlerts(feed, modeType), nil
	})
	if err != nil {
		if e, ok := c.feedCache.Peek(cacheKey); ok {
			if alerts, ok := e.Value.([]ServiceAlert); ok {
				return activeAlerts(alerts, now)
			}
		}
		return nil
	}

	alerts := v.([]ServiceAlert)
	c.feedCache.Set(cacheKey, alerts)
	return activeAlerts(alerts, now)
}

func activeAlerts(alerts []ServiceAlert, now time.Time) []ServiceAlert {
	out := make([]ServiceAlert, 0, len(alerts))
	for _, a := range alerts {
		if (now.Equal(a.EffectFrom) || now.After(a.EffectFrom)) && (now.Equal(a.EffectTo) || now.Before(a.EffectTo)) {
			out = append(out, a)
		}
	}
	return out
}

func normalizeAlerts(feed *gtfs.FeedMessage, modeType geo.ModeType) []ServiceAlert {
	var out []ServiceAlert
	for _, ent := range feed.GetEntity() {
		alert := ent.GetAlert()
		if alert == nil {
			continue
		}
		sa := ServiceAlert{
			AlertID:  ent.GetId(),
			Severity: severityFromEffect(alert.GetEffect().String()),
			Mode:     modeType,
		}
		if len(alert.GetActivePeriod()) > 0 {
			ap := alert.GetActivePeriod()[0]
			sa.EffectFrom = time.Unix(int64(ap.GetStart()), 0).UTC()
			sa.EffectTo = time.Unix(int64(ap.GetEnd()), 0).UTC()
		}
		if ht := alert.GetHeaderText(); ht != nil && len(ht.GetTranslation()) > 0 {
			sa.HeaderText = ht.GetTranslation()[0].GetText()
		}
		if dt := alert.GetDescriptionText(); dt != nil && len(dt.GetTranslation()) > 0 {
			sa.DescriptionText = dt.GetTranslation()[0].GetText()
		}
		for _, ie := range alert.GetInformedEntity() {
			if ie.GetRouteId() != "" {
				sa.RouteIDs = append(sa.RouteIDs, ie.GetRouteId())
			}
			if ie.GetStopId() != "" {
				sa.StopIDs = append(sa.StopIDs, ie.GetStopId())
			}
		}
		out = append(out, sa)
	}
	return out
}

func severityFromEffect(effect string) Severity {
	switch effect {
	case "NO_SERVICE", "DETOUR":
		return SeverityDisruption
	case "REDUCED_SERVICE", "SIGNIFICANT_DELAYS":
		return SeverityMajor
	case "MODIFIED_SERVICE":
		return SeverityMinor
	default:
		return SeverityInfo
	}
}
