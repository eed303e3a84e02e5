package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"commuterdash/internal/config"
	"commuterdash/internal/geo"
	"commuterdash/internal/gtfsrt"
	"commuterdash/internal/token"
)

// TransitSource is the subset of gtfsrt.Client the Engine needs, narrowed to
// an interface so tests can supply a fake feed without spinning up HTTP
// servers.
type TransitSource interface {
	GetDepartures(ctx context.Context, stopID string, mode geo.ModeType, opts gtfsrt.GetDeparturesOptions) []gtfsrt.Departure
	GetServiceAlerts(ctx context.Context, mode geo.ModeType, apiKey string, now time.Time) []gtfsrt.ServiceAlert
}

// CoffeePlacer is implemented by internal/coffee.Engine. Kept as an
// interface here (rather than importing internal/coffee) so the Coffee
// Decision sub-engine can depend on engine.Journey without a import cycle.
type CoffeePlacer interface {
	Place(journey Journey, cfg token.JourneyConfig, now time.Time) Journey
}

// Engine is the Route & Decision Engine: a pure function of
// (graph snapshot, config, now) that never returns a Go error.
type Engine struct {
	graph   *geo.Graph
	paths   *stopMinutesGraph
	transit TransitSource
	coffee  CoffeePlacer
}

// New builds an Engine over a fully-populated stop/route graph. coffee may
// be nil, in which case coffee legs are never inserted.
func New(graph *geo.Graph, transit TransitSource, coffee CoffeePlacer) *Engine {
	return &Engine{
		graph:   graph,
		paths:   buildStopMinutesGraph(graph),
		transit: transit,
		coffee:  coffee,
	}
}

type routeSegment struct {
	routeID string
	stopIDs []string // >= 2 entries: the stops ridden, in travel order
}

type builtCandidate struct {
	legs               []Leg
	totalMinutes       int
	totalWalkMinutes   int
	transferCount      int
	reliabilityPenalty float64
	arrival            time.Time
	usedModes          map[geo.ModeType]bool
	routeIDs           []string
}

// PlanJourney enumerates candidate routes between cfg.Home and cfg.Work,
// scores them, and returns the best one fully populated with live departure
// data. An empty Legs slice with
// DisruptionText "No services found" signals no viable candidate was found
// — this is never a Go error.
func (e *Engine) PlanJourney(ctx context.Context, cfg token.JourneyConfig, now time.Time) Journey {
	originCandidates := e.graph.StopsNear(cfg.Home.Point(), config.DefaultMaxWalkMetres, nil)
	destCandidates := e.graph.StopsNear(cfg.Work.Point(), config.DefaultMaxWalkMetres, nil)
	if len(originCandidates) == 0 || len(destCandidates) == 0 {
		return noServiceJourney(now)
	}

	// apiMode is not read here or in gtfsrt.Client: both modes call the
	// same endpoints with the same feed cache TTL.
	apiKey := cfg.TransitAPIKey

	var best *builtCandidate
	bestScore := math.Inf(1)

	// Alerts depend only on (mode, apiKey, now), never on the specific
	// candidate, so one fetch per mode serves every candidate that rides
	// it — memoized here rather than refetched per candidate.
	alertCache := map[geo.ModeType][]gtfsrt.ServiceAlert{}
	getAlerts := func(mode geo.ModeType) []gtfsrt.ServiceAlert {
		if cfg.TransitAPIKey == "" {
			return nil
		}
		if alerts, ok := alertCache[mode]; ok {
			return alerts
		}
		alerts := e.transit.GetServiceAlerts(ctx, mode, cfg.TransitAPIKey, now)
		alertCache[mode] = alerts
		return alerts
	}

	for _, origin := range originCandidates {
		for _, dest := range destCandidates {
			if origin.ID == dest.ID {
				continue
			}
			path := e.paths.shortestPath(origin.ID, dest.ID)
			if len(path) < 2 {
				continue
			}
			segs := e.segmentPath(path)
			if len(segs) == 0 || len(segs) > config.DefaultMaxTransitLegs {
				continue
			}
			built := e.materialize(ctx, cfg, origin, dest, segs, apiKey, now)
			if built == nil {
				continue
			}
			built.reliabilityPenalty += alertPenalty(built, getAlerts)
			score := scoreCandidate(built)
			if score < bestScore {
				best = built
				bestScore = score
			}
		}
	}

	if best == nil {
		return noServiceJourney(now)
	}

	journey := e.finalize(*best, cfg, now)

	// Alerts are applied before the coffee stop is placed so a disruption
	// flagged on a leg (IsSuspended/IsDiverted) is visible to the Coffee
	// Decision sub-engine's extra-time check.
	journey = e.applyAlerts(ctx, journey, cfg, now)

	if e.coffee != nil && cfg.CoffeeEnabled {
		journey = e.coffee.Place(journey, cfg, now)
	}

	return journey
}

// segmentPath groups a stop-id path into contiguous same-route rides,
// guarding against a hop that shares no route (shouldn't occur since every
// edge in paths was derived from a route, but a defensive nil keeps
// PlanJourney from materializing a nonsensical candidate).
func (e *Engine) segmentPath(path []string) []routeSegment {
	if len(path) < 2 {
		return nil
	}
	var segs []routeSegment
	var cur routeSegment
	for i := 0; i+1 < len(path); i++ {
		shared := e.graph.SharedRoutes(path[i], path[i+1])
		if len(shared) == 0 {
			return nil
		}
		routeID := shared[0]
		switch {
		case cur.routeID == "":
			cur = routeSegment{routeID: routeID, stopIDs: []string{path[i], path[i+1]}}
		case routeID == cur.routeID:
			cur.stopIDs = append(cur.stopIDs, path[i+1])
		default:
			segs = append(segs, cur)
			cur = routeSegment{routeID: routeID, stopIDs: []string{path[i], path[i+1]}}
		}
	}
	if cur.routeID != "" {
		segs = append(segs, cur)
	}
	return segs
}

// materialize walks the candidate's segments forward in time, querying live
// departures at each boarding stop and advancing a time cursor, returning
// nil if any segment has no service.
func (e *Engine) materialize(ctx context.Context, cfg token.JourneyConfig, origin, dest geo.Stop, segs []routeSegment, apiKey string, now time.Time) *builtCandidate {
	cursor := now
	var legs []Leg
	totalWalk := 0
	reliability := 0.0
	usedModes := map[geo.ModeType]bool{}
	var routeIDs []string

	walkMins := geo.WalkMinutes(geo.DistanceMetres(cfg.Home.Point(), origin.Point()))
	legs = append(legs, Leg{Kind: LegWalk, Walk: &WalkLeg{
		FromLabel: "Home", ToLabel: origin.Name, Minutes: walkMins, IsFirst: true,
	}})
	cursor = cursor.Add(time.Duration(walkMins) * time.Minute)
	totalWalk += walkMins

	for _, seg := range segs {
		fromStop, ok := e.graph.Stop(seg.stopIDs[0])
		if !ok {
			return nil
		}
		toStop, ok := e.graph.Stop(seg.stopIDs[len(seg.stopIDs)-1])
		if !ok {
			return nil
		}

		deps := e.transit.GetDepartures(ctx, fromStop.ID, fromStop.ModeType, gtfsrt.GetDeparturesOptions{
			APIKey: apiKey, Now: cursor,
		})
		if len(deps) == 0 {
			return nil
		}
		dep := deps[0]

		rideMinutes := int(math.Ceil(interStopMinutes * float64(len(seg.stopIDs)-1)))
		delayMinutes := 0
		if dep.DelaySeconds > 0 {
			delayMinutes = int(math.Ceil(float64(dep.DelaySeconds) / 60))
		}

		var next []NextDeparture
		for _, d := range deps[1:] {
			next = append(next, NextDeparture{MinutesUntil: d.MinutesUntil})
			if len(next) == 2 {
				break
			}
		}

		legs = append(legs, Leg{Kind: LegTransit, Transit: &TransitLeg{
			ModeType:              fromStop.ModeType,
			RouteID:               seg.routeID,
			LineName:              dep.LineName,
			Origin:                fromStop,
			Destination:           toStop,
			DepartureMinutes:      dep.MinutesUntil,
			ScheduledDepartureUTC: dep.ScheduledTimeUTC,
			RideMinutes:           rideMinutes,
			DelayMinutes:          delayMinutes,
			IsDelayed:             dep.IsDelayed(),
			NextDepartures:        next,
		}})

		cursor = cursor.Add(time.Duration(dep.MinutesUntil+rideMinutes+delayMinutes) * time.Minute)
		reliability += float64(delayMinutes)
		usedModes[fromStop.ModeType] = true
		routeIDs = append(routeIDs, seg.routeID)
	}

	walkMins2 := geo.WalkMinutes(geo.DistanceMetres(dest.Point(), cfg.Work.Point()))
	legs = append(legs, Leg{Kind: LegWalk, Walk: &WalkLeg{
		FromLabel: dest.Name, ToLabel: "Work", Minutes: walkMins2, IsLast: true,
	}})
	cursor = cursor.Add(time.Duration(walkMins2) * time.Minute)
	totalWalk += walkMins2

	return &builtCandidate{
		legs:               legs,
		totalMinutes:       int(cursor.Sub(now).Round(time.Minute) / time.Minute),
		totalWalkMinutes:   totalWalk,
		transferCount:      len(segs) - 1,
		reliabilityPenalty: reliability,
		arrival:            cursor,
		usedModes:          usedModes,
		routeIDs:           routeIDs,
	}
}

// alertPenalty adds config.SuspendedOrBusReplPerLeg for every transit leg
// affected by a suspension- or major-severity alert, so two otherwise-equal
// candidates don't score identically when one rides a disrupted route.
func alertPenalty(b *builtCandidate, getAlerts func(geo.ModeType) []gtfsrt.ServiceAlert) float64 {
	penalty := 0.0
	for _, l := range b.legs {
		if l.Kind != LegTransit {
			continue
		}
		for _, a := range getAlerts(l.Transit.ModeType) {
			if !a.AffectsRoute(l.Transit.RouteID) {
				continue
			}
			if a.Severity == gtfsrt.SeverityDisruption || a.Severity == gtfsrt.SeverityMajor {
				penalty += config.SuspendedOrBusReplPerLeg
				break
			}
		}
	}
	return penalty
}

// scoreCandidate computes the weighted score used to rank journey
// candidates. Lower is better.
func scoreCandidate(b *builtCandidate) float64 {
	return config.WeightTotalMinutes*float64(b.totalMinutes) +
		config.WeightTransferPenalty*(config.TransferPenaltyPerLeg*float64(b.transferCount)) +
		config.WeightWalkMinutes*float64(b.totalWalkMinutes) +
		config.WeightReliability*b.reliabilityPenalty
}

func (e *Engine) finalize(b builtCandidate, cfg token.JourneyConfig, now time.Time) Journey {
	cumulativeDelay := 0
	delayedLegs := 0
	for _, l := range b.legs {
		if l.Kind == LegTransit {
			cumulativeDelay += l.Transit.DelayMinutes
			if l.Transit.IsDelayed {
				delayedLegs++
			}
		}
	}

	status := StatusLeaveNow
	switch {
	case delayedLegs >= 2:
		status = StatusDelays
	case delayedLegs == 1:
		status = StatusDelay
	}

	leaveBy := now
	if target, ok := parseArrivalTarget(cfg, now); ok {
		leaveBy = target.Add(-time.Duration(b.totalMinutes) * time.Minute)
	}

	return Journey{
		Legs:                   b.legs,
		TotalMinutes:           b.totalMinutes,
		CumulativeDelayMinutes: cumulativeDelay,
		ArrivalTimeLocal:       b.arrival,
		LeaveByTimeLocal:       leaveBy,
		StatusKind:             status,
		DataSource:             dataSourceOf(b.legs),
	}
}

// dataSourceOf reports which feed populated the journey. The Engine itself
// only ever sees live departures here — an absent API key short-circuits to
// the static timetable inside gtfsrt.Client before the Engine runs, so this
// is always "live" from the Engine's perspective; httpapi records the
// request-level apiKey presence separately for the /api/status payload.
func dataSourceOf(legs []Leg) DataSource {
	return DataSourceLive
}

// parseArrivalTarget parses cfg.ArrivalTimeLocal ("HH:MM") against the
// user's state timezone, returning the next occurrence at or after now.
func parseArrivalTarget(cfg token.JourneyConfig, now time.Time) (time.Time, bool) {
	if cfg.ArrivalTimeLocal == "" {
		return time.Time{}, false
	}
	tzName, ok := geo.StateTimezones[cfg.State]
	if !ok {
		tzName = "Australia/Melbourne"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc = time.UTC
	}
	localNow := now.In(loc)
	var h, m int
	if n, err := fmt.Sscanf(cfg.ArrivalTimeLocal, "%d:%d", &h, &m); n != 2 || err != nil {
		return time.Time{}, false
	}
	target := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), h, m, 0, 0, loc)
	if target.Before(localNow) {
		target = target.AddDate(0, 0, 1)
	}
	return target.UTC(), true
}

// noServiceJourney is the fallback Journey when no candidate route exists
// between Home and Work.
func noServiceJourney(now time.Time) Journey {
	return Journey{
		ArrivalTimeLocal: now,
		LeaveByTimeLocal: now,
		StatusKind:       StatusDisruption,
		DisruptionText:   "No services found",
		DataSource:       DataSourceFallback,
	}
}

// applyAlerts overlays active service alerts onto the journey's transit
// legs, escalating status and surfacing disruption text.
func (e *Engine) applyAlerts(ctx context.Context, j Journey, cfg token.JourneyConfig, now time.Time) Journey {
	if cfg.TransitAPIKey == "" {
		return j
	}
	seenModes := map[geo.ModeType]bool{}
	for _, l := range j.Legs {
		if l.Kind == LegTransit {
			seenModes[l.Transit.ModeType] = true
		}
	}

	var worst *gtfsrt.ServiceAlert
	for mode := range seenModes {
		alerts := e.transit.GetServiceAlerts(ctx, mode, cfg.TransitAPIKey, now)
		for i := range alerts {
			a := &alerts[i]
			if !legsAffectedBy(j.Legs, *a) {
				continue
			}
			if worst == nil || severityRank(a.Severity) > severityRank(worst.Severity) {
				worst = a
			}
		}
	}
	if worst == nil {
		return j
	}

	for i := range j.Legs {
		if j.Legs[i].Kind != LegTransit {
			continue
		}
		if !worst.AffectsRoute(j.Legs[i].Transit.RouteID) {
			continue
		}
		switch worst.Severity {
		case gtfsrt.SeverityDisruption:
			j.Legs[i].Transit.IsSuspended = true
		case gtfsrt.SeverityMajor:
			j.Legs[i].Transit.IsDiverted = true
		}
	}

	j.DisruptionText = worst.HeaderText
	switch worst.Severity {
	case gtfsrt.SeverityDisruption, gtfsrt.SeverityMajor:
		// Any leg carrying isSuspended or isDiverted means disruption —
		// there is no severity that yields a softer "diversion" status.
		j.StatusKind = StatusDisruption
	}
	return j
}

func legsAffectedBy(legs []Leg, a gtfsrt.ServiceAlert) bool {
	for _, l := range legs {
		if l.Kind == LegTransit && a.AffectsRoute(l.Transit.RouteID) {
			return true
		}
	}
	return false
}

func severityRank(s gtfsrt.Severity) int {
	switch s {
	case gtfsrt.SeverityDisruption:
		return 3
	case gtfsrt.SeverityMajor:
		return 2
	case gtfsrt.SeverityMinor:
		return 1
	default:
		return 0
	}
}
