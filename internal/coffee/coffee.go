// Package coffee implements the Coffee Decision sub-engine: a
// small, separately-testable rule set that decides whether a coffee stop
// fits into an already-planned Journey, and if so, where.
package coffee

import (
	"time"

	"github.com/paulmach/orb"

	"commuterdash/internal/config"
	"commuterdash/internal/engine"
	"commuterdash/internal/geo"
	"commuterdash/internal/token"
)

// Cafe is a candidate cafe returned by a CafeLookup: its point (so callers
// can work out the detour a stop there would add) plus cached business
// hours in minutes-after-local-midnight. A Cafe with OpensMinute==0 and
// ClosesMinute==0 carries no cached hours and is treated as always open.
type Cafe struct {
	Name         string
	Point        orb.Point
	OpensMinute  int
	ClosesMinute int
}

// OpenAt reports whether the cafe is open at t, evaluated in loc.
func (c Cafe) OpenAt(t time.Time, loc *time.Location) bool {
	if c.OpensMinute == 0 && c.ClosesMinute == 0 {
		return true
	}
	if loc != nil {
		t = t.In(loc)
	}
	minute := t.Hour()*60 + t.Minute()
	if c.ClosesMinute > c.OpensMinute {
		return minute >= c.OpensMinute && minute < c.ClosesMinute
	}
	// hours wrap past midnight (e.g. a cafe open 22:00-02:00)
	return minute >= c.OpensMinute || minute < c.ClosesMinute
}

// CafeLookup resolves the nearest known cafe to a point. No implementation
// ships with the server (cmd/server passes nil, so no cafe is ever found);
// tests supply a fixed stub.
type CafeLookup interface {
	NearestCafe(p orb.Point, radiusMetres float64) (Cafe, bool)
}

// Engine is the Coffee Decision sub-engine. It implements engine.CoffeePlacer.
type Engine struct {
	cafes CafeLookup
}

// New builds a Coffee Decision engine over a cafe lookup source.
func New(cafes CafeLookup) *Engine {
	return &Engine{cafes: cafes}
}

// candidatePosition is one viable place to insert a coffee leg, carrying the
// geometry needed to cost it and splice it in.
type candidatePosition struct {
	pos          engine.CoffeePosition
	cafe         Cafe
	stopName     string
	walkDelta    int
	addedMinutes int
}

// Place inserts a Coffee leg into journey if the user has coffee enabled and
// slack allows it. It never mutates journey.Legs in place: it
// returns a new Journey with the coffee leg spliced in when a cafe is found
// and slack allows it, and with a CanGet:false CoffeeLeg recording the
// reason otherwise, so the renderer can show why coffee was skipped.
func (e *Engine) Place(journey engine.Journey, cfg token.JourneyConfig, now time.Time) engine.Journey {
	if !cfg.CoffeeEnabled || len(journey.Legs) == 0 {
		return journey
	}

	// A disrupted journey is not skipped outright: carriesDisruptionAlert
	// below still lets a coffee stop through, labeled ReasonExtraTimeDisruption,
	// when the disruption leaves ample slack. Running late is decided purely
	// by slack, not by status, so it isn't double-guessed here.
	slack := computeSlack(journey, now)
	if slack < 0 {
		return e.skip(journey, engine.ReasonSkipRunningLate)
	}

	viable := e.viablePositions(journey, cfg, slack)
	if len(viable) == 0 {
		return e.skip(journey, engine.ReasonNoSlack)
	}

	loc := stateLocation(cfg.State)
	open := make([]candidatePosition, 0, len(viable))
	for _, c := range viable {
		arrival := now.Add(time.Duration(minutesBeforePosition(journey, c.pos)) * time.Minute)
		if c.cafe.OpenAt(arrival, loc) {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return e.skip(journey, engine.ReasonCafeClosed)
	}

	chosen, reason := choosePosition(open, now.In(loc).Weekday() == time.Friday)
	if carriesDisruptionAlert(journey) && slack-chosen.addedMinutes >= config.CoffeeExtraTimeSlackMins {
		reason = engine.ReasonExtraTimeDisruption
	}

	return e.insertAt(journey, chosen, reason)
}

// computeSlack is the minutes between now and the journey's leave-by time,
// which collapses to zero when the user set no target arrival time
// (engine.PlanJourney then sets LeaveByTimeLocal = now). It is not clamped
// to zero: a negative result means the user is already running late.
func computeSlack(j engine.Journey, now time.Time) int {
	if j.LeaveByTimeLocal.IsZero() {
		return 0
	}
	return int(j.LeaveByTimeLocal.Sub(now).Round(time.Minute) / time.Minute)
}

// stateLocation resolves the user's state-derived timezone, falling back to
// UTC when the state is unknown or the zone database is unavailable.
func stateLocation(state geo.AuState) *time.Location {
	tzName, ok := geo.StateTimezones[state]
	if !ok {
		return time.UTC
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.UTC
	}
	return loc
}

// viablePositions finds every position — origin, interchange, destination —
// whose detour fits within slack, per the candidate-costing rules.
func (e *Engine) viablePositions(j engine.Journey, cfg token.JourneyConfig, slack int) []candidatePosition {
	if e.cafes == nil {
		return nil
	}

	var out []candidatePosition

	if origin, ok := e.originCandidate(j, cfg); ok {
		if slack >= origin.addedMinutes+config.CoffeeSlackBufferMinutes {
			out = append(out, origin)
		}
	}

	for _, c := range e.interchangeCandidates(j) {
		if slack >= c.addedMinutes+config.CoffeeSlackBufferMinutes {
			out = append(out, c)
		}
	}

	if dest, ok := e.destinationCandidate(j, cfg); ok {
		if slack >= dest.addedMinutes+config.CoffeeSlackBufferMinutes {
			out = append(out, dest)
		}
	}

	return out
}

// originCandidate is viable iff a cafe sits within CoffeeOriginWalkBudget of
// home and the detour home→cafe→stop costs at most CoffeeOriginDetourMinutes
// over the direct home→stop walk.
func (e *Engine) originCandidate(j engine.Journey, cfg token.JourneyConfig) (candidatePosition, bool) {
	stop, ok := firstTransitOrigin(j)
	if !ok {
		return candidatePosition{}, false
	}
	cafe, found := e.cafes.NearestCafe(cfg.Home.Point(), config.CoffeeOriginWalkBudget)
	if !found {
		return candidatePosition{}, false
	}

	direct := geo.WalkMinutes(geo.DistanceMetres(cfg.Home.Point(), stop))
	detour := geo.WalkMinutes(geo.DistanceMetres(cfg.Home.Point(), cafe.Point)) + geo.WalkMinutes(geo.DistanceMetres(cafe.Point, stop))
	delta := detour - direct
	if delta > int(config.CoffeeOriginDetourMinutes) {
		return candidatePosition{}, false
	}

	return candidatePosition{
		pos:          engine.PositionOrigin,
		cafe:         cafe,
		walkDelta:    delta,
		addedMinutes: delta + config.DefaultCoffeePrepMinutes,
	}, true
}

// interchangeCandidates considers every non-terminal transit leg's
// destination stop (a leg with another transit leg still ahead of it), i.e.
// the interchange where the user alights to transfer. A coffee stop there
// adds no extra walking beyond the transfer already happening — the cost is
// prep time alone.
func (e *Engine) interchangeCandidates(j engine.Journey) []candidatePosition {
	var out []candidatePosition
	for i, l := range j.Legs {
		if l.Kind != engine.LegTransit || !hasLaterTransitLeg(j.Legs, i) {
			continue
		}
		cafe, found := e.cafes.NearestCafe(l.Transit.Destination.Point(), config.CafeInterchangeRadiusMetres)
		if !found {
			continue
		}
		out = append(out, candidatePosition{
			pos:          engine.PositionInterchange,
			cafe:         cafe,
			stopName:     l.Transit.Destination.Name,
			addedMinutes: config.DefaultCoffeePrepMinutes,
		})
	}
	return out
}

// destinationCandidate is viable iff a cafe sits within CoffeeDestinationRadius
// of work; arriving there adds prep time only, the detour is absorbed by the
// final walk leg.
func (e *Engine) destinationCandidate(j engine.Journey, cfg token.JourneyConfig) (candidatePosition, bool) {
	cafe, found := e.cafes.NearestCafe(cfg.Work.Point(), config.CoffeeDestinationRadius)
	if !found {
		return candidatePosition{}, false
	}
	return candidatePosition{
		pos:          engine.PositionDestination,
		cafe:         cafe,
		addedMinutes: config.DefaultCoffeePrepMinutes,
	}, true
}

// firstTransitOrigin returns the stop point of the journey's first transit
// leg, the anchor an origin coffee stop detours against.
func firstTransitOrigin(j engine.Journey) (orb.Point, bool) {
	for _, l := range j.Legs {
		if l.Kind == engine.LegTransit {
			return l.Transit.Origin.Point(), true
		}
	}
	return orb.Point{}, false
}

// hasLaterTransitLeg reports whether legs has a transit leg after index i —
// i.e. whether the leg at i is followed by a transfer rather than ending the
// journey.
func hasLaterTransitLeg(legs []engine.Leg, i int) bool {
	for j := i + 1; j < len(legs); j++ {
		if legs[j].Kind == engine.LegTransit {
			return true
		}
	}
	return false
}

// minutesBeforePosition sums the leg minutes that elapse before pos's
// splice point, used to estimate the clock time a coffee stop there would
// actually be reached.
func minutesBeforePosition(j engine.Journey, pos engine.CoffeePosition) int {
	total := 0
	switch pos {
	case engine.PositionOrigin:
		if len(j.Legs) > 0 {
			total += j.Legs[0].Minutes()
		}
	case engine.PositionInterchange:
		for _, l := range j.Legs {
			total += l.Minutes()
			if l.Kind == engine.LegTransit {
				break
			}
		}
	case engine.PositionDestination:
		for i := 0; i < len(j.Legs)-1; i++ {
			total += j.Legs[i].Minutes()
		}
	}
	return total
}

// carriesDisruptionAlert reports whether any transit leg on the candidate
// has been marked suspended or diverted by an active service alert.
func carriesDisruptionAlert(j engine.Journey) bool {
	for _, l := range j.Legs {
		if l.Kind == engine.LegTransit && (l.Transit.IsSuspended || l.Transit.IsDiverted) {
			return true
		}
	}
	return false
}

// choosePosition picks among survivors: origin is preferred on weekdays,
// destination on Fridays (reason=fridayTreat); ties within a position break
// by smallest added minutes.
func choosePosition(survivors []candidatePosition, friday bool) (candidatePosition, engine.CoffeeReason) {
	order := []engine.CoffeePosition{engine.PositionOrigin, engine.PositionInterchange, engine.PositionDestination}
	if friday {
		order = []engine.CoffeePosition{engine.PositionDestination, engine.PositionInterchange, engine.PositionOrigin}
	}

	for _, pos := range order {
		best, ok := cheapestAt(survivors, pos)
		if !ok {
			continue
		}
		reason := engine.ReasonTimeForCoffee
		if friday && pos == engine.PositionDestination {
			reason = engine.ReasonFridayTreat
		}
		return best, reason
	}

	// Unreachable when survivors is non-empty, since every survivor's pos is
	// one of the three named above.
	return survivors[0], engine.ReasonTimeForCoffee
}

func cheapestAt(survivors []candidatePosition, pos engine.CoffeePosition) (candidatePosition, bool) {
	var best candidatePosition
	found := false
	for _, c := range survivors {
		if c.pos != pos {
			continue
		}
		if !found || c.addedMinutes < best.addedMinutes {
			best = c
			found = true
		}
	}
	return best, found
}

func (e *Engine) insertAt(j engine.Journey, c candidatePosition, reason engine.CoffeeReason) engine.Journey {
	leg := engine.Leg{Kind: engine.LegCoffee, Coffee: &engine.CoffeeLeg{
		CafeName:            c.cafe.Name,
		DurationMinutes:     c.addedMinutes,
		CanGet:              true,
		Position:            c.pos,
		Reason:              reason,
		InterchangeStopName: c.stopName,
	}}

	out := j
	out.Legs = spliceCoffeeLeg(j.Legs, leg, c.pos)
	out.TotalMinutes += c.addedMinutes
	out.ArrivalTimeLocal = out.ArrivalTimeLocal.Add(time.Duration(c.addedMinutes) * time.Minute)
	return out
}

func (e *Engine) skip(j engine.Journey, reason engine.CoffeeReason) engine.Journey {
	out := j
	out.Legs = append(append([]engine.Leg{}, j.Legs...), engine.Leg{
		Kind: engine.LegCoffee,
		Coffee: &engine.CoffeeLeg{
			CanGet: false,
			Reason: reason,
		},
	})
	return out
}

// spliceCoffeeLeg inserts leg at the position implied by pos: right after
// the first walk leg (origin), right after the first transit leg
// (interchange), or right before the final walk leg (destination).
func spliceCoffeeLeg(legs []engine.Leg, leg engine.Leg, pos engine.CoffeePosition) []engine.Leg {
	out := make([]engine.Leg, 0, len(legs)+1)
	inserted := false
	switch pos {
	case engine.PositionOrigin:
		if len(legs) > 0 {
			out = append(out, legs[0], leg)
			out = append(out, legs[1:]...)
			inserted = true
		}
	case engine.PositionInterchange:
		for i, l := range legs {
			out = append(out, l)
			if !inserted && l.Kind == engine.LegTransit {
				out = append(out, leg)
				out = append(out, legs[i+1:]...)
				inserted = true
				break
			}
		}
	case engine.PositionDestination:
		if len(legs) > 0 {
			out = append(out, legs[:len(legs)-1]...)
			out = append(out, leg, legs[len(legs)-1])
			inserted = true
		}
	}
	if !inserted {
		out = append(append([]engine.Leg{}, legs...), leg)
	}
	return out
}
