package geo

import "github.com/paulmach/orb"

// Graph is a small in-memory arena of Stops and Routes for one metropolitan
// area: Stops are indexed by id, with Route adjacency stored as index
// lists rather than pointer-chasing.
type Graph struct {
	stops      []Stop
	stopIndex  map[string]int
	routes     map[string]Route
	// routeStops maps a routeId to the stop indices it serves, in order.
	routeStops map[string][]int
	// stopsByRoute is the inverse: a stop id to the route ids that call there.
	stopsByRoute map[string][]string
}

// NewGraph builds an empty graph ready for AddStop/AddRoute calls.
func NewGraph() *Graph {
	return &Graph{
		stopIndex:    make(map[string]int),
		routes:       make(map[string]Route),
		routeStops:   make(map[string][]int),
		stopsByRoute: make(map[string][]string),
	}
}

// AddStop inserts or replaces a stop by id.
func (g *Graph) AddStop(s Stop) {
	if idx, ok := g.stopIndex[s.ID]; ok {
		g.stops[idx] = s
		return
	}
	g.stopIndex[s.ID] = len(g.stops)
	g.stops = append(g.stops, s)
}

// AddRoute registers a route and the ordered stop ids it serves.
func (g *Graph) AddRoute(r Route, orderedStopIDs []string) {
	g.routes[r.RouteID] = r
	idxs := make([]int, 0, len(orderedStopIDs))
	for _, id := range orderedStopIDs {
		if idx, ok := g.stopIndex[id]; ok {
			idxs = append(idxs, idx)
			g.stopsByRoute[id] = append(g.stopsByRoute[id], r.RouteID)
		}
	}
	g.routeStops[r.RouteID] = idxs
}

// Stop looks up a stop by id.
func (g *Graph) Stop(id string) (Stop, bool) {
	idx, ok := g.stopIndex[id]
	if !ok {
		return Stop{}, false
	}
	return g.stops[idx], true
}

// Route looks up a route by id.
func (g *Graph) Route(id string) (Route, bool) {
	r, ok := g.routes[id]
	return r, ok
}

// StopsNear returns every stop within radiusMetres of the given point whose
// mode is not in the excluded set.
func (g *Graph) StopsNear(p orb.Point, radiusMetres float64, excluded map[ModeType]bool) []Stop {
	out := []Stop{}
	for _, s := range g.stops {
		if excluded[s.ModeType] {
			continue
		}
		d := DistanceMetres(s.Point(), p)
		if d <= radiusMetres {
			out = append(out, s)
		}
	}
	return out
}

// RoutesServing returns the route ids calling at a stop.
func (g *Graph) RoutesServing(stopID string) []string {
	return g.stopsByRoute[stopID]
}

// SharedRoutes returns route ids that serve both stops, by set intersection.
func (g *Graph) SharedRoutes(stopA, stopB string) []string {
	a := g.RoutesServing(stopA)
	b := make(map[string]bool, len(g.RoutesServing(stopB)))
	for _, r := range g.RoutesServing(stopB) {
		b[r] = true
	}
	var shared []string
	for _, r := range a {
		if b[r] {
			shared = append(shared, r)
		}
	}
	return shared
}

// InterchangeCandidates returns every stop that lies on a route serving the
// origin side and also on a route serving the destination side — candidate
// interchange stations for a 2-transit-leg journey.
func (g *Graph) InterchangeCandidates(originStopIDs, destStopIDs []string) []Stop {
	originRoutes := map[string]bool{}
	for _, id := range originStopIDs {
		for _, r := range g.RoutesServing(id) {
			originRoutes[r] = true
		}
	}
	destRoutes := map[string]bool{}
	for _, id := range destStopIDs {
		for _, r := range g.RoutesServing(id) {
			destRoutes[r] = true
		}
	}

	onOriginSide := map[string]bool{}
	for routeID := range originRoutes {
		for _, idx := range g.routeStops[routeID] {
			onOriginSide[g.stops[idx].ID] = true
		}
	}

	seen := map[string]bool{}
	var out []Stop
	for routeID := range destRoutes {
		for _, idx := range g.routeStops[routeID] {
			s := g.stops[idx]
			if !onOriginSide[s.ID] || seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	return out
}

// AllStops returns every stop in the graph (used for diagnostics/tests).
func (g *Graph) AllStops() []Stop {
	return g.stops
}

// RouteStopIDsInOrder returns the stop ids served by routeID in the order
// passed to AddRoute, used to wire adjacency edges for shortest-path search.
func (g *Graph) RouteStopIDsInOrder(routeID string) []string {
	idxs := g.routeStops[routeID]
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = g.stops[idx].ID
	}
	return out
}

// AllRouteIDs returns every route id registered in the graph.
func (g *Graph) AllRouteIDs() []string {
	out := make([]string, 0, len(g.routes))
	for id := range g.routes {
		out = append(out, id)
	}
	return out
}
