package engine

import (
	dijkstra "github.com/RyanCarrier/dijkstra/v2"

	"commuterdash/internal/geo"
)

// stopMinutesGraph wraps a dijkstra.Graph over the Stop graph, weighted by an
// estimated inter-stop travel time. Route candidate search uses this in
// place of a hand-rolled BFS so multi-hop interchange paths are found by
// actual shortest-path search rather than only the one-interchange special
// case.
type stopMinutesGraph struct {
	g        *dijkstra.Graph
	stopID   []string          // dijkstra vertex id -> stop id
	vertexOf map[string]int64 // stop id -> dijkstra vertex id
}

// interStopMinutes is a flat estimate for one hop between adjacent stops on
// the same route (average dwell + running time on a metro/tram/bus network).
const interStopMinutes = 2.5

func buildStopMinutesGraph(g *geo.Graph) *stopMinutesGraph {
	dg := dijkstra.NewGraph()
	sg := &stopMinutesGraph{g: dg, vertexOf: make(map[string]int64)}

	stops := g.AllStops()
	sg.stopID = make([]string, len(stops))
	for _, s := range stops {
		v := dg.AddVertex()
		sg.vertexOf[s.ID] = v
		for int(v) >= len(sg.stopID) {
			sg.stopID = append(sg.stopID, "")
		}
		sg.stopID[v] = s.ID
	}

	for _, routeID := range g.AllRouteIDs() {
		sg.addRouteEdges(g.RouteStopIDsInOrder(routeID))
	}
	return sg
}

// addRouteEdges wires consecutive stops of one route as bidirectional edges.
func (sg *stopMinutesGraph) addRouteEdges(orderedStopIDs []string) {
	for i := 0; i+1 < len(orderedStopIDs); i++ {
		a, aok := sg.vertexOf[orderedStopIDs[i]]
		b, bok := sg.vertexOf[orderedStopIDs[i+1]]
		if !aok || !bok {
			continue
		}
		weight := int64(interStopMinutes * 10) // dijkstra/v2 weights are integers; tenths of a minute
		_ = sg.g.AddArc(a, b, weight)
		_ = sg.g.AddArc(b, a, weight)
	}
}

// shortestPath returns the sequence of stop ids on the minimum-minutes path
// from originStopID to destStopID, or nil if unreachable.
func (sg *stopMinutesGraph) shortestPath(originStopID, destStopID string) []string {
	from, ok := sg.vertexOf[originStopID]
	if !ok {
		return nil
	}
	to, ok := sg.vertexOf[destStopID]
	if !ok {
		return nil
	}
	best, err := sg.g.Shortest(from, to)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(best.Path))
	for _, v := range best.Path {
		if int(v) < len(sg.stopID) {
			out = append(out, sg.stopID[v])
		}
	}
	return out
}
