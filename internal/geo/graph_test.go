package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

func buildLineGraph() *Graph {
	g := NewGraph()
	g.AddStop(Stop{ID: "A", ModeType: ModeTrain, Latitude: -37.81, Longitude: 144.96})
	g.AddStop(Stop{ID: "B", ModeType: ModeTrain, Latitude: -37.82, Longitude: 144.97})
	g.AddStop(Stop{ID: "C", ModeType: ModeTrain, Latitude: -37.83, Longitude: 144.98})
	g.AddStop(Stop{ID: "D", ModeType: ModeBus, Latitude: -37.84, Longitude: 144.99})

	g.AddRoute(Route{RouteID: "R1", ModeType: ModeTrain}, []string{"A", "B", "C"})
	g.AddRoute(Route{RouteID: "R2", ModeType: ModeBus}, []string{"C", "D"})
	return g
}

func TestGraphStopLookup(t *testing.T) {
	g := buildLineGraph()

	s, ok := g.Stop("B")
	if !ok {
		t.Fatal("Stop(B) not found")
	}
	if s.ID != "B" {
		t.Errorf("Stop(B).ID = %q, want %q", s.ID, "B")
	}

	if _, ok := g.Stop("nonexistent"); ok {
		t.Error("Stop(nonexistent) = found, want not found")
	}
}

func TestGraphAddStopReplacesById(t *testing.T) {
	g := NewGraph()
	g.AddStop(Stop{ID: "A", Name: "First"})
	g.AddStop(Stop{ID: "A", Name: "Replaced"})

	if got := len(g.AllStops()); got != 1 {
		t.Fatalf("AllStops() len = %d, want 1 after re-adding the same id", got)
	}
	s, _ := g.Stop("A")
	if s.Name != "Replaced" {
		t.Errorf("Stop(A).Name = %q, want %q", s.Name, "Replaced")
	}
}

func TestGraphRoutesServing(t *testing.T) {
	g := buildLineGraph()

	routes := g.RoutesServing("C")
	if len(routes) != 2 {
		t.Fatalf("RoutesServing(C) = %v, want 2 routes (it's the interchange)", routes)
	}
}

func TestGraphSharedRoutes(t *testing.T) {
	g := buildLineGraph()

	shared := g.SharedRoutes("A", "B")
	if len(shared) != 1 || shared[0] != "R1" {
		t.Errorf("SharedRoutes(A, B) = %v, want [R1]", shared)
	}

	none := g.SharedRoutes("A", "D")
	if len(none) != 0 {
		t.Errorf("SharedRoutes(A, D) = %v, want none (different lines)", none)
	}
}

func TestGraphStopsNearExcludesMode(t *testing.T) {
	g := buildLineGraph()
	origin := orb.Point{144.98, -37.83} // stop C's coordinate

	all := g.StopsNear(origin, 50000, nil)
	if len(all) != 4 {
		t.Fatalf("StopsNear (no exclusion) = %d stops, want 4", len(all))
	}

	trainsOnly := g.StopsNear(origin, 50000, map[ModeType]bool{ModeBus: true})
	for _, s := range trainsOnly {
		if s.ModeType == ModeBus {
			t.Errorf("StopsNear with ModeBus excluded still returned stop %q", s.ID)
		}
	}
	if len(trainsOnly) != 3 {
		t.Errorf("StopsNear (bus excluded) = %d stops, want 3", len(trainsOnly))
	}
}

func TestGraphInterchangeCandidates(t *testing.T) {
	g := buildLineGraph()

	candidates := g.InterchangeCandidates([]string{"A"}, []string{"D"})
	var found bool
	for _, s := range candidates {
		if s.ID == "C" {
			found = true
		}
	}
	if !found {
		t.Errorf("InterchangeCandidates(A, D) = %v, want to include C (the only stop shared by a route from each side)", candidates)
	}
}

func TestGraphRouteStopIDsInOrder(t *testing.T) {
	g := buildLineGraph()

	ids := g.RouteStopIDsInOrder("R1")
	want := []string{"A", "B", "C"}
	if len(ids) != len(want) {
		t.Fatalf("RouteStopIDsInOrder(R1) = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("RouteStopIDsInOrder(R1)[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestGraphAllRouteIDs(t *testing.T) {
	g := buildLineGraph()
	ids := g.AllRouteIDs()
	if len(ids) != 2 {
		t.Errorf("AllRouteIDs() = %v, want 2 routes", ids)
	}
}
