package statictimetable

import (
	"testing"
	"time"

	"commuterdash/internal/geo"
)

func buildTestTimetable() *Timetable {
	monday := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC) // matches todayAt's base Monday
	return &Timetable{
		byStopDay: map[string]map[time.Weekday][]Row{
			"stop-A": {
				time.Monday: []Row{
					{RouteID: "R1", LineName: "Line 1", ScheduledTimeUTC: monday.Add(8 * time.Hour), DestinationDisplay: "City", TerminusStopID: "term-1", TripID: "t1"},
					{RouteID: "R1", LineName: "Line 1", ScheduledTimeUTC: monday.Add(8*time.Hour + 30*time.Minute), DestinationDisplay: "City", TerminusStopID: "term-1", TripID: "t2"},
				},
			},
		},
	}
}

func TestDeparturesForStopFiltersPastDepartures(t *testing.T) {
	tt := buildTestTimetable()
	now := time.Date(2026, 8, 3, 8, 15, 0, 0, time.UTC) // a Monday, between the two scheduled times

	rows := tt.DeparturesForStop("stop-A", now)
	if len(rows) != 1 {
		t.Fatalf("DeparturesForStop() returned %d rows, want 1 (only the 08:30 departure is still upcoming)", len(rows))
	}
	if rows[0].TripID != "t2" {
		t.Errorf("TripID = %q, want %q", rows[0].TripID, "t2")
	}
	wantHour, wantMin := 8, 30
	if rows[0].ScheduledTimeUTC.Hour() != wantHour || rows[0].ScheduledTimeUTC.Minute() != wantMin {
		t.Errorf("ScheduledTimeUTC = %v, want %02d:%02d", rows[0].ScheduledTimeUTC, wantHour, wantMin)
	}
}

func TestDeparturesForStopUnknownStopIsEmpty(t *testing.T) {
	tt := buildTestTimetable()
	rows := tt.DeparturesForStop("nonexistent", time.Now())
	if rows != nil {
		t.Errorf("DeparturesForStop() for an unknown stop = %v, want nil", rows)
	}
}

func TestDeparturesForStopWrongWeekdayIsEmpty(t *testing.T) {
	tt := buildTestTimetable()
	tuesday := time.Date(2026, 8, 4, 7, 0, 0, 0, time.UTC)

	rows := tt.DeparturesForStop("stop-A", tuesday)
	if len(rows) != 0 {
		t.Errorf("DeparturesForStop() on a day with no scheduled service = %v, want empty", rows)
	}
}

func TestModeFromRouteType(t *testing.T) {
	tests := []struct {
		name      string
		routeType int16
		want      geo.ModeType
	}{
		{"tram/light rail", 0, geo.ModeTram},
		{"subway", 1, geo.ModeTrain},
		{"rail", 2, geo.ModeTrain},
		{"bus", 3, geo.ModeBus},
		{"ferry", 4, geo.ModeFerry},
		{"unrecognized code falls back to bus", 99, geo.ModeBus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modeFromRouteType(tt.routeType); got != tt.want {
				t.Errorf("modeFromRouteType(%d) = %v, want %v", tt.routeType, got, tt.want)
			}
		})
	}
}
