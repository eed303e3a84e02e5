// Package statictimetable parses the bundled static GTFS schedule used as a
// fallback when live GTFS-RT feeds are unavailable. Parsing is delegated to
// github.com/geops/gtfsparser rather than hand-rolling CSV readers for
// stop_times.txt/calendar.txt/trips.txt.
package statictimetable

import (
	"fmt"
	"sort"
	"time"

	gtfsparser "github.com/geops/gtfsparser"

	"commuterdash/internal/geo"
)

// Row is one scheduled departure projected from the static feed.
type Row struct {
	RouteID            string
	LineName           string
	ScheduledTimeUTC   time.Time
	DestinationDisplay string
	TerminusStopID     string
	TripID             string
}

// Timetable holds a parsed static GTFS bundle, indexed by stop id and
// weekday for fast DeparturesForStop lookups.
type Timetable struct {
	feed *gtfsparser.Feed
	// byStopDay[stopID][weekday] is a time-sorted list of departures.
	byStopDay map[string]map[time.Weekday][]Row
}

// Load parses a static GTFS zip bundle from disk. The deployment bundles
// this alongside the binary as the only persistent file-system state besides
// the font files.
func Load(zipPath string) (*Timetable, error) {
	feed := gtfsparser.NewFeed()
	if err := feed.Parse(zipPath); err != nil {
		return nil, fmt.Errorf("parse static GTFS bundle %s: %w", zipPath, err)
	}

	t := &Timetable{feed: feed, byStopDay: make(map[string]map[time.Weekday][]Row)}
	t.index()
	return t, nil
}

func (t *Timetable) index() {
	for _, trip := range t.feed.Trips {
		if trip.Route == nil || len(trip.StopTimes) == 0 {
			continue
		}
		terminus := trip.StopTimes[len(trip.StopTimes)-1]
		if terminus.Stop() == nil {
			continue
		}
		days := activeWeekdays(trip)

		for _, st := range trip.StopTimes {
			if st.Stop() == nil {
				continue
			}
			row := Row{
				RouteID:            trip.Route.Id,
				LineName:           trip.Route.Short_name,
				DestinationDisplay: trip.Headsign,
				TerminusStopID:     terminus.Stop().Id,
				TripID:             trip.Id,
			}
			secs := st.Arrival_time.SecondsSinceMidnight()
			if secs == 0 {
				secs = st.Departure_time.SecondsSinceMidnight()
			}

			stopID := st.Stop().Id
			if t.byStopDay[stopID] == nil {
				t.byStopDay[stopID] = make(map[time.Weekday][]Row)
			}
			for _, d := range days {
				row := row
				row.ScheduledTimeUTC = todayAt(secs, d)
				t.byStopDay[stopID][d] = append(t.byStopDay[stopID][d], row)
			}
		}
	}

	for _, byDay := range t.byStopDay {
		for d, rows := range byDay {
			sort.Slice(rows, func(i, j int) bool {
				return rows[i].ScheduledTimeUTC.Before(rows[j].ScheduledTimeUTC)
			})
			byDay[d] = rows
		}
	}
}

func activeWeekdays(trip *gtfsparser.Trip) []time.Weekday {
	if trip.Service == nil {
		return nil
	}
	var days []time.Weekday
	if trip.Service.Daymap[1] {
		days = append(days, time.Monday)
	}
	if trip.Service.Daymap[2] {
		days = append(days, time.Tuesday)
	}
	if trip.Service.Daymap[3] {
		days = append(days, time.Wednesday)
	}
	if trip.Service.Daymap[4] {
		days = append(days, time.Thursday)
	}
	if trip.Service.Daymap[5] {
		days = append(days, time.Friday)
	}
	if trip.Service.Daymap[6] {
		days = append(days, time.Saturday)
	}
	if trip.Service.Daymap[0] {
		days = append(days, time.Sunday)
	}
	return days
}

// todayAt produces a placeholder UTC time-of-day marker for weekday d and
// seconds-since-midnight secs. DeparturesForStop rewrites the date component
// onto the caller's `now` before returning rows, so this base date is
// arbitrary (2001-01-01, a Monday) and only the weekday/time-of-day matter.
func todayAt(secs uint32, d time.Weekday) time.Time {
	base := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	offset := int(d) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return base.AddDate(0, 0, offset).Add(time.Duration(secs) * time.Second)
}

// Graph builds a geo.Graph from the parsed static feed's stops and routes,
// picking each route's longest trip as its canonical stop sequence. This is
// the one-time startup conversion from GTFS's own stop/route model into the
// Engine's in-memory graph.
func (t *Timetable) Graph() *geo.Graph {
	g := geo.NewGraph()
	for _, stop := range t.feed.Stops {
		g.AddStop(geo.Stop{
			ID:        stop.Id,
			Name:      stop.Name,
			Latitude:  float64(stop.Lat),
			Longitude: float64(stop.Lon),
		})
	}

	longestTrip := map[string]*gtfsparser.Trip{}
	for _, trip := range t.feed.Trips {
		if trip.Route == nil {
			continue
		}
		cur := longestTrip[trip.Route.Id]
		if cur == nil || len(trip.StopTimes) > len(cur.StopTimes) {
			longestTrip[trip.Route.Id] = trip
		}
	}

	for routeID, trip := range longestTrip {
		mode := modeFromRouteType(trip.Route.Type)
		stopIDs := make([]string, 0, len(trip.StopTimes))
		for _, st := range trip.StopTimes {
			if st.Stop() == nil {
				continue
			}
			stopIDs = append(stopIDs, st.Stop().Id)
		}
		g.AddRoute(geo.Route{
			RouteID:  routeID,
			LineName: trip.Route.Short_name,
			ModeType: mode,
		}, stopIDs)
	}
	return g
}

// modeFromRouteType maps a GTFS route_type code to a geo.ModeType
// (GTFS static reference: 0 tram/light rail, 1 subway/metro, 2 rail,
// 3 bus, 4 ferry).
func modeFromRouteType(routeType int16) geo.ModeType {
	switch routeType {
	case 0:
		return geo.ModeTram
	case 1, 2:
		return geo.ModeTrain
	case 4:
		return geo.ModeFerry
	default:
		return geo.ModeBus
	}
}

// DeparturesForStop returns static schedule departures at or after now for
// stopID, never inventing departures outside that day's service hours.
func (t *Timetable) DeparturesForStop(stopID string, now time.Time) []Row {
	byDay, ok := t.byStopDay[stopID]
	if !ok {
		return nil
	}
	rows := byDay[now.Weekday()]
	todayMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		secs := r.ScheduledTimeUTC.Sub(time.Date(r.ScheduledTimeUTC.Year(), r.ScheduledTimeUTC.Month(), r.ScheduledTimeUTC.Day(), 0, 0, 0, 0, time.UTC))
		actual := todayMidnight.Add(secs)
		if actual.Before(now) {
			continue
		}
		row := r
		row.ScheduledTimeUTC = actual
		out = append(out, row)
	}
	return out
}
