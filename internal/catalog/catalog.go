// Package catalog serves the read-only metadata endpoints that sit
// alongside the routing core: line listings, line/stop detail, and
// viewport stop search. None of this is part of the RAPTOR search
// itself. A "line" here is simply a distinct route_id, and its stop
// sequence is read straight off the trips that share it, so the
// catalog is built once in memory from the already-loaded Timetable
// instead of issuing its own
// queries.
package catalog

import (
	"math"
	"sort"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

// LineSummary describes one route_id: the stop sequence of whichever
// of its trips visits the most stops. Stops visited only by the
// route's other trips are not listed.
type LineSummary struct {
	RouteID   timetable.RouteID  `json:"route_id"`
	StopIDs   []timetable.StopID `json:"stop_ids"`
	TripCount int                `json:"trip_count"`
}

// StopSummary is a stop plus the lines serving it, for the stop-detail
// and viewport-search endpoints.
type StopSummary struct {
	StopID timetable.StopID    `json:"stop_id"`
	Name   string              `json:"name"`
	Lat    float64             `json:"lat"`
	Lon    float64             `json:"lon"`
	Lines  []timetable.RouteID `json:"route_ids"`
}

// Catalog is a read-only, precomputed view over a Timetable. Build it
// once per loaded feed and share it the same way the Timetable itself
// is shared.
type Catalog struct {
	tt        *timetable.Timetable
	lines     map[timetable.RouteID]*LineSummary
	stopLines map[timetable.StopID][]timetable.RouteID
}

// New builds a Catalog by scanning every trip's stop sequence once.
func New(tt *timetable.Timetable) *Catalog {
	c := &Catalog{
		tt:        tt,
		lines:     make(map[timetable.RouteID]*LineSummary),
		stopLines: make(map[timetable.StopID][]timetable.RouteID),
	}

	for _, trip := range tt.AllTrips() {
		rows := tt.StopTimesOfTrip(trip.ID)
		line, ok := c.lines[trip.RouteID]
		if !ok {
			line = &LineSummary{RouteID: trip.RouteID}
			c.lines[trip.RouteID] = line
		}
		line.TripCount++
		if len(rows) > len(line.StopIDs) {
			stopIDs := make([]timetable.StopID, len(rows))
			for i, r := range rows {
				stopIDs[i] = r.StopID
			}
			line.StopIDs = stopIDs
		}
		for _, r := range rows {
			c.addStopLine(r.StopID, trip.RouteID)
		}
	}

	return c
}

func (c *Catalog) addStopLine(stopID timetable.StopID, routeID timetable.RouteID) {
	for _, existing := range c.stopLines[stopID] {
		if existing == routeID {
			return
		}
	}
	c.stopLines[stopID] = append(c.stopLines[stopID], routeID)
}

// ListLines returns every line, ordered by route_id for a stable
// response shape.
func (c *Catalog) ListLines() []LineSummary {
	out := make([]LineSummary, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteID < out[j].RouteID })
	return out
}

// LineDetail returns the line summary for routeID.
func (c *Catalog) LineDetail(routeID timetable.RouteID) (LineSummary, bool) {
	l, ok := c.lines[routeID]
	if !ok {
		return LineSummary{}, false
	}
	return *l, true
}

// StopDetail returns stopID's name, coordinates and serving lines.
func (c *Catalog) StopDetail(stopID timetable.StopID) (StopSummary, bool) {
	stop, ok := c.tt.Stop(stopID)
	if !ok {
		return StopSummary{}, false
	}
	return StopSummary{
		StopID: stop.ID,
		Name:   stop.Name,
		Lat:    stop.Lat,
		Lon:    stop.Lon,
		Lines:  c.stopLines[stopID],
	}, true
}

// allStops returns the Stop record of every stop served by at least
// one trip, taken from the stop-to-lines map New built, so
// StopsInViewport does not re-walk the trip/stop_time data. It is
// recomputed on every call; stops no trip serves are not included.
func (c *Catalog) allStops() []timetable.Stop {
	seen := make(map[timetable.StopID]struct{}, len(c.stopLines))
	out := make([]timetable.Stop, 0, len(c.stopLines))
	for stopID := range c.stopLines {
		if _, ok := seen[stopID]; ok {
			continue
		}
		seen[stopID] = struct{}{}
		if s, ok := c.tt.Stop(stopID); ok {
			out = append(out, s)
		}
	}
	return out
}

// StopsInViewport returns every stop served by at least one trip
// inside the given lat/lon bounding box, capped at 200 results. There is no spatial
// index here, so this is a linear scan suited to a single feed's
// stop count, not a continent-scale one.
func (c *Catalog) StopsInViewport(minLat, minLon, maxLat, maxLon float64) []StopSummary {
	const maxResults = 200
	var out []StopSummary
	for _, s := range c.allStops() {
		if s.Lat < math.Min(minLat, maxLat) || s.Lat > math.Max(minLat, maxLat) {
			continue
		}
		if s.Lon < math.Min(minLon, maxLon) || s.Lon > math.Max(minLon, maxLon) {
			continue
		}
		out = append(out, StopSummary{StopID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon, Lines: c.stopLines[s.ID]})
		if len(out) >= maxResults {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StopID < out[j].StopID })
	return out
}
