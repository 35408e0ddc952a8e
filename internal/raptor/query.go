// Package raptor implements the round-based transit routing search:
// the round loop alternating trip-scan and transfer-relax phases, its
// reverse-search dual, and point-to-point / isochrone result assembly
// over an internal/timetable.Timetable and internal/label.Table.
package raptor

import (
	"fmt"
	"time"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

// Query is a single search request.
type Query struct {
	OriginStopIDs      []timetable.StopID
	DestinationStopIDs []timetable.StopID // empty for an isochrone query
	Date               time.Time
	SpecifiedSecs      int
	TransfersLimit     int
	Reverse            bool
	AvailableTripIDs   []timetable.TripID // optional restriction; nil means "use the calendar"
}

// Validate rejects malformed queries before search starts.
// Unknown stop ids are deliberately NOT rejected here — they are
// treated as stops with no outgoing trips.
func (q Query) Validate() error {
	if len(q.OriginStopIDs) == 0 {
		return fmt.Errorf("raptor: origin_stop_ids must not be empty")
	}
	if q.Date.IsZero() {
		return fmt.Errorf("raptor: specified_date is required")
	}
	if q.SpecifiedSecs < 0 {
		return fmt.Errorf("raptor: specified_secs must be non-negative, got %d", q.SpecifiedSecs)
	}
	if q.TransfersLimit < 0 {
		return fmt.Errorf("raptor: transfers_limit must be non-negative, got %d", q.TransfersLimit)
	}
	return nil
}

// Journey is the point-to-point result.
type Journey struct {
	DestinationStopID   timetable.StopID
	TimeToReach         int
	RoutingPath         []timetable.StopID
	RoutingPathDetailed []Segment
}

// Segment mirrors label.PathSegment without exposing the label
// package's internal HopKind representation to callers outside this
// module's boundary.
type Segment struct {
	TripID       timetable.TripID // empty for a walk segment
	IsWalk       bool
	StopSequence int
	StopID       timetable.StopID
}

// IsochroneEntry is one row of an isochrone result.
type IsochroneEntry struct {
	StopID      timetable.StopID
	TimeToReach int
	RoutingPath []timetable.StopID
}

// GeoJSONLineString is the optional rendering of a Journey's
// RoutingPath as a GeoJSON FeatureCollection. It is a hand-built
// struct rather than a general-purpose geometry library — the shape
// is a single fixed LineString, not worth a dependency.
type GeoJSONLineString struct {
	Type     string                 `json:"type"`
	Features []GeoJSONLineFeature   `json:"features"`
}

type GeoJSONLineFeature struct {
	Type       string                 `json:"type"`
	Geometry   GeoJSONLineGeometry    `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type GeoJSONLineGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}
