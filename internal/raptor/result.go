package raptor

import (
	"fmt"
	"sort"

	"github.com/antigravity/raptor-transit/internal/label"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

// PointToPoint runs a search and returns the fastest journey to any
// of DestinationStopIDs, or nil if none is reachable. The
// query's OriginStopIDs/DestinationStopIDs keep their forward-search
// meaning regardless of Reverse — Run takes care of swapping roles
// internally.
func (s *Search) PointToPoint(q Query) (*Journey, error) {
	if len(q.DestinationStopIDs) == 0 {
		return nil, fmt.Errorf("raptor: point-to-point search requires a non-empty destination_stop_ids set")
	}

	tbl, err := s.Run(q)
	if err != nil {
		return nil, err
	}

	targets := q.DestinationStopIDs
	if q.Reverse {
		targets = q.OriginStopIDs
	}

	best := label.Unreachable
	var bestStop timetable.StopID
	found := false
	for _, stopID := range targets {
		t := tbl.TimeToReach(stopID)
		if t < best {
			best = t
			bestStop = stopID
			found = true
		}
	}
	if !found || best >= label.Unreachable {
		return nil, nil
	}

	path, detailed := tbl.Reconstruct(bestStop)
	if q.Reverse {
		path, detailed = reversePath(path, detailed)
	}
	return &Journey{
		DestinationStopID:   bestStop,
		TimeToReach:         best,
		RoutingPath:         path,
		RoutingPathDetailed: toSegments(detailed),
	}, nil
}

// Isochrone runs a search with no destination bias and returns the
// whole reachable set. A forward query ignores DestinationStopIDs; a
// reverse query is seeded from DestinationStopIDs, as Run does, and
// fails when that set is empty.
func (s *Search) Isochrone(q Query) ([]IsochroneEntry, error) {
	tbl, err := s.Run(q)
	if err != nil {
		return nil, err
	}

	reachable := tbl.Reachable()
	out := make([]IsochroneEntry, 0, len(reachable))
	for _, stopID := range reachable {
		path, _ := tbl.Reconstruct(stopID)
		if q.Reverse {
			path = reverseStopIDs(path)
		}
		out = append(out, IsochroneEntry{
			StopID:      stopID,
			TimeToReach: tbl.TimeToReach(stopID),
			RoutingPath: path,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeToReach != out[j].TimeToReach {
			return out[i].TimeToReach < out[j].TimeToReach
		}
		return out[i].StopID < out[j].StopID
	})
	return out, nil
}

// reversePath reverses a reconstructed path and its detailed segments
// together. label.Table.Reconstruct always returns its queried stop's
// chain in root-to-stop order; for a forward search the root is the
// real origin, so that order is already chronological, but for a
// reverse search the root is the real destination, so the caller must
// reverse once more to present the path in chronological order.
func reversePath(path []timetable.StopID, detailed []label.PathSegment) ([]timetable.StopID, []label.PathSegment) {
	return reverseStopIDs(path), reverseSegments(detailed)
}

func reverseStopIDs(path []timetable.StopID) []timetable.StopID {
	out := make([]timetable.StopID, len(path))
	for i, s := range path {
		out[len(path)-1-i] = s
	}
	return out
}

func reverseSegments(detailed []label.PathSegment) []label.PathSegment {
	out := make([]label.PathSegment, len(detailed))
	for i, d := range detailed {
		out[len(detailed)-1-i] = d
	}
	return out
}

func toSegments(detailed []label.PathSegment) []Segment {
	out := make([]Segment, len(detailed))
	for i, d := range detailed {
		out[i] = Segment{
			TripID:       d.TripID,
			IsWalk:       d.Kind == label.HopWalk,
			StopSequence: d.StopSequence,
			StopID:       d.StopID,
		}
	}
	return out
}

// GeoJSON renders a Journey's RoutingPath as a single-feature
// LineString FeatureCollection, looking up each stop's
// (lon, lat) from tt.
func (j *Journey) GeoJSON(tt *timetable.Timetable) GeoJSONLineString {
	coords := make([][2]float64, 0, len(j.RoutingPath))
	for _, stopID := range j.RoutingPath {
		lat, lon, ok := tt.Coordinates(stopID)
		if !ok {
			continue
		}
		coords = append(coords, [2]float64{lon, lat})
	}
	return GeoJSONLineString{
		Type: "FeatureCollection",
		Features: []GeoJSONLineFeature{
			{
				Type:     "Feature",
				Geometry: GeoJSONLineGeometry{Type: "LineString", Coordinates: coords},
				Properties: map[string]interface{}{
					"time_to_reach": j.TimeToReach,
					"stop_id":       j.DestinationStopID,
				},
			},
		},
	}
}
