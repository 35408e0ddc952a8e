package timetable

import (
	"fmt"
	"sort"
	"time"
)

// Calendar maps a service date to the set of service ids active that
// day. Daily expansion from weekly patterns plus exceptions happens
// upstream of the Timetable; this is always the resolved daily set.
type Calendar map[string]map[ServiceID]struct{} // key: date in "2006-01-02"

// Timetable is the read-only, columnar view of a feed plus the
// inverted indices the RAPTOR search needs. Construct once via New,
// then share freely across concurrent queries.
type Timetable struct {
	stops         map[StopID]Stop
	trips         map[TripID]Trip
	transfers     map[StopID][]Transfer // from_stop_id -> outgoing edges
	transfersInto map[StopID][]Transfer // to_stop_id -> incoming edges, for reverse search
	calendar      Calendar

	// stopDepartures[s] holds every StopTime at stop s, sorted by
	// DepartureSecs ascending. stopArrivals[s] holds the same rows
	// sorted by ArrivalSecs ascending, for reverse-mode lookups.
	stopDepartures map[StopID][]StopTime
	stopArrivals   map[StopID][]StopTime

	// tripStops[t] holds every StopTime of trip t, sorted by
	// StopSequence ascending.
	tripStops map[TripID][]StopTime

	// stopsByParent[p] holds every stop whose ParentStation is p.
	stopsByParent map[StopID][]StopID
}

// New builds a Timetable and its inverted indices from flat slices of
// rows, the shape any of internal/store's loaders produce. The slices
// are not retained; New copies what it needs.
func New(stops []Stop, trips []Trip, stopTimes []StopTime, transfers []Transfer, calendar Calendar) (*Timetable, error) {
	tt := &Timetable{
		stops:          make(map[StopID]Stop, len(stops)),
		trips:          make(map[TripID]Trip, len(trips)),
		transfers:      make(map[StopID][]Transfer),
		transfersInto:  make(map[StopID][]Transfer),
		calendar:       calendar,
		stopDepartures: make(map[StopID][]StopTime),
		stopArrivals:   make(map[StopID][]StopTime),
		tripStops:      make(map[TripID][]StopTime),
		stopsByParent:  make(map[StopID][]StopID),
	}

	for _, s := range stops {
		if _, dup := tt.stops[s.ID]; dup {
			return nil, fmt.Errorf("timetable: duplicate stop_id %q", s.ID)
		}
		tt.stops[s.ID] = s
		if s.ParentStation != "" {
			tt.stopsByParent[s.ParentStation] = append(tt.stopsByParent[s.ParentStation], s.ID)
		}
	}

	for _, t := range trips {
		if _, dup := tt.trips[t.ID]; dup {
			return nil, fmt.Errorf("timetable: duplicate trip_id %q", t.ID)
		}
		tt.trips[t.ID] = t
	}

	for _, st := range stopTimes {
		if st.DepartureSecs < st.ArrivalSecs {
			return nil, fmt.Errorf("timetable: trip %q stop %q: departure_time < arrival_time", st.TripID, st.StopID)
		}
		tt.stopDepartures[st.StopID] = append(tt.stopDepartures[st.StopID], st)
		tt.stopArrivals[st.StopID] = append(tt.stopArrivals[st.StopID], st)
		tt.tripStops[st.TripID] = append(tt.tripStops[st.TripID], st)
	}

	for stopID, rows := range tt.stopDepartures {
		rows := rows
		sort.Slice(rows, func(i, j int) bool { return rows[i].DepartureSecs < rows[j].DepartureSecs })
		tt.stopDepartures[stopID] = rows
	}
	for stopID, rows := range tt.stopArrivals {
		rows := rows
		sort.Slice(rows, func(i, j int) bool { return rows[i].ArrivalSecs < rows[j].ArrivalSecs })
		tt.stopArrivals[stopID] = rows
	}
	for tripID, rows := range tt.tripStops {
		rows := rows
		sort.Slice(rows, func(i, j int) bool { return rows[i].StopSequence < rows[j].StopSequence })
		for i := 1; i < len(rows); i++ {
			if rows[i].StopSequence <= rows[i-1].StopSequence {
				return nil, fmt.Errorf("timetable: trip %q: stop_sequence not strictly increasing", tripID)
			}
		}
		tt.tripStops[tripID] = rows
	}

	for _, tr := range transfers {
		if tr.MinSeconds <= 0 {
			return nil, fmt.Errorf("timetable: transfer %s->%s: min_transfer_time must be > 0", tr.FromStopID, tr.ToStopID)
		}
		tt.transfers[tr.FromStopID] = append(tt.transfers[tr.FromStopID], tr)
		tt.transfersInto[tr.ToStopID] = append(tt.transfersInto[tr.ToStopID], tr)
	}

	return tt, nil
}

// ActiveTripIDs returns every trip whose service_id is active on
// date (format "2006-01-02"). A missing calendar entry is not an
// error: it yields an empty set.
func (t *Timetable) ActiveTripIDs(date time.Time) map[TripID]struct{} {
	active := make(map[TripID]struct{})
	services, ok := t.calendar[date.Format("2006-01-02")]
	if !ok {
		return active
	}
	for tripID, trip := range t.trips {
		if _, ok := services[trip.ServiceID]; ok {
			active[tripID] = struct{}{}
		}
	}
	return active
}

// StopTimesAt returns the StopTime rows at stopID feasible for the
// given pivot second-of-day: forward mode keeps departure_time >=
// pivotSecs, reverse mode keeps arrival_time <= pivotSecs. Rows come
// back already sorted (by departure ascending forward, by arrival
// ascending reverse — reverse callers typically want the walk in
// descending order, which StopTimesOfTrip direction handles instead).
func (t *Timetable) StopTimesAt(stopID StopID, reverse bool, pivotSecs int) []StopTime {
	if reverse {
		rows := t.stopArrivals[stopID]
		out := make([]StopTime, 0, len(rows))
		for _, r := range rows {
			if r.ArrivalSecs <= pivotSecs {
				out = append(out, r)
			}
		}
		return out
	}
	rows := t.stopDepartures[stopID]
	out := make([]StopTime, 0, len(rows))
	for _, r := range rows {
		if r.DepartureSecs >= pivotSecs {
			out = append(out, r)
		}
	}
	return out
}

// StopTimesOfTrip returns every stop_time row of tripID, ordered by
// stop_sequence ascending.
func (t *Timetable) StopTimesOfTrip(tripID TripID) []StopTime {
	return t.tripStops[tripID]
}

// AllTrips returns every trip in the feed, in no particular order.
func (t *Timetable) AllTrips() []Trip {
	out := make([]Trip, 0, len(t.trips))
	for _, tr := range t.trips {
		out = append(out, tr)
	}
	return out
}

// OutgoingTransfers returns the foot-transfer edges leaving stopID.
func (t *Timetable) OutgoingTransfers(stopID StopID) []Transfer {
	return t.transfers[stopID]
}

// IncomingTransfers returns the foot-transfer edges arriving at stopID
// — the adjacency a reverse search relaxes, since it walks the
// transfer graph backward from destination toward origin.
func (t *Timetable) IncomingTransfers(stopID StopID) []Transfer {
	return t.transfersInto[stopID]
}

// Coordinates returns the (lat, lon) of stopID. ok is false for an
// unknown stop.
func (t *Timetable) Coordinates(stopID StopID) (lat, lon float64, ok bool) {
	s, ok := t.stops[stopID]
	if !ok {
		return 0, 0, false
	}
	return s.Lat, s.Lon, true
}

// Stop returns the Stop record for stopID, if known.
func (t *Timetable) Stop(stopID StopID) (Stop, bool) {
	s, ok := t.stops[stopID]
	return s, ok
}

// Trip returns the Trip record for tripID, if known.
func (t *Timetable) Trip(tripID TripID) (Trip, bool) {
	tr, ok := t.trips[tripID]
	return tr, ok
}

// StopIDsOfParent returns every platform belonging to parentID.
func (t *Timetable) StopIDsOfParent(parentID StopID) []StopID {
	return t.stopsByParent[parentID]
}

// KnownStop reports whether stopID exists in the feed. Callers use
// this to treat an unknown stop_id as a stop with no outgoing trips,
// rather than an error, before handing ids to the search.
func (t *Timetable) KnownStop(stopID StopID) bool {
	_, ok := t.stops[stopID]
	return ok
}
