package raptor

import (
	"fmt"

	"github.com/antigravity/raptor-transit/internal/label"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

// Search runs RAPTOR queries against an immutable Timetable. A Search
// holds no per-query state and is safe to share across any number of
// concurrent queries; each call to Run builds its own
// label.Table.
type Search struct {
	tt *timetable.Timetable
}

// New returns a Search bound to tt.
func New(tt *timetable.Timetable) *Search {
	return &Search{tt: tt}
}

// Run executes the round loop and returns the
// resulting label table for the caller to query. Run picks the
// starting set itself: OriginStopIDs for a forward query, and
// DestinationStopIDs for a reverse query (which must then be
// non-empty), since reverse search swaps the role of origin and
// destination.
func (s *Search) Run(q Query) (*label.Table, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	origins := q.OriginStopIDs
	if q.Reverse {
		if len(q.DestinationStopIDs) == 0 {
			return nil, errEmptyReverseOrigin
		}
		origins = q.DestinationStopIDs
	}

	tt := s.tt
	tbl := label.NewTable()
	tbl.Initialise(origins)

	var tripFilter map[timetable.TripID]struct{}
	if q.AvailableTripIDs != nil {
		tripFilter = make(map[timetable.TripID]struct{}, len(q.AvailableTripIDs))
		for _, id := range q.AvailableTripIDs {
			tripFilter[id] = struct{}{}
		}
	} else {
		tripFilter = tt.ActiveTripIDs(q.Date)
	}

	roundInput := append([]timetable.StopID(nil), origins...)

	for k := 0; k <= q.TransfersLimit; k++ {
		boarded := tripScan(tt, tbl, q, tripFilter, roundInput)
		walked := transferRelax(tt, tbl, q.Reverse)
		roundInput = append(boarded, walked...)
		if len(roundInput) == 0 {
			break
		}
	}

	return tbl, nil
}

var errEmptyReverseOrigin = fmt.Errorf("raptor: reverse search requires a non-empty destination_stop_ids set")

// tripScan is the trip-scan phase: for every stop in
// roundInput, find boardable trips, group by trip, pick one pivot
// boarding stop per trip (the feeding stop furthest along the trip in
// the direction of travel), then walk onward from that pivot applying
// try_update to every stop strictly past the pivot. It returns the
// stops whose time_to_reach actually improved, so the caller can feed
// them into the next round's trip-scan alongside whatever the
// transfer-relax phase improves — a stop boarded straight off another
// trip at the same physical stop needs no intervening transfer.
func tripScan(tt *timetable.Timetable, tbl *label.Table, q Query, tripFilter map[timetable.TripID]struct{}, roundInput []timetable.StopID) []timetable.StopID {
	feeders := make(map[timetable.TripID][]timetable.StopID)
	var updated []timetable.StopID

	for _, stopID := range roundInput {
		pivotSecs := q.SpecifiedSecs + tbl.TimeToReach(stopID)
		if q.Reverse {
			pivotSecs = q.SpecifiedSecs - tbl.TimeToReach(stopID)
		}
		for _, row := range tt.StopTimesAt(stopID, q.Reverse, pivotSecs) {
			if _, ok := tripFilter[row.TripID]; !ok {
				continue
			}
			if tbl.BoardedTrip(stopID, row.TripID) {
				continue
			}
			feeders[row.TripID] = append(feeders[row.TripID], stopID)
		}
	}

	for tripID, feedingStops := range feeders {
		rows := tt.StopTimesOfTrip(tripID)
		if len(rows) == 0 {
			continue
		}
		indexOf := make(map[timetable.StopID]int, len(rows))
		for i, r := range rows {
			indexOf[r.StopID] = i
		}

		pivotIdx := -1
		var pivotStop timetable.StopID
		for _, stopID := range feedingStops {
			i, ok := indexOf[stopID]
			if !ok {
				continue
			}
			if pivotIdx == -1 ||
				(!q.Reverse && i > pivotIdx) ||
				(q.Reverse && i < pivotIdx) {
				pivotIdx = i
				pivotStop = stopID
			}
		}
		if pivotIdx == -1 {
			continue
		}

		// time_to_reach is elapsed seconds since q.SpecifiedSecs, and
		// every stop_time in the feed already shares that one absolute
		// clock, so a row's elapsed cost is just its own time minus
		// SpecifiedSecs — independent of how many trips were boarded
		// to get here, and independent of the pivot's own elapsed
		// time (which only decided whether this trip was boardable at
		// all). Adding the pivot's elapsed time on top would double
		// count the legs already folded into the row's own time.
		// The pivot itself is excluded: it is where this trip was
		// boarded, not an onward stop, and a dwelling trip (departure >
		// arrival at the pivot) can otherwise make the pivot's own
		// candidate_time undercut its already-recorded time_to_reach,
		// writing a self-referential parent pointer that Reconstruct
		// would loop on forever.
		if q.Reverse {
			for i := pivotIdx - 1; i >= 0; i-- {
				row := rows[i]
				candidate := q.SpecifiedSecs - row.DepartureSecs
				if tbl.TryUpdateTrip(row.StopID, pivotStop, tripID, row.StopSequence, candidate) {
					updated = append(updated, row.StopID)
				}
			}
		} else {
			for i := pivotIdx + 1; i < len(rows); i++ {
				row := rows[i]
				candidate := row.ArrivalSecs - q.SpecifiedSecs
				if tbl.TryUpdateTrip(row.StopID, pivotStop, tripID, row.StopSequence, candidate) {
					updated = append(updated, row.StopID)
				}
			}
		}
	}

	return updated
}

// transferRelax is the transfer-relax phase: every
// reachable stop not yet transferred has its transfer edges relaxed
// exactly once; it returns the stops newly improved by a transfer,
// which become the next round's trip-scan input.
//
// A forward search walks the transfer graph in its own direction
// (stopID's outgoing edges). A reverse search walks it
// backward: stopID's time_to_reach means "time needed before the
// target arrival to still make it", so relaxing means asking which
// stops could have walked INTO stopID, i.e. stopID's incoming edges.
func transferRelax(tt *timetable.Timetable, tbl *label.Table, reverse bool) []timetable.StopID {
	var updated []timetable.StopID
	for _, stopID := range tbl.Reachable() {
		if tbl.AlreadyTransferred(stopID) {
			continue
		}
		tbl.MarkTransferred(stopID)
		base := tbl.TimeToReach(stopID)
		if reverse {
			for _, tr := range tt.IncomingTransfers(stopID) {
				candidate := base + tr.MinSeconds
				if tbl.TryUpdateWalk(tr.FromStopID, stopID, candidate) {
					updated = append(updated, tr.FromStopID)
				}
			}
			continue
		}
		for _, tr := range tt.OutgoingTransfers(stopID) {
			candidate := base + tr.MinSeconds
			if tbl.TryUpdateWalk(tr.ToStopID, stopID, candidate) {
				updated = append(updated, tr.ToStopID)
			}
		}
	}
	return updated
}
