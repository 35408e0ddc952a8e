package raptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/raptor-transit/internal/label"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

const day = "2026-08-01"

func mustDate(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	return d
}

func oneServiceCalendar() timetable.Calendar {
	return timetable.Calendar{
		day: {"weekday": {}},
	}
}

func stop(id string) timetable.Stop {
	return timetable.Stop{ID: timetable.StopID(id), Name: id}
}

// scenario1 is a two-stop, single-trip timetable: one trip departs A
// at 30000s, arrives B at 30600s.
func scenario1(t *testing.T) *timetable.Timetable {
	t.Helper()
	stops := []timetable.Stop{stop("A"), stop("B")}
	trips := []timetable.Trip{{ID: "t1", RouteID: "r1", ServiceID: "weekday"}}
	stopTimes := []timetable.StopTime{
		{TripID: "t1", StopSequence: 1, StopID: "A", ArrivalSecs: 30000, DepartureSecs: 30000},
		{TripID: "t1", StopSequence: 2, StopID: "B", ArrivalSecs: 30600, DepartureSecs: 30600},
	}
	tt, err := timetable.New(stops, trips, stopTimes, nil, oneServiceCalendar())
	require.NoError(t, err)
	return tt
}

// scenario2 is an A->X->B two-trip timetable: t1 departs A 28800,
// arrives X 29400; t2 departs X 29700, arrives B 30300. No transfer
// edge — boarding t2 at X happens by simply being at the same stop,
// not by walking.
func scenario2(t *testing.T) *timetable.Timetable {
	t.Helper()
	stops := []timetable.Stop{stop("A"), stop("X"), stop("B")}
	trips := []timetable.Trip{
		{ID: "t1", RouteID: "r1", ServiceID: "weekday"},
		{ID: "t2", RouteID: "r2", ServiceID: "weekday"},
	}
	stopTimes := []timetable.StopTime{
		{TripID: "t1", StopSequence: 1, StopID: "A", ArrivalSecs: 28800, DepartureSecs: 28800},
		{TripID: "t1", StopSequence: 2, StopID: "X", ArrivalSecs: 29400, DepartureSecs: 29400},
		{TripID: "t2", StopSequence: 1, StopID: "X", ArrivalSecs: 29700, DepartureSecs: 29700},
		{TripID: "t2", StopSequence: 2, StopID: "B", ArrivalSecs: 30300, DepartureSecs: 30300},
	}
	tt, err := timetable.New(stops, trips, stopTimes, nil, oneServiceCalendar())
	require.NoError(t, err)
	return tt
}

// scenario3 is scenario 2 with the interchange split into two physical
// stops X1/X2 joined by a 60-second transfer scenario 3.
// t2 departs X2 at 29760 (360s after t1 lands at X1) and arrives B at
// 30400, so the round trip elapses exactly 1600s end to end.
func scenario3(t *testing.T) *timetable.Timetable {
	t.Helper()
	stops := []timetable.Stop{stop("A"), stop("X1"), stop("X2"), stop("B")}
	trips := []timetable.Trip{
		{ID: "t1", RouteID: "r1", ServiceID: "weekday"},
		{ID: "t2", RouteID: "r2", ServiceID: "weekday"},
	}
	stopTimes := []timetable.StopTime{
		{TripID: "t1", StopSequence: 1, StopID: "A", ArrivalSecs: 28800, DepartureSecs: 28800},
		{TripID: "t1", StopSequence: 2, StopID: "X1", ArrivalSecs: 29400, DepartureSecs: 29400},
		{TripID: "t2", StopSequence: 1, StopID: "X2", ArrivalSecs: 29760, DepartureSecs: 29760},
		{TripID: "t2", StopSequence: 2, StopID: "B", ArrivalSecs: 30400, DepartureSecs: 30400},
	}
	transfers := []timetable.Transfer{
		{FromStopID: "X1", ToStopID: "X2", Type: timetable.TransferRecommended, MinSeconds: 60},
	}
	tt, err := timetable.New(stops, trips, stopTimes, transfers, oneServiceCalendar())
	require.NoError(t, err)
	return tt
}

func TestScenario1DirectTrip(t *testing.T) {
	tt := scenario1(t)
	s := New(tt)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      30000,
		TransfersLimit:     0,
	})
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, 600, j.TimeToReach)
	assert.Equal(t, []timetable.StopID{"A", "B"}, j.RoutingPath)
	require.Len(t, j.RoutingPathDetailed, 2)
	assert.Equal(t, timetable.TripID("t1"), j.RoutingPathDetailed[1].TripID)
}

func TestScenario2OneTransfer(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      28800,
		TransfersLimit:     1,
	})
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, 1500, j.TimeToReach)
	assert.Equal(t, []timetable.StopID{"A", "X", "B"}, j.RoutingPath)

	var boarded []timetable.TripID
	for _, seg := range j.RoutingPathDetailed {
		if !seg.IsWalk && seg.TripID != "" {
			if len(boarded) == 0 || boarded[len(boarded)-1] != seg.TripID {
				boarded = append(boarded, seg.TripID)
			}
		}
	}
	assert.Equal(t, []timetable.TripID{"t1", "t2"}, boarded)
}

func TestScenario3FootTransfer(t *testing.T) {
	tt := scenario3(t)
	s := New(tt)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      28800,
		TransfersLimit:     1,
	})
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, 1600, j.TimeToReach)

	foundWalk := false
	for _, seg := range j.RoutingPathDetailed {
		if seg.IsWalk {
			foundWalk = true
			assert.Equal(t, timetable.StopID("X2"), seg.StopID)
		}
	}
	assert.True(t, foundWalk, "expected a walk segment between X1 and X2")
}

func TestScenario4Unreachable(t *testing.T) {
	stops := []timetable.Stop{stop("A"), stop("C")}
	tt, err := timetable.New(stops, nil, nil, nil, oneServiceCalendar())
	require.NoError(t, err)
	s := New(tt)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"C"},
		Date:               mustDate(t),
		SpecifiedSecs:      28800,
		TransfersLimit:     2,
	})
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestScenario5ReverseSearch(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      30300,
		TransfersLimit:     1,
		Reverse:            true,
	})
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, 1500, j.TimeToReach)
	assert.Equal(t, []timetable.StopID{"A", "X", "B"}, j.RoutingPath)
}

func TestScenario6Isochrone(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)

	entries, err := s.Isochrone(Query{
		OriginStopIDs:  []timetable.StopID{"A"},
		Date:           mustDate(t),
		SpecifiedSecs:  28800,
		TransfersLimit: 1,
	})
	require.NoError(t, err)

	byStop := make(map[timetable.StopID]int, len(entries))
	for _, e := range entries {
		byStop[e.StopID] = e.TimeToReach
	}
	assert.Equal(t, 0, byStop["A"])
	assert.Equal(t, 600, byStop["X"])
	assert.Equal(t, 1500, byStop["B"])
}

// TestRoundTripForwardReverseSymmetry exercises property 9: a forward
// journey's arrival time fed back as a reverse query's specified_secs
// yields the same elapsed time.
func TestRoundTripForwardReverseSymmetry(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)

	forward, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      28800,
		TransfersLimit:     1,
	})
	require.NoError(t, err)
	require.NotNil(t, forward)
	arrival := 28800 + forward.TimeToReach

	reverse, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      arrival,
		TransfersLimit:     1,
		Reverse:            true,
	})
	require.NoError(t, err)
	require.NotNil(t, reverse)
	assert.Equal(t, arrival-28800, reverse.TimeToReach)
}

// TestMonotonicityInK exercises property 7: more transfers never make
// the best time worse.
func TestMonotonicityInK(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)

	var prev = -1
	for k := 0; k <= 2; k++ {
		j, err := s.PointToPoint(Query{
			OriginStopIDs:      []timetable.StopID{"A"},
			DestinationStopIDs: []timetable.StopID{"B"},
			Date:               mustDate(t),
			SpecifiedSecs:      28800,
			TransfersLimit:     k,
		})
		require.NoError(t, err)
		cur := -1
		if j != nil {
			cur = j.TimeToReach
		}
		if prev != -1 && cur != -1 {
			assert.LessOrEqual(t, cur, prev)
		}
		if cur != -1 {
			prev = cur
		}
	}
}

// TestIdempotence exercises property 6: running the same query twice
// produces the same result.
func TestIdempotence(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)
	q := Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               mustDate(t),
		SpecifiedSecs:      28800,
		TransfersLimit:     1,
	}

	first, err := s.PointToPoint(q)
	require.NoError(t, err)
	second, err := s.PointToPoint(q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestOriginTimeToReachIsZero exercises invariant property 5.
func TestOriginTimeToReachIsZero(t *testing.T) {
	tt := scenario2(t)
	s := New(tt)

	tbl, err := s.Run(Query{
		OriginStopIDs:  []timetable.StopID{"A"},
		Date:           mustDate(t),
		SpecifiedSecs:  28800,
		TransfersLimit: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.TimeToReach("A"))
}

func TestUnknownStopIDIsNotAnError(t *testing.T) {
	tt := scenario1(t)
	s := New(tt)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"does-not-exist"},
		Date:               mustDate(t),
		SpecifiedSecs:      30000,
		TransfersLimit:     0,
	})
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestMissingCalendarEntryYieldsAllUnreachable(t *testing.T) {
	tt := scenario1(t)
	s := New(tt)

	other, err := time.Parse("2006-01-02", "2030-01-01")
	require.NoError(t, err)

	j, err := s.PointToPoint(Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               other,
		SpecifiedSecs:      30000,
		TransfersLimit:     0,
	})
	require.NoError(t, err)
	assert.Nil(t, j)
}

// labelSnapshot captures everything a label table exposes for a given
// stop, so two runs can be compared for exact equality rather than
// just their final journey.
type labelSnapshot struct {
	timeToReach int
	path        []timetable.StopID
	detailed    []label.PathSegment
	preceding   []timetable.TripID
}

func snapshotLabels(tbl *label.Table, stopIDs []timetable.StopID) map[timetable.StopID]labelSnapshot {
	out := make(map[timetable.StopID]labelSnapshot, len(stopIDs))
	for _, id := range stopIDs {
		path, detailed := tbl.Reconstruct(id)
		out[id] = labelSnapshot{
			timeToReach: tbl.TimeToReach(id),
			path:        path,
			detailed:    detailed,
			preceding:   tbl.PrecedingTrips(id),
		}
	}
	return out
}

// TestOrderIndependence exercises property 8: the round loop's result
// must not depend on the input order of origins, trips, stop_times,
// or transfers, even though they are processed internally through
// maps whose iteration order Go leaves unspecified. The scenario is
// built with a unique shortest path to every stop (no genuine ties),
// so a strict less-than relax always converges to the same minimum
// and the same parent pointer no matter which order candidates are
// considered in.
//
// Two origins (A, C) both feed t1; C has the later stop_sequence so
// it is always the pivot regardless of how OriginStopIDs is ordered.
// X has two outgoing transfers, one of them a decoy too slow to ever
// win over boarding t2, so permuting the transfer order can't change
// the winner either.
func TestOrderIndependence(t *testing.T) {
	stops := []timetable.Stop{stop("A"), stop("C"), stop("X"), stop("Y"), stop("B")}
	trips := []timetable.Trip{
		{ID: "t1", RouteID: "r1", ServiceID: "weekday"},
		{ID: "t2", RouteID: "r2", ServiceID: "weekday"},
	}
	stopTimes := []timetable.StopTime{
		{TripID: "t1", StopSequence: 1, StopID: "A", ArrivalSecs: 1000, DepartureSecs: 1000},
		{TripID: "t1", StopSequence: 2, StopID: "C", ArrivalSecs: 1050, DepartureSecs: 1050},
		{TripID: "t1", StopSequence: 3, StopID: "X", ArrivalSecs: 1200, DepartureSecs: 1200},
		{TripID: "t2", StopSequence: 1, StopID: "X", ArrivalSecs: 1500, DepartureSecs: 1500},
		{TripID: "t2", StopSequence: 2, StopID: "B", ArrivalSecs: 1700, DepartureSecs: 1700},
	}
	transfers := []timetable.Transfer{
		{FromStopID: "X", ToStopID: "Y", Type: timetable.TransferRecommended, MinSeconds: 30},
		{FromStopID: "X", ToStopID: "B", Type: timetable.TransferRecommended, MinSeconds: 9999},
	}
	allStops := []timetable.StopID{"A", "C", "X", "Y", "B"}

	run := func(origins []timetable.StopID, trips []timetable.Trip, stopTimes []timetable.StopTime, transfers []timetable.Transfer) map[timetable.StopID]labelSnapshot {
		tt, err := timetable.New(stops, trips, stopTimes, transfers, oneServiceCalendar())
		require.NoError(t, err)
		s := New(tt)
		tbl, err := s.Run(Query{
			OriginStopIDs:  origins,
			Date:           mustDate(t),
			SpecifiedSecs:  1000,
			TransfersLimit: 2,
		})
		require.NoError(t, err)
		return snapshotLabels(tbl, allStops)
	}

	reversedTrips := []timetable.Trip{trips[1], trips[0]}
	reversedStopTimes := []timetable.StopTime{stopTimes[4], stopTimes[3], stopTimes[2], stopTimes[1], stopTimes[0]}
	reversedTransfers := []timetable.Transfer{transfers[1], transfers[0]}

	original := run([]timetable.StopID{"A", "C"}, trips, stopTimes, transfers)
	permuted := run([]timetable.StopID{"C", "A"}, reversedTrips, reversedStopTimes, reversedTransfers)

	assert.Equal(t, original, permuted)
	require.Equal(t, 700, original["B"].timeToReach, "sanity check: B must be reached via t2, not the decoy transfer")
}

func TestValidateRejectsMalformedQueries(t *testing.T) {
	tt := scenario1(t)
	s := New(tt)

	_, err := s.Run(Query{Date: mustDate(t)})
	assert.Error(t, err)

	_, err = s.Run(Query{OriginStopIDs: []timetable.StopID{"A"}})
	assert.Error(t, err)

	_, err = s.Run(Query{OriginStopIDs: []timetable.StopID{"A"}, Date: mustDate(t), SpecifiedSecs: -1})
	assert.Error(t, err)

	_, err = s.Run(Query{OriginStopIDs: []timetable.StopID{"A"}, Date: mustDate(t), TransfersLimit: -1})
	assert.Error(t, err)
}
