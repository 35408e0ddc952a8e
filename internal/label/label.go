// Package label holds the per-query mutable state a RAPTOR search
// reads and writes: the best-known time to reach each stop, the
// predecessor chain needed to reconstruct the concrete itinerary, and
// the already-transferred bookkeeping set. The round loop itself
// (just-updated set for each round) is owned by the raptor package,
// since its membership rule differs between the trip-scan and
// transfer-relax phases; the Table only ever tracks
// per-stop label state.
//
// A Table is built fresh per query and discarded afterwards; it is
// never shared between queries and is not safe for concurrent use by
// more than one query.
package label

import (
	"math"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

// Unreachable is the sentinel time_to_reach for a stop no label has
// touched yet. Kept well below math.MaxInt32 so additions made while
// relaxing transfers or trip legs can never overflow into it.
const Unreachable = math.MaxInt32 / 2

// HopKind distinguishes a boarded-trip hop from a foot-transfer hop
// in a reconstructed path segment.
type HopKind int

const (
	HopNone HopKind = iota // the origin itself
	HopTrip
	HopWalk
)

// hop is a parent pointer: "stop was reached from parent via kind
// (trip tripID, or a walk)". Storing only this per label — rather
// than copying the whole path on every update — keeps each update
// O(1); the full path is rebuilt once by Reconstruct.
type hop struct {
	parent  timetable.StopID
	kind    HopKind
	tripID  timetable.TripID
	stopSeq int // real stop_sequence along tripID when kind == HopTrip; a synthetic, monotonically-increasing sequence number when kind == HopWalk
}

// entry is the label for a single stop.
type entry struct {
	timeToReach int
	set         bool
	last        hop
	preceding   []timetable.TripID // boarded trip ids so far, consecutive-deduped
}

// Table is the per-query label table a RAPTOR search reads and writes.
type Table struct {
	entries            map[timetable.StopID]*entry
	alreadyTransferred map[timetable.StopID]struct{}
}

// NewTable returns an empty label table.
func NewTable() *Table {
	return &Table{
		entries:            make(map[timetable.StopID]*entry),
		alreadyTransferred: make(map[timetable.StopID]struct{}),
	}
}

func (t *Table) get(stopID timetable.StopID) *entry {
	e, ok := t.entries[stopID]
	if !ok {
		e = &entry{timeToReach: Unreachable}
		t.entries[stopID] = e
	}
	return e
}

// Initialise sets every origin stop to time_to_reach = 0 with an
// empty path. The caller (raptor.Search) is responsible for seeding
// round 0's just-updated set with the same ids.
func (t *Table) Initialise(originStopIDs []timetable.StopID) {
	for _, id := range originStopIDs {
		e := t.get(id)
		e.timeToReach = 0
		e.set = true
		e.last = hop{kind: HopNone}
		e.preceding = nil
	}
}

// TimeToReach returns the best known time for stopID, or Unreachable.
func (t *Table) TimeToReach(stopID timetable.StopID) int {
	e, ok := t.entries[stopID]
	if !ok {
		return Unreachable
	}
	return e.timeToReach
}

// PrecedingTrips returns the ordered, consecutive-dedup list of
// boarded trips for stopID.
func (t *Table) PrecedingTrips(stopID timetable.StopID) []timetable.TripID {
	e, ok := t.entries[stopID]
	if !ok {
		return nil
	}
	return e.preceding
}

// LastTrip returns the last boarded trip for stopID, if any.
func (t *Table) LastTrip(stopID timetable.StopID) (timetable.TripID, bool) {
	p := t.PrecedingTrips(stopID)
	if len(p) == 0 {
		return "", false
	}
	return p[len(p)-1], true
}

// BoardedTrip reports whether tripID is already present in stopID's
// preceding list — the guard against boarding the same trip twice on
// one branch.
func (t *Table) BoardedTrip(stopID timetable.StopID, tripID timetable.TripID) bool {
	for _, p := range t.PrecedingTrips(stopID) {
		if p == tripID {
			return true
		}
	}
	return false
}

// TryUpdateTrip records a candidate arrival at stopID reached by
// boarding tripID from parentStopID along stop_sequence stopSeq, with
// total cost newTime. It returns true iff newTime strictly improves
// stopID's current time_to_reach, in which case preceding is
// extended from parentStopID's own preceding list plus tripID
// (consecutive-deduped).
func (t *Table) TryUpdateTrip(stopID, parentStopID timetable.StopID, tripID timetable.TripID, stopSeq, newTime int) bool {
	e := t.get(stopID)
	if newTime >= e.timeToReach {
		return false
	}
	parentPreceding := t.PrecedingTrips(parentStopID)
	preceding := make([]timetable.TripID, len(parentPreceding), len(parentPreceding)+1)
	copy(preceding, parentPreceding)
	if len(preceding) == 0 || preceding[len(preceding)-1] != tripID {
		preceding = append(preceding, tripID)
	}

	e.timeToReach = newTime
	e.set = true
	e.last = hop{parent: parentStopID, kind: HopTrip, tripID: tripID, stopSeq: stopSeq}
	e.preceding = preceding
	return true
}

// TryUpdateWalk records a candidate arrival at stopID reached by a
// foot transfer from parentStopID, with total cost newTime. The
// preceding-trips list is inherited unchanged from parentStopID (a
// walk never boards a trip), but the last-trip bookkeeping used by
// the next trip-scan still sees parentStopID's last boarded trip,
// since it is simply copied. The walk's detailed-path entry carries
// no real stop_sequence, so it gets a synthetic one, one past
// whatever sequence number parentStopID's own hop ended on.
func (t *Table) TryUpdateWalk(stopID, parentStopID timetable.StopID, newTime int) bool {
	e := t.get(stopID)
	if newTime >= e.timeToReach {
		return false
	}
	parentPreceding := t.PrecedingTrips(parentStopID)
	preceding := make([]timetable.TripID, len(parentPreceding))
	copy(preceding, parentPreceding)

	e.timeToReach = newTime
	e.set = true
	e.last = hop{parent: parentStopID, kind: HopWalk, stopSeq: t.lastSeq(parentStopID) + 1}
	e.preceding = preceding
	return true
}

// lastSeq returns the sequence number stopID's own hop ended on (real
// for a trip hop, synthetic for a walk hop, zero for the origin),
// the baseline the next walk hop's synthetic sequence counts up from.
func (t *Table) lastSeq(stopID timetable.StopID) int {
	e, ok := t.entries[stopID]
	if !ok {
		return 0
	}
	return e.last.stopSeq
}

// AlreadyTransferred reports whether stopID's outgoing transfers have
// already been relaxed.
func (t *Table) AlreadyTransferred(stopID timetable.StopID) bool {
	_, ok := t.alreadyTransferred[stopID]
	return ok
}

// MarkTransferred records that stopID's outgoing transfers have now
// been relaxed, so no later round relaxes them again: each stop's
// outgoing transfers are relaxed at most once per search.
func (t *Table) MarkTransferred(stopID timetable.StopID) {
	t.alreadyTransferred[stopID] = struct{}{}
}

// Reachable returns every stop with a finite label.
func (t *Table) Reachable() []timetable.StopID {
	out := make([]timetable.StopID, 0, len(t.entries))
	for id, e := range t.entries {
		if e.set {
			out = append(out, id)
		}
	}
	return out
}

// PathSegment is one hop of a reconstructed routing_path_detailed
// entry: the trip (or walk) that produced it, a stop_sequence, and a
// stop_id.
type PathSegment struct {
	TripID       timetable.TripID // empty when Kind != HopTrip
	Kind         HopKind
	StopSequence int
	StopID       timetable.StopID
}

// Reconstruct walks stopID's parent-pointer chain back to the stop
// that seeded this table's Initialise call and returns the path in
// that root-to-stopID order, along with the matching detailed segment
// path.
//
// Parent pointers always run from later-reached stop back to
// earlier-reached stop, so the chain is walked stopID-to-root here and
// then reversed into root-to-stopID order. For a forward search the
// root is the real origin, so this is already real-world chronological
// order. For a reverse search the root is the real destination (the
// search's label-initialized set is DestinationStopIDs), so the
// caller must reverse this result once more to present it in
// chronological order — see raptor.Search's result assembly.
func (t *Table) Reconstruct(stopID timetable.StopID) (path []timetable.StopID, detailed []PathSegment) {
	var revPath []timetable.StopID
	var revDetailed []PathSegment

	cur := stopID
	for {
		e, ok := t.entries[cur]
		if !ok || !e.set {
			return nil, nil
		}
		switch e.last.kind {
		case HopTrip:
			revPath = append(revPath, cur)
			revDetailed = append(revDetailed, PathSegment{TripID: e.last.tripID, Kind: HopTrip, StopSequence: e.last.stopSeq, StopID: cur})
			cur = e.last.parent
		case HopWalk:
			revPath = append(revPath, cur)
			revDetailed = append(revDetailed, PathSegment{Kind: HopWalk, StopSequence: e.last.stopSeq, StopID: cur})
			cur = e.last.parent
		case HopNone:
			revPath = append(revPath, cur)
			revDetailed = append(revDetailed, PathSegment{Kind: HopNone, StopID: cur})
			path = make([]timetable.StopID, len(revPath))
			detailed = make([]PathSegment, len(revDetailed))
			for i, s := range revPath {
				path[len(revPath)-1-i] = s
			}
			for i, d := range revDetailed {
				detailed[len(revDetailed)-1-i] = d
			}
			return path, detailed
		}
	}
}
