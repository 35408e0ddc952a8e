package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

func TestInitialiseSetsOriginsToZero(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A", "B"})

	assert.Equal(t, 0, tbl.TimeToReach("A"))
	assert.Equal(t, 0, tbl.TimeToReach("B"))
	assert.Equal(t, Unreachable, tbl.TimeToReach("C"))
}

func TestTryUpdateTripOnlyAppliesStrictImprovement(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})

	assert.True(t, tbl.TryUpdateTrip("B", "A", "t1", 2, 600))
	assert.Equal(t, 600, tbl.TimeToReach("B"))

	assert.False(t, tbl.TryUpdateTrip("B", "A", "t1", 2, 600))
	assert.False(t, tbl.TryUpdateTrip("B", "A", "t1", 2, 900))
	assert.True(t, tbl.TryUpdateTrip("B", "A", "t1", 2, 300))
	assert.Equal(t, 300, tbl.TimeToReach("B"))
}

func TestTryUpdateTripRecordsConsecutiveDedupedPreceding(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})

	require.True(t, tbl.TryUpdateTrip("X", "A", "t1", 1, 600))
	assert.Equal(t, []timetable.TripID{"t1"}, tbl.PrecedingTrips("X"))

	require.True(t, tbl.TryUpdateTrip("X", "A", "t1", 1, 500))
	assert.Equal(t, []timetable.TripID{"t1"}, tbl.PrecedingTrips("X"), "boarding the same trip again must not duplicate it")

	require.True(t, tbl.TryUpdateTrip("B", "X", "t2", 2, 100))
	assert.Equal(t, []timetable.TripID{"t1", "t2"}, tbl.PrecedingTrips("B"))
}

func TestBoardedTripGuardsRepeatBoarding(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})
	require.True(t, tbl.TryUpdateTrip("X", "A", "t1", 1, 600))

	assert.True(t, tbl.BoardedTrip("X", "t1"))
	assert.False(t, tbl.BoardedTrip("X", "t2"))
}

func TestTryUpdateWalkInheritsPrecedingUnchanged(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})
	require.True(t, tbl.TryUpdateTrip("X", "A", "t1", 1, 600))

	require.True(t, tbl.TryUpdateWalk("Y", "X", 660))
	assert.Equal(t, []timetable.TripID{"t1"}, tbl.PrecedingTrips("Y"))
	assert.Equal(t, 660, tbl.TimeToReach("Y"))
}

func TestAlreadyTransferredTracksMarking(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})

	assert.False(t, tbl.AlreadyTransferred("A"))
	tbl.MarkTransferred("A")
	assert.True(t, tbl.AlreadyTransferred("A"))
}

func TestReachableOnlyIncludesSetLabels(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})
	require.True(t, tbl.TryUpdateTrip("X", "A", "t1", 1, 600))

	assert.ElementsMatch(t, []timetable.StopID{"A", "X"}, tbl.Reachable())
}

func TestReconstructForwardOriginChainIsRootToStopOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})
	require.True(t, tbl.TryUpdateTrip("X", "A", "t1", 2, 600))
	require.True(t, tbl.TryUpdateWalk("Y", "X", 660))
	require.True(t, tbl.TryUpdateTrip("B", "Y", "t2", 3, 1500))

	path, detailed := tbl.Reconstruct("B")
	assert.Equal(t, []timetable.StopID{"A", "X", "Y", "B"}, path)
	require.Len(t, detailed, 4)
	assert.Equal(t, HopNone, detailed[0].Kind)
	assert.Equal(t, HopTrip, detailed[1].Kind)
	assert.Equal(t, HopWalk, detailed[2].Kind)
	assert.Equal(t, HopTrip, detailed[3].Kind)
	assert.Equal(t, timetable.TripID("t2"), detailed[3].TripID)
}

func TestReconstructUnsetStopReturnsNil(t *testing.T) {
	tbl := NewTable()
	tbl.Initialise([]timetable.StopID{"A"})

	path, detailed := tbl.Reconstruct("never-touched")
	assert.Nil(t, path)
	assert.Nil(t, detailed)
}
