package csv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/raptor-transit/internal/raptor"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

// TestLoadScenario2 loads the scenario-2 fixture (A -t1-> X -t2-> B,
// no transfer edge) from CSV and runs a point-to-point query against
// it, exercising the loader and internal/raptor end to end the way a
// checked-in fixture is meant to.
func TestLoadScenario2(t *testing.T) {
	tt, err := Load("testdata/scenario2")
	require.NoError(t, err)

	assert.True(t, tt.KnownStop("A"))
	assert.True(t, tt.KnownStop("X"))
	assert.True(t, tt.KnownStop("B"))
	assert.False(t, tt.KnownStop("does-not-exist"))

	date, err := time.Parse("2006-01-02", "2026-08-01")
	require.NoError(t, err)

	s := raptor.New(tt)
	j, err := s.PointToPoint(raptor.Query{
		OriginStopIDs:      []timetable.StopID{"A"},
		DestinationStopIDs: []timetable.StopID{"B"},
		Date:               date,
		SpecifiedSecs:      28800,
		TransfersLimit:     1,
	})
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, 1500, j.TimeToReach)
	assert.Equal(t, []timetable.StopID{"A", "X", "B"}, j.RoutingPath)
}

func TestLoadMissingDirIsFatal(t *testing.T) {
	_, err := Load("testdata/does-not-exist")
	assert.Error(t, err)
}
