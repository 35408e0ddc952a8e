// Package csv loads a Timetable from the five GTFS-shaped tables as
// plain CSV files, the most direct columnar format there is. The
// scenario-2 timetable is checked in as CSV under testdata/ and
// csv_test.go loads it and runs a query against it; internal/raptor's
// own tests build their timetables in Go.
package csv

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

type stopRow struct {
	StopID        string  `csv:"stop_id"`
	StopName      string  `csv:"stop_name"`
	ParentStation string  `csv:"parent_station"`
	PlatformCode  string  `csv:"platform_code"`
	StopLat       float64 `csv:"stop_lat"`
	StopLon       float64 `csv:"stop_lon"`
}

type tripRow struct {
	TripID        string `csv:"trip_id"`
	RouteID       string `csv:"route_id"`
	ServiceID     string `csv:"service_id"`
	TripHeadsign  string `csv:"trip_headsign"`
	TripShortName string `csv:"trip_short_name"`
}

type stopTimeRow struct {
	TripID        string `csv:"trip_id"`
	StopSequence  int    `csv:"stop_sequence"`
	StopID        string `csv:"stop_id"`
	ArrivalTime   int    `csv:"arrival_time"`
	DepartureTime int    `csv:"departure_time"`
}

type transferRow struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    int    `csv:"transfer_type"`
	MinTransferTime int    `csv:"min_transfer_time"`
}

type calendarRow struct {
	CalendarDate string `csv:"calendar_date"` // "2006-01-02"
	ServiceIDs   string `csv:"service_ids"`   // pipe-separated
}

// Load reads stops.csv, trips.csv, stop_times.csv, transfers.csv and
// calendar.csv from dir and builds a Timetable.
func Load(dir string) (*timetable.Timetable, error) {
	start := time.Now()

	var stopRows []*stopRow
	if err := readCSV(filepath.Join(dir, "stops.csv"), &stopRows); err != nil {
		return nil, errors.Wrap(err, "loading stops.csv")
	}
	var tripRows []*tripRow
	if err := readCSV(filepath.Join(dir, "trips.csv"), &tripRows); err != nil {
		return nil, errors.Wrap(err, "loading trips.csv")
	}
	var stopTimeRows []*stopTimeRow
	if err := readCSV(filepath.Join(dir, "stop_times.csv"), &stopTimeRows); err != nil {
		return nil, errors.Wrap(err, "loading stop_times.csv")
	}
	var transferRows []*transferRow
	if err := readCSV(filepath.Join(dir, "transfers.csv"), &transferRows); err != nil {
		return nil, errors.Wrap(err, "loading transfers.csv")
	}
	var calendarRows []*calendarRow
	if err := readCSV(filepath.Join(dir, "calendar.csv"), &calendarRows); err != nil {
		return nil, errors.Wrap(err, "loading calendar.csv")
	}

	stops := make([]timetable.Stop, len(stopRows))
	for i, r := range stopRows {
		stops[i] = timetable.Stop{
			ID:            timetable.StopID(r.StopID),
			Name:          r.StopName,
			ParentStation: timetable.StopID(r.ParentStation),
			PlatformCode:  r.PlatformCode,
			Lat:           r.StopLat,
			Lon:           r.StopLon,
		}
	}

	trips := make([]timetable.Trip, len(tripRows))
	for i, r := range tripRows {
		trips[i] = timetable.Trip{
			ID:        timetable.TripID(r.TripID),
			RouteID:   timetable.RouteID(r.RouteID),
			ServiceID: timetable.ServiceID(r.ServiceID),
			Headsign:  r.TripHeadsign,
			ShortName: r.TripShortName,
		}
	}

	stopTimes := make([]timetable.StopTime, len(stopTimeRows))
	for i, r := range stopTimeRows {
		stopTimes[i] = timetable.StopTime{
			TripID:        timetable.TripID(r.TripID),
			StopSequence:  r.StopSequence,
			StopID:        timetable.StopID(r.StopID),
			ArrivalSecs:   r.ArrivalTime,
			DepartureSecs: r.DepartureTime,
		}
	}

	transfers := make([]timetable.Transfer, len(transferRows))
	for i, r := range transferRows {
		transfers[i] = timetable.Transfer{
			FromStopID: timetable.StopID(r.FromStopID),
			ToStopID:   timetable.StopID(r.ToStopID),
			Type:       timetable.TransferType(r.TransferType),
			MinSeconds: r.MinTransferTime,
		}
	}

	calendar := make(timetable.Calendar, len(calendarRows))
	for _, r := range calendarRows {
		set := make(map[timetable.ServiceID]struct{})
		for _, sid := range strings.Split(r.ServiceIDs, "|") {
			sid = strings.TrimSpace(sid)
			if sid != "" {
				set[timetable.ServiceID(sid)] = struct{}{}
			}
		}
		calendar[r.CalendarDate] = set
	}

	tt, err := timetable.New(stops, trips, stopTimes, transfers, calendar)
	if err != nil {
		return nil, errors.Wrap(err, "building timetable")
	}

	slog.Info("loaded timetable from csv",
		"dir", dir, "stops", len(stops), "trips", len(trips), "stop_times", len(stopTimes),
		"transfers", len(transfers), "dates", len(calendar),
		"elapsed", time.Since(start))
	return tt, nil
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return gocsv.Unmarshal(f, out)
}
