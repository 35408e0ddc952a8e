// Package sqlite loads a Timetable from a local SQLite file holding
// the same five tables internal/store/postgres reads, using the
// pure-Go modernc.org/sqlite driver (as FabianUB-minibarcelona3d's
// poller does for its own local store) so local dev doesn't need a
// running Postgres instance. No test in this repository uses it.
//
// calendar.service_ids is stored as a comma-separated string, since
// SQLite has no array column type — the one schema difference from
// the Postgres loader.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

// Loader reads timetable rows from a SQLite file.
type Loader struct {
	db *sql.DB
}

// Open opens the SQLite file at path and returns a Loader.
func Open(path string) (*Loader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite file %q", path)
	}
	return &Loader{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Loader) Close() error {
	return l.db.Close()
}

// Load reads all five tables and builds a Timetable.
func (l *Loader) Load(ctx context.Context) (*timetable.Timetable, error) {
	start := time.Now()

	stops, err := l.loadStops(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading stops")
	}
	trips, err := l.loadTrips(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading trips")
	}
	stopTimes, err := l.loadStopTimes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading stop_times")
	}
	transfers, err := l.loadTransfers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading transfers")
	}
	calendar, err := l.loadCalendar(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading calendar")
	}

	tt, err := timetable.New(stops, trips, stopTimes, transfers, calendar)
	if err != nil {
		return nil, errors.Wrap(err, "building timetable")
	}

	slog.Info("loaded timetable from sqlite",
		"stops", len(stops), "trips", len(trips), "stop_times", len(stopTimes),
		"transfers", len(transfers), "dates", len(calendar),
		"elapsed", time.Since(start))
	return tt, nil
}

func (l *Loader) loadStops(ctx context.Context) ([]timetable.Stop, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT stop_id, stop_name, COALESCE(parent_station, ''), COALESCE(platform_code, ''), stop_lat, stop_lon
		FROM stops`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timetable.Stop
	for rows.Next() {
		var s timetable.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.ParentStation, &s.PlatformCode, &s.Lat, &s.Lon); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *Loader) loadTrips(ctx context.Context) ([]timetable.Trip, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT trip_id, route_id, service_id, COALESCE(trip_headsign, ''), COALESCE(trip_short_name, '')
		FROM trips`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timetable.Trip
	for rows.Next() {
		var t timetable.Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &t.ShortName); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (l *Loader) loadStopTimes(ctx context.Context) ([]timetable.StopTime, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT trip_id, stop_sequence, stop_id, arrival_time, departure_time
		FROM stop_times`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timetable.StopTime
	for rows.Next() {
		var st timetable.StopTime
		if err := rows.Scan(&st.TripID, &st.StopSequence, &st.StopID, &st.ArrivalSecs, &st.DepartureSecs); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (l *Loader) loadTransfers(ctx context.Context) ([]timetable.Transfer, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT from_stop_id, to_stop_id, transfer_type, min_transfer_time
		FROM transfers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []timetable.Transfer
	for rows.Next() {
		var tr timetable.Transfer
		if err := rows.Scan(&tr.FromStopID, &tr.ToStopID, &tr.Type, &tr.MinSeconds); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (l *Loader) loadCalendar(ctx context.Context) (timetable.Calendar, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT calendar_date, service_ids FROM calendar`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cal := make(timetable.Calendar)
	for rows.Next() {
		var date, serviceIDsCSV string
		if err := rows.Scan(&date, &serviceIDsCSV); err != nil {
			return nil, err
		}
		set := make(map[timetable.ServiceID]struct{})
		for _, sid := range strings.Split(serviceIDsCSV, ",") {
			sid = strings.TrimSpace(sid)
			if sid != "" {
				set[timetable.ServiceID(sid)] = struct{}{}
			}
		}
		cal[date] = set
	}
	return cal, rows.Err()
}
