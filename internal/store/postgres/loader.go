// Package postgres loads a Timetable from a Postgres database holding
// five GTFS-shaped tables: stops, trips, stop_times, transfers,
// calendar.
package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/antigravity/raptor-transit/internal/timetable"
)

// Loader reads timetable rows from a connection pool.
type Loader struct {
	db *pgxpool.Pool
}

// NewLoader returns a Loader bound to db.
func NewLoader(db *pgxpool.Pool) *Loader {
	return &Loader{db: db}
}

// Load reads all five tables and builds a Timetable. A missing table
// or a schema mismatch is fatal and surfaced to the caller wrapped
// with github.com/pkg/errors context.
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

	slog.Info("loaded timetable from postgres",
		"stops", len(stops), "trips", len(trips), "stop_times", len(stopTimes),
		"transfers", len(transfers), "dates", len(calendar),
		"elapsed", time.Since(start))
	return tt, nil
}

func (l *Loader) loadStops(ctx context.Context) ([]timetable.Stop, error) {
	rows, err := l.db.Query(ctx, `
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
	rows, err := l.db.Query(ctx, `
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
	rows, err := l.db.Query(ctx, `
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
	rows, err := l.db.Query(ctx, `
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
	rows, err := l.db.Query(ctx, `SELECT calendar_date, service_ids FROM calendar`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cal := make(timetable.Calendar)
	for rows.Next() {
		var date time.Time
		var serviceIDs []string
		if err := rows.Scan(&date, &serviceIDs); err != nil {
			return nil, err
		}
		set := make(map[timetable.ServiceID]struct{}, len(serviceIDs))
		for _, sid := range serviceIDs {
			set[timetable.ServiceID(sid)] = struct{}{}
		}
		cal[date.Format("2006-01-02")] = set
	}
	return cal, rows.Err()
}
