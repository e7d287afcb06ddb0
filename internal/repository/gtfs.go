// Package repository loads GTFS-shaped raw records from Postgres into the
// network package's BuildInput, generalizing the teacher's raw-SQL
// pgxpool repositories (spec.md §1/§6: "GTFS records... stop ids are
// strings remapped to dense indices on ingest").
package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// GTFSRepository loads a service day's timetable from a Postgres database
// holding GTFS-shaped tables (stops, stop_times, trips, calendar,
// calendar_dates, transfers).
type GTFSRepository struct {
	db *pgxpool.Pool
}

// NewGTFSRepository wraps an already-connected pool.
func NewGTFSRepository(db *pgxpool.Pool) *GTFSRepository {
	return &GTFSRepository{db: db}
}

// LoadNetwork reads every GTFS-shaped table for modelDate (YYYYMMDD) and
// builds the immutable Network, mirroring the teacher's
// Loader.LoadData progress-logging style.
func (r *GTFSRepository) LoadNetwork(ctx context.Context, modelDate string, maxWalkMeters float64) (*network.Network, error) {
	start := time.Now()
	log.Println("repository: loading GTFS tables from database...")

	stops, err := r.loadStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: loading stops: %w", err)
	}
	log.Printf("repository: loaded %d stops", len(stops))

	stopTimes, err := r.loadStopTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: loading stop_times: %w", err)
	}
	log.Printf("repository: loaded %d stop_times", len(stopTimes))

	trips, err := r.loadTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: loading trips: %w", err)
	}
	log.Printf("repository: loaded %d trips", len(trips))

	calendars, err := r.loadCalendar(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: loading calendar: %w", err)
	}
	calendarDates, err := r.loadCalendarDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: loading calendar_dates: %w", err)
	}
	active, err := network.ActiveServices(modelDate, calendars, calendarDates)
	if err != nil {
		return nil, fmt.Errorf("repository: computing active services: %w", err)
	}

	transfers, err := r.loadTransfers(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: loading transfers: %w", err)
	}
	log.Printf("repository: loaded %d transfers", len(transfers))

	net, err := network.Build(network.BuildInput{
		Stops:            stops,
		StopTimes:        stopTimes,
		Trips:            trips,
		ActiveServiceIDs: active,
		Transfers:        transfers,
		MaxWalkMeters:    maxWalkMeters,
	})
	if err != nil {
		return nil, fmt.Errorf("repository: building network: %w", err)
	}

	log.Printf("repository: network built in %s: %d stops, %d routes, %d trips", time.Since(start), len(net.Stops), len(net.Routes), len(net.Trips))
	return net, nil
}

func (r *GTFSRepository) loadStops(ctx context.Context) ([]network.RawStop, error) {
	rows, err := r.db.Query(ctx, `SELECT stop_id, stop_name, stop_lat, stop_lon FROM stops`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []network.RawStop
	for rows.Next() {
		var s network.RawStop
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *GTFSRepository) loadStopTimes(ctx context.Context) ([]network.RawStopTime, error) {
	rows, err := r.db.Query(ctx, `SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time FROM stop_times`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []network.RawStopTime
	for rows.Next() {
		var st network.RawStopTime
		if err := rows.Scan(&st.TripID, &st.StopID, &st.Sequence, &st.Arrival, &st.Departure); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *GTFSRepository) loadTrips(ctx context.Context) ([]network.RawTrip, error) {
	rows, err := r.db.Query(ctx, `SELECT trip_id, service_id, COALESCE(seated_capacity, 0), COALESCE(standing_capacity, 0) FROM trips`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []network.RawTrip
	for rows.Next() {
		var t network.RawTrip
		if err := rows.Scan(&t.ID, &t.ServiceID, &t.Capacity.Seated, &t.Capacity.Standing); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *GTFSRepository) loadCalendar(ctx context.Context) ([]network.RawCalendar, error) {
	rows, err := r.db.Query(ctx, `
		SELECT service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date
		FROM calendar
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []network.RawCalendar
	for rows.Next() {
		var c network.RawCalendar
		var mon, tue, wed, thu, fri, sat, sun bool
		if err := rows.Scan(&c.ServiceID, &mon, &tue, &wed, &thu, &fri, &sat, &sun, &c.StartDate, &c.EndDate); err != nil {
			return nil, err
		}
		c.Weekday = [7]bool{sun, mon, tue, wed, thu, fri, sat}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *GTFSRepository) loadCalendarDates(ctx context.Context) ([]network.RawCalendarDate, error) {
	rows, err := r.db.Query(ctx, `SELECT service_id, date, exception_type FROM calendar_dates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []network.RawCalendarDate
	for rows.Next() {
		var cd network.RawCalendarDate
		var exceptionType int
		if err := rows.Scan(&cd.ServiceID, &cd.Date, &exceptionType); err != nil {
			return nil, err
		}
		cd.ExceptionType = network.RawCalendarDateExceptionType(exceptionType)
		out = append(out, cd)
	}
	return out, rows.Err()
}

func (r *GTFSRepository) loadTransfers(ctx context.Context) ([]network.RawTransfer, error) {
	rows, err := r.db.Query(ctx, `SELECT from_stop_id, to_stop_id, min_transfer_time FROM transfers`)
	if err != nil {
		// transfers.txt is an optional GTFS table; a missing table is not
		// fatal to loading the rest of the network.
		if isUndefinedTable(err) {
			log.Println("repository: no transfers table present, continuing without explicit transfers")
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var out []network.RawTransfer
	for rows.Next() {
		var t network.RawTransfer
		if err := rows.Scan(&t.From, &t.To, &t.Duration); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// isUndefinedTable reports whether err is Postgres error code 42P01
// (undefined_table), mirroring the teacher's IsNoRows helper style for
// classifying a specific pgx error.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}

// IsNoRows mirrors the teacher's IsNoRows helper for callers doing their
// own single-row lookups against this repository's pool.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
