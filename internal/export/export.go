// Package export persists computed flight metrics and their trajectories to
// PostgreSQL. Flight rows are upserted so re-exporting a run is idempotent;
// position rows are replaced wholesale per flight.
package export

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/db"
	"github.com/listerineh/flights-cli/internal/model"
)

const flightsDDL = `
CREATE TABLE IF NOT EXISTS flights (
	fr24_id              TEXT PRIMARY KEY,
	flight               TEXT,
	callsign             TEXT,
	aircraft_model       TEXT,
	aircraft_reg         TEXT,
	departure_icao       TEXT,
	arrival_icao         TEXT,
	great_circle_km      DOUBLE PRECISION NOT NULL DEFAULT 0,
	path_km              DOUBLE PRECISION NOT NULL DEFAULT 0,
	phase_durations_s    JSONB,
	fuel_by_phase_kg     JSONB,
	co2_by_phase_kg      JSONB,
	fuel_total_kg        DOUBLE PRECISION NOT NULL DEFAULT 0,
	co2_total_kg         DOUBLE PRECISION NOT NULL DEFAULT 0,
	co2_per_passenger_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
	flags                JSONB,
	exported_at          TIMESTAMPTZ NOT NULL
)`

const positionsDDL = `
CREATE TABLE IF NOT EXISTS flight_positions (
	fr24_id       TEXT NOT NULL REFERENCES flights (fr24_id) ON DELETE CASCADE,
	sampled_at    TIMESTAMPTZ NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	altitude_ft   DOUBLE PRECISION NOT NULL,
	ground_speed  DOUBLE PRECISION NOT NULL,
	vertical_rate DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (fr24_id, sampled_at)
)`

var flightColumns = []string{
	"fr24_id", "flight", "callsign", "aircraft_model", "aircraft_reg",
	"departure_icao", "arrival_icao", "great_circle_km", "path_km",
	"phase_durations_s", "fuel_by_phase_kg", "co2_by_phase_kg",
	"fuel_total_kg", "co2_total_kg", "co2_per_passenger_kg",
	"flags", "exported_at",
}

var positionColumns = []string{
	"fr24_id", "sampled_at", "latitude", "longitude",
	"altitude_ft", "ground_speed", "vertical_rate",
}

// Exporter writes metrics and trajectories to the sink database.
type Exporter struct {
	pool db.Pool
	cfg  config.ExportConfig
}

// New builds an exporter on an open pool.
func New(pool db.Pool, cfg config.ExportConfig) *Exporter {
	return &Exporter{pool: pool, cfg: cfg}
}

// EnsureSchema creates the sink tables when absent. With PostGIS enabled it
// also adds the geometry column holding the reconstructed path.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	if _, err := e.pool.Exec(ctx, flightsDDL); err != nil {
		return eris.Wrap(err, "export: create flights table")
	}
	if _, err := e.pool.Exec(ctx, positionsDDL); err != nil {
		return eris.Wrap(err, "export: create flight_positions table")
	}
	if e.cfg.PostGIS {
		if _, err := e.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
			return eris.Wrap(err, "export: enable postgis")
		}
		if _, err := e.pool.Exec(ctx,
			"ALTER TABLE flights ADD COLUMN IF NOT EXISTS path geometry(LineString, 4326)"); err != nil {
			return eris.Wrap(err, "export: add path column")
		}
	}
	return nil
}

// Export writes every computed flight and its positions. It returns the
// number of flight rows upserted and position rows copied.
func (e *Exporter) Export(ctx context.Context, metrics model.MetricsArtifact, trajectories model.TrajectoryArtifact) (int64, int64, error) {
	ids := make([]string, 0, len(metrics.Flights))
	for id := range metrics.Flights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now().UTC()
	flightRows := make([][]any, 0, len(ids))
	var positionRows [][]any

	for _, id := range ids {
		m := metrics.Flights[id]
		row, err := flightRow(m, now)
		if err != nil {
			return 0, 0, err
		}
		flightRows = append(flightRows, row)

		traj, ok := trajectories.Trajectories[id]
		if !ok {
			continue
		}
		for _, s := range traj.Samples {
			positionRows = append(positionRows, []any{
				id, time.Unix(s.Timestamp, 0).UTC(),
				s.Latitude, s.Longitude,
				s.Altitude, s.GroundSpeed, s.VerticalRate,
			})
		}
	}

	flights, err := db.BulkUpsert(ctx, e.pool, db.UpsertConfig{
		Table:        "flights",
		Columns:      flightColumns,
		ConflictKeys: []string{"fr24_id"},
	}, flightRows)
	if err != nil {
		return 0, 0, err
	}

	// Replace rather than merge: stale positions from an earlier export of
	// the same flight would otherwise corrupt the ordering invariant.
	if len(ids) > 0 {
		if _, err := e.pool.Exec(ctx,
			"DELETE FROM flight_positions WHERE fr24_id = ANY($1)", ids); err != nil {
			return flights, 0, eris.Wrap(err, "export: clear previous positions")
		}
	}

	positions, err := db.CopyFrom(ctx, e.pool, "flight_positions", positionColumns, positionRows)
	if err != nil {
		return flights, 0, err
	}

	if e.cfg.PostGIS {
		if err := e.exportPaths(ctx, ids, trajectories); err != nil {
			return flights, positions, err
		}
	}

	zap.L().Info("export finished",
		zap.Int64("flights", flights),
		zap.Int64("positions", positions),
		zap.Bool("postgis", e.cfg.PostGIS),
	)
	return flights, positions, nil
}

// flightRow maps one FlightMetrics onto the flights column order.
func flightRow(m model.FlightMetrics, now time.Time) ([]any, error) {
	durations, err := json.Marshal(m.PhaseDurationS)
	if err != nil {
		return nil, eris.Wrapf(err, "export: marshal durations for %s", m.FlightID)
	}
	fuel, err := json.Marshal(m.FuelKG)
	if err != nil {
		return nil, eris.Wrapf(err, "export: marshal fuel for %s", m.FlightID)
	}
	co2, err := json.Marshal(m.CO2KG)
	if err != nil {
		return nil, eris.Wrapf(err, "export: marshal co2 for %s", m.FlightID)
	}
	flags, err := json.Marshal(m.Flags)
	if err != nil {
		return nil, eris.Wrapf(err, "export: marshal flags for %s", m.FlightID)
	}

	return []any{
		m.FlightID, m.Flight, m.Callsign, m.AircraftModel, m.AircraftReg,
		m.DepartureICAO, m.ArrivalICAO, m.GreatCircleKM, m.PathKM,
		durations, fuel, co2,
		m.FuelTotalKG, m.CO2TotalKG, m.CO2PerPassengerKG,
		flags, now,
	}, nil
}
