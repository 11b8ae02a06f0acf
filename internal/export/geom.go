package export

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/listerineh/flights-cli/internal/model"
)

// pathEWKB encodes a trajectory as an EWKB LineString with SRID 4326.
// Returns nil, nil when the trajectory has fewer than two samples.
func pathEWKB(t model.FlightTrajectory) ([]byte, error) {
	if len(t.Samples) < 2 {
		return nil, nil
	}

	flat := make([]float64, 0, len(t.Samples)*2)
	for _, s := range t.Samples {
		flat = append(flat, s.Longitude, s.Latitude)
	}

	ls := geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326)
	data, err := ewkb.Marshal(ls, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrapf(err, "export: encode path for %s", t.FlightID)
	}
	return data, nil
}

// exportPaths writes the geometry column for each exported flight.
func (e *Exporter) exportPaths(ctx context.Context, ids []string, trajectories model.TrajectoryArtifact) error {
	for _, id := range ids {
		traj, ok := trajectories.Trajectories[id]
		if !ok {
			continue
		}
		data, err := pathEWKB(traj)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		if _, err := e.pool.Exec(ctx,
			"UPDATE flights SET path = ST_GeomFromEWKB($1) WHERE fr24_id = $2",
			data, id); err != nil {
			return eris.Wrapf(err, "export: write path for %s", id)
		}
	}
	return nil
}
