// Package metrics derives distances, phase segments, fuel burn and CO2
// estimates from assembled trajectories.
package metrics

import (
	"math"

	"github.com/listerineh/flights-cli/internal/model"
)

const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// PathDistanceKM sums the great-circle legs between consecutive samples.
func PathDistanceKM(samples []model.PositionSample) float64 {
	var total float64
	for i := 1; i < len(samples); i++ {
		total += Haversine(
			samples[i-1].Latitude, samples[i-1].Longitude,
			samples[i].Latitude, samples[i].Longitude,
		)
	}
	return total
}
