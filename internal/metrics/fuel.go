package metrics

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/listerineh/flights-cli/internal/model"
)

// defaultSeats is used when a profile omits the seat count.
const defaultSeats = 150

// FuelProfile holds the per-phase fuel burn rates (kg per hour) and seat
// count for one aircraft model.
type FuelProfile struct {
	Takeoff float64 `json:"takeoff"`
	Climb   float64 `json:"climb"`
	Cruise  float64 `json:"cruise"`
	Descent float64 `json:"descent"`
	Landing float64 `json:"landing"`
	Seats   int     `json:"seats"`
}

// Rate returns the burn rate for a phase in kg per hour.
func (p FuelProfile) Rate(phase model.Phase) float64 {
	switch phase {
	case model.PhaseTakeoff:
		return p.Takeoff
	case model.PhaseClimb:
		return p.Climb
	case model.PhaseCruise:
		return p.Cruise
	case model.PhaseDescent:
		return p.Descent
	case model.PhaseLanding:
		return p.Landing
	default:
		return 0
	}
}

// FuelProfiles maps aircraft model designators to their profile. The
// distinguished "default" entry guarantees every lookup resolves.
type FuelProfiles map[string]FuelProfile

// Lookup returns the profile for an aircraft model, falling back to the
// default profile for unknown or empty models. Lookup never fails given a
// table that passed LoadFuelProfiles validation.
func (fp FuelProfiles) Lookup(aircraftModel string) FuelProfile {
	if p, ok := fp[aircraftModel]; ok && aircraftModel != "" {
		return p
	}
	return fp["default"]
}

// LoadFuelProfiles reads and validates the fuel-profile table. The table
// must contain a "default" profile and every rate must be non-negative.
func LoadFuelProfiles(path string) (FuelProfiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "metrics: read fuel profiles %s", path)
	}

	var fp FuelProfiles
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, eris.Wrapf(err, "metrics: parse fuel profiles %s", path)
	}

	if _, ok := fp["default"]; !ok {
		return nil, eris.Errorf("metrics: fuel profiles %s missing the default profile", path)
	}
	for name, p := range fp {
		if p.Takeoff < 0 || p.Climb < 0 || p.Cruise < 0 || p.Descent < 0 || p.Landing < 0 {
			return nil, eris.Errorf("metrics: fuel profile %s has a negative burn rate", name)
		}
		if p.Seats <= 0 {
			p.Seats = defaultSeats
			fp[name] = p
		}
	}
	return fp, nil
}
