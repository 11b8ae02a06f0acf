package metrics

import (
	"sort"

	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
)

// Quality flags attached to exported metrics.
const (
	FlagSuspectDistance = "suspect_distance"
	FlagMissingAirport  = "missing_airport"
	FlagNoAircraftModel = "no_aircraft_model"
)

// Engine computes per-flight metrics from trajectories and verified summaries.
type Engine struct {
	cfg      config.MetricsConfig
	profiles FuelProfiles
	airports map[string]model.Airport
}

// NewEngine builds a metrics engine. profiles must have passed
// LoadFuelProfiles validation; airports keys are ICAO codes.
func NewEngine(cfg config.MetricsConfig, profiles FuelProfiles, airports map[string]model.Airport) *Engine {
	return &Engine{cfg: cfg, profiles: profiles, airports: airports}
}

// ComputeAll runs Compute over every trajectory in the artifact. Flights that
// cannot be computed land in the Skipped map with a reason instead of aborting
// the batch.
func (e *Engine) ComputeAll(trajectories model.TrajectoryArtifact, summaries model.SummaryArtifact) model.MetricsArtifact {
	art := model.MetricsArtifact{
		Flights: make(map[string]model.FlightMetrics),
		Skipped: make(map[string]string),
	}
	for id, reason := range trajectories.Unusable {
		art.Skipped[id] = reason
	}

	for id, traj := range trajectories.Trajectories {
		if err := traj.Validate(); err != nil {
			art.Skipped[id] = err.Error()
			continue
		}
		art.Flights[id] = e.Compute(traj, summaries.Summaries[id])
	}

	zap.L().Info("metrics computed",
		zap.Int("flights", len(art.Flights)),
		zap.Int("skipped", len(art.Skipped)),
	)
	return art
}

// Compute derives the distance, phase and emission metrics for one flight.
// The trajectory must be valid. A zero-value summary is acceptable; missing
// metadata degrades to flags rather than errors.
func (e *Engine) Compute(traj model.FlightTrajectory, summary model.FlightSummary) model.FlightMetrics {
	m := model.FlightMetrics{
		FlightID:       traj.FlightID,
		Flight:         summary.Flight,
		Callsign:       traj.Callsign,
		AircraftModel:  summary.AircraftModel,
		AircraftReg:    summary.AircraftReg,
		DepartureICAO:  summary.DepartureICAO,
		ArrivalICAO:    summary.ArrivalICAO,
		PhaseDurationS: make(map[model.Phase]int64),
		FuelKG:         make(map[model.Phase]float64),
		CO2KG:          make(map[model.Phase]float64),
	}
	if m.Callsign == "" {
		m.Callsign = summary.CallsignOrFlight()
	}

	m.PathKM = PathDistanceKM(traj.Samples)
	m.GreatCircleKM = e.greatCircle(summary, &m)

	if m.GreatCircleKM > 0 && m.PathKM < m.GreatCircleKM*(1-e.cfg.SuspectTolerance) {
		// A reconstructed path shorter than the direct route means samples
		// are missing in the middle of the flight.
		m.Flags = append(m.Flags, FlagSuspectDistance)
	}

	m.Segments = DetectSegments(traj, e.cfg)
	for _, p := range model.CanonicalPhases {
		m.PhaseDurationS[p] = 0
	}
	for _, seg := range m.Segments {
		m.PhaseDurationS[seg.Phase] += seg.DurationS
	}

	if summary.AircraftModel == "" {
		m.Flags = append(m.Flags, FlagNoAircraftModel)
	}
	profile := e.profiles.Lookup(summary.AircraftModel)
	seats := profile.Seats
	if seats <= 0 {
		seats = defaultSeats
	}

	for _, p := range model.CanonicalPhases {
		hours := float64(m.PhaseDurationS[p]) / 3600.0
		fuel := profile.Rate(p) * hours
		m.FuelKG[p] = fuel
		m.CO2KG[p] = fuel * e.cfg.EmissionFactor
		m.FuelTotalKG += fuel
	}
	m.CO2TotalKG = m.FuelTotalKG * e.cfg.EmissionFactor
	m.CO2PerPassengerKG = m.CO2TotalKG / float64(seats)

	sort.Strings(m.Flags)
	return m
}

// greatCircle resolves the direct airport-to-airport distance, flagging the
// flight when either endpoint is absent from the reference table.
func (e *Engine) greatCircle(summary model.FlightSummary, m *model.FlightMetrics) float64 {
	dep, depOK := e.airports[summary.DepartureICAO]
	arr, arrOK := e.airports[summary.ArrivalICAO]
	if !depOK || !arrOK {
		m.Flags = append(m.Flags, FlagMissingAirport)
		return 0
	}
	return Haversine(dep.Latitude, dep.Longitude, arr.Latitude, arr.Longitude)
}
