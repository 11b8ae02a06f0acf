// Package model defines the typed records exchanged between pipeline stages.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// FlightCandidate is a flight identifier produced by the discovery stage.
// It is immutable once written to the candidate artifact.
type FlightCandidate struct {
	FlightID     string    `json:"flight_id"`
	Source       string    `json:"source"` // seed that produced it, e.g. "airport:KLAX" or "bounds"
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Validate checks the candidate for the fields every later stage relies on.
func (c FlightCandidate) Validate() error {
	if c.FlightID == "" {
		return eris.New("model: candidate missing flight_id")
	}
	if c.DiscoveredAt.IsZero() {
		return eris.Errorf("model: candidate %s missing discovery timestamp", c.FlightID)
	}
	return nil
}

// FlightSummary is the verified metadata for a completed flight.
type FlightSummary struct {
	FlightID        string     `json:"flight_id"`
	Flight          string     `json:"flight,omitempty"`
	Callsign        string     `json:"callsign,omitempty"`
	AircraftModel   string     `json:"aircraft_model,omitempty"`
	AircraftReg     string     `json:"aircraft_reg,omitempty"`
	DepartureICAO   string     `json:"departure_icao,omitempty"`
	ArrivalICAO     string     `json:"arrival_icao,omitempty"`
	SchedDeparture  *time.Time `json:"sched_departure,omitempty"`
	SchedArrival    *time.Time `json:"sched_arrival,omitempty"`
	ActualDeparture *time.Time `json:"actual_departure,omitempty"`
	ActualArrival   *time.Time `json:"actual_arrival,omitempty"`
	FirstSeen       *time.Time `json:"first_seen,omitempty"`
	LastSeen        *time.Time `json:"last_seen,omitempty"`
	Status          string     `json:"status,omitempty"`
}

// Validate checks the summary fields the planner and exporter depend on.
func (s FlightSummary) Validate() error {
	if s.FlightID == "" {
		return eris.New("model: summary missing flight_id")
	}
	if s.Callsign == "" && s.Flight == "" {
		return eris.Errorf("model: summary %s has neither callsign nor flight number", s.FlightID)
	}
	return nil
}

// CallsignOrFlight returns the callsign, falling back to the flight number.
func (s FlightSummary) CallsignOrFlight() string {
	if s.Callsign != "" {
		return s.Callsign
	}
	return s.Flight
}

// PositionSample is a single raw position observation for one flight.
type PositionSample struct {
	Timestamp    int64   `json:"timestamp"` // unix seconds, UTC
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Altitude     float64 `json:"altitude"`      // feet
	GroundSpeed  float64 `json:"ground_speed"`  // knots
	VerticalRate float64 `json:"vertical_rate"` // feet per minute
}

// FlightTrajectory is the ordered, deduplicated position sequence for one flight.
type FlightTrajectory struct {
	FlightID string           `json:"flight_id"`
	Callsign string           `json:"callsign,omitempty"`
	Samples  []PositionSample `json:"samples"`
}

// Validate enforces the trajectory invariants: at least two samples and
// strictly increasing timestamps.
func (t FlightTrajectory) Validate() error {
	if t.FlightID == "" {
		return eris.New("model: trajectory missing flight_id")
	}
	if len(t.Samples) < 2 {
		return eris.Errorf("model: trajectory %s has %d samples, need at least 2", t.FlightID, len(t.Samples))
	}
	for i := 1; i < len(t.Samples); i++ {
		if t.Samples[i].Timestamp <= t.Samples[i-1].Timestamp {
			return eris.Errorf("model: trajectory %s timestamps not strictly increasing at index %d", t.FlightID, i)
		}
	}
	return nil
}

// SpanSeconds returns the time covered by the trajectory.
func (t FlightTrajectory) SpanSeconds() int64 {
	if len(t.Samples) < 2 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].Timestamp - t.Samples[0].Timestamp
}

// Airport is one row of the airports reference table.
type Airport struct {
	ICAO      string  `yaml:"icao" json:"icao"`
	Name      string  `yaml:"name,omitempty" json:"name,omitempty"`
	Latitude  float64 `yaml:"lat" json:"lat"`
	Longitude float64 `yaml:"lon" json:"lon"`
}
