package model

// Phase is one of the canonical flight-operation phases. The pipeline also
// tracks a ground pseudo-phase during detection, but segments and metrics
// only ever carry the five airborne-operational phases below.
type Phase string

const (
	PhaseGround  Phase = "ground"
	PhaseTakeoff Phase = "takeoff"
	PhaseClimb   Phase = "climb"
	PhaseCruise  Phase = "cruise"
	PhaseDescent Phase = "descent"
	PhaseLanding Phase = "landing"
)

// CanonicalPhases is the fixed phase order used for segments and reports.
var CanonicalPhases = []Phase{PhaseTakeoff, PhaseClimb, PhaseCruise, PhaseDescent, PhaseLanding}

var phaseRank = map[Phase]int{
	PhaseGround:  0,
	PhaseTakeoff: 1,
	PhaseClimb:   2,
	PhaseCruise:  3,
	PhaseDescent: 4,
	PhaseLanding: 5,
}

// Rank returns the position of the phase in the canonical order, with ground
// before takeoff. Unknown phases rank below ground.
func (p Phase) Rank() int {
	if r, ok := phaseRank[p]; ok {
		return r
	}
	return -1
}

// PhaseSegment is a contiguous sub-range of a trajectory assigned to one phase.
// StartIndex and EndIndex are inclusive sample indices.
type PhaseSegment struct {
	Phase      Phase `json:"phase"`
	StartIndex int   `json:"start_index"`
	EndIndex   int   `json:"end_index"`
	StartTime  int64 `json:"start_time"`
	EndTime    int64 `json:"end_time"`
	DurationS  int64 `json:"duration_s"`
}

// FlightMetrics is the derived per-flight output of the metrics engine.
type FlightMetrics struct {
	FlightID      string `json:"flight_id"`
	Flight        string `json:"flight,omitempty"`
	Callsign      string `json:"callsign,omitempty"`
	AircraftModel string `json:"aircraft_model"`
	AircraftReg   string `json:"aircraft_reg,omitempty"`
	DepartureICAO string `json:"departure_icao,omitempty"`
	ArrivalICAO   string `json:"arrival_icao,omitempty"`

	GreatCircleKM float64 `json:"great_circle_km"`
	PathKM        float64 `json:"path_km"`

	Segments       []PhaseSegment    `json:"segments"`
	PhaseDurationS map[Phase]int64   `json:"phase_durations_s"`
	FuelKG         map[Phase]float64 `json:"fuel_estimated_kg"`
	CO2KG          map[Phase]float64 `json:"co2_estimated_kg"`

	FuelTotalKG       float64 `json:"fuel_total_kg"`
	CO2TotalKG        float64 `json:"co2_total_kg"`
	CO2PerPassengerKG float64 `json:"co2_per_passenger_kg"`

	// Flags records quality annotations such as suspect_distance or
	// missing_airport. Flagged flights are exported, not dropped.
	Flags []string `json:"flags,omitempty"`
}
