package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
)

func detectorConfig() config.MetricsConfig {
	return config.MetricsConfig{
		VerticalRateThr:  300,
		LowAltitudeFt:    500,
		TakeoffSpeedKts:  30,
		LandingSpeedKts:  50,
		GroundSpeedKts:   30,
		MinDwellSamples:  1,
		EmissionFactor:   3.16,
		SuspectTolerance: 0.05,
	}
}

func TestClassifySample(t *testing.T) {
	cfg := detectorConfig()

	tests := []struct {
		name   string
		sample model.PositionSample
		want   model.Phase
	}{
		{"rotation", model.PositionSample{Altitude: 100, GroundSpeed: 140, VerticalRate: 800}, model.PhaseTakeoff},
		{"taxi", model.PositionSample{Altitude: 0, GroundSpeed: 10, VerticalRate: 0}, model.PhaseGround},
		{"rollout", model.PositionSample{Altitude: 50, GroundSpeed: 45, VerticalRate: -100}, model.PhaseLanding},
		{"steady climb", model.PositionSample{Altitude: 8000, GroundSpeed: 280, VerticalRate: 2200}, model.PhaseClimb},
		{"steady descent", model.PositionSample{Altitude: 12000, GroundSpeed: 300, VerticalRate: -1800}, model.PhaseDescent},
		{"level cruise", model.PositionSample{Altitude: 36000, GroundSpeed: 450, VerticalRate: 0}, model.PhaseCruise},
		{"gentle drift still cruise", model.PositionSample{Altitude: 36000, GroundSpeed: 450, VerticalRate: -200}, model.PhaseCruise},
		{"low but fast and level", model.PositionSample{Altitude: 400, GroundSpeed: 250, VerticalRate: 0}, model.PhaseCruise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySample(tt.sample, cfg))
		})
	}
}

// A five-sample hop: some phases are simply never observed and must come out
// with zero duration rather than being invented.
func TestDetectSegmentsShortFlight(t *testing.T) {
	traj := model.FlightTrajectory{FlightID: "f1", Samples: []model.PositionSample{
		{Timestamp: 0, Altitude: 0, GroundSpeed: 140, VerticalRate: 800},
		{Timestamp: 360, Altitude: 2000, GroundSpeed: 250, VerticalRate: 2500},
		{Timestamp: 720, Altitude: 10000, GroundSpeed: 400, VerticalRate: 0},
		{Timestamp: 1080, Altitude: 10000, GroundSpeed: 400, VerticalRate: 0},
		{Timestamp: 1440, Altitude: 100, GroundSpeed: 40, VerticalRate: -100},
	}}

	segs := DetectSegments(traj, detectorConfig())
	require.Len(t, segs, 4)

	phases := make([]model.Phase, 0, len(segs))
	var total int64
	for _, s := range segs {
		phases = append(phases, s.Phase)
		total += s.DurationS
	}
	assert.Equal(t, []model.Phase{model.PhaseTakeoff, model.PhaseClimb, model.PhaseCruise, model.PhaseLanding}, phases)

	// Segments tile the whole span.
	assert.Equal(t, traj.SpanSeconds(), total)
	assert.Equal(t, int64(0), segs[0].StartTime)
	assert.Equal(t, int64(1440), segs[len(segs)-1].EndTime)
}

func TestDetectSegmentsForwardOnly(t *testing.T) {
	// One noisy climb reading in the middle of the descent.
	traj := model.FlightTrajectory{FlightID: "f1", Samples: []model.PositionSample{
		{Timestamp: 0, Altitude: 100, GroundSpeed: 150, VerticalRate: 900},
		{Timestamp: 360, Altitude: 20000, GroundSpeed: 420, VerticalRate: 0},
		{Timestamp: 720, Altitude: 15000, GroundSpeed: 380, VerticalRate: -1500},
		{Timestamp: 1080, Altitude: 14000, GroundSpeed: 380, VerticalRate: 600},
		{Timestamp: 1440, Altitude: 8000, GroundSpeed: 350, VerticalRate: -1500},
	}}

	segs := DetectSegments(traj, detectorConfig())

	for i := 1; i < len(segs); i++ {
		assert.Greater(t, segs[i].Phase.Rank(), segs[i-1].Phase.Rank(),
			"segment phases must advance monotonically")
	}
	// The noisy sample is absorbed into the descent.
	last := segs[len(segs)-1]
	assert.Equal(t, model.PhaseDescent, last.Phase)
	assert.Equal(t, int64(1440), last.EndTime)
}

func TestDetectSegmentsDwellSuppressesBlips(t *testing.T) {
	cfg := detectorConfig()
	cfg.MinDwellSamples = 2

	// A single cruise-looking sample during the climb must not end the climb.
	traj := model.FlightTrajectory{FlightID: "f1", Samples: []model.PositionSample{
		{Timestamp: 0, Altitude: 100, GroundSpeed: 150, VerticalRate: 900},
		{Timestamp: 360, Altitude: 2000, GroundSpeed: 250, VerticalRate: 2000},
		{Timestamp: 720, Altitude: 5000, GroundSpeed: 300, VerticalRate: 2000},
		{Timestamp: 1080, Altitude: 8000, GroundSpeed: 320, VerticalRate: 0},
		{Timestamp: 1440, Altitude: 11000, GroundSpeed: 320, VerticalRate: 2000},
		{Timestamp: 1800, Altitude: 20000, GroundSpeed: 420, VerticalRate: 0},
		{Timestamp: 2160, Altitude: 20000, GroundSpeed: 420, VerticalRate: 0},
	}}

	segs := DetectSegments(traj, cfg)

	var cruiseStart int64 = -1
	for _, s := range segs {
		if s.Phase == model.PhaseCruise {
			cruiseStart = s.StartTime
		}
	}
	require.NotEqual(t, int64(-1), cruiseStart)
	assert.Equal(t, int64(1800), cruiseStart, "cruise must begin at the sustained level-off, not the blip")
}

// A snapshot catching the takeoff roll sits between the taxi and rotation
// speed cutoffs and classifies as landing per-sample. It must not latch the
// flight on landing; the real landing still closes the flight at the end.
func TestDetectSegmentsTakeoffRollIsNotLanding(t *testing.T) {
	traj := model.FlightTrajectory{FlightID: "f1", Samples: []model.PositionSample{
		{Timestamp: 0, Altitude: 0, GroundSpeed: 40, VerticalRate: 0}, // rolling at 40 kt
		{Timestamp: 360, Altitude: 2000, GroundSpeed: 250, VerticalRate: 2500},
		{Timestamp: 720, Altitude: 36000, GroundSpeed: 450, VerticalRate: 0},
		{Timestamp: 1080, Altitude: 36000, GroundSpeed: 450, VerticalRate: 0},
		{Timestamp: 1440, Altitude: 15000, GroundSpeed: 320, VerticalRate: -2000},
		{Timestamp: 1800, Altitude: 100, GroundSpeed: 45, VerticalRate: -200},
	}}

	segs := DetectSegments(traj, detectorConfig())
	require.Len(t, segs, 5)

	phases := make([]model.Phase, 0, len(segs))
	for _, s := range segs {
		phases = append(phases, s.Phase)
	}
	assert.Equal(t, []model.Phase{
		model.PhaseTakeoff, model.PhaseClimb, model.PhaseCruise,
		model.PhaseDescent, model.PhaseLanding,
	}, phases)

	assert.Equal(t, int64(360), segs[0].DurationS, "the roll sample belongs to takeoff")
	last := segs[len(segs)-1]
	assert.Equal(t, int64(1800), last.StartTime)
	assert.Equal(t, int64(0), last.DurationS)
}

func TestDetectSegmentsGroundFoldsIntoTakeoff(t *testing.T) {
	traj := model.FlightTrajectory{FlightID: "f1", Samples: []model.PositionSample{
		{Timestamp: 0, Altitude: 0, GroundSpeed: 5, VerticalRate: 0}, // taxi
		{Timestamp: 360, Altitude: 0, GroundSpeed: 20, VerticalRate: 0},
		{Timestamp: 720, Altitude: 200, GroundSpeed: 150, VerticalRate: 1000},
		{Timestamp: 1080, Altitude: 5000, GroundSpeed: 300, VerticalRate: 2000},
	}}

	segs := DetectSegments(traj, detectorConfig())
	require.NotEmpty(t, segs)
	assert.Equal(t, model.PhaseTakeoff, segs[0].Phase)
	assert.Equal(t, int64(0), segs[0].StartTime)

	for _, s := range segs {
		assert.NotEqual(t, model.PhaseGround, s.Phase)
	}
}

func TestDetectSegmentsEmptyTrajectory(t *testing.T) {
	assert.Nil(t, DetectSegments(model.FlightTrajectory{}, detectorConfig()))
}
