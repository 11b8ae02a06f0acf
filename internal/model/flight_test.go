package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlightTrajectoryValidate(t *testing.T) {
	sample := func(ts int64) PositionSample { return PositionSample{Timestamp: ts} }

	tests := []struct {
		name    string
		traj    FlightTrajectory
		wantErr bool
	}{
		{
			name:    "valid",
			traj:    FlightTrajectory{FlightID: "a1", Samples: []PositionSample{sample(1), sample(2), sample(3)}},
			wantErr: false,
		},
		{
			name:    "missing flight id",
			traj:    FlightTrajectory{Samples: []PositionSample{sample(1), sample(2)}},
			wantErr: true,
		},
		{
			name:    "single sample",
			traj:    FlightTrajectory{FlightID: "a1", Samples: []PositionSample{sample(1)}},
			wantErr: true,
		},
		{
			name:    "duplicate timestamp",
			traj:    FlightTrajectory{FlightID: "a1", Samples: []PositionSample{sample(1), sample(1)}},
			wantErr: true,
		},
		{
			name:    "regressing timestamp",
			traj:    FlightTrajectory{FlightID: "a1", Samples: []PositionSample{sample(5), sample(3)}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.traj.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpanSeconds(t *testing.T) {
	traj := FlightTrajectory{FlightID: "a1", Samples: []PositionSample{
		{Timestamp: 100}, {Timestamp: 460}, {Timestamp: 1540},
	}}
	assert.Equal(t, int64(1440), traj.SpanSeconds())

	assert.Zero(t, FlightTrajectory{}.SpanSeconds())
}

func TestFlightSummaryValidate(t *testing.T) {
	assert.Error(t, FlightSummary{}.Validate())
	assert.Error(t, FlightSummary{FlightID: "a1"}.Validate())
	assert.NoError(t, FlightSummary{FlightID: "a1", Callsign: "UAL123"}.Validate())
	assert.NoError(t, FlightSummary{FlightID: "a1", Flight: "UA123"}.Validate())
}

func TestCallsignOrFlight(t *testing.T) {
	assert.Equal(t, "UAL123", FlightSummary{Callsign: "UAL123", Flight: "UA123"}.CallsignOrFlight())
	assert.Equal(t, "UA123", FlightSummary{Flight: "UA123"}.CallsignOrFlight())
}

func TestFlightCandidateValidate(t *testing.T) {
	now := time.Now()
	assert.NoError(t, FlightCandidate{FlightID: "a1", DiscoveredAt: now}.Validate())
	assert.Error(t, FlightCandidate{DiscoveredAt: now}.Validate())
	assert.Error(t, FlightCandidate{FlightID: "a1"}.Validate())
}
