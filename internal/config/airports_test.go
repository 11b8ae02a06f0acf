package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAirports(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAirports(t *testing.T) {
	path := writeAirports(t, `
- icao: KLAX
  name: Los Angeles International
  lat: 33.9425
  lon: -118.408
- icao: KJFK
  lat: 40.6398
  lon: -73.7789
`)

	airports, err := LoadAirports(path)
	require.NoError(t, err)
	require.Len(t, airports, 2)

	assert.Equal(t, 33.9425, airports["KLAX"].Latitude)
	assert.Equal(t, -73.7789, airports["KJFK"].Longitude)
	assert.Equal(t, "Los Angeles International", airports["KLAX"].Name)
}

func TestLoadAirportsRejectsMissingICAO(t *testing.T) {
	path := writeAirports(t, `
- name: Nowhere
  lat: 1
  lon: 2
`)
	_, err := LoadAirports(path)
	assert.Error(t, err)
}

func TestLoadAirportsMissingFile(t *testing.T) {
	_, err := LoadAirports(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadAirportsMalformedYAML(t *testing.T) {
	_, err := LoadAirports(writeAirports(t, "{nope"))
	assert.Error(t, err)
}
