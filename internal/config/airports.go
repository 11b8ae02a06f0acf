package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/listerineh/flights-cli/internal/model"
)

// LoadAirports reads the airports reference table. The file maps ICAO codes
// to coordinates and is used both as the discovery seed list and as the
// great-circle endpoints for the metrics engine.
func LoadAirports(path string) (map[string]model.Airport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read airports file %s", path)
	}

	var list []model.Airport
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, eris.Wrapf(err, "config: parse airports file %s", path)
	}

	airports := make(map[string]model.Airport, len(list))
	for _, a := range list {
		if a.ICAO == "" {
			return nil, eris.Errorf("config: airports file %s contains an entry without icao", path)
		}
		airports[a.ICAO] = a
	}
	return airports, nil
}
