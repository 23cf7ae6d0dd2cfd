package carpark

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a carpark dataset from a JSON file.
func LoadFile(path string) ([]Carpark, error) {
	// #nosec G304: dataset paths are controlled by deployment
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %q: %w", path, err)
	}

	var carparks []Carpark
	if err := json.Unmarshal(data, &carparks); err != nil {
		return nil, fmt.Errorf("decode dataset %q: %w", path, err)
	}

	return carparks, nil
}
