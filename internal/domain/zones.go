package domain

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed zones.yaml
var defaultZonesYAML []byte

// Zone is a static geographic reporting unit (a camp or settlement block).
type Zone struct {
	Name          string  `yaml:"name" json:"zone"`
	Latitude      float64 `yaml:"latitude" json:"latitude"`
	Longitude     float64 `yaml:"longitude" json:"longitude"`
	Population    int     `yaml:"population" json:"population"`
	SpatialCellID string  `yaml:"cell_id" json:"h3_index"`
}

type zoneFile struct {
	Zones []Zone `yaml:"zones"`
}

// DefaultZones returns a fresh copy of the embedded zone table.
func DefaultZones() []Zone {
	zones, err := ParseZones(defaultZonesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded zone table: %v", err))
	}
	return zones
}

// LoadZonesFile reads a zone table from a YAML file. An empty path selects
// the embedded default table.
func LoadZonesFile(path string) ([]Zone, error) {
	if path == "" {
		return DefaultZones(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone table: %w", err)
	}
	return ParseZones(raw)
}

// ParseZones decodes and validates a YAML zone table.
func ParseZones(raw []byte) ([]Zone, error) {
	var f zoneFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse zone table: %w", err)
	}
	if err := validateZones(f.Zones); err != nil {
		return nil, err
	}
	return f.Zones, nil
}

func validateZones(zones []Zone) error {
	if len(zones) == 0 {
		return fmt.Errorf("%w: zone table is empty", ErrInvalidZone)
	}
	seen := make(map[string]bool, len(zones))
	for i, z := range zones {
		name := strings.TrimSpace(z.Name)
		switch {
		case name == "":
			return fmt.Errorf("%w: zone %d has no name", ErrInvalidZone, i)
		case seen[name]:
			return fmt.Errorf("%w: duplicate zone %q", ErrInvalidZone, name)
		case z.Latitude < -90 || z.Latitude > 90:
			return fmt.Errorf("%w: %s latitude %g out of range", ErrInvalidZone, name, z.Latitude)
		case z.Longitude < -180 || z.Longitude > 180:
			return fmt.Errorf("%w: %s longitude %g out of range", ErrInvalidZone, name, z.Longitude)
		case z.Population <= 0:
			return fmt.Errorf("%w: %s population must be positive", ErrInvalidZone, name)
		case strings.TrimSpace(z.SpatialCellID) == "":
			return fmt.Errorf("%w: %s has no cell id", ErrInvalidZone, name)
		}
		seen[name] = true
	}
	return nil
}
