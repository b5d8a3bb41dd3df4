package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the planner service configuration
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MapPath         string        `yaml:"map_path"`
	HazardZonesPath string        `yaml:"hazard_zones_path"` // optional GeoJSON file or directory
	StartArea       *int          `yaml:"start_area"`        // occupant area until a position is reported; unset means the map's first area
	ExitAreas       []int         `yaml:"exit_areas"`        // marked in addition to the map's EXITS section
	ExitPolicy      string        `yaml:"exit_policy"`       // first, lowest_cost
	HazardThreshold float64       `yaml:"hazard_threshold"`
	HazardMapping   string        `yaml:"hazard_mapping"` // uniform, area
	TickInterval    time.Duration `yaml:"tick_interval"`
	MaxIterations   int           `yaml:"max_search_iterations"`
	MaxNodes        int           `yaml:"max_nodes"`
	MaxEdges        int           `yaml:"max_edges"`
	Alerts          AlertPolicy   `yaml:"alerts"`
	MQTT            MQTTConfig    `yaml:"mqtt"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:      ":8080",
		MapPath:         "map.txt",
		ExitPolicy:      "first",
		HazardThreshold: DefaultHazardThreshold,
		HazardMapping:   "uniform",
		TickInterval:    500 * time.Millisecond,
		MaxNodes:        DefaultMaxNodes,
		MaxEdges:        DefaultMaxEdges,
		Alerts:          DefaultAlertPolicy(),
		MQTT: MQTTConfig{
			Broker:   "localhost:1883",
			Topic:    "evacuation/alerts",
			ClientID: "evacuation-planner",
		},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the planner cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.MapPath == "" {
		errs = append(errs, errors.New("map_path is required"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.HazardThreshold <= 0 || c.HazardThreshold > 1 {
		errs = append(errs, fmt.Errorf("hazard_threshold must be in (0,1], got %g", c.HazardThreshold))
	}
	if c.MaxNodes <= 0 || c.MaxEdges <= 0 {
		errs = append(errs, fmt.Errorf("max_nodes and max_edges must be positive"))
	}
	if c.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max_search_iterations must not be negative"))
	}
	if _, err := ParseExitPolicy(c.ExitPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.hazardMapper(); err != nil {
		errs = append(errs, err)
	}
	if c.MQTT.Enabled && (c.MQTT.Broker == "" || c.MQTT.Topic == "") {
		errs = append(errs, errors.New("mqtt.broker and mqtt.topic are required when mqtt is enabled"))
	}

	return errors.Join(errs...)
}

// startArea resolves start_area against the loaded graph. Without a
// configured area the occupant starts in the first area of the map.
func (c *Config) startArea(graph *Graph) (int, error) {
	if c.StartArea == nil {
		areas := graph.Areas()
		if len(areas) == 0 {
			return 0, fmt.Errorf("start_area: %w: map has no areas", ErrUnknownArea)
		}
		return areas[0], nil
	}
	if !graph.HasArea(*c.StartArea) {
		return 0, fmt.Errorf("start_area: %w: %d", ErrUnknownArea, *c.StartArea)
	}
	return *c.StartArea, nil
}

// hazardMapper resolves the hazard_mapping setting
func (c *Config) hazardMapper() (HazardMapper, error) {
	switch c.HazardMapping {
	case "", "uniform":
		return UniformHazard{}, nil
	case "area":
		return AreaHazard{}, nil
	default:
		return nil, fmt.Errorf("unknown hazard mapping %q", c.HazardMapping)
	}
}
