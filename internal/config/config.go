// Package config loads and validates simtest run configuration.
//
// A configuration file is YAML. Defaults are applied first, the file is
// decoded over them with unknown keys rejected, and the result is checked
// against an embedded CUE schema.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/simtest/internal/building"
	"github.com/roach88/simtest/internal/control"
	"github.com/roach88/simtest/internal/network"
	"github.com/roach88/simtest/internal/publish"
)

// Config is the complete description of one control test run.
type Config struct {
	Run      RunConfig      `yaml:"run" json:"run"`
	Sample   SampleConfig   `yaml:"sample" json:"sample"`
	Control  ControlConfig  `yaml:"control" json:"control"`
	Building BuildingConfig `yaml:"building" json:"building"`
	Outputs  OutputsConfig  `yaml:"outputs" json:"outputs"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// RunConfig bounds the simulation.
type RunConfig struct {
	EndTime       float64 `yaml:"end_time" json:"end_time"`
	SnapshotEvery float64 `yaml:"snapshot_every" json:"snapshot_every"`
	// MaxInstantSteps bounds kernel steps without time advancing.
	MaxInstantSteps int `yaml:"max_instant_steps" json:"max_instant_steps"`
}

// SampleConfig drives the sample generator.
type SampleConfig struct {
	Frequency float64 `yaml:"frequency" json:"frequency"`
}

// ControlConfig parameterizes the deadband controller.
type ControlConfig struct {
	Interval float64 `yaml:"interval" json:"interval"`
	Stage    int     `yaml:"stage" json:"stage"`
}

// BuildingConfig parameterizes the zone model.
type BuildingConfig struct {
	Zones    int     `yaml:"zones" json:"zones"`
	OutdoorC float64 `yaml:"outdoor_c" json:"outdoor_c"`
	InitialC float64 `yaml:"initial_c" json:"initial_c"`
	LowerC   float64 `yaml:"lower_c" json:"lower_c"`
	UpperC   float64 `yaml:"upper_c" json:"upper_c"`
	LeakRate float64 `yaml:"leak_rate" json:"leak_rate"`
	HeatRate float64 `yaml:"heat_rate" json:"heat_rate"`
	CoolRate float64 `yaml:"cool_rate" json:"cool_rate"`
}

// OutputsConfig selects where snapshots and metrics go. Only Dir is
// required; the rest are enabled by being set.
type OutputsConfig struct {
	Dir         string       `yaml:"dir" json:"dir"`
	Database    string       `yaml:"database" json:"database,omitempty"`
	MetricsFile string       `yaml:"metrics_file" json:"metrics_file,omitempty"`
	Kafka       *KafkaConfig `yaml:"kafka" json:"kafka,omitempty"`
}

// KafkaConfig enables publishing snapshot records to a topic.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers" json:"brokers"`
	Topic     string   `yaml:"topic" json:"topic"`
	BatchSize int      `yaml:"batch_size" json:"batch_size"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used for keys a file leaves unset.
func Default() Config {
	return Config{
		Run: RunConfig{
			EndTime:         24,
			SnapshotEvery:   1,
			MaxInstantSteps: network.DefaultMaxInstantSteps,
		},
		Sample:  SampleConfig{Frequency: 1},
		Control: ControlConfig{Interval: 0, Stage: 1},
		Building: BuildingConfig{
			Zones:    1,
			OutdoorC: 10,
			InitialC: 20,
			LowerC:   19,
			UpperC:   23,
			LeakRate: 0.1,
			HeatRate: 1,
			CoolRate: 1,
		},
		Outputs: OutputsConfig{Dir: "."},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads, decodes and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{
			Code:    ErrCodeRead,
			Path:    path,
			Message: err.Error(),
		}}}
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Issues: []Issue{{
			Code:    ErrCodeParse,
			Message: err.Error(),
		}}}
	}
	if cfg.Outputs.Kafka != nil && cfg.Outputs.Kafka.BatchSize == 0 {
		cfg.Outputs.Kafka.BatchSize = publish.DefaultBatchSize
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// JSON renders the configuration for storage alongside a run.
func (c *Config) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(b), nil
}

// Network returns the network parameters.
func (c *Config) Network() network.Config {
	return network.Config{
		SampleFrequency: c.Sample.Frequency,
		SnapshotEvery:   c.Run.SnapshotEvery,
		MaxInstantSteps: c.Run.MaxInstantSteps,
	}
}

// Deadband returns the controller parameters.
func (c *Config) Deadband() control.DeadbandConfig {
	return control.DeadbandConfig{
		Interval: c.Control.Interval,
		Stage:    c.Control.Stage,
	}
}

// ZoneModel returns the building model parameters.
func (c *Config) ZoneModel() building.ZoneModelConfig {
	b := c.Building
	return building.ZoneModelConfig{
		Zones:    b.Zones,
		OutdoorC: b.OutdoorC,
		InitialC: b.InitialC,
		LowerC:   b.LowerC,
		UpperC:   b.UpperC,
		LeakRate: b.LeakRate,
		HeatRate: b.HeatRate,
		CoolRate: b.CoolRate,
	}
}

// Publish returns the Kafka publisher parameters, or false when publishing
// is not configured.
func (c *Config) Publish() (publish.Config, bool) {
	k := c.Outputs.Kafka
	if k == nil {
		return publish.Config{}, false
	}
	return publish.Config{
		Brokers:   append([]string(nil), k.Brokers...),
		Topic:     k.Topic,
		BatchSize: k.BatchSize,
	}, true
}
