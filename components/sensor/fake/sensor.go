// Package fake implements a fake Sensor.
package fake

import (
	"context"
	"maps"
	"sync"

	"github.com/viam-modules/soilmoisture/components/sensor"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

// Model is the fake sensor model.
var Model = resource.DefaultModelFamily.WithModel("fake")

// Config holds the readings a fake sensor returns. Without readings it returns a fixed default
// set.
type Config struct {
	Readings map[string]interface{} `json:"readings,omitempty"`
}

// Validate always succeeds.
func (conf *Config) Validate(path string) ([]string, error) {
	return nil, nil
}

func init() {
	resource.RegisterComponent(
		sensor.API,
		Model,
		resource.Registration[sensor.Sensor, *Config]{Constructor: func(
			ctx context.Context,
			deps resource.Dependencies,
			conf resource.Config,
			logger logging.Logger,
		) (sensor.Sensor, error) {
			return NewSensor(conf)
		}})
}

// NewSensor returns a fake sensor for the given config.
func NewSensor(conf resource.Config) (*Sensor, error) {
	s := &Sensor{Named: conf.ResourceName().AsNamed()}
	if err := s.Reconfigure(context.Background(), nil, conf); err != nil {
		return nil, err
	}
	return s, nil
}

// Sensor is a fake Sensor device that always returns the set readings.
type Sensor struct {
	mu sync.Mutex
	resource.Named
	resource.TriviallyCloseable
	readings map[string]interface{}
	err      error
	calls    int
}

// Reconfigure replaces the readings.
func (s *Sensor) Reconfigure(ctx context.Context, deps resource.Dependencies, conf resource.Config) error {
	readings := map[string]interface{}{"a": 1, "b": 2, "c": 3}
	if conf.ConvertedAttributes != nil {
		native, err := resource.NativeConfig[*Config](conf)
		if err != nil {
			return err
		}
		if len(native.Readings) > 0 {
			readings = native.Readings
		}
	}
	s.SetReadings(readings)
	return nil
}

// Readings always returns the set values.
func (s *Sensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return maps.Clone(s.readings), nil
}

// SetReadings replaces the values returned by Readings.
func (s *Sensor) SetReadings(readings map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = maps.Clone(readings)
}

// SetError makes Readings fail with err until it is cleared with nil.
func (s *Sensor) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many times Readings was called.
func (s *Sensor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
