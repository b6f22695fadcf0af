// Package soilmoisture implements an analog soil moisture sensor. Each reading takes a burst of
// raw samples from an analog pin, reports their median and, when dry and wet calibration values
// are configured, a 0 to 100 moisture percentage.
package soilmoisture

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/viam-modules/soilmoisture/components/board"
	"github.com/viam-modules/soilmoisture/components/sensor"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

var (
	// Model reports the median as milliv plus a mapped percentage when calibrated.
	Model = resource.DefaultModelFamily.WithModel("analog_soil_moisture")
	// RawModel reports the median as moisture_raw and never maps it.
	RawModel = resource.DefaultModelFamily.WithModel("analog_soil_moisture_raw")
)

// Reading keys.
const (
	MillivKey         = "milliv"
	RawKey            = "moisture_raw"
	NumReadingsKey    = "num_readings"
	MoistureMappedKey = "moisture_mapped"
)

// output selects which keys a sensor reports.
type output int

const (
	calibratedOutput output = iota
	rawOutput
)

func init() {
	for model, out := range map[resource.Model]output{Model: calibratedOutput, RawModel: rawOutput} {
		resource.RegisterComponent(
			sensor.API,
			model,
			resource.Registration[sensor.Sensor, *Config]{
				Constructor:           constructor(out),
				AttributeMapConverter: convertAttributes,
			})
	}
}

func constructor(out output) resource.Create[sensor.Sensor] {
	return func(
		ctx context.Context,
		deps resource.Dependencies,
		conf resource.Config,
		logger logging.Logger,
	) (sensor.Sensor, error) {
		return newSensor(ctx, deps, conf, logger, out, clock.New())
	}
}

// NewSensor returns a calibrated soil moisture sensor.
func NewSensor(
	ctx context.Context,
	deps resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (sensor.Sensor, error) {
	return newSensor(ctx, deps, conf, logger, calibratedOutput, clock.New())
}

// NewRawSensor returns a soil moisture sensor that only reports the median.
func NewRawSensor(
	ctx context.Context,
	deps resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (sensor.Sensor, error) {
	return newSensor(ctx, deps, conf, logger, rawOutput, clock.New())
}

func newSensor(
	ctx context.Context,
	deps resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
	out output,
	clk clock.Clock,
) (*moistureSensor, error) {
	newConf, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}

	b, err := resolveBoard(deps, newConf.Board)
	if err != nil {
		return nil, err
	}

	numReadings := newConf.numReadings()
	if numReadings < 1 {
		return nil, errNumReadings
	}

	if newConf.AnalogReader == "" {
		return nil, errMissingAnalogReader
	}
	reader, err := b.AnalogByName(newConf.AnalogReader)
	if err != nil {
		logger.Debugw("analog reader lookup failed", "analog_reader", newConf.AnalogReader, "error", err)
		return nil, errAnalogReader
	}

	s := &moistureSensor{
		Named:  conf.ResourceName().AsNamed(),
		logger: logger,
		sampler: sampler{
			reader:      board.ShareAnalog(reader),
			numReadings: numReadings,
			clock:       clk,
		},
		dryValue: newConf.dryValue(),
		wetValue: newConf.wetValue(),
		output:   out,
	}
	logger.Infow("soil moisture sensor configured",
		"analog_reader", newConf.AnalogReader,
		"num_readings", numReadings,
		"calibrated", s.calibrated(),
	)
	return s, nil
}

func resolveBoard(deps resource.Dependencies, name string) (board.Board, error) {
	if name == "" {
		b, err := board.SoleBoard(deps)
		if err != nil {
			return nil, errMissingBoard
		}
		return b, nil
	}
	b, err := board.FromDependencies(deps, name)
	if err != nil {
		return nil, errMissingBoard
	}
	return b, nil
}

// moistureSensor serializes its readings; each reading is one burst on the shared pin.
type moistureSensor struct {
	resource.Named
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	mu       sync.Mutex
	logger   logging.Logger
	sampler  sampler
	dryValue int
	wetValue int
	output   output
}

// calibrated reports whether the dry and wet values allow a mapped reading.
func (s *moistureSensor) calibrated() bool {
	return s.output == calibratedOutput && s.dryValue > 0 && s.wetValue > 0 && s.dryValue != s.wetValue
}

// Readings takes a burst of samples and reports their median.
func (s *moistureSensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples, err := s.sampler.sample(ctx)
	if err != nil {
		return nil, err
	}
	med := median(samples)
	s.logger.CDebugw(ctx, "took soil moisture samples", "samples", len(samples), "median", med)

	if s.output == rawOutput {
		return map[string]interface{}{
			RawKey:         float64(med),
			NumReadingsKey: float64(len(samples)),
		}, nil
	}

	readings := map[string]interface{}{
		MillivKey:      float64(med),
		NumReadingsKey: float64(len(samples)),
	}
	if s.calibrated() {
		readings[MoistureMappedKey] = float64(mapValue(
			float32(med), float32(s.wetValue), float32(s.dryValue), 100, 0))
	}
	return readings, nil
}

// Status is always empty.
func (s *moistureSensor) Status(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

// DoCommand reports the calibration for {"command": "calibration"}.
func (s *moistureSensor) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	if name, _ := cmd["command"].(string); name != "calibration" {
		return nil, resource.ErrDoUnimplemented
	}
	return map[string]interface{}{
		"dry_value":    float64(s.dryValue),
		"wet_value":    float64(s.wetValue),
		"num_readings": float64(s.sampler.numReadings),
		"calibrated":   s.calibrated(),
	}, nil
}
