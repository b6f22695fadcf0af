package soilmoisture

import (
	"math"

	"github.com/viam-modules/soilmoisture/components/sensor"
	"github.com/viam-modules/soilmoisture/utils"
)

const (
	defaultNumReadings = 5
	// unsetCalibration marks a dry or wet value that was not configured.
	unsetCalibration = -1
)

var (
	errMissingBoard        = sensor.NewConfigError("sensor missing board attribute")
	errNumReadings         = sensor.NewConfigError("num_readings must be an integer greater than 1")
	errMissingAnalogReader = sensor.NewConfigError("failed to get 'analog_reader' value from config")
	errAnalogReader        = sensor.NewConfigError("failed to get analog reader")
)

// Config is used for converting config attributes. Unset numeric attributes are nil.
type Config struct {
	Board        string `json:"board,omitempty"`
	AnalogReader string `json:"analog_reader"`
	NumReadings  *int   `json:"num_readings,omitempty"`
	DryValue     *int   `json:"dry_value,omitempty"`
	WetValue     *int   `json:"wet_value,omitempty"`
}

// Validate ensures all parts of the config are valid. The board is returned as a dependency when
// it is named.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.numReadings() < 1 {
		return nil, errNumReadings
	}
	if conf.AnalogReader == "" {
		return nil, errMissingAnalogReader
	}
	if conf.Board == "" {
		return nil, nil
	}
	return []string{conf.Board}, nil
}

func (conf *Config) numReadings() int {
	return intOr(conf.NumReadings, defaultNumReadings)
}

func (conf *Config) dryValue() int {
	return intOr(conf.DryValue, unsetCalibration)
}

func (conf *Config) wetValue() int {
	return intOr(conf.WetValue, unsetCalibration)
}

// intOr returns def when v is unset or does not fit in an int32.
func intOr(v *int, def int) int {
	if v == nil || *v < math.MinInt32 || *v > math.MaxInt32 {
		return def
	}
	return *v
}

// convertAttributes reads the attributes leniently. A numeric attribute that is missing, cannot
// be read as an integer or does not fit in an int32 is left unset and falls back to its default.
func convertAttributes(attributes utils.AttributeMap) (*Config, error) {
	conf := &Config{
		Board:        attributes.String("board"),
		AnalogReader: attributes.String("analog_reader"),
	}
	conf.NumReadings = optionalInt(attributes, "num_readings")
	conf.DryValue = optionalInt(attributes, "dry_value")
	conf.WetValue = optionalInt(attributes, "wet_value")
	return conf, nil
}

func optionalInt(attributes utils.AttributeMap, name string) *int {
	v, err := attributes.Int32E(name)
	if err != nil {
		return nil
	}
	i := int(v)
	return &i
}
