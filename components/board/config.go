package board

import (
	"github.com/pkg/errors"

	"github.com/viam-modules/soilmoisture/resource"
)

// AnalogReaderConfig describes the configuration of an analog reader on a board.
type AnalogReaderConfig struct {
	Name string `json:"name"`
	Pin  string `json:"pin"` // analog input pin on the ADC itself
}

// Validate ensures all parts of the config are valid.
func (config *AnalogReaderConfig) Validate(path string) error {
	if config.Name == "" {
		return resource.NewConfigValidationFieldRequiredError(path, "name")
	}
	return nil
}

func errNotSingleBoard(count int) error {
	return errors.Errorf("expected exactly one board in dependencies but found %d", count)
}
