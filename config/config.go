// Package config defines the structures to configure a robot and its connected parts.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

// A Config describes the configuration of a robot.
type Config struct {
	Components []resource.Config              `json:"components,omitempty"`
	LogConfig  []logging.LoggerPatternConfig `json:"log,omitempty"`
	Debug      bool                          `json:"debug,omitempty"`

	ConfigFilePath string `json:"-"`
}

// Ensure ensures all parts of the config are valid. Each component's attributes are converted
// through its registration before it is validated.
func (c *Config) Ensure() error {
	for idx := 0; idx < len(c.Components); idx++ {
		path := fmt.Sprintf("%s.%d", "components", idx)
		conf := &c.Components[idx]
		if conf.Name == "" {
			return resource.NewConfigValidationFieldRequiredError(path, "name")
		}
		if err := conf.API.Validate(); err != nil {
			return resource.NewConfigValidationError(path, err)
		}
		if err := resource.ConvertAttributes(conf); err != nil {
			return resource.NewConfigValidationError(path, err)
		}
		if _, err := conf.Validate(path); err != nil {
			return err
		}
	}

	names := lo.Map(c.Components, func(conf resource.Config, _ int) string { return conf.Name })
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return errors.Errorf("component name %q is not unique", dups[0])
	}

	for idx, lpc := range c.LogConfig {
		if _, err := logging.LevelFromString(lpc.Level); err != nil {
			return resource.NewConfigValidationError(fmt.Sprintf("%s.%d", "log", idx), err)
		}
	}
	return nil
}

// FindComponent finds a particular component by name.
func (c Config) FindComponent(name string) *resource.Config {
	for _, cmp := range c.Components {
		if cmp.Name == name {
			return &cmp
		}
	}
	return nil
}
