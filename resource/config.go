package resource

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/viam-modules/soilmoisture/utils"
)

// A Config describes the configuration of a resource.
type Config struct {
	Name      string   `json:"name"`
	API       API      `json:"api"`
	Model     Model    `json:"model"`
	DependsOn []string `json:"depends_on,omitempty"`

	Attributes          utils.AttributeMap `json:"attributes,omitempty"`
	ConvertedAttributes ConfigValidator    `json:"-"`
	ImplicitDependsOn   []string           `json:"-"`

	alreadyValidated   bool
	cachedImplicitDeps []string
	cachedErr          error
}

// NativeConfig returns the native config from the given config via its
// converted attributes.
func NativeConfig[T any](conf Config) (T, error) {
	return utils.AssertType[T](conf.ConvertedAttributes)
}

// NewEmptyConfig returns a new, empty config for the given name and model.
func NewEmptyConfig(name Name, model Model) Config {
	return Config{
		Name:  name.Name,
		API:   name.API,
		Model: model,
	}
}

// Dependencies returns the deduplicated union of user-defined and implicit dependencies.
func (conf *Config) Dependencies() []string {
	return lo.Uniq(append(append([]string{}, conf.DependsOn...), conf.ImplicitDependsOn...))
}

// String returns a verbose representation of the config.
func (conf *Config) String() string {
	return fmt.Sprintf("%#v", conf)
}

// ResourceName returns the ResourceName for the component.
func (conf *Config) ResourceName() Name {
	return NewName(conf.API, conf.Name)
}

// Validate ensures all parts of the config are valid and returns dependencies. The result is
// cached so converters with side effects only run once.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.alreadyValidated {
		return conf.cachedImplicitDeps, conf.cachedErr
	}
	conf.cachedImplicitDeps, conf.cachedErr = conf.validate(path)
	conf.alreadyValidated = true
	if conf.cachedErr == nil {
		conf.ImplicitDependsOn = conf.cachedImplicitDeps
	}
	return conf.cachedImplicitDeps, conf.cachedErr
}

func (conf *Config) validate(path string) ([]string, error) {
	if conf.Name == "" {
		return nil, NewConfigValidationFieldRequiredError(path, "name")
	}
	if err := conf.ResourceName().Validate(); err != nil {
		return nil, NewConfigValidationError(path, err)
	}
	if err := conf.Model.Validate(); err != nil {
		return nil, NewConfigValidationError(path, err)
	}
	if conf.ConvertedAttributes == nil {
		return nil, nil
	}
	deps, err := conf.ConvertedAttributes.Validate(path)
	if err != nil {
		return nil, NewConfigValidationError(path, err)
	}
	return deps, nil
}

// A ConfigValidator validates a configuration and also
// returns dependencies that were implicitly discovered.
type ConfigValidator interface {
	Validate(path string) ([]string, error)
}

// NoNativeConfig is used by resources that take no attributes.
type NoNativeConfig struct{}

// Validate always succeeds and returns no dependencies.
func (NoNativeConfig) Validate(path string) ([]string, error) {
	return nil, nil
}

var noNativeConfigType = reflect.TypeOf(NoNativeConfig{})

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
func TransformAttributeMap[T any](attributes utils.AttributeMap) (T, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           forResult,
		WeaklyTypedInput: true,
		Squash:           true,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return out, errors.Wrapf(err, "failed to convert attributes to %T", out)
	}
	return out, nil
}
