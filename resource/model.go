package resource

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

var (
	// DefaultModelFamily is the rdk:builtin model family for built-in resources.
	DefaultModelFamily = ModelFamily{Namespace: APINamespaceRDK, Name: "builtin"}

	modelRegexValidator      = regexp.MustCompile(`^([\w-]+):([\w-]+):([\w-]+)$`)
	shortModelRegexValidator = regexp.MustCompile(`^([\w-]+)$`)
)

// ModelFamily is a family of related models.
type ModelFamily struct {
	Namespace APINamespace
	Name      string
}

// NewModelFamily creates a new ModelFamily based on parameters passed in.
func NewModelFamily(namespace, family string) ModelFamily {
	return ModelFamily{APINamespace(namespace), family}
}

// WithModel returns a new model with the given name.
func (f ModelFamily) WithModel(name string) Model {
	return Model{f, name}
}

// Validate ensures that important fields exist and are valid.
func (f ModelFamily) Validate() error {
	if f.Namespace == "" {
		return errors.New("model namespace field for resource missing")
	}
	if f.Name == "" {
		return errors.New("model family field for resource missing")
	}
	return nil
}

// String returns the model family string for the resource.
func (f ModelFamily) String() string {
	return fmt.Sprintf("%s:%s", f.Namespace, f.Name)
}

// Model represents an individual model within a family.
type Model struct {
	Family ModelFamily
	Name   string
}

// NewModel return a new model from a triplet like acme:demo:mybase.
func NewModel(namespace, family, modelName string) Model {
	return NewModelFamily(namespace, family).WithModel(modelName)
}

// NewModelFromString creates a new Model from a fully qualified model string. A single word is
// treated as a model of the default family.
func NewModelFromString(modelStr string) (Model, error) {
	if matches := modelRegexValidator.FindStringSubmatch(modelStr); matches != nil {
		return NewModel(matches[1], matches[2], matches[3]), nil
	}
	if shortModelRegexValidator.MatchString(modelStr) {
		return DefaultModelFamily.WithModel(modelStr), nil
	}
	return Model{}, errors.Errorf("string %q is not a valid model name", modelStr)
}

// Validate ensures that important fields exist and are valid.
func (m Model) Validate() error {
	if err := m.Family.Validate(); err != nil {
		return err
	}
	if m.Name == "" {
		return errors.New("model name field for resource missing")
	}
	return nil
}

// String returns the resource model string for the component.
func (m Model) String() string {
	return fmt.Sprintf("%s:%s", m.Family, m.Name)
}

// MarshalJSON marshals the model name in its triplet form.
func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON parses either a full or short model string.
func (m *Model) UnmarshalJSON(data []byte) error {
	var modelStr string
	if err := json.Unmarshal(data, &modelStr); err != nil {
		return errors.Wrap(err, "model must be a string")
	}
	parsed, err := NewModelFromString(modelStr)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
