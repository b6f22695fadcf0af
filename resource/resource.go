// Package resource contains the naming, configuration and registration types shared by every
// component of a robot.
package resource

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// APINamespaceRDK is the namespace of the builtin APIs.
const APINamespaceRDK = APINamespace("rdk")

// APITypeComponentName is the name of the component API type.
const APITypeComponentName = "component"

var (
	apiRegexValidator  = regexp.MustCompile(`^([\w-]+):([\w-]+):([\w-]+)$`)
	nameRegexValidator = regexp.MustCompile(`^[a-zA-Z0-9][\w-]*$`)
)

// APINamespace identifies the owner of an API (e.g. "rdk").
type APINamespace string

// WithComponentType returns an API for a component with the given subtype name.
func (n APINamespace) WithComponentType(subtypeName string) API {
	return API{
		Type:        APIType{Namespace: n, Name: APITypeComponentName},
		SubtypeName: subtypeName,
	}
}

// APIType is a namespaced type of API such as rdk:component.
type APIType struct {
	Namespace APINamespace
	Name      string
}

// String returns the API type string.
func (t APIType) String() string {
	return fmt.Sprintf("%s:%s", t.Namespace, t.Name)
}

// API identifies a family of resources with a common interface, e.g. rdk:component:sensor.
type API struct {
	Type        APIType
	SubtypeName string
}

// NewAPIFromString parses an API of the form namespace:type:subtype.
func NewAPIFromString(apiStr string) (API, error) {
	matches := apiRegexValidator.FindStringSubmatch(apiStr)
	if matches == nil {
		return API{}, errors.Errorf("string %q is not a valid api name", apiStr)
	}
	return API{
		Type:        APIType{Namespace: APINamespace(matches[1]), Name: matches[2]},
		SubtypeName: matches[3],
	}, nil
}

// IsComponent returns whether the API is a component API.
func (a API) IsComponent() bool {
	return a.Type.Name == APITypeComponentName
}

// Validate ensures that important fields exist and are valid.
func (a API) Validate() error {
	if a.Type.Namespace == "" {
		return errors.New("namespace field for api missing")
	}
	if a.Type.Name == "" {
		return errors.New("type field for api missing")
	}
	if a.SubtypeName == "" {
		return errors.New("subtype field for api missing")
	}
	return nil
}

// String returns the full API string.
func (a API) String() string {
	return fmt.Sprintf("%s:%s", a.Type, a.SubtypeName)
}

// MarshalText encodes the API as its string form.
func (a API) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the string form of an API.
func (a *API) UnmarshalText(text []byte) error {
	parsed, err := NewAPIFromString(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Name identifies one resource of a robot.
type Name struct {
	API  API
	Name string
}

// NewName returns a Name for the given API and short name.
func NewName(api API, name string) Name {
	return Name{API: api, Name: name}
}

// NewFromString parses a fully qualified name such as rdk:component:sensor/moisture1.
func NewFromString(resourceName string) (Name, error) {
	apiStr, name, found := strings.Cut(resourceName, "/")
	if !found || name == "" {
		return Name{}, errors.Errorf("string %q is not a valid resource name", resourceName)
	}
	api, err := NewAPIFromString(apiStr)
	if err != nil {
		return Name{}, err
	}
	return NewName(api, name), nil
}

// ShortName returns the name without its API.
func (n Name) ShortName() string {
	return n.Name
}

// String returns the fully qualified name.
func (n Name) String() string {
	return fmt.Sprintf("%s/%s", n.API, n.Name)
}

// Validate ensures the name is usable as a resource name.
func (n Name) Validate() error {
	if err := n.API.Validate(); err != nil {
		return err
	}
	if !nameRegexValidator.MatchString(n.Name) {
		return errors.Errorf("name %q must start with a letter or number and only contain letters, numbers, dashes and underscores", n.Name)
	}
	return nil
}

// AsNamed returns a Named implementation backed by this name.
func (n Name) AsNamed() Named {
	return selfNamed{n}
}

// A Resource is the common interface of every component built from a config.
type Resource interface {
	// Name returns the fully qualified name of the resource.
	Name() Name

	// Reconfigure must reconfigure the resource atomically and in place. If this
	// cannot be guaranteed, then usage of AlwaysRebuild is recommended.
	Reconfigure(ctx context.Context, deps Dependencies, conf Config) error

	// DoCommand sends/receives arbitrary data.
	DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)

	// Close must safely shut down the resource and prevent further use.
	// Close must be idempotent.
	Close(ctx context.Context) error
}

// Named is to be embedded by resources that just need to know their name.
type Named interface {
	Name() Name
	DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)
}

type selfNamed struct {
	name Name
}

func (s selfNamed) Name() Name {
	return s.name
}

func (s selfNamed) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	return nil, ErrDoUnimplemented
}

// TriviallyCloseable is to be embedded by any resource that does not care about
// handling Closes.
type TriviallyCloseable struct{}

// Close always returns no error.
func (t TriviallyCloseable) Close(ctx context.Context) error {
	return nil
}

// AlwaysRebuild is to be embedded by any resource that must always rebuild
// and not reconfigure.
type AlwaysRebuild struct{}

// Reconfigure always returns a must rebuild error.
func (a AlwaysRebuild) Reconfigure(ctx context.Context, deps Dependencies, conf Config) error {
	return NewMustRebuildError(conf.ResourceName())
}

// Dependencies are a set of resources a resource requires in order to be constructed.
type Dependencies map[Name]Resource

// Lookup searches for a given dependency by name.
func (d Dependencies) Lookup(name Name) (Resource, error) {
	res, ok := d[name]
	if !ok {
		return nil, DependencyNotFoundError(name)
	}
	return res, nil
}

// FromDependencies returns the named dependency as the given resource type.
func FromDependencies[T Resource](deps Dependencies, name Name) (T, error) {
	var zero T
	res, err := deps.Lookup(name)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, DependencyTypeError[T](name, res)
	}
	return typed, nil
}

// ByAPI returns every dependency implementing the given API.
func (d Dependencies) ByAPI(api API) Dependencies {
	out := Dependencies{}
	for name, res := range d {
		if name.API == api {
			out[name] = res
		}
	}
	return out
}

// TriviallyReconfigurable is to be embedded by any resource that does not care about
// changes to its config or dependencies.
type TriviallyReconfigurable struct{}

// Reconfigure always succeeds.
func (t TriviallyReconfigurable) Reconfigure(ctx context.Context, deps Dependencies, conf Config) error {
	return nil
}
