// Package board defines the interfaces that typically live on a single-board computer such as a
// Raspberry Pi.
//
// Only analog readers are modeled here; they are the raw-value sources sensors sample from.
package board

import (
	"context"

	"github.com/viam-modules/soilmoisture/resource"
)

// SubtypeName is a constant that identifies the component resource API string "board".
const SubtypeName = "board"

// API is a variable that identifies the component resource API.
var API = resource.APINamespaceRDK.WithComponentType(SubtypeName)

// Named is a helper for getting the named board's typed resource name.
func Named(name string) resource.Name {
	return resource.NewName(API, name)
}

// A Board represents a physical general purpose board that contains various
// components such as analogs.
type Board interface {
	resource.Resource

	// AnalogByName returns an analog pin by name.
	AnalogByName(name string) (Analog, error)

	// AnalogNames returns the names of all known analog pins.
	AnalogNames() []string
}

// An Analog represents an analog pin that resides on a board.
type Analog interface {
	// Read reads off the current value.
	Read(ctx context.Context, extra map[string]interface{}) (AnalogValue, error)

	// Write writes a value to the analog pin.
	Write(ctx context.Context, value int, extra map[string]interface{}) error
}

// AnalogValue contains all info about the analog reading.
// Value represents the reading in bits.
// Min and Max represent the range of raw analog values.
// StepSize is the precision per bit of the reading.
type AnalogValue struct {
	Value    int
	Min      float32
	Max      float32
	StepSize float32
}

// FromDependencies is a helper for getting the named board from a collection of
// dependencies.
func FromDependencies(deps resource.Dependencies, name string) (Board, error) {
	return resource.FromDependencies[Board](deps, Named(name))
}

// SoleBoard returns the only board among the dependencies. It fails when there are none or more
// than one.
func SoleBoard(deps resource.Dependencies) (Board, error) {
	boards := deps.ByAPI(API)
	if len(boards) != 1 {
		return nil, errNotSingleBoard(len(boards))
	}
	for name := range boards {
		return resource.FromDependencies[Board](deps, name)
	}
	return nil, errNotSingleBoard(0)
}
