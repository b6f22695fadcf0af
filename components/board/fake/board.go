// Package fake implements a fake board.
package fake

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/viam-modules/soilmoisture/components/board"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

// maxAnalogValue is the top of the fake ADC range.
const maxAnalogValue = 1000

// AnalogConfig describes a fake analog reader and how its value behaves over time. A reader with
// a sequence cycles through it, one value per read. A reader with a step adds it to the value on
// every read, wrapping past the top of the ADC range. Otherwise the value is fixed.
type AnalogConfig struct {
	board.AnalogReaderConfig
	Value    int   `json:"value,omitempty"`
	Sequence []int `json:"sequence,omitempty"`
	Step     int   `json:"step,omitempty"`
}

// A Config describes the configuration of a fake board and all of its connected parts.
type Config struct {
	AnalogReaders []AnalogConfig `json:"analogs,omitempty"`
	FailNew       bool           `json:"fail_new"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) ([]string, error) {
	for idx, c := range conf.AnalogReaders {
		if err := c.AnalogReaderConfig.Validate(fmt.Sprintf("%s.%s.%d", path, "analogs", idx)); err != nil {
			return nil, err
		}
	}
	names := lo.Map(conf.AnalogReaders, func(c AnalogConfig, _ int) string { return c.Name })
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return nil, errors.Errorf("duplicate analog names %v", dups)
	}

	if conf.FailNew {
		return nil, errors.New("whoops")
	}

	return nil, nil
}

// Model is the fake board model.
var Model = resource.DefaultModelFamily.WithModel("fake")

func init() {
	resource.RegisterComponent(
		board.API,
		Model,
		resource.Registration[board.Board, *Config]{
			Constructor: func(
				ctx context.Context,
				_ resource.Dependencies,
				cfg resource.Config,
				logger logging.Logger,
			) (board.Board, error) {
				return NewBoard(ctx, cfg, logger)
			},
		})
}

// NewBoard returns a new fake board.
func NewBoard(ctx context.Context, conf resource.Config, logger logging.Logger) (*Board, error) {
	b := &Board{
		Named:   conf.ResourceName().AsNamed(),
		Analogs: map[string]*Analog{},
		shared:  map[string]*board.SharedAnalog{},
		logger:  logger,
	}

	if err := b.processConfig(conf); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Board) processConfig(conf resource.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	newConf, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return err
	}

	stillExists := map[string]struct{}{}

	for _, c := range newConf.AnalogReaders {
		stillExists[c.Name] = struct{}{}
		if curr, ok := b.Analogs[c.Name]; ok {
			curr.reset(c)
			continue
		}
		a := newAnalogReader(c)
		b.Analogs[c.Name] = a
		b.shared[c.Name] = board.ShareAnalog(a)
	}
	for name := range b.Analogs {
		if _, ok := stillExists[name]; ok {
			continue
		}
		delete(b.Analogs, name)
		delete(b.shared, name)
	}

	return nil
}

// Reconfigure atomically reconfigures this board in place based on the new config.
func (b *Board) Reconfigure(ctx context.Context, deps resource.Dependencies, conf resource.Config) error {
	return b.processConfig(conf)
}

// A Board provides dummy data from fake parts in order to implement a Board.
type Board struct {
	resource.Named

	mu         sync.RWMutex
	Analogs    map[string]*Analog
	shared     map[string]*board.SharedAnalog
	logger     logging.Logger
	CloseCount int
}

// AnalogByName returns the shared handle of the analog pin by the given name if it exists. Every
// call for the same name returns the same handle.
func (b *Board) AnalogByName(name string) (board.Analog, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.shared[name]
	if !ok {
		return nil, errors.Errorf("can't find AnalogReader (%s)", name)
	}
	return a, nil
}

// AnalogNames returns the names of all known analog pins.
func (b *Board) AnalogNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := lo.Keys(b.Analogs)
	slices.Sort(names)
	return names
}

// Close attempts to cleanly close each part of the board.
func (b *Board) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CloseCount++
	return nil
}

// An Analog reads back a fixed, scripted or stepping value.
type Analog struct {
	mu        sync.Mutex
	pin       string
	value     int
	sequence  []int
	seqIdx    int
	step      int
	readErr   error
	readCount int
}

func newAnalogReader(c AnalogConfig) *Analog {
	a := &Analog{}
	a.reset(c)
	return a
}

func (a *Analog) reset(c AnalogConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pin = c.Pin
	a.value = c.Value
	a.sequence = slices.Clone(c.Sequence)
	a.seqIdx = 0
	a.step = c.Step
}

// Read returns the next value of the pin.
func (a *Analog) Read(ctx context.Context, extra map[string]interface{}) (board.AnalogValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.readErr != nil {
		return board.AnalogValue{}, a.readErr
	}
	a.readCount++
	switch {
	case len(a.sequence) > 0:
		a.value = a.sequence[a.seqIdx%len(a.sequence)]
		a.seqIdx++
	case a.step != 0:
		a.value = (a.value + a.step) % (maxAnalogValue + 1)
	}
	return board.AnalogValue{Value: a.value, Min: 0, Max: maxAnalogValue, StepSize: 1}, nil
}

// Write sets the fixed value of the pin.
func (a *Analog) Write(ctx context.Context, value int, extra map[string]interface{}) error {
	a.Set(value)
	return nil
}

// Set is used to set the value of an Analog. It clears any sequence or step.
func (a *Analog) Set(value int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.value = value
	a.sequence = nil
	a.step = 0
}

// SetSequence makes the Analog cycle through the given values, one per read.
func (a *Analog) SetSequence(values ...int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sequence = slices.Clone(values)
	a.seqIdx = 0
}

// SetReadError makes every subsequent read fail with err. A nil err restores reads.
func (a *Analog) SetReadError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.readErr = err
}

// ReadCount returns the number of successful reads.
func (a *Analog) ReadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readCount
}
