// Package data captures sensor readings to length delimited protobuf files.
package data

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	v1 "go.viam.com/api/app/datasync/v1"
	"go.viam.com/utils"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/viam-modules/soilmoisture/components/sensor"
	"github.com/viam-modules/soilmoisture/logging"
)

// ReadingsMethod is the method name recorded for sensor readings captures.
const ReadingsMethod = "Readings"

// CollectorParams contain the parameters needed to create a Collector.
type CollectorParams struct {
	ComponentName string
	Interval      time.Duration
	Target        io.Writer
	Clock         clock.Clock
	Logger        logging.Logger
}

// Validate ensures the params can build a collector.
func (p CollectorParams) Validate() error {
	if p.Target == nil {
		return errors.New("missing capture target")
	}
	if p.Interval <= 0 {
		return errors.Errorf("capture interval must be positive, got %s", p.Interval)
	}
	if p.Logger == nil {
		return errors.New("missing logger")
	}
	return nil
}

// A Collector calls Readings on a sensor at the configured interval and appends each result to
// its target.
type Collector struct {
	sensor   sensor.Sensor
	params   CollectorParams
	clock    clock.Clock
	logger   logging.Logger
	targetMu sync.Mutex

	mu       sync.Mutex
	workers  *utils.StoppableWorkers
	lastErr  string
	captures int
	closed   bool
}

// NewCollector returns a collector for the given sensor and writes the capture metadata to the
// target. Capturing starts with Collect.
func NewCollector(s sensor.Sensor, params CollectorParams) (*Collector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Collector{
		sensor: s,
		params: params,
		clock:  params.Clock,
		logger: params.Logger,
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	md := &v1.DataCaptureMetadata{
		ComponentType: sensor.API.String(),
		ComponentName: params.ComponentName,
		MethodName:    ReadingsMethod,
		Type:          v1.DataType_DATA_TYPE_TABULAR_SENSOR,
	}
	if err := c.write(md); err != nil {
		return nil, errors.Wrap(err, "failed to write capture metadata")
	}
	return c, nil
}

// Collect starts capturing in the background. Calling it more than once has no effect.
func (c *Collector) Collect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.workers != nil || c.closed {
		return
	}
	// the ticker exists before Collect returns so no tick is missed.
	ticker := c.clock.Ticker(c.params.Interval)
	c.workers = utils.NewBackgroundStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.captureOne(ctx)
			}
		}
	})
}

func (c *Collector) captureOne(ctx context.Context) {
	msg, err := c.capture(ctx)
	if err == nil {
		err = c.write(msg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if errStr := err.Error(); errStr != c.lastErr {
			c.lastErr = errStr
			c.logger.Errorw("capture failed", "component", c.params.ComponentName, "error", err)
		}
		return
	}
	c.lastErr = ""
	c.captures++
}

func (c *Collector) capture(ctx context.Context) (*v1.SensorData, error) {
	timeRequested := c.clock.Now()
	readings, err := c.sensor.Readings(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error with component %s running method %s", c.params.ComponentName, ReadingsMethod)
	}
	timeReceived := c.clock.Now()
	return NewSensorData(timeRequested, timeReceived, readings)
}

func (c *Collector) write(msg proto.Message) error {
	c.targetMu.Lock()
	defer c.targetMu.Unlock()
	_, err := protodelim.MarshalTo(c.params.Target, msg)
	return err
}

// Captures returns how many readings were written.
func (c *Collector) Captures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captures
}

// Close stops capturing and flushes the target if it buffers. Close is idempotent.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	workers := c.workers
	c.mu.Unlock()

	if workers != nil {
		workers.Stop()
	}

	c.targetMu.Lock()
	defer c.targetMu.Unlock()
	var err error
	if f, ok := c.params.Target.(interface{ Flush() error }); ok {
		err = multierr.Combine(err, f.Flush())
	}
	if s, ok := c.params.Target.(interface{ Sync() error }); ok {
		err = multierr.Combine(err, s.Sync())
	}
	return err
}

// NewSensorData builds the tabular record for one set of readings. The readings are stored under
// a "readings" key, as in a GetReadingsResponse.
func NewSensorData(timeRequested, timeReceived time.Time, readings map[string]interface{}) (*v1.SensorData, error) {
	resp, err := sensor.NewReadingsResponse(readings)
	if err != nil {
		return nil, err
	}
	return &v1.SensorData{
		Metadata: &v1.SensorMetadata{
			TimeRequested: timestamppb.New(timeRequested.UTC()),
			TimeReceived:  timestamppb.New(timeReceived.UTC()),
		},
		Data: &v1.SensorData_Struct{
			Struct: &structpb.Struct{Fields: map[string]*structpb.Value{
				"readings": structpb.NewStructValue(&structpb.Struct{Fields: resp.GetReadings()}),
			}},
		},
	}, nil
}
