package robot

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-modules/soilmoisture/components/board"
	fakeboard "github.com/viam-modules/soilmoisture/components/board/fake"
	_ "github.com/viam-modules/soilmoisture/components/register"
	"github.com/viam-modules/soilmoisture/components/sensor"
	"github.com/viam-modules/soilmoisture/components/sensor/soilmoisture"
	"github.com/viam-modules/soilmoisture/config"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

const gardenJSON = `{
	"components": [
		{
			"name": "soil",
			"api": "rdk:component:sensor",
			"model": "analog_soil_moisture",
			"depends_on": ["local"],
			"attributes": {"analog_reader": "moisture", "num_readings": 3, "dry_value": 900, "wet_value": 300}
		},
		{
			"name": "soil_raw",
			"api": "rdk:component:sensor",
			"model": "rdk:builtin:analog_soil_moisture_raw",
			"attributes": {"board": "local", "analog_reader": "moisture", "num_readings": 3}
		},
		{
			"name": "local",
			"api": "rdk:component:board",
			"model": "rdk:builtin:fake",
			"attributes": {"analogs": [{"name": "moisture", "pin": "0", "value": 600}]}
		}
	],
	"log": [{"pattern": "soil", "level": "debug"}]
}`

func readConfig(t *testing.T, js string) *config.Config {
	t.Helper()
	cfg, err := config.FromReader("test", strings.NewReader(js))
	test.That(t, err, test.ShouldBeNil)
	return cfg
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	logger.SetLevel(logging.WARN)
	r, err := New(ctx, readConfig(t, gardenJSON), logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, r.ResourceNames(), test.ShouldResemble, []resource.Name{
		board.Named("local"),
		sensor.Named("soil"),
		sensor.Named("soil_raw"),
	})
	test.That(t, r.built[0], test.ShouldResemble, board.Named("local"))

	res, err := r.ResourceByName(sensor.Named("soil"))
	test.That(t, err, test.ShouldBeNil)
	soil, ok := res.(sensor.Sensor)
	test.That(t, ok, test.ShouldBeTrue)
	readings, err := soil.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings[soilmoisture.MillivKey], test.ShouldEqual, 600.0)
	test.That(t, readings[soilmoisture.NumReadingsKey], test.ShouldEqual, 3.0)
	test.That(t, readings[soilmoisture.MoistureMappedKey], test.ShouldEqual, 50.0)

	res, err = r.ResourceByName(sensor.Named("soil_raw"))
	test.That(t, err, test.ShouldBeNil)
	readings, err = res.(sensor.Sensor).Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings, test.ShouldResemble, map[string]interface{}{
		soilmoisture.RawKey:         600.0,
		soilmoisture.NumReadingsKey: 3.0,
	})

	soilLogger, ok := r.Loggers().LoggerNamed("soil")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, soilLogger.GetLevel(), test.ShouldEqual, logging.DEBUG)
	rawLogger, ok := r.Loggers().LoggerNamed("soil_raw")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, rawLogger.GetLevel(), test.ShouldEqual, logging.WARN)
	boardLogger, ok := r.Loggers().LoggerNamed("local")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, boardLogger.GetLevel(), test.ShouldEqual, logging.WARN)

	_, err = r.ResourceByName(sensor.Named("nope"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not found")

	res, err = r.ResourceByName(board.Named("local"))
	test.That(t, err, test.ShouldBeNil)
	fb, ok := res.(*fakeboard.Board)
	test.That(t, ok, test.ShouldBeTrue)

	test.That(t, r.Close(ctx), test.ShouldBeNil)
	test.That(t, r.Close(ctx), test.ShouldBeNil)
	test.That(t, fb.CloseCount, test.ShouldEqual, 1)
	test.That(t, r.ResourceNames(), test.ShouldBeEmpty)
	_, err = r.ResourceByName(sensor.Named("soil"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewDependencyErrors(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	_, err := New(ctx, readConfig(t, `{"components": [{
		"name": "soil", "api": "rdk:component:sensor", "model": "analog_soil_moisture",
		"attributes": {"board": "missing", "analog_reader": "moisture"}
	}]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"soil" depends on "missing" which is not configured`)

	_, err = New(ctx, readConfig(t, `{"components": [
		{"name": "a", "api": "rdk:component:sensor", "model": "rdk:builtin:fake", "depends_on": ["b"]},
		{"name": "b", "api": "rdk:component:sensor", "model": "rdk:builtin:fake", "depends_on": ["a"]}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "circular dependency")

	// with two boards neither is picked implicitly
	_, err = New(ctx, readConfig(t, `{"components": [
		{"name": "one", "api": "rdk:component:board", "model": "rdk:builtin:fake",
			"attributes": {"analogs": [{"name": "moisture", "pin": "0"}]}},
		{"name": "two", "api": "rdk:component:board", "model": "rdk:builtin:fake",
			"attributes": {"analogs": [{"name": "moisture", "pin": "0"}]}},
		{"name": "soil", "api": "rdk:component:sensor", "model": "analog_soil_moisture",
			"attributes": {"analog_reader": "moisture"}}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, sensor.IsConfigError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sensor missing board attribute")
}

func TestSoleBoardIsImplicitDependency(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, readConfig(t, `{"components": [
		{"name": "soil", "api": "rdk:component:sensor", "model": "analog_soil_moisture",
			"attributes": {"analog_reader": "moisture", "num_readings": 1}},
		{"name": "local", "api": "rdk:component:board", "model": "rdk:builtin:fake",
			"attributes": {"analogs": [{"name": "moisture", "pin": "0", "value": 420}]}}
	]}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, r.Close(ctx), test.ShouldBeNil)
	}()
	test.That(t, r.built, test.ShouldResemble, []resource.Name{board.Named("local"), sensor.Named("soil")})
	test.That(t, r.graph.DependenciesOf(sensor.Named("soil")), test.ShouldResemble, []resource.Name{board.Named("local")})

	res, err := r.ResourceByName(sensor.Named("soil"))
	test.That(t, err, test.ShouldBeNil)
	readings, err := res.(sensor.Sensor).Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings[soilmoisture.MillivKey], test.ShouldEqual, 420.0)
}

func TestNewDebug(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	logger.SetLevel(logging.WARN)
	r, err := New(ctx, readConfig(t, `{
		"debug": true,
		"components": [
			{"name": "soil", "api": "rdk:component:sensor", "model": "analog_soil_moisture",
				"attributes": {"analog_reader": "moisture"}},
			{"name": "local", "api": "rdk:component:board", "model": "rdk:builtin:fake",
				"attributes": {"analogs": [{"name": "moisture", "pin": "0"}]}}
		],
		"log": [{"pattern": "local", "level": "error"}]
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, r.Close(ctx), test.ShouldBeNil)
	}()

	soilLogger, ok := r.Loggers().LoggerNamed("soil")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, soilLogger.GetLevel(), test.ShouldEqual, logging.DEBUG)
	boardLogger, ok := r.Loggers().LoggerNamed("local")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, boardLogger.GetLevel(), test.ShouldEqual, logging.ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.WARN)
}

var closeRecorderModel = resource.NewModel("acme", "test", "close_recorder")

type closeRecorder struct {
	resource.Named
	resource.TriviallyReconfigurable
	closed *[]string
}

func (c *closeRecorder) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (c *closeRecorder) Close(ctx context.Context) error {
	*c.closed = append(*c.closed, c.Name().ShortName())
	if c.Name().ShortName() == "bad_close" {
		return errors.New("close failed")
	}
	return nil
}

func TestNewClosesOnFailure(t *testing.T) {
	var closed []string
	resource.RegisterComponent(
		sensor.API,
		closeRecorderModel,
		resource.Registration[sensor.Sensor, resource.NoNativeConfig]{Constructor: func(
			ctx context.Context,
			deps resource.Dependencies,
			conf resource.Config,
			logger logging.Logger,
		) (sensor.Sensor, error) {
			if conf.Name == "broken" {
				return nil, errors.New("no can do")
			}
			if conf.Name == "panicky" {
				panic("oh no")
			}
			return &closeRecorder{Named: conf.ResourceName().AsNamed(), closed: &closed}, nil
		}})
	t.Cleanup(func() {
		resource.Deregister(sensor.API, closeRecorderModel)
	})

	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	_, err := New(ctx, readConfig(t, `{"components": [
		{"name": "first", "api": "rdk:component:sensor", "model": "acme:test:close_recorder"},
		{"name": "second", "api": "rdk:component:sensor", "model": "acme:test:close_recorder", "depends_on": ["first"]},
		{"name": "broken", "api": "rdk:component:sensor", "model": "acme:test:close_recorder", "depends_on": ["second"]}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `failed to build "broken"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no can do")
	test.That(t, closed, test.ShouldResemble, []string{"second", "first"})

	closed = nil
	_, err = New(ctx, readConfig(t, `{"components": [
		{"name": "first", "api": "rdk:component:sensor", "model": "acme:test:close_recorder"},
		{"name": "panicky", "api": "rdk:component:sensor", "model": "acme:test:close_recorder", "depends_on": ["first"]}
	]}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "panic creating resource")
	test.That(t, closed, test.ShouldResemble, []string{"first"})

	closed = nil
	r, err := New(ctx, readConfig(t, `{"components": [
		{"name": "bad_close", "api": "rdk:component:sensor", "model": "acme:test:close_recorder"},
		{"name": "last", "api": "rdk:component:sensor", "model": "acme:test:close_recorder", "depends_on": ["bad_close"]}
	]}`), logger)
	test.That(t, err, test.ShouldBeNil)
	err = r.Close(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "close failed")
	test.That(t, closed, test.ShouldResemble, []string{"last", "bad_close"})
}
