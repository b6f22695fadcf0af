// Package main reads and captures soil moisture sensors described by a robot config.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	_ "github.com/viam-modules/soilmoisture/components/register"
	"github.com/viam-modules/soilmoisture/components/sensor"
	"github.com/viam-modules/soilmoisture/data"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/robot"
	rutils "github.com/viam-modules/soilmoisture/utils"
)

const (
	// Flags.
	flagConfig   = "config"
	flagDebug    = "debug"
	flagSensor   = "sensor"
	flagCount    = "count"
	flagInterval = "interval"
	flagOut      = "out"
	flagDuration = "duration"
	flagIn       = "in"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := NewApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		//nolint:gocritic
		os.Exit(1)
	}
}

// NewApp returns a new app with Writer set to out, and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	var logger logging.Logger
	sensorFlag := &cli.StringFlag{
		Name:     flagSensor,
		Aliases:  []string{"s"},
		Usage:    "name of the sensor component",
		Required: true,
	}

	return &cli.App{
		Name:      "soilmoisture",
		Usage:     "read analog soil moisture sensors",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			// readings go to Writer, so logs go to ErrWriter.
			logger = logging.NewLogger("soilmoisture", c.App.ErrWriter)
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			} else {
				logger.SetLevel(logging.WARN)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "convert a capture file to BSON documents",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     flagIn,
						Aliases:  []string{"i"},
						Usage:    "read captured readings from `FILE`",
						Required: true,
					},
					&cli.PathFlag{
						Name:     flagOut,
						Aliases:  []string{"o"},
						Usage:    "write BSON documents to `FILE`",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					n, err := exportAction(c.Path(flagIn), c.Path(flagOut))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "exported %d readings to %s\n", n, c.Path(flagOut))
					return nil
				},
			},
			{
				Name:  "read",
				Usage: "print sensor readings as JSON lines",
				Flags: []cli.Flag{
					sensorFlag,
					&cli.IntFlag{
						Name:  flagCount,
						Usage: "number of readings to take",
						Value: 1,
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Usage: "time between readings",
						Value: time.Second,
					},
				},
				Action: func(c *cli.Context) error {
					return withSensor(c, logger, func(ctx context.Context, s sensor.Sensor) error {
						return readAction(ctx, c.App.Writer, s, c.Int(flagCount), c.Duration(flagInterval))
					})
				},
			},
			{
				Name:  "status",
				Usage: "print the sensor status as JSON",
				Flags: []cli.Flag{sensorFlag},
				Action: func(c *cli.Context) error {
					return withSensor(c, logger, func(ctx context.Context, s sensor.Sensor) error {
						return statusAction(ctx, c.App.Writer, s)
					})
				},
			},
			{
				Name:  "calibration",
				Usage: "print the calibration of a soil moisture sensor",
				Flags: []cli.Flag{sensorFlag},
				Action: func(c *cli.Context) error {
					return withSensor(c, logger, func(ctx context.Context, s sensor.Sensor) error {
						resp, err := s.DoCommand(ctx, map[string]interface{}{"command": "calibration"})
						if err != nil {
							return err
						}
						pbResp, err := structpb.NewStruct(resp)
						if err != nil {
							return err
						}
						return printProto(c.App.Writer, pbResp)
					})
				},
			},
			{
				Name:  "capture",
				Usage: "capture readings to a file at a fixed interval",
				Flags: []cli.Flag{
					sensorFlag,
					&cli.PathFlag{
						Name:     flagOut,
						Aliases:  []string{"o"},
						Usage:    "write captured readings to `FILE`",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  flagInterval,
						Usage: "time between captures",
						Value: time.Second,
					},
					&cli.DurationFlag{
						Name:     flagDuration,
						Usage:    "how long to capture for",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					return withSensor(c, logger, func(ctx context.Context, s sensor.Sensor) error {
						captures, err := captureAction(ctx, s, data.CollectorParams{
							ComponentName: c.String(flagSensor),
							Interval:      c.Duration(flagInterval),
							Logger:        logger.Sublogger("capture"),
						}, c.Path(flagOut), c.Duration(flagDuration))
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "captured %d readings to %s\n", captures, c.Path(flagOut))
						return nil
					})
				},
			},
		},
	}
}

// withSensor builds the robot from the config flag, runs fn with the named sensor and closes the
// robot.
func withSensor(c *cli.Context, logger logging.Logger, fn func(ctx context.Context, s sensor.Sensor) error) (err error) {
	ctx := c.Context
	cfgPath := c.String(flagConfig)
	if cfgPath == "" {
		return errors.Errorf("--%s is required", flagConfig)
	}
	r, err := robot.FromConfigPath(ctx, cfgPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, r.Close(context.Background()))
	}()

	name := c.String(flagSensor)
	res, err := r.ResourceByName(sensor.Named(name))
	if err != nil {
		return err
	}
	s, ok := res.(sensor.Sensor)
	if !ok {
		return rutils.NewUnimplementedInterfaceError((*sensor.Sensor)(nil), res)
	}
	return fn(ctx, s)
}

func readAction(ctx context.Context, out io.Writer, s sensor.Sensor, count int, interval time.Duration) error {
	if count < 1 {
		return errors.Errorf("count must be at least 1, got %d", count)
	}
	for i := 0; i < count; i++ {
		if i > 0 && !utils.SelectContextOrWait(ctx, interval) {
			return ctx.Err()
		}
		readings, err := s.Readings(ctx, nil)
		if err != nil {
			return err
		}
		resp, err := sensor.NewReadingsResponse(readings)
		if err != nil {
			return err
		}
		if err := printProto(out, resp); err != nil {
			return err
		}
	}
	return nil
}

func statusAction(ctx context.Context, out io.Writer, s sensor.Sensor) error {
	var status map[string]interface{}
	if statuser, ok := s.(sensor.Statuser); ok {
		var err error
		if status, err = statuser.Status(ctx); err != nil {
			return err
		}
	}
	pbStatus, err := sensor.StatusToProto(status)
	if err != nil {
		return err
	}
	return printProto(out, pbStatus)
}

// captureAction captures until duration elapses or ctx is done and returns how many readings
// were written.
func captureAction(
	ctx context.Context,
	s sensor.Sensor,
	params data.CollectorParams,
	path string,
	duration time.Duration,
) (captures int, err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	params.Target = w
	col, err := data.NewCollector(s, params)
	if err != nil {
		return 0, err
	}
	col.Collect()
	utils.SelectContextOrWait(ctx, duration)
	if err := col.Close(); err != nil {
		return 0, err
	}
	return col.Captures(), f.Sync()
}

func exportAction(in, out string) (n int, err error) {
	md, captured, err := data.ReadCaptureFilePath(in)
	if err != nil {
		return 0, err
	}
	//nolint:gosec
	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if n, err = data.WriteBSON(w, md, captured); err != nil {
		return n, err
	}
	return n, w.Flush()
}

func printProto(out io.Writer, msg proto.Message) error {
	b, err := protojson.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
