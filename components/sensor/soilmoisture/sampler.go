package soilmoisture

import (
	"context"
	"slices"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/viam-modules/soilmoisture/components/board"
	"github.com/viam-modules/soilmoisture/components/sensor"
)

// sampleInterval is the pause between two consecutive samples of a burst.
const sampleInterval = time.Millisecond

// sampler takes bursts of raw readings from a shared analog handle.
type sampler struct {
	reader      *board.SharedAnalog
	numReadings int
	clock       clock.Clock
}

// sample reads numReadings values, taking the handle's lock around each read so other holders of
// the pin can interleave between samples. The pause between samples is not cancelable. Any
// failure aborts the whole burst.
func (s *sampler) sample(ctx context.Context) ([]int16, error) {
	samples := make([]int16, 0, s.numReadings)
	for i := 0; i < s.numReadings; i++ {
		val, err := s.reader.LockedRead(ctx, nil)
		if err != nil {
			var lockErr *board.LockError
			if errors.As(err, &lockErr) {
				return nil, sensor.NewGenericError("failed to get sensor lock", lockErr.Err)
			}
			return nil, err
		}
		// raw values are 16 bit; anything above the signed range wraps like the device does.
		samples = append(samples, int16(uint16(val.Value)))

		if i < s.numReadings-1 {
			s.clock.Sleep(sampleInterval)
		}
	}
	return samples, nil
}

// median sorts samples in place and returns the element at index len/2. samples must not be empty.
func median(samples []int16) int16 {
	slices.Sort(samples)
	return samples[len(samples)/2]
}

// mapValue linearly maps x from [inMin, inMax] onto [outMin, outMax], clamping the result to the
// output range.
func mapValue(x, inMin, inMax, outMin, outMax float32) float32 {
	mapped := (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
	return math32.Max(math32.Min(outMin, outMax), math32.Min(mapped, math32.Max(outMin, outMax)))
}
