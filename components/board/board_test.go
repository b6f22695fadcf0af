package board_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-modules/soilmoisture/components/board"
	"github.com/viam-modules/soilmoisture/components/board/fake"
	"github.com/viam-modules/soilmoisture/logging"
	"github.com/viam-modules/soilmoisture/resource"
)

func newFakeBoard(t *testing.T, name string) *fake.Board {
	t.Helper()
	cfg := resource.Config{
		Name: name,
		API:  board.API,
		ConvertedAttributes: &fake.Config{AnalogReaders: []fake.AnalogConfig{
			{AnalogReaderConfig: board.AnalogReaderConfig{Name: "moisture", Pin: "34"}, Value: 512},
		}},
	}
	b, err := fake.NewBoard(context.Background(), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return b
}

func TestFromDependencies(t *testing.T) {
	b := newFakeBoard(t, "local")
	deps := resource.Dependencies{b.Name(): b}

	got, err := board.FromDependencies(deps, "local")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, b)

	_, err = board.FromDependencies(deps, "remote")
	test.That(t, err, test.ShouldNotBeNil)

	got, err = board.SoleBoard(deps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, b)

	_, err = board.SoleBoard(resource.Dependencies{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "found 0")

	other := newFakeBoard(t, "other")
	deps[other.Name()] = other
	_, err = board.SoleBoard(deps)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "found 2")
}

func TestShareAnalog(t *testing.T) {
	b := newFakeBoard(t, "local")
	a, err := b.AnalogByName("moisture")
	test.That(t, err, test.ShouldBeNil)

	shared := board.ShareAnalog(a)
	test.That(t, board.ShareAnalog(shared), test.ShouldEqual, shared)

	val, err := shared.LockedRead(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, val.Value, test.ShouldEqual, 512)

	test.That(t, shared.TryLock(), test.ShouldBeTrue)
	test.That(t, shared.TryLock(), test.ShouldBeFalse)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = shared.LockedRead(ctx, nil)
	test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
	var lockErr *board.LockError
	test.That(t, errors.As(err, &lockErr), test.ShouldBeTrue)
	shared.Unlock()

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	test.That(t, errors.Is(shared.Lock(canceled), context.Canceled), test.ShouldBeTrue)
	test.That(t, shared.TryLock(), test.ShouldBeTrue)
	shared.Unlock()
}

func TestSharedAnalogExclusive(t *testing.T) {
	b := newFakeBoard(t, "local")
	a, err := b.AnalogByName("moisture")
	test.That(t, err, test.ShouldBeNil)
	shared := board.ShareAnalog(a)

	var holders, maxHolders atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := shared.Lock(context.Background()); err != nil {
					errs <- err
					return
				}
				n := holders.Add(1)
				if n > maxHolders.Load() {
					maxHolders.Store(n)
				}
				holders.Add(-1)
				shared.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		test.That(t, err, test.ShouldBeNil)
	}
	test.That(t, maxHolders.Load(), test.ShouldEqual, int32(1))
}
