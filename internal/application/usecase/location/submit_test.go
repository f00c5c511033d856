package location

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitFixture struct {
	drivers *memDrivers
	outbox  *memOutbox
	uc      *SubmitUseCaseImpl
}

func newSubmitFixture(ds ...entity.Driver) *submitFixture {
	drivers := newMemDrivers(ds...)
	outbox := &memOutbox{}
	uc := NewSubmitUseCase(
		drivers,
		&memUnitOfWork{drivers: drivers, outbox: outbox},
		NewThrottle(1000, 5*time.Minute),
		DefaultPolicy(),
		logger.Nop(),
		metrics.Nop{},
	)
	return &submitFixture{drivers: drivers, outbox: outbox, uc: uc}
}

func (f *submitFixture) submit(t *testing.T, lat, lng float64, at time.Time) SubmitOutput {
	t.Helper()
	out, err := f.uc.Execute(context.Background(), SubmitInput{EntityID: "d-1", Latitude: lat, Longitude: lng, Now: at})
	require.NoError(t, err)
	return out
}

func TestSubmit_DriverApproachScenario(t *testing.T) {
	//Arrange
	f := newSubmitFixture(entity.Driver{ID: "d-1"})
	first := f.submit(t, 33.3, 44.4, t0)
	require.True(t, first.Accepted)

	//Act
	out := f.submit(t, 33.3001, 44.4001, t0.Add(2*time.Second))

	//Assert
	assert.True(t, out.Accepted)
	assert.Equal(t, ReasonAccepted, out.Reason)
	assert.Equal(t, &geo.Coordinate{Latitude: 33.3001, Longitude: 44.4001}, f.drivers.position("d-1"))

	l := f.uc.Throttle.Acquire("d-1")
	last, ok := l.LastAccepted()
	l.Release()
	require.True(t, ok)
	assert.Equal(t, t0.Add(2*time.Second), last)
}

func TestSubmit_RateLimitedLeavesPositionUnchanged(t *testing.T) {
	f := newSubmitFixture(entity.Driver{ID: "d-1"})
	f.submit(t, 33.3, 44.4, t0)

	out := f.submit(t, 33.4, 44.5, t0.Add(999*time.Millisecond))

	assert.False(t, out.Accepted)
	assert.Equal(t, ReasonRateLimited, out.Reason)
	assert.Equal(t, &geo.Coordinate{Latitude: 33.3, Longitude: 44.4}, out.Position)
	assert.Equal(t, &geo.Coordinate{Latitude: 33.3, Longitude: 44.4}, f.drivers.position("d-1"))
}

func TestSubmit_RateLimitedDoesNotNeedTheStore(t *testing.T) {
	//Arrange
	f := newSubmitFixture(entity.Driver{ID: "d-1"})
	f.submit(t, 33.3, 44.4, t0)
	f.drivers.failFind = errBoom

	//Act
	out, err := f.uc.Execute(context.Background(), SubmitInput{EntityID: "d-1", Latitude: 33.4, Longitude: 44.5, Now: t0.Add(500 * time.Millisecond)})

	//Assert
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.Equal(t, ReasonRateLimited, out.Reason)
	assert.Equal(t, t0, out.LastUpdateAt)

	_, err = f.uc.Execute(context.Background(), SubmitInput{EntityID: "d-1", Latitude: 33.4, Longitude: 44.5, Now: t0.Add(2 * time.Second)})
	assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
}

func TestSubmit_ImmaterialMovementTouchesThrottleOnly(t *testing.T) {
	f := newSubmitFixture(entity.Driver{ID: "d-1"})
	f.submit(t, 33.3, 44.4, t0)

	// ~1 m north
	out := f.submit(t, 33.30001, 44.4, t0.Add(2*time.Second))
	assert.False(t, out.Accepted)
	assert.Equal(t, ReasonImmaterialMovement, out.Reason)
	assert.Equal(t, &geo.Coordinate{Latitude: 33.3, Longitude: 44.4}, f.drivers.position("d-1"))

	// the immaterial update reset the rate-limit window
	out = f.submit(t, 33.31, 44.4, t0.Add(2500*time.Millisecond))
	assert.Equal(t, ReasonRateLimited, out.Reason)

	out = f.submit(t, 33.31, 44.4, t0.Add(3*time.Second))
	assert.Equal(t, ReasonAccepted, out.Reason)
}

func TestSubmit_LargeJumpIsAccepted(t *testing.T) {
	f := newSubmitFixture(entity.Driver{ID: "d-1"})
	f.submit(t, 33.3, 44.4, t0)

	out := f.submit(t, 33.5, 44.4, t0.Add(2*time.Second)) // ~22 km

	assert.True(t, out.Accepted)
	assert.Greater(t, out.JumpKm, 10.0)
	assert.Equal(t, &geo.Coordinate{Latitude: 33.5, Longitude: 44.4}, f.drivers.position("d-1"))
}

func TestSubmit_InvalidCoordinate(t *testing.T) {
	f := newSubmitFixture(entity.Driver{ID: "d-1"})

	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"latitude above range", 90.5, 0},
		{"longitude below range", 0, -181},
		{"NaN", math.NaN(), 0},
		{"infinite", 0, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Execute(context.Background(), SubmitInput{EntityID: "d-1", Latitude: tt.lat, Longitude: tt.lng, Now: t0})
			assert.ErrorIs(t, err, entity.ErrInvalidCoordinate)
			assert.Nil(t, f.drivers.position("d-1"))
		})
	}
	assert.Equal(t, 0, f.uc.Throttle.Len())
}

func TestSubmit_UnknownDriver(t *testing.T) {
	f := newSubmitFixture()

	_, err := f.uc.Execute(context.Background(), SubmitInput{EntityID: "ghost", Latitude: 1, Longitude: 1, Now: t0})

	assert.ErrorIs(t, err, entity.ErrEntityNotFound)
}

func TestSubmit_RequiresID(t *testing.T) {
	f := newSubmitFixture()
	_, err := f.uc.Execute(context.Background(), SubmitInput{Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, entity.ErrIDIsRequired)
}

func TestSubmit_StoreFailureLeavesNoPartialState(t *testing.T) {
	//Arrange
	f := newSubmitFixture(entity.Driver{ID: "d-1"})
	f.outbox.fail = errBoom

	//Act
	_, err := f.uc.Execute(context.Background(), SubmitInput{EntityID: "d-1", Latitude: 1, Longitude: 1, Now: t0})

	//Assert
	assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, f.drivers.position("d-1"), "position write must roll back with the event")
	assert.Equal(t, 0, f.outbox.count())

	f.outbox.fail = nil
	out := f.submit(t, 1, 1, t0.Add(10*time.Millisecond))
	assert.True(t, out.Accepted, "a failed update must not start the rate-limit window")
}

func TestSubmit_PublishesProximityEventAtMostEveryInterval(t *testing.T) {
	f := newSubmitFixture(entity.Driver{ID: "d-1"})

	f.submit(t, 33.3, 44.4, t0)
	f.submit(t, 33.301, 44.4, t0.Add(2*time.Second))
	f.submit(t, 33.302, 44.4, t0.Add(4*time.Second))
	require.Equal(t, 1, f.outbox.count())

	f.submit(t, 33.303, 44.4, t0.Add(6*time.Second))
	require.Equal(t, 2, f.outbox.count())

	rec := f.outbox.records[1]
	assert.Equal(t, LocationAcceptedTopic, rec.topic)
	assert.Equal(t, "d-1", rec.aggID)

	var evt LocationAccepted
	require.NoError(t, json.Unmarshal(rec.payload, &evt))
	assert.Equal(t, "d-1", evt.DriverID)
	assert.Equal(t, 33.303, evt.Latitude)
	assert.True(t, evt.At.Equal(t0.Add(6*time.Second)))
}

func TestSubmit_SameDriverUpdatesAreSerialized(t *testing.T) {
	f := newSubmitFixture(entity.Driver{ID: "d-1"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), SubmitInput{
				EntityID:  "d-1",
				Latitude:  33 + float64(i)*0.01,
				Longitude: 44,
				Now:       t0.Add(time.Duration(i) * 2 * time.Second),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.drivers.maxInFlight.Load())
}

func TestSubmit_DifferentDriversRunInParallel(t *testing.T) {
	var ds []entity.Driver
	for i := 0; i < 8; i++ {
		ds = append(ds, entity.Driver{ID: fmt.Sprintf("d-%d", i)})
	}
	f := newSubmitFixture(ds...)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, d := range ds {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := f.uc.Execute(context.Background(), SubmitInput{EntityID: id, Latitude: 1, Longitude: 1, Now: t0})
			assert.NoError(t, err)
		}(d.ID)
	}
	close(start)
	wg.Wait()

	for _, d := range ds {
		assert.NotNil(t, f.drivers.position(d.ID))
	}
}
