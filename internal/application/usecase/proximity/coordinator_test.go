package proximity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/application/usecase/notification"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
	"github.com/DioGolang/GeoDispatch/pkg/logger"
	"github.com/DioGolang/GeoDispatch/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrders struct {
	mu       sync.Mutex
	orders   map[string]*entity.ActiveOrder
	err      error
	latchErr error
}

func (m *memOrders) FindActiveByDriver(_ context.Context, driverID string) ([]*entity.ActiveOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.ActiveOrder
	for _, o := range m.orders {
		if o.DriverID() == driverID && o.Status().IsLive() {
			out = append(out, m.copyOf(o))
		}
	}
	return out, nil
}

func (m *memOrders) FindByID(_ context.Context, id string) (*entity.ActiveOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	return m.copyOf(o), nil
}

func (m *memOrders) MarkApproachingNotified(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latchErr != nil {
		return false, m.latchErr
	}
	o := m.orders[id]
	return o.MarkApproachingNotified() == nil, nil
}

func (m *memOrders) notified(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].ApproachingNotified()
}

func (m *memOrders) copyOf(o *entity.ActiveOrder) *entity.ActiveOrder {
	c, _ := entity.RestoreActiveOrder(o.ID(), o.DriverID(), o.CustomerID(), o.CustomerPosition(), o.Status(), o.ApproachingNotified())
	return c
}

type memClaims struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (m *memClaims) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memClaims) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type memTokens struct {
	sets map[string]entity.TokenSet
}

func (m *memTokens) Tokens(_ context.Context, owner entity.TokenOwner) (entity.TokenSet, error) {
	set, ok := m.sets[owner.ID]
	if !ok {
		return entity.TokenSet{}, entity.ErrEntityNotFound
	}
	return set, nil
}

func (m *memTokens) AddToken(context.Context, entity.TokenOwner, string) (bool, error) {
	return false, nil
}

func (m *memTokens) RemoveToken(context.Context, string) (int64, error) { return 0, nil }

func (m *memTokens) ListWithTokens(context.Context) ([]outbound.OwnerTokens, error) {
	return nil, nil
}

type fakeSender struct {
	calls  atomic.Int32
	result notification.Result
	err    error
	last   atomic.Pointer[outbound.PushMessage]
	delay  time.Duration
}

func (f *fakeSender) Send(_ context.Context, _ entity.TokenSet, msg outbound.PushMessage) (notification.Result, error) {
	f.calls.Add(1)
	f.last.Store(&msg)
	time.Sleep(f.delay)
	return f.result, f.err
}

var (
	customerPos = geo.Coordinate{Latitude: 33.3152, Longitude: 44.3661}
	// ~0.3 km north of the customer
	nearby = geo.Coordinate{Latitude: 33.3179, Longitude: 44.3661}
	// ~5.5 km north of the customer
	farAway = geo.Coordinate{Latitude: 33.3652, Longitude: 44.3661}
)

type fixture struct {
	orders *memOrders
	claims *memClaims
	sender *fakeSender
	coord  *Coordinator
}

func newFixture(t *testing.T, status entity.OrderStatus) *fixture {
	t.Helper()
	o, err := entity.NewActiveOrder("o-1", "d-1", "u-1", &customerPos, status)
	require.NoError(t, err)
	f := &fixture{
		orders: &memOrders{orders: map[string]*entity.ActiveOrder{"o-1": o}},
		claims: &memClaims{keys: map[string]struct{}{}},
		sender: &fakeSender{result: notification.Result{SuccessCount: 1}},
	}
	tokens := &memTokens{sets: map[string]entity.TokenSet{"u-1": entity.NewTokenSet("tok-a")}}
	f.coord = NewCoordinator(f.orders, tokens, f.claims, f.sender, logger.Nop(), metrics.Nop{})
	return f
}

func TestCheck_NotifiesOnce(t *testing.T) {
	//Arrange
	f := newFixture(t, entity.OrderAccepted)

	//Act
	first, err1 := f.coord.Check(context.Background(), "d-1", nearby)
	second, err2 := f.coord.Check(context.Background(), "d-1", nearby)

	//Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, CheckReport{Evaluated: 1, Notified: 1}, first)
	assert.Equal(t, CheckReport{}, second)
	assert.EqualValues(t, 1, f.sender.calls.Load())
	assert.True(t, f.orders.notified("o-1"))

	msg := f.sender.last.Load()
	require.NotNil(t, msg)
	assert.Equal(t, ApproachingTitle, msg.Title)
	assert.Equal(t, "driver_approaching", msg.Data["type"])
	assert.Equal(t, "o-1", msg.Data["orderId"])
	assert.Equal(t, "d-1", msg.Data["driverId"])
	assert.NotEmpty(t, msg.Data["distance"])
}

func TestCheck_OutOfRangeOrNotLive(t *testing.T) {
	tests := []struct {
		name   string
		status entity.OrderStatus
		pos    geo.Coordinate
	}{
		{"too far", entity.OrderAccepted, farAway},
		{"pending order", entity.OrderPending, nearby},
		{"completed order", entity.OrderCompleted, nearby},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.status)

			report, err := f.coord.Check(context.Background(), "d-1", tt.pos)

			require.NoError(t, err)
			assert.Zero(t, report.Evaluated)
			assert.Zero(t, f.sender.calls.Load())
			assert.False(t, f.orders.notified("o-1"))
		})
	}
}

func TestCheck_ConcurrentChecksSendOnce(t *testing.T) {
	//Arrange
	f := newFixture(t, entity.OrderInProgress)
	f.sender.delay = 10 * time.Millisecond
	var wg sync.WaitGroup

	//Act
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.Check(context.Background(), "d-1", nearby)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	//Assert
	assert.EqualValues(t, 1, f.sender.calls.Load())
	assert.True(t, f.orders.notified("o-1"))
}

func TestCheck_FailedDeliveryStaysEligible(t *testing.T) {
	//Arrange
	f := newFixture(t, entity.OrderArrived)
	f.sender.result = notification.Result{FailureCount: 1}

	//Act
	report, err := f.coord.Check(context.Background(), "d-1", nearby)

	//Assert
	require.NoError(t, err)
	assert.Zero(t, report.Notified)
	assert.False(t, f.orders.notified("o-1"))

	f.sender.result = notification.Result{SuccessCount: 1}
	report, err = f.coord.Check(context.Background(), "d-1", nearby)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)
	assert.EqualValues(t, 2, f.sender.calls.Load())
}

func TestCheck_TransportUnavailableIsNotAnError(t *testing.T) {
	f := newFixture(t, entity.OrderAccepted)
	f.sender.err = entity.ErrTransportUnavailable

	report, err := f.coord.Check(context.Background(), "d-1", nearby)

	require.NoError(t, err)
	assert.Zero(t, report.Notified)
	assert.False(t, f.orders.notified("o-1"))
	assert.Empty(t, f.claims.keys)
}

func TestCheck_NoTokens(t *testing.T) {
	f := newFixture(t, entity.OrderAccepted)
	f.coord.Tokens = &memTokens{sets: map[string]entity.TokenSet{}}

	report, err := f.coord.Check(context.Background(), "d-1", nearby)

	require.NoError(t, err)
	assert.Zero(t, report.Notified)
	assert.Zero(t, f.sender.calls.Load())
	assert.False(t, f.orders.notified("o-1"))
}

func TestCheck_StoreFailure(t *testing.T) {
	f := newFixture(t, entity.OrderAccepted)
	f.orders.err = errors.New("connection refused")

	_, err := f.coord.Check(context.Background(), "d-1", nearby)

	assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
}

func TestCheck_LatchWriteFailureHoldsClaim(t *testing.T) {
	f := newFixture(t, entity.OrderAccepted)
	f.orders.latchErr = errors.New("deadlock")

	_, err := f.coord.Check(context.Background(), "d-1", nearby)
	require.ErrorIs(t, err, entity.ErrStoreUnavailable)

	_, err = f.coord.Check(context.Background(), "d-1", nearby)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.sender.calls.Load())
}

func TestCheck_InvalidPosition(t *testing.T) {
	f := newFixture(t, entity.OrderAccepted)

	_, err := f.coord.Check(context.Background(), "d-1", geo.Coordinate{Latitude: 91})

	assert.ErrorIs(t, err, entity.ErrInvalidCoordinate)
}
