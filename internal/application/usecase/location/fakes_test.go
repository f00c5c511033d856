package location

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
	"github.com/DioGolang/GeoDispatch/internal/domain/geo"
)

type memDrivers struct {
	mu      sync.RWMutex
	drivers map[string]entity.Driver

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	failUpdate  error
	failFind    error
}

func newMemDrivers(ds ...entity.Driver) *memDrivers {
	m := &memDrivers{drivers: make(map[string]entity.Driver)}
	for _, d := range ds {
		m.drivers[d.ID] = d
	}
	return m
}

func (m *memDrivers) enter() func() {
	n := m.inFlight.Add(1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return func() { m.inFlight.Add(-1) }
}

func (m *memDrivers) FindByID(_ context.Context, id string) (*entity.Driver, error) {
	defer m.enter()()
	if m.failFind != nil {
		return nil, m.failFind
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, entity.ErrEntityNotFound
	}
	return &d, nil
}

func (m *memDrivers) FindCandidates(_ context.Context, f entity.DriverFilter) ([]entity.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []entity.Driver
	for _, d := range m.drivers {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDrivers) UpdatePosition(_ context.Context, id string, pos geo.Coordinate, at time.Time) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return entity.ErrEntityNotFound
	}
	d.MoveTo(pos, at)
	m.drivers[id] = d
	return nil
}

func (m *memDrivers) position(id string) *geo.Coordinate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id].Position
}

type outboxRecord struct {
	aggID   string
	topic   string
	payload []byte
}

type memOutbox struct {
	mu      sync.Mutex
	records []outboxRecord
	fail    error
}

func (o *memOutbox) SaveOutboxEvent(_ context.Context, _, aggID, _ string, _ int32, payload []byte, topic string) error {
	if o.fail != nil {
		return o.fail
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, outboxRecord{aggID: aggID, topic: topic, payload: payload})
	return nil
}

func (o *memOutbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

// memUnitOfWork applies writes only when fn succeeds, mimicking a rollback.
type memUnitOfWork struct {
	drivers *memDrivers
	outbox  *memOutbox
}

type stagedProvider struct {
	uow       *memUnitOfWork
	positions map[string]stagedPosition
	events    []outboxRecord
}

type stagedPosition struct {
	pos geo.Coordinate
	at  time.Time
}

func (s *stagedProvider) Drivers() outbound.DriverRepository { return stagedDrivers{s} }
func (s *stagedProvider) Outbox() outbound.OutboxRepository  { return stagedOutbox{s} }

type stagedDrivers struct{ p *stagedProvider }

func (d stagedDrivers) FindByID(ctx context.Context, id string) (*entity.Driver, error) {
	return d.p.uow.drivers.FindByID(ctx, id)
}

func (d stagedDrivers) FindCandidates(ctx context.Context, f entity.DriverFilter) ([]entity.Driver, error) {
	return d.p.uow.drivers.FindCandidates(ctx, f)
}

func (d stagedDrivers) UpdatePosition(_ context.Context, id string, pos geo.Coordinate, at time.Time) error {
	if d.p.uow.drivers.failUpdate != nil {
		return d.p.uow.drivers.failUpdate
	}
	d.p.positions[id] = stagedPosition{pos: pos, at: at}
	return nil
}

type stagedOutbox struct{ p *stagedProvider }

func (o stagedOutbox) SaveOutboxEvent(_ context.Context, _, aggID, _ string, _ int32, payload []byte, topic string) error {
	if o.p.uow.outbox.fail != nil {
		return o.p.uow.outbox.fail
	}
	o.p.events = append(o.p.events, outboxRecord{aggID: aggID, topic: topic, payload: payload})
	return nil
}

func (u *memUnitOfWork) Do(ctx context.Context, fn func(provider outbound.RepositoryProvider) error) error {
	p := &stagedProvider{uow: u, positions: make(map[string]stagedPosition)}
	if err := fn(p); err != nil {
		return err
	}
	for id, sp := range p.positions {
		if err := u.drivers.UpdatePosition(ctx, id, sp.pos, sp.at); err != nil {
			return err
		}
	}
	u.outbox.mu.Lock()
	u.outbox.records = append(u.outbox.records, p.events...)
	u.outbox.mu.Unlock()
	return nil
}

var errBoom = errors.New("connection refused")
