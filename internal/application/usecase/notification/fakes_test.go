package notification

import (
	"context"
	"sync"
	"time"

	"github.com/DioGolang/GeoDispatch/internal/application/port/outbound"
	"github.com/DioGolang/GeoDispatch/internal/domain/entity"
)

type fakeTransport struct {
	mu       sync.Mutex
	outcomes map[string]outbound.DeliveryOutcome
	err      error
	sent     []outbound.PushMessage
	tokens   []string
	block    chan struct{}
	// lag delays the reply without watching ctx, like a response that
	// arrives just after the deadline.
	lag time.Duration
}

func (f *fakeTransport) SendOne(ctx context.Context, token string, msg outbound.PushMessage) (outbound.DeliveryOutcome, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return outbound.DeliveryTransientFailure, nil
		}
	}
	if f.lag > 0 {
		time.Sleep(f.lag)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, msg)
	f.tokens = append(f.tokens, token)
	return f.outcomes[token], nil
}

func (f *fakeTransport) Validate(_ context.Context, token string) (outbound.DeliveryOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.tokens = append(f.tokens, token)
	return f.outcomes[token], nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

type memTokens struct {
	mu     sync.Mutex
	owners map[entity.TokenOwner]entity.TokenSet
	err    error
}

func newMemTokens() *memTokens {
	return &memTokens{owners: make(map[entity.TokenOwner]entity.TokenSet)}
}

func (m *memTokens) put(owner entity.TokenOwner, tokens ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[owner] = entity.NewTokenSet(tokens...)
}

func (m *memTokens) Tokens(_ context.Context, owner entity.TokenOwner) (entity.TokenSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return entity.TokenSet{}, m.err
	}
	set, ok := m.owners[owner]
	if !ok {
		return entity.TokenSet{}, entity.ErrEntityNotFound
	}
	return entity.NewTokenSet(set.Slice()...), nil
}

func (m *memTokens) AddToken(_ context.Context, owner entity.TokenOwner, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	set, ok := m.owners[owner]
	if !ok {
		return false, entity.ErrEntityNotFound
	}
	added := set.Add(token)
	m.owners[owner] = set
	return added, nil
}

func (m *memTokens) RemoveToken(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for owner, set := range m.owners {
		if set.Remove(token) {
			m.owners[owner] = set
			n++
		}
	}
	return n, nil
}

func (m *memTokens) ListWithTokens(context.Context) ([]outbound.OwnerTokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []outbound.OwnerTokens
	for owner, set := range m.owners {
		if set.Len() > 0 {
			out = append(out, outbound.OwnerTokens{Owner: owner, Tokens: entity.NewTokenSet(set.Slice()...)})
		}
	}
	return out, nil
}

func (m *memTokens) has(owner entity.TokenOwner, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[owner].Contains(token)
}
