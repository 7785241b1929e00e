package resolve

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placeresolve/internal/place"
)

// stubResolver runs a func, so each test can script lookup behavior.
type stubResolver struct {
	fn func(ctx context.Context, query string) (place.Coordinates, error)
}

func (s *stubResolver) Resolve(ctx context.Context, query string) (place.Coordinates, error) {
	return s.fn(ctx, query)
}

// callCounter counts Resolve calls per query around an inner resolver.
type callCounter struct {
	mu    sync.Mutex
	calls map[string]int
	inner Resolver
}

func newCallCounter(inner Resolver) *callCounter {
	return &callCounter{calls: map[string]int{}, inner: inner}
}

func (c *callCounter) Resolve(ctx context.Context, query string) (place.Coordinates, error) {
	c.mu.Lock()
	c.calls[query]++
	c.mu.Unlock()
	return c.inner.Resolve(ctx, query)
}

func (c *callCounter) count(query string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[query]
}

func (c *callCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, v := range c.calls {
		n += v
	}
	return n
}

// stubSlot builds a pool slot whose reconnection always fails.
func stubSlot(i int, r Resolver) *Slot {
	return &Slot{
		Index: i,
		Port:  4444 + i,
		conn:  &Connection{Resolver: r},
		connect: func(ctx context.Context) (*Connection, error) {
			return nil, eris.New("stub: reconnect unavailable")
		},
	}
}

// stubPool builds a pool with one slot per resolver.
func stubPool(resolvers ...Resolver) *Pool {
	slots := make([]*Slot, len(resolvers))
	for i, r := range resolvers {
		slots[i] = stubSlot(i, r)
	}
	return NewPool(slots)
}

func okResolver(coords place.Coordinates) Resolver {
	return &stubResolver{fn: func(context.Context, string) (place.Coordinates, error) {
		return coords, nil
	}}
}

func failResolver(kind FailureKind) Resolver {
	return &stubResolver{fn: func(context.Context, string) (place.Coordinates, error) {
		return place.Coordinates{}, &LookupError{Kind: kind, Err: eris.New("stub failure")}
	}}
}

func unresolvedRecord(i int, name string) *place.Record {
	return &place.Record{Index: i, Name: name, Status: place.StatusUnresolved}
}
