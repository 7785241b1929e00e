package resolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placeresolve/internal/resilience"
	"github.com/sells-group/placeresolve/pkg/webdriver"
)

// ErrPoolExhausted is returned by Acquire once every slot has been retired.
var ErrPoolExhausted = eris.New("session pool: all slots retired")

// ErrNoSessions is the configuration error for a pool that could not
// establish a single session at startup.
var ErrNoSessions = eris.New("session pool: no healthy webdriver endpoints")

// Connection is one live remote session usable as a Resolver.
type Connection struct {
	Resolver Resolver
	Close    func(ctx context.Context) error
}

// ConnectFunc establishes (or re-establishes) a slot's remote session.
type ConnectFunc func(ctx context.Context) (*Connection, error)

// Slot is one pool entry, bound to a fixed endpoint for its lifetime.
type Slot struct {
	Index int
	Port  int

	conn    *Connection
	connect ConnectFunc
}

// Resolver returns the slot's current resolver. Only valid while the caller
// holds the slot between Acquire and Release.
func (s *Slot) Resolver() Resolver {
	return s.conn.Resolver
}

// Pool owns a fixed set of session slots and arbitrates exclusive access
// through a buffered free channel. A slot that reports a session error gets
// one reconnection attempt; if that fails the slot is retired and the pool's
// effective parallelism drops by one.
type Pool struct {
	slots []*Slot
	free  chan *Slot

	mu   sync.Mutex
	live int
	dead chan struct{}
}

// NewPool builds a pool from already-connected slots.
func NewPool(slots []*Slot) *Pool {
	p := &Pool{
		slots: slots,
		free:  make(chan *Slot, len(slots)),
		live:  len(slots),
		dead:  make(chan struct{}),
	}
	for _, s := range slots {
		p.free <- s
	}
	if len(slots) == 0 {
		close(p.dead)
	}
	return p
}

// Size returns the number of slots the pool started with.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Live returns the number of slots not yet retired.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Acquire blocks until a slot is free, the context is cancelled, or every
// slot has been retired.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	select {
	case s := <-p.free:
		return s, nil
	case <-p.dead:
		return nil, ErrPoolExhausted
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a slot to the free set. lookupErr is the error (if any)
// from the work performed while holding the slot; a session-level failure
// quarantines the slot for a single reconnection attempt before it either
// rejoins the free set or is permanently retired.
func (p *Pool) Release(ctx context.Context, s *Slot, lookupErr error) {
	if lookupErr == nil || KindOf(lookupErr) != FailSession {
		p.free <- s
		return
	}

	log := zap.L().With(zap.Int("slot", s.Index), zap.Int("port", s.Port))
	log.Warn("session error, reconnecting slot", zap.Error(lookupErr))

	if s.conn != nil && s.conn.Close != nil {
		_ = s.conn.Close(ctx)
	}

	conn, err := s.connect(ctx)
	if err != nil {
		log.Warn("reconnect failed, retiring slot", zap.Error(err))
		p.retire()
		return
	}

	s.conn = conn
	log.Info("slot reconnected")
	p.free <- s
}

func (p *Pool) retire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live--
	if p.live <= 0 {
		close(p.dead)
	}
}

// Close tears down every remote session. Call only after all slots have been
// released.
func (p *Pool) Close(ctx context.Context) {
	for _, s := range p.slots {
		if s.conn != nil && s.conn.Close != nil {
			if err := s.conn.Close(ctx); err != nil {
				zap.L().Debug("closing session", zap.Int("slot", s.Index), zap.Error(err))
			}
		}
	}
}

// DialConfig configures pool construction against local WebDriver servers.
type DialConfig struct {
	// BasePort is the port of slot 0; slot i listens on BasePort+i.
	// Default: 4444.
	BasePort int

	// Slots is the number of sessions, i.e. the lookup parallelism.
	// Default: 4.
	Slots int

	// Headless controls browser visibility. Defaults to headless; showing
	// the browser is a debugging aid.
	Headless bool

	// Session tunes each slot's resolver.
	Session SessionConfig

	// Host overrides the endpoint host for tests. Default: "localhost".
	Host string
}

func (c DialConfig) withDefaults() DialConfig {
	if c.BasePort <= 0 {
		c.BasePort = 4444
	}
	if c.Slots <= 0 {
		c.Slots = 4
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	return c
}

// Dial connects to one WebDriver server per slot. Unreachable endpoints are
// skipped with a warning; only a pool with zero healthy sessions is an error.
func Dial(ctx context.Context, cfg DialConfig) (*Pool, error) {
	cfg = cfg.withDefaults()

	retryCfg := resilience.DefaultRetryConfig()

	var slots []*Slot
	for i := 0; i < cfg.Slots; i++ {
		port := cfg.BasePort + i
		endpoint := fmt.Sprintf("http://%s:%d", cfg.Host, port)
		client := webdriver.NewClient(endpoint)

		connect := func(ctx context.Context) (*Connection, error) {
			rc := retryCfg
			rc.OnRetry = resilience.RetryLogger("pool", "new session")
			sess, err := resilience.DoVal(ctx, rc, func(ctx context.Context) (*webdriver.Session, error) {
				return client.NewSession(ctx, webdriver.WithHeadless(cfg.Headless))
			})
			if err != nil {
				return nil, eris.Wrapf(err, "pool: create session on %s", endpoint)
			}
			return &Connection{
				Resolver: NewSessionResolver(sess, cfg.Session),
				Close:    sess.Close,
			}, nil
		}

		slot := &Slot{Index: i, Port: port, connect: connect}
		conn, err := connect(ctx)
		if err != nil {
			zap.L().Warn("webdriver endpoint unavailable, skipping slot",
				zap.Int("slot", i),
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			continue
		}
		slot.conn = conn
		slots = append(slots, slot)
	}

	if len(slots) == 0 {
		return nil, ErrNoSessions
	}

	zap.L().Info("session pool ready",
		zap.Int("slots", len(slots)),
		zap.Int("requested", cfg.Slots),
	)
	return NewPool(slots), nil
}
