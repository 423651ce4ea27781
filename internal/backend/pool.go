package backend

import (
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Pool hands out one Client per gateway user so each keeps its own backend
// session cookie. Idle clients expire after the configured TTL.
type Pool struct {
	cfg    ClientConfig
	logger *slog.Logger
	cache  *cache.Cache
	mu     sync.Mutex
}

// NewPool creates a client pool. A ttl of zero keeps clients for one hour.
func NewPool(cfg ClientConfig, ttl time.Duration, logger *slog.Logger) *Pool {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cfg:    cfg,
		logger: logger,
		cache:  cache.New(ttl, ttl/2),
	}
}

// Get returns the client for userID, creating it on first use. Each call
// refreshes the expiry.
func (p *Pool) Get(userID string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, found := p.cache.Get(userID); found {
		c := v.(*Client)
		p.cache.SetDefault(userID, c)
		return c, nil
	}

	c, err := NewClient(p.cfg, p.logger.With("user_id", userID))
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(userID, c)
	p.logger.Debug("backend client created", "user_id", userID)
	return c, nil
}

// Forget drops the client (and with it the backend session) for userID.
func (p *Pool) Forget(userID string) {
	p.cache.Delete(userID)
}

// Len returns the number of live clients.
func (p *Pool) Len() int {
	return p.cache.ItemCount()
}
