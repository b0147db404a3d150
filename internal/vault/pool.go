package vault

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Pool hands out Vault clients keyed by (address, token). Requests from the
// same caller reuse one client and its underlying connections; a client that
// marked itself dead after a transport failure is replaced on the next
// checkout.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*Client

	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	onEvict    func()
}

// PoolConfig configures a Pool. All fields are optional.
type PoolConfig struct {
	// Timeout applies to each client created by the pool.
	Timeout time.Duration
	// HTTPClient, when set, is shared by every client the pool creates.
	HTTPClient *http.Client
	Logger     *slog.Logger
	// OnEvict is invoked each time a dead client is discarded.
	OnEvict func()
}

// NewPool creates an empty pool.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		clients:    make(map[string]*Client),
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		logger:     logger.With("component", "vault_pool"),
		onEvict:    cfg.OnEvict,
	}
}

func poolKey(addr, token string) string {
	// Tokens never contain NUL, so this cannot collide across pairs.
	return addr + "\x00" + token
}

// Get returns the pooled client for (addr, token), creating one if none
// exists or the cached one has been marked dead.
func (p *Pool) Get(addr, token string) (*Client, error) {
	key := poolKey(addr, token)

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.clients[key]; ok {
		if existing.Alive() {
			return existing, nil
		}
		existing.Close()
		delete(p.clients, key)
		p.logger.Info("replacing dead vault client", "addr", addr)
		if p.onEvict != nil {
			p.onEvict()
		}
	}

	client, err := NewClient(Config{
		Address:    addr,
		Token:      token,
		Timeout:    p.timeout,
		HTTPClient: p.httpClient,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, err
	}
	p.clients[key] = client
	return client, nil
}

// Invalidate drops the pooled client for (addr, token), if any. The next Get
// for the same pair creates a fresh client.
func (p *Pool) Invalidate(addr, token string) {
	key := poolKey(addr, token)

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.clients[key]; ok {
		existing.Close()
		delete(p.clients, key)
		if p.onEvict != nil {
			p.onEvict()
		}
	}
}

// Len reports how many clients the pool currently holds.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Close discards every pooled client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, client := range p.clients {
		client.Close()
		delete(p.clients, key)
	}
}
