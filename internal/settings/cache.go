// Package settings caches admin-maintained key/value settings. A Cache is built once at
// startup and handed to whoever needs it; there is no package-level state.
package settings

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
)

const (
	KeyPaymentSimulation  = "payment.simulation_enabled"
	KeyPaymentSuccessRate = "payment.simulation_success_rate"
)

type Loader interface {
	Load(ctx context.Context) (map[string]string, error)
}

// Cache holds a snapshot of all settings and reloads it once it is older than ttl.
// A zero ttl reloads on every read.
type Cache struct {
	loader Loader
	ttl    time.Duration
	clock  func() time.Time

	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

func NewCache(loader Loader, ttl time.Duration) *Cache {
	return &Cache{loader: loader, ttl: ttl, clock: time.Now}
}

// Refresh reloads the snapshot unconditionally.
func (c *Cache) Refresh(ctx context.Context) error {
	values, err := c.loader.Load(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.values = values
	c.loadedAt = c.clock()
	c.mu.Unlock()
	return nil
}

// Invalidate forces the next read to reload.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.values = nil
	c.mu.Unlock()
}

func (c *Cache) fresh() (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.values == nil || c.clock().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return c.values, true
}

// Get returns the value for key, reloading first when the snapshot is stale.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	values, ok := c.fresh()
	if !ok {
		if err := c.Refresh(ctx); err != nil {
			return "", false, err
		}
		c.mu.RLock()
		values = c.values
		c.mu.RUnlock()
	}
	v, found := values[key]
	return v, found, nil
}

// Int reads an integer setting, falling back to def when it is missing or malformed.
func (c *Cache) Int(ctx context.Context, key string, def int) (int, error) {
	v, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil {
		return def, nil
	}
	return n, nil
}

// Bool reads a boolean setting, falling back to def when it is missing or malformed.
func (c *Cache) Bool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	b, convErr := strconv.ParseBool(v)
	if convErr != nil {
		return def, nil
	}
	return b, nil
}

// SQLLoader reads the settings table.
type SQLLoader struct{ db *sqlx.DB }

func NewSQLLoader(db *sqlx.DB) *SQLLoader { return &SQLLoader{db: db} }

func (l *SQLLoader) Load(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := l.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings`); err != nil {
		return nil, apperr.Storage("load settings", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// StaticLoader serves a fixed map; used when settings come from configuration only.
type StaticLoader map[string]string

func (s StaticLoader) Load(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
