package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/printshop-orders/internal/database/dbtest"
)

type countingLoader struct {
	calls  int
	values map[string]string
	err    error
}

func (l *countingLoader) Load(context.Context) (map[string]string, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.values, nil
}

func TestCache_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	loader := &countingLoader{values: map[string]string{KeyPaymentSuccessRate: "70"}}
	c := NewCache(loader, time.Minute)
	c.clock = func() time.Time { return now }
	ctx := context.Background()

	n, err := c.Int(ctx, KeyPaymentSuccessRate, 50)
	require.NoError(t, err)
	assert.Equal(t, 70, n)
	assert.Equal(t, 1, loader.calls)

	_, _, _ = c.Get(ctx, KeyPaymentSuccessRate)
	assert.Equal(t, 1, loader.calls, "fresh snapshot must not reload")

	now = now.Add(2 * time.Minute)
	_, _, _ = c.Get(ctx, KeyPaymentSuccessRate)
	assert.Equal(t, 2, loader.calls)

	c.Invalidate()
	_, _, _ = c.Get(ctx, KeyPaymentSuccessRate)
	assert.Equal(t, 3, loader.calls)
}

func TestCache_Fallbacks(t *testing.T) {
	c := NewCache(StaticLoader{"flag": "yes-please", "num": "x"}, time.Hour)
	ctx := context.Background()

	n, err := c.Int(ctx, "num", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	b, err := c.Bool(ctx, "flag", true)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = c.Bool(ctx, "missing", false)
	require.NoError(t, err)
	assert.False(t, b)
}

func TestCache_LoaderError(t *testing.T) {
	c := NewCache(&countingLoader{err: errors.New("db down")}, time.Hour)
	n, err := c.Int(context.Background(), KeyPaymentSuccessRate, 50)
	assert.Error(t, err)
	assert.Equal(t, 50, n)
}

func TestSQLLoader(t *testing.T) {
	db := dbtest.New(t)
	_, err := db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?), (?, ?)`,
		KeyPaymentSimulation, "true", KeyPaymentSuccessRate, "85")
	require.NoError(t, err)

	c := NewCache(NewSQLLoader(db), time.Minute)
	rate, err := c.Int(context.Background(), KeyPaymentSuccessRate, 0)
	require.NoError(t, err)
	assert.Equal(t, 85, rate)

	on, err := c.Bool(context.Background(), KeyPaymentSimulation, false)
	require.NoError(t, err)
	assert.True(t, on)
}
