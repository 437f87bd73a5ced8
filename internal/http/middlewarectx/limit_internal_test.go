package middlewarectx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiters_EvictsIdle(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newIPLimiters(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	first := l.get("10.0.0.1")
	l.get("10.0.0.2")
	assert.Equal(t, 2, l.size())

	// Второй адрес продолжает обращаться, первый простаивает.
	now = now.Add(30 * time.Second)
	l.get("10.0.0.2")

	now = now.Add(40 * time.Second)
	l.get("10.0.0.2")
	assert.Equal(t, 1, l.size())

	// Вернувшийся адрес получает новый лимитер.
	assert.NotSame(t, first, l.get("10.0.0.1"))
	assert.Equal(t, 2, l.size())
}

func TestIPLimiters_KeepsStateWithinTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newIPLimiters(0.0001, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	assert.True(t, l.get("10.0.0.1").AllowN(now, 1))
	now = now.Add(59 * time.Second)
	assert.False(t, l.get("10.0.0.1").AllowN(now, 1))
}
