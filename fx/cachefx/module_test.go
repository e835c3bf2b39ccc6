package cachefx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/IvanBrykalov/evictcache/cache"
)

func TestModule_ProvidesCache(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var c cache.Cache[string, int]
	app := fxtest.New(t,
		fx.Supply(zap.New(core)),
		Module("sessions", cache.Options[string, int]{Capacity: 4, Engine: cache.EngineLFU}, 0),
		fx.Populate(&c),
	)
	app.RequireStart()

	require.NotNil(t, c)
	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	app.RequireStop()
	require.Zero(t, c.Len(), "stop clears the cache")

	stopped := logs.FilterMessage("cache stopped").All()
	require.Len(t, stopped, 1)
	require.Equal(t, "sessions", stopped[0].LoggerName)
	require.EqualValues(t, 1, stopped[0].ContextMap()["hits"])
}

func TestModule_RunsSweeper(t *testing.T) {
	var c cache.Cache[string, int]
	app := fxtest.New(t,
		Module("ttl", cache.Options[string, int]{Capacity: 8}, time.Millisecond),
		fx.Populate(&c),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NoError(t, c.PutWithTTL("a", 1, time.Millisecond))
	c.Put("b", 2)
	require.Eventually(t, func() bool { return c.Len() == 1 }, 2*time.Second, time.Millisecond)
}

func TestModule_RejectsBadOptions(t *testing.T) {
	var c cache.Cache[string, int]
	app := fx.New(
		fx.NopLogger,
		Module("broken", cache.Options[string, int]{}, 0),
		fx.Populate(&c),
	)
	require.Error(t, app.Err())
	require.ErrorContains(t, app.Err(), "capacity must be")
}
