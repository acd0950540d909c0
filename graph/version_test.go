package graph

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBumpTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(StoreConfig{BumpDelay: 10 * time.Millisecond}, nil)
	t.Cleanup(s.Close)
	return s
}

func nodeVersion(s *Store, id string) int {
	n, ok := s.Node(id)
	if !ok {
		return -1
	}
	return n.Data.Version()
}

func TestVersion_SyncAndTrailingBump(t *testing.T) {
	s := newBumpTestStore(t)
	addRouter(t, s, "router", nil)

	_, warn := s.AddRoute("router")
	require.Nil(t, warn)
	assert.GreaterOrEqual(t, nodeVersion(s, "router"), 1, "first bump is synchronous")

	require.Eventually(t, func() bool {
		return nodeVersion(s, "router") == 2
	}, time.Second, 5*time.Millisecond, "trailing bump fires after the delay")

	// And it fires exactly once.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, nodeVersion(s, "router"))
}

func TestVersion_BurstCoalesces(t *testing.T) {
	s := newBumpTestStore(t)
	addRouter(t, s, "router", nil)

	_, warn := s.AddRoute("router")
	require.Nil(t, warn)
	_, warn = s.AddRoute("router")
	require.Nil(t, warn)

	// Two synchronous bumps, then a single coalesced trailing bump.
	require.Eventually(t, func() bool {
		return nodeVersion(s, "router") == 3
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, nodeVersion(s, "router"))
}

func TestVersion_DeferredBumpSkipsDeletedNode(t *testing.T) {
	s := newBumpTestStore(t)
	addRouter(t, s, "router", nil)

	_, warn := s.AddRoute("router")
	require.Nil(t, warn)
	require.Nil(t, s.RemoveRoute("router", "route_1"))
	warnings := s.RemoveNodes([]string{"router"})
	require.Empty(t, warnings)

	// The pending trailing bump finds no node and drops silently.
	time.Sleep(50 * time.Millisecond)
	_, ok := s.Node("router")
	assert.False(t, ok)
}

func TestVersion_EmitsHandlesChangedEvents(t *testing.T) {
	s := newBumpTestStore(t)
	addRouter(t, s, "router", nil)

	var mu sync.Mutex
	var got []Event
	s.SetListener(func(ev Event) {
		if ev.Type != EventHandlesChanged {
			return
		}
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	_, warn := s.AddRoute("router")
	require.Nil(t, warn)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, 2, got[1].Version)
	assert.Equal(t, "router", got[0].NodeID)
}

func TestVersion_MonotonicAcrossMutations(t *testing.T) {
	s := newBumpTestStore(t)
	addRouter(t, s, "router", nil)

	last := 0
	for i := 0; i < 5; i++ {
		name, warn := s.AddRoute("router")
		require.Nil(t, warn)
		v := nodeVersion(s, "router")
		assert.Greater(t, v, last)
		last = v
		require.Nil(t, s.RemoveRoute("router", name))
		v = nodeVersion(s, "router")
		assert.Greater(t, v, last)
		last = v
	}
}
