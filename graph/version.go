package graph

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handle versioning: a router's exit-slot count is driven by its route
// table, so a rendering surface that draws one handle per slot needs an
// explicit "the slot set changed" signal. Every slot-set mutation bumps the
// node's version counter synchronously and schedules a second bump after a
// short delay. The trailing bump is a documented workaround for a
// downstream re-layout race: the first bump can be observed before the
// consumer has finished reconciling the new slot list, and the later bump
// guarantees at least one post-reconciliation refresh. It is not a general
// scheduling primitive.

// bumpScheduler runs one-shot delayed bump tasks keyed by node id. Bursts
// on the same node coalesce: scheduling while a task is pending resets its
// timer, so the trailing bump always fires once after the last mutation of
// a burst.
type bumpScheduler struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	fire   func(nodeID string)
}

func newBumpScheduler(delay time.Duration, fire func(nodeID string)) *bumpScheduler {
	return &bumpScheduler{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

func (b *bumpScheduler) schedule(nodeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.timers[nodeID]; ok {
		t.Reset(b.delay)
		return
	}
	b.timers[nodeID] = time.AfterFunc(b.delay, func() {
		b.mu.Lock()
		delete(b.timers, nodeID)
		b.mu.Unlock()
		b.fire(nodeID)
	})
}

func (b *bumpScheduler) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}

// bumpHandleVersionLocked increments the node's version immediately and
// schedules the trailing bump. Callers hold s.mu.
func (s *Store) bumpHandleVersionLocked(n *Node) {
	next := n.Data.Version() + 1
	n.Data[FieldVersion] = next
	s.logger.Debug("handle version bumped",
		zap.String("node", n.ID), zap.Int("version", next))
	s.emit(Event{Type: EventHandlesChanged, NodeID: n.ID, Version: next})
	s.bumps.schedule(n.ID)
}

// applyDeferredBump is the trailing half of the double increment. The node
// may have been deleted or the graph replaced since the task was scheduled;
// in that case the bump is dropped.
func (s *Store) applyDeferredBump(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodeByID[nodeID]
	if !ok {
		return
	}
	next := n.Data.Version() + 1
	n.Data[FieldVersion] = next
	s.emit(Event{Type: EventHandlesChanged, NodeID: nodeID, Version: next})
}
