// Package notify fans committed bids out to the observers of a product.
//
// Delivery is best effort: every subscriber has a bounded buffer and, when it
// is full, the oldest pending event is dropped to make room. Publish never
// blocks, so a slow or vanished subscriber cannot delay a bid commit.
package notify

import (
	"sync"
	"sync/atomic"

	model "property-bidding/internal/models"
)

// DefaultBufferSize is the per-subscriber buffer used when none is configured
const DefaultBufferSize = 16

// Hub keeps the subscribers of every product
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]map[*Subscription]struct{} // key: productID
	bufferSize int
}

// NewHub creates a hub whose subscribers buffer up to bufferSize events
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subs:       make(map[string]map[*Subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscription is one observer of a product's BidAccepted events
type Subscription struct {
	productID string
	hub       *Hub

	mu      sync.Mutex
	events  chan model.BidAccepted
	closed  bool
	dropped atomic.Uint64
}

// Subscribe registers a new observer for productID. The caller must Close it.
func (h *Hub) Subscribe(productID string) *Subscription {
	sub := &Subscription{
		productID: productID,
		hub:       h,
		events:    make(chan model.BidAccepted, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[productID] == nil {
		h.subs[productID] = make(map[*Subscription]struct{})
	}
	h.subs[productID][sub] = struct{}{}
	return sub
}

// Publish delivers event to every current subscriber of its product
func (h *Hub) Publish(event model.BidAccepted) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[event.ProductID] {
		sub.deliver(event)
	}
}

// SubscriberCount returns the number of open subscriptions for productID
func (h *Hub) SubscriberCount(productID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[productID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[sub.productID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subs, sub.productID)
	}
}

// Events returns the channel of delivered events. It is closed by Close.
func (s *Subscription) Events() <-chan model.BidAccepted {
	return s.events
}

// ProductID returns the product this subscription observes
func (s *Subscription) ProductID() string {
	return s.productID
}

// Dropped returns how many events were discarded because the buffer was full
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscription and closes its channel. It is safe to
// call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

func (s *Subscription) deliver(event model.BidAccepted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for {
		select {
		case s.events <- event:
			return
		default:
		}

		// full: drop the oldest pending event and retry
		select {
		case <-s.events:
			s.dropped.Add(1)
		default:
		}
	}
}
