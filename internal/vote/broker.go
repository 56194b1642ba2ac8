package vote

import (
	"sync"

	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
)

const subscriptionBuffer = 32

// Broker fans resolution events out to per-venue subscribers
type Broker struct {
	log  logger.Logger
	mu   sync.RWMutex
	seq  int
	subs map[string]map[int]*Subscription
}

// Subscription receives the resolution events of one venue until closed
type Subscription struct {
	C <-chan models.ResolutionEvent

	broker  *Broker
	venueID string
	id      int
	ch      chan models.ResolutionEvent
	once    sync.Once
}

// NewBroker creates an empty broker
func NewBroker(log logger.Logger) *Broker {
	return &Broker{
		log:  log,
		subs: make(map[string]map[int]*Subscription),
	}
}

// Subscribe registers for the resolution events of venueID
func (b *Broker) Subscribe(venueID string) *Subscription {
	ch := make(chan models.ResolutionEvent, subscriptionBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := &Subscription{C: ch, broker: b, venueID: venueID, id: b.seq, ch: ch}
	if b.subs[venueID] == nil {
		b.subs[venueID] = make(map[int]*Subscription)
	}
	b.subs[venueID][sub.id] = sub
	return sub
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		defer b.mu.Unlock()
		if venue := b.subs[s.venueID]; venue != nil {
			delete(venue, s.id)
			if len(venue) == 0 {
				delete(b.subs, s.venueID)
			}
		}
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber of its venue without blocking.
// A subscriber whose buffer is full misses the event.
func (b *Broker) Publish(ev models.ResolutionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[ev.VenueID] {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("Dropped resolution event for slow subscriber", "venue_id", ev.VenueID, "vote_id", ev.VoteID)
		}
	}
}

// Subscribers returns the number of live subscriptions for a venue
func (b *Broker) Subscribers(venueID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[venueID])
}
