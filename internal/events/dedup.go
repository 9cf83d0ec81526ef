package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/dhima/feishu-notifier/pkg/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

const deliveryDedupSize = 2048

// DeliveryDedup remembers recent webhook delivery IDs so redeliveries are not dispatched twice.
type DeliveryDedup struct {
	mu    sync.Mutex
	seen  *lru.Cache[string, time.Time]
	ttl   time.Duration
	clock clock.Clock
}

// NewDeliveryDedup creates a dedup window of ttl. A non-positive ttl disables deduplication.
func NewDeliveryDedup(ttl time.Duration, clk clock.Clock) (*DeliveryDedup, error) {
	seen, err := lru.New[string, time.Time](deliveryDedupSize)
	if err != nil {
		return nil, fmt.Errorf("delivery dedup init: %w", err)
	}
	return &DeliveryDedup{seen: seen, ttl: ttl, clock: clk}, nil
}

// Seen records id and reports whether it was already recorded inside the window.
// Empty IDs are never duplicates.
func (d *DeliveryDedup) Seen(id string) bool {
	if id == "" || d.ttl <= 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if ts, ok := d.seen.Get(id); ok {
		if now.Sub(ts) <= d.ttl {
			return true
		}
		d.seen.Remove(id)
	}
	d.seen.Add(id, now)
	return false
}

// Forget drops id so a redelivery is dispatched again.
func (d *DeliveryDedup) Forget(id string) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen.Remove(id)
}
