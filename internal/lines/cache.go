// Package lines manages claimed GPIO lines: a process-wide handle cache
// and the dispatcher that runs read/write commands through it.
package lines

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sweeney/http-gpio/internal/gpio"
	"github.com/sweeney/http-gpio/internal/logic"
)

// Entry describes a cached handle.
type Entry struct {
	Key       logic.Key
	ClaimedAt time.Time
}

// Stats counts cache activity since creation.
type Stats struct {
	Claims int // successful claims (misses)
	Hits   int
	Failed int // failed claim attempts
}

type cached struct {
	handle    gpio.Handle
	claimedAt time.Time
}

// Cache maps a Key to the handle claimed for it. Each key is claimed at
// most once; the handle is reused until Close.
//
// A single mutex covers lookup, claim and insert, so concurrent resolves
// of one key cannot both reach the host. The lock is coarse: a slow claim
// stalls resolves for every key.
type Cache struct {
	opener   gpio.Opener
	consumer string
	now      func() time.Time

	mu      sync.Mutex
	handles map[logic.Key]cached
	stats   Stats
}

// NewCache creates an empty cache claiming lines through opener with the
// given consumer label.
func NewCache(opener gpio.Opener, consumer string) *Cache {
	if consumer == "" {
		consumer = gpio.DefaultConsumer
	}
	return &Cache{
		opener:   opener,
		consumer: consumer,
		now:      time.Now,
		handles:  make(map[logic.Key]cached),
	}
}

// Resolve returns the handle for key, claiming the line on first use.
// A failed claim leaves the cache unchanged.
func (c *Cache) Resolve(key logic.Key) (gpio.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.handles[key]; ok {
		c.stats.Hits++
		return e.handle, nil
	}

	h, err := c.claim(key)
	if err != nil {
		c.stats.Failed++
		return nil, err
	}
	c.handles[key] = cached{handle: h, claimedAt: c.now()}
	c.stats.Claims++
	return h, nil
}

// claim opens the chip, requests the line and closes the chip again.
// Must be called with c.mu held.
func (c *Cache) claim(key logic.Key) (gpio.Handle, error) {
	if key.Pin < 0 {
		return nil, logic.NewError(logic.KindDevice, key, fmt.Errorf("invalid pin %d", key.Pin))
	}

	chip, err := c.opener.Open(key.Chip)
	if err != nil {
		return nil, logic.NewError(logic.KindDevice, key, err)
	}
	defer chip.Close()

	line, err := chip.Line(key.Pin)
	if err != nil {
		return nil, logic.NewError(logic.KindDevice, key, err)
	}

	h, err := line.Request(key.Direction, 0, c.consumer)
	if err != nil {
		return nil, logic.NewError(logic.KindClaim, key, err)
	}
	return h, nil
}

// Len returns the number of cached handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Entries returns the cached keys ordered by chip, pin and direction.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.handles))
	for k, e := range c.handles {
		out = append(out, Entry{Key: k, ClaimedAt: e.claimedAt})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// Stats returns a copy of the activity counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close releases every cached handle and empties the cache.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for k, e := range c.handles {
		if err := e.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", k, err))
		}
		delete(c.handles, k)
	}
	return errors.Join(errs...)
}
