package lines

import (
	"context"
	"time"

	"github.com/sweeney/http-gpio/internal/logic"
)

// Dispatcher runs commands against lines resolved through a Cache.
type Dispatcher struct {
	cache    *Cache
	settle   time.Duration
	observer func(logic.Event)
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSettle makes every successful write wait d before returning.
// The wait happens after the cache lock is released.
func WithSettle(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.settle = d }
}

// WithObserver registers fn to receive an Event for every completed command.
func WithObserver(fn func(logic.Event)) Option {
	return func(disp *Dispatcher) { disp.observer = fn }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(disp *Dispatcher) { disp.now = now }
}

// NewDispatcher creates a Dispatcher over cache.
func NewDispatcher(cache *Cache, opts ...Option) *Dispatcher {
	d := &Dispatcher{cache: cache, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Execute runs cmd on chip/pin. Writes return an empty Outcome; reads
// return the observed value. Hardware failures are returned as *logic.Error
// and are never retried.
func (d *Dispatcher) Execute(ctx context.Context, chip string, pin int, cmd logic.Command) (logic.Outcome, error) {
	key := logic.KeyFor(chip, pin, cmd)

	out, err := d.execute(key, cmd)
	d.notify(key, cmd, out, err)
	if err != nil {
		return logic.Outcome{}, err
	}

	if cmd.Op == logic.OpWrite && d.settle > 0 {
		t := time.NewTimer(d.settle)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return out, nil
}

func (d *Dispatcher) execute(key logic.Key, cmd logic.Command) (logic.Outcome, error) {
	h, err := d.cache.Resolve(key)
	if err != nil {
		return logic.Outcome{}, err
	}

	switch cmd.Op {
	case logic.OpWrite:
		if err := h.SetValue(logic.BoolToValue(cmd.Value)); err != nil {
			return logic.Outcome{}, logic.NewError(logic.KindIO, key, err)
		}
		return logic.Outcome{}, nil
	default:
		v, err := h.Value()
		if err != nil {
			return logic.Outcome{}, logic.NewError(logic.KindIO, key, err)
		}
		return logic.Outcome{Value: v, HasValue: true}, nil
	}
}

func (d *Dispatcher) notify(key logic.Key, cmd logic.Command, out logic.Outcome, err error) {
	if d.observer == nil {
		return
	}
	ev := logic.Event{Timestamp: d.now(), Key: key}
	switch {
	case err != nil:
		ev.Type = logic.EventFailed
		ev.Kind = logic.KindOf(err)
		ev.Error = err.Error()
	case cmd.Op == logic.OpWrite:
		ev.Type = logic.EventWrite
		ev.Value = logic.BoolToValue(cmd.Value)
	default:
		ev.Type = logic.EventRead
		ev.Value = out.Value
	}
	d.observer(ev)
}
