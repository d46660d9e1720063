package gpio

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sweeney/http-gpio/internal/logic"
)

// Errors returned by the fake, shaped like their host counterparts.
var (
	ErrNoDevice   = errors.New("no such file or directory")
	ErrBadOffset  = errors.New("invalid offset")
	ErrBusy       = errors.New("device or resource busy")
	ErrFakeClosed = errors.New("already closed")
)

// Claim records a successful line request on the fake.
type Claim struct {
	Chip      string
	Offset    int
	Direction logic.Direction
	Initial   int
	Consumer  string
}

// FakeOpener is a test double for a set of GPIO chips. It records claims
// and value writes, and rejects a request for a line that is already
// claimed (in either direction) until the holder closes it, as the kernel does.
// Safe for concurrent use.
type FakeOpener struct {
	mu sync.Mutex

	// Chips maps chip name to number of lines.
	Chips map[string]int

	// Claims contains every successful request, in order.
	Claims []Claim

	// Sets contains every SetValue call, in order.
	Sets []int

	// Opens counts Open calls.
	Opens int

	// OpenError, RequestError, ValueError and SetError, if set,
	// are returned by the corresponding operation.
	OpenError    error
	RequestError error
	ValueError   error
	SetError     error

	// levels holds the current level of each line.
	levels map[lineID]int
	// held maps a claimed line to its handle.
	held map[lineID]*FakeHandle
}

type lineID struct {
	chip   string
	offset int
}

// NewFakeOpener creates a FakeOpener exposing the given chips.
func NewFakeOpener(chips map[string]int) *FakeOpener {
	return &FakeOpener{
		Chips:  chips,
		levels: make(map[lineID]int),
		held:   make(map[lineID]*FakeHandle),
	}
}

// Open returns the named chip. Names may carry a /dev/ prefix.
func (f *FakeOpener) Open(name string) (Chip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Opens++
	if f.OpenError != nil {
		return nil, f.OpenError
	}
	short := strings.TrimPrefix(name, "/dev/")
	n, ok := f.Chips[short]
	if !ok {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, ErrNoDevice)
	}
	return &fakeChip{opener: f, name: short, lines: n}, nil
}

// SetLevel sets the level an input line reports, as if driven externally.
func (f *FakeOpener) SetLevel(chip string, offset, value int) {
	f.mu.Lock()
	f.levels[lineID{chip, offset}] = value
	f.mu.Unlock()
}

// Level returns the current level of a line.
func (f *FakeOpener) Level(chip string, offset int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[lineID{chip, offset}]
}

// ClaimCount returns the number of successful requests so far.
func (f *FakeOpener) ClaimCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Claims)
}

// ClaimsFor returns the claims recorded for chip/offset/dir.
func (f *FakeOpener) ClaimsFor(chip string, offset int, dir logic.Direction) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Claims {
		if c.Chip == chip && c.Offset == offset && c.Direction == dir {
			n++
		}
	}
	return n
}

// SetCalls returns a copy of the recorded SetValue arguments.
func (f *FakeOpener) SetCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.Sets...)
}

type fakeChip struct {
	opener *FakeOpener
	name   string
	lines  int
}

func (c *fakeChip) Line(offset int) (Line, error) {
	if offset < 0 || offset >= c.lines {
		return nil, fmt.Errorf("line %d on %s (%d lines): %w", offset, c.name, c.lines, ErrBadOffset)
	}
	return &fakeLine{opener: c.opener, id: lineID{c.name, offset}}, nil
}

func (c *fakeChip) Close() error {
	return nil
}

type fakeLine struct {
	opener *FakeOpener
	id     lineID
}

func (l *fakeLine) Request(dir logic.Direction, initial int, consumer string) (Handle, error) {
	f := l.opener
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RequestError != nil {
		return nil, f.RequestError
	}
	if h, ok := f.held[l.id]; ok {
		return nil, fmt.Errorf("request %s line %d as %s (held as %s): %w", l.id.chip, l.id.offset, dir, h.dir, ErrBusy)
	}
	h := &FakeHandle{opener: f, id: l.id, dir: dir}
	f.held[l.id] = h
	if dir == logic.Output {
		f.levels[l.id] = initial
	}
	f.Claims = append(f.Claims, Claim{
		Chip:      l.id.chip,
		Offset:    l.id.offset,
		Direction: dir,
		Initial:   initial,
		Consumer:  consumer,
	})
	return h, nil
}

// FakeHandle is a line claimed from a FakeOpener.
type FakeHandle struct {
	opener *FakeOpener
	id     lineID
	dir    logic.Direction
	closed bool
}

// Value returns the line level.
func (h *FakeHandle) Value() (int, error) {
	f := h.opener
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.closed {
		return 0, ErrFakeClosed
	}
	if f.ValueError != nil {
		return 0, f.ValueError
	}
	return f.levels[h.id], nil
}

// SetValue drives the line. Fails on lines claimed as input.
func (h *FakeHandle) SetValue(value int) error {
	f := h.opener
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.closed {
		return ErrFakeClosed
	}
	if f.SetError != nil {
		return f.SetError
	}
	if h.dir != logic.Output {
		return errors.New("line is not an output")
	}
	f.levels[h.id] = value
	f.Sets = append(f.Sets, value)
	return nil
}

// Close releases the claim.
func (h *FakeHandle) Close() error {
	f := h.opener
	f.mu.Lock()
	defer f.mu.Unlock()
	if h.closed {
		return ErrFakeClosed
	}
	h.closed = true
	delete(f.held, h.id)
	return nil
}

// Closed reports whether the handle has been released.
func (h *FakeHandle) Closed() bool {
	h.opener.mu.Lock()
	defer h.opener.mu.Unlock()
	return h.closed
}
