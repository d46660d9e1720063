package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/http-gpio/internal/logic"
)

func newTestOpener() *FakeOpener {
	return NewFakeOpener(map[string]int{"gpiochip0": 54})
}

func claim(t *testing.T, f *FakeOpener, chip string, offset int, dir logic.Direction) Handle {
	t.Helper()
	c, err := f.Open(chip)
	if err != nil {
		t.Fatalf("open %s: %v", chip, err)
	}
	defer c.Close()
	l, err := c.Line(offset)
	if err != nil {
		t.Fatalf("line %d: %v", offset, err)
	}
	h, err := l.Request(dir, 0, DefaultConsumer)
	if err != nil {
		t.Fatalf("request %d: %v", offset, err)
	}
	return h
}

func TestFakeOpenerUnknownChip(t *testing.T) {
	f := newTestOpener()

	_, err := f.Open("/dev/doesnotexist")
	if err == nil {
		t.Fatal("expected error for unknown chip")
	}
	if !errors.Is(err, ErrNoDevice) {
		t.Errorf("unexpected error: %v", err)
	}
	if f.Opens != 1 {
		t.Errorf("Opens: got %d, want 1", f.Opens)
	}
}

func TestFakeOpenerDevPrefix(t *testing.T) {
	f := newTestOpener()

	if _, err := f.Open("/dev/gpiochip0"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeChipOffsetRange(t *testing.T) {
	f := newTestOpener()
	c, _ := f.Open("gpiochip0")

	for _, off := range []int{-1, 54, 100} {
		if _, err := c.Line(off); !errors.Is(err, ErrBadOffset) {
			t.Errorf("offset %d: expected ErrBadOffset, got %v", off, err)
		}
	}
	if _, err := c.Line(53); err != nil {
		t.Errorf("offset 53: unexpected error: %v", err)
	}
}

func TestFakeRequestRecordsClaim(t *testing.T) {
	f := newTestOpener()

	claim(t, f, "gpiochip0", 17, logic.Output)

	if f.ClaimCount() != 1 {
		t.Fatalf("expected 1 claim, got %d", f.ClaimCount())
	}
	got := f.Claims[0]
	want := Claim{Chip: "gpiochip0", Offset: 17, Direction: logic.Output, Initial: 0, Consumer: "http-gpio"}
	if got != want {
		t.Errorf("claim: got %+v, want %+v", got, want)
	}
}

func TestFakeRequestBusy(t *testing.T) {
	f := newTestOpener()
	h := claim(t, f, "gpiochip0", 17, logic.Output)

	c, _ := f.Open("gpiochip0")
	l, _ := c.Line(17)

	// Same line, other direction: rejected while held.
	if _, err := l.Request(logic.Input, 0, DefaultConsumer); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	// Same line, same direction: also rejected.
	if _, err := l.Request(logic.Output, 0, DefaultConsumer); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := l.Request(logic.Input, 0, DefaultConsumer); err != nil {
		t.Errorf("request after release: %v", err)
	}
}

func TestFakeHandleSetAndValue(t *testing.T) {
	f := newTestOpener()
	h := claim(t, f, "gpiochip0", 17, logic.Output)

	if err := h.SetValue(1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if f.Level("gpiochip0", 17) != 1 {
		t.Error("expected line asserted")
	}
	v, err := h.Value()
	if err != nil || v != 1 {
		t.Errorf("value: got (%d, %v), want (1, nil)", v, err)
	}
	if err := h.SetValue(0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if f.Level("gpiochip0", 17) != 0 {
		t.Error("expected line de-asserted")
	}
	if got := f.SetCalls(); len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("sets: got %v, want [1 0]", got)
	}
}

func TestFakeInputRejectsSet(t *testing.T) {
	f := newTestOpener()
	f.SetLevel("gpiochip0", 4, 1)
	h := claim(t, f, "gpiochip0", 4, logic.Input)

	v, err := h.Value()
	if err != nil || v != 1 {
		t.Errorf("value: got (%d, %v), want (1, nil)", v, err)
	}
	if err := h.SetValue(0); err == nil {
		t.Error("expected error setting an input")
	}
}

func TestFakeHandleErrors(t *testing.T) {
	f := newTestOpener()
	h := claim(t, f, "gpiochip0", 17, logic.Output)

	f.SetError = errors.New("simulated set error")
	if err := h.SetValue(1); err == nil || err.Error() != "simulated set error" {
		t.Errorf("unexpected error: %v", err)
	}
	f.ValueError = errors.New("simulated read error")
	if _, err := h.Value(); err == nil || err.Error() != "simulated read error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeHandleClose(t *testing.T) {
	f := newTestOpener()
	h := claim(t, f, "gpiochip0", 17, logic.Output).(*FakeHandle)

	if h.Closed() {
		t.Error("should not be closed initially")
	}
	if err := h.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !h.Closed() {
		t.Error("should be closed after Close()")
	}
	if err := h.Close(); !errors.Is(err, ErrFakeClosed) {
		t.Errorf("second close: expected ErrFakeClosed, got %v", err)
	}
	if _, err := h.Value(); !errors.Is(err, ErrFakeClosed) {
		t.Errorf("value after close: expected ErrFakeClosed, got %v", err)
	}
}
