package logic

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCommandRead(t *testing.T) {
	for _, body := range []string{`"In"`, ` "In" `, `{"In":null}`, `{"In":{}}`} {
		cmd, err := ParseCommand([]byte(body))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", body, err)
			continue
		}
		if cmd != Read() {
			t.Errorf("%s: got %v, want In", body, cmd)
		}
		if cmd.Direction() != Input {
			t.Errorf("%s: direction got %q, want input", body, cmd.Direction())
		}
	}
}

func TestParseCommandWrite(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"Out":{"value":true}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != Write(true) {
		t.Errorf("got %v, want Out{value: true}", cmd)
	}
	if cmd.Direction() != Output {
		t.Errorf("direction got %q, want output", cmd.Direction())
	}

	cmd, err = ParseCommand([]byte(`{"Out":{"value":false}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd != Write(false) {
		t.Errorf("got %v, want Out{value: false}", cmd)
	}
}

func TestParseCommandRejects(t *testing.T) {
	bodies := []string{
		``,
		`   `,
		`{"In"}`,
		`"Out"`,
		`"Toggle"`,
		`{}`,
		`{"Out":{}}`,
		`{"Out":{"value":1}}`,
		`{"Out":true}`,
		`{"In":{"value":true}}`,
		`{"In":null,"Out":{"value":true}}`,
		`{"Blink":null}`,
		`[1,2]`,
		`42`,
	}
	for _, body := range bodies {
		_, err := ParseCommand([]byte(body))
		if err == nil {
			t.Errorf("%q: expected error", body)
			continue
		}
		if KindOf(err) != KindRequest {
			t.Errorf("%q: kind got %v, want RequestError", body, KindOf(err))
		}
	}
}

func TestCommandMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Read())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"In"` {
		t.Errorf("Read: got %s, want \"In\"", data)
	}

	data, err = json.Marshal(Write(true))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"Out":{"value":true}}` {
		t.Errorf("Write: got %s", data)
	}
}

func TestKeyFor(t *testing.T) {
	k := KeyFor("gpiochip0", 17, Write(true))
	want := Key{Chip: "gpiochip0", Pin: 17, Direction: Output}
	if k != want {
		t.Errorf("got %+v, want %+v", k, want)
	}
	if k == KeyFor("gpiochip0", 17, Read()) {
		t.Error("read and write keys for the same pin must differ")
	}
	if k.String() != "gpiochip0/17/output" {
		t.Errorf("String: got %q", k.String())
	}
}

func TestBoolToValue(t *testing.T) {
	if BoolToValue(true) != 1 || BoolToValue(false) != 0 {
		t.Error("expected true=1, false=0")
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("no such file or directory")
	key := Key{Chip: "gpiochip9", Pin: 1, Direction: Input}
	err := NewError(KindDevice, key, base)

	if err.Error() != base.Error() {
		t.Errorf("message: got %q, want %q", err.Error(), base.Error())
	}
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
	if KindOf(err) != KindDevice {
		t.Errorf("kind: got %v, want DeviceError", KindOf(err))
	}
	if KindOf(base) != KindUnknown {
		t.Errorf("plain error kind: got %v, want UnknownError", KindOf(base))
	}
	if NewError(KindIO, key, nil) != nil {
		t.Error("expected nil for nil cause")
	}
}

func TestKindString(t *testing.T) {
	want := map[Kind]string{
		KindDevice:  "DeviceError",
		KindClaim:   "ClaimError",
		KindIO:      "IoError",
		KindRequest: "RequestError",
		KindUnknown: "UnknownError",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("%d: got %q, want %q", k, k.String(), s)
		}
	}
}
