package protocol

import (
	"math"
	"strings"
	"testing"
)

func TestCommandEncodeWireFormat(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"rotate", Rotate(1.5), `{"e":"rotate","data":1.5}`},
		{"rotate zero keeps data", Rotate(0), `{"e":"rotate","data":0}`},
		{"rotate negative", Rotate(-2.25), `{"e":"rotate","data":-2.25}`},
		{"rotate beyond 2pi", Rotate(10), `{"e":"rotate","data":10}`},
		{"throttle", Throttle(0.2), `{"e":"throttle","data":0.2}`},
		{"throttle negative", Throttle(-3), `{"e":"throttle","data":-3}`},
		{"fire has no data", Fire(), `{"e":"fire"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.cmd.Encode()
			if err != nil {
				t.Fatalf("Encode returned error: %v", err)
			}
			if string(b) != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, b)
			}
		})
	}
}

func TestCommandEncodeRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Rotate(v).Encode(); err == nil {
			t.Fatalf("expected error encoding rotate(%v)", v)
		}
	}
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"e":"state","data":{"x":1}}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if env.E != EventState {
		t.Fatalf("expected state event, got %q", env.E)
	}
	if string(env.Data) != `{"x":1}` {
		t.Fatalf("expected raw data to be preserved, got %s", env.Data)
	}
	if !env.HasData() {
		t.Fatalf("expected HasData to be true")
	}

	for _, payload := range []string{`not json`, `{"data":{}}`, `[1,2]`, `{"e":""}`} {
		if _, err := Decode([]byte(payload)); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestEnvelopeHasData(t *testing.T) {
	for payload, want := range map[string]bool{
		`{"e":"state"}`:             false,
		`{"e":"state","data":null}`: false,
		`{"e":"state","data":0}`:    true,
		`{"e":"state","data":[]}`:   true,
	} {
		env, err := Decode([]byte(payload))
		if err != nil {
			t.Fatalf("Decode(%s): %v", payload, err)
		}
		if env.HasData() != want {
			t.Fatalf("HasData(%s) = %v, want %v", payload, !want, want)
		}
	}
}

func TestDecodeCommand(t *testing.T) {
	c, err := DecodeCommand([]byte(`{"e":"throttle","data":0.5}`))
	if err != nil {
		t.Fatalf("DecodeCommand returned error: %v", err)
	}
	if c.E != EventThrottle || c.Data == nil || *c.Data != 0.5 {
		t.Fatalf("unexpected command %+v", c)
	}
	if _, err := DecodeCommand([]byte(`{"e":"fire"}`)); err != nil {
		t.Fatalf("fire without data should decode: %v", err)
	}

	for _, payload := range []string{`{"e":"rotate"}`, `{"e":"jump","data":1}`, `{`} {
		if _, err := DecodeCommand([]byte(payload)); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestStateMessage(t *testing.T) {
	b, err := StateMessage(map[string]int{"x": 1})
	if err != nil {
		t.Fatalf("StateMessage returned error: %v", err)
	}
	if got := string(b); got != `{"e":"state","data":{"x":1}}` {
		t.Fatalf("unexpected state message %s", got)
	}
	if _, err := StateMessage(math.NaN()); err == nil || !strings.Contains(err.Error(), "unsupported value") {
		t.Fatalf("expected marshal error for NaN, got %v", err)
	}
}
