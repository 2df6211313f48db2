package messaging

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypePlanChanged, "planner-a", &PlanChanged{
		Action:   "created",
		Entity:   "room",
		EntityID: "room-1",
		Slot:     "electric-planner-storage",
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Version != Version {
		t.Errorf("version = %d, want %d", env.Version, Version)
	}
	if env.ID == "" {
		t.Error("ID should not be empty")
	}
	if ttl := env.ExpiresAt.Sub(env.Timestamp); ttl != DefaultTTLFor(TypePlanChanged) {
		t.Errorf("ttl = %v, want %v", ttl, DefaultTTLFor(TypePlanChanged))
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded Envelope
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Type != TypePlanChanged || decoded.Src != "planner-a" || decoded.ID != env.ID {
		t.Errorf("decoded = %+v", decoded)
	}

	var p PlanChanged
	if err := decoded.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.EntityID != "room-1" || p.Entity != "room" {
		t.Errorf("payload = %+v", p)
	}
}

func TestDefaultTTLFallback(t *testing.T) {
	if got := DefaultTTLFor("plan.unknown"); got != FallbackTTL {
		t.Errorf("DefaultTTLFor(unknown) = %v, want %v", got, FallbackTTL)
	}
}

func TestHeaderIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"zero never expires", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tc := range cases {
		h := Header{ExpiresAt: tc.exp}
		if got := h.IsExpired(now); got != tc.want {
			t.Errorf("%s: IsExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}
