package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Version is the envelope format version.
const Version = 1

// Message types.
const (
	TypePlanChanged = "plan.changed"
	TypePlanShared  = "plan.shared"
	TypePlanImport  = "plan.import"
)

var defaultTTLs = map[string]time.Duration{
	TypePlanChanged: 10 * time.Minute,
	TypePlanShared:  60 * time.Minute,
	TypePlanImport:  5 * time.Minute,
}

// FallbackTTL applies to types without a configured TTL.
const FallbackTTL = 10 * time.Minute

// DefaultTTLFor returns the default TTL for a message type.
func DefaultTTLFor(msgType string) time.Duration {
	if ttl, ok := defaultTTLs[msgType]; ok {
		return ttl
	}
	return FallbackTTL
}

// Envelope wraps every message the planner publishes or consumes.
type Envelope struct {
	Version   int             `json:"v"`
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Src       string          `json:"src"`
	Timestamp time.Time       `json:"ts"`
	ExpiresAt time.Time       `json:"exp"`
	CorID     string          `json:"cor,omitempty"`
	Payload   json.RawMessage `json:"p"`
}

// Header is the part of an envelope needed to route it.
type Header struct {
	Version   int       `json:"v"`
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Src       string    `json:"src"`
	ExpiresAt time.Time `json:"exp"`
}

// PlanChanged reports one committed store change.
type PlanChanged struct {
	Action   string `json:"action"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id,omitempty"`
	Slot     string `json:"slot"`
}

// PlanShared reports a newly created share link.
type PlanShared struct {
	ShareID   string    `json:"share_id"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlanImport replaces the working plan. Exactly one of Snapshot or Fragment
// is set; Fragment is the compressed form carried in share URLs.
type PlanImport struct {
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	Fragment string          `json:"fragment,omitempty"`
}

// NewEnvelope builds an outbound envelope with the default TTL for msgType.
func NewEnvelope(msgType, src string, payload any) (*Envelope, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	now := time.Now().UTC()
	return &Envelope{
		Version:   Version,
		Type:      msgType,
		ID:        uuid.New().String(),
		Src:       src,
		Timestamp: now,
		ExpiresAt: now.Add(DefaultTTLFor(msgType)),
		Payload:   p,
	}, nil
}

func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Envelope) DecodePayload(target any) error {
	return json.Unmarshal(e.Payload, target)
}

// IsExpired reports whether h is past its expiry at now. A zero expiry never
// expires.
func (h *Header) IsExpired(now time.Time) bool {
	if h.ExpiresAt.IsZero() {
		return false
	}
	return now.After(h.ExpiresAt)
}
