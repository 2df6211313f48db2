package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/share"
)

var (
	ErrExpired     = errors.New("message expired")
	ErrUnknownType = errors.New("unknown message type")
)

// Importer replaces the working plan.
type Importer interface {
	Import(snap plan.Snapshot) error
}

// Ingestor decodes inbound command messages and applies them. Messages are
// decoded in two phases: the header first, for expiry and loop checks, then
// the full envelope.
type Ingestor struct {
	importer Importer
	source   string
	log      *zap.Logger
	now      func() time.Time
}

// NewIngestor returns an ingestor that ignores messages published by source.
func NewIngestor(importer Importer, source string, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{
		importer: importer,
		source:   source,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleRaw is the subscription callback.
func (ing *Ingestor) HandleRaw(data []byte) {
	if err := ing.Handle(data); err != nil {
		ing.log.Warn("inbound message dropped", zap.Error(err))
	}
}

// Handle applies one raw message. Messages from the ingestor's own source
// are ignored without error.
func (ing *Ingestor) Handle(data []byte) error {
	var hdr Header
	if err := json.Unmarshal(data, &hdr); err != nil {
		return fmt.Errorf("decode header: %w", err)
	}
	if hdr.IsExpired(ing.now()) {
		return fmt.Errorf("%s %s: %w", hdr.Type, hdr.ID, ErrExpired)
	}
	if ing.source != "" && hdr.Src == ing.source {
		return nil
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Type {
	case TypePlanImport:
		var p PlanImport
		if err := env.DecodePayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", env.Type, err)
		}
		return ing.handleImport(&env, &p)
	case TypePlanChanged, TypePlanShared:
		// Notifications from other planners; nothing to apply.
		return nil
	default:
		return fmt.Errorf("%s: %w", env.Type, ErrUnknownType)
	}
}

func (ing *Ingestor) handleImport(env *Envelope, p *PlanImport) error {
	var (
		snap plan.Snapshot
		err  error
	)
	switch {
	case p.Fragment != "":
		snap, err = share.DecodeFragment(p.Fragment)
	case len(p.Snapshot) > 0:
		snap, err = plan.Decode(p.Snapshot)
	default:
		return fmt.Errorf("%s %s: empty payload: %w", env.Type, env.ID, plan.ErrInvalidSnapshot)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", env.Type, env.ID, err)
	}
	if err := ing.importer.Import(snap); err != nil {
		return fmt.Errorf("%s %s: %w", env.Type, env.ID, err)
	}
	ing.log.Info("plan imported from message",
		zap.String("id", env.ID),
		zap.String("src", env.Src),
		zap.Int("rooms", len(snap.Rooms)))
	return nil
}
