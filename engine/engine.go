// Package engine is the planner's application root. It owns the entity
// store and connects its change feed to persistence, the audit log, share
// links and the message bus.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/config"
	"github.com/yonbergman/electric-planner/mapview"
	"github.com/yonbergman/electric-planner/messaging"
	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/share"
	"github.com/yonbergman/electric-planner/state"
	"github.com/yonbergman/electric-planner/store"
	"github.com/yonbergman/electric-planner/workspace"
)

const healthInterval = 30 * time.Second

// Config holds the parameters needed to create an Engine. Workspace,
// MsgClient and HTTPClient are optional.
type Config struct {
	AppConfig  *config.Config
	DB         *store.DB
	Workspace  *workspace.Manager
	Sharer     share.Sharer
	MsgClient  *messaging.Client
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Engine struct {
	cfg       *config.Config
	db        *store.DB
	workspace *workspace.Manager
	sharer    share.Sharer
	msgClient *messaging.Client
	store     *state.Store
	loader    *mapview.Loader
	drainer   *messaging.OutboxDrainer
	log       *zap.Logger

	Events *EventBus

	saveMu       sync.Mutex
	msgConnected bool
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// New creates an Engine with an empty store. Call Start to restore the
// workspace and wire subsystems.
func New(c Config) *Engine {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		cfg:       c.AppConfig,
		db:        c.DB,
		workspace: c.Workspace,
		sharer:    c.Sharer,
		msgClient: c.MsgClient,
		log:       log,
		Events:    NewEventBus(),
		stopChan:  make(chan struct{}),
	}
	e.store = state.New(&storeEmitter{bus: e.Events})
	e.loader = mapview.NewLoader(e.store, c.HTTPClient, c.AppConfig.Workspace.MaxUploadBytes,
		c.AppConfig.Workspace.ImageHosts, log.Named("loader"))
	return e
}

// Start restores the saved plan, wires event handlers and starts the outbox
// drainer and command subscription when messaging is configured.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.restore(ctx); err != nil {
		return err
	}

	e.wireEventHandlers()

	if e.messagingEnabled() {
		e.drainer = messaging.NewOutboxDrainer(e.db, e.msgClient, e.cfg.Messaging.OutboxDrainInterval, e.log.Named("outbox"))
		e.drainer.Start()

		ing := messaging.NewIngestor(e.store, e.cfg.Messaging.Source, e.log.Named("ingestor"))
		if err := e.msgClient.Subscribe(e.cfg.Messaging.CommandsTopic, ing.HandleRaw); err != nil {
			e.log.Warn("subscribe to commands", zap.String("topic", e.cfg.Messaging.CommandsTopic), zap.Error(err))
		}

		e.checkConnectionStatus()
		e.wg.Add(1)
		go e.connectionHealthLoop()
	}

	snap := e.store.Export()
	e.log.Info("engine started",
		zap.Int("rooms", len(snap.Rooms)),
		zap.Int("floor_plans", len(snap.FloorPlans)),
		zap.Bool("messaging", e.messagingEnabled()))
	return nil
}

// Stop shuts down background work. It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	if e.drainer != nil {
		e.drainer.Stop()
	}
	e.loader.Wait()
	e.wg.Wait()
	e.log.Info("engine stopped")
}

func (e *Engine) Store() *state.Store            { return e.store }
func (e *Engine) Loader() *mapview.Loader        { return e.loader }
func (e *Engine) DB() *store.DB                  { return e.db }
func (e *Engine) AppConfig() *config.Config      { return e.cfg }
func (e *Engine) Workspace() *workspace.Manager  { return e.workspace }
func (e *Engine) MsgClient() *messaging.Client   { return e.msgClient }

// Share stores snap behind a new share link.
func (e *Engine) Share(ctx context.Context, snap plan.Snapshot) (share.Link, error) {
	link, err := e.sharer.Create(ctx, snap)
	if err != nil {
		return share.Link{}, err
	}
	ttl := share.DefaultTTL
	if svc, ok := e.sharer.(*share.Service); ok {
		ttl = svc.TTL()
	}
	e.Events.Emit(Event{Type: EventPlanShared, Payload: PlanSharedEvent{
		ID: link.ID, Path: link.Path, ExpiresAt: time.Now().UTC().Add(ttl),
	}})
	return link, nil
}

// FetchShare resolves a share link without touching the working plan.
func (e *Engine) FetchShare(ctx context.Context, id string) (plan.Snapshot, error) {
	return e.sharer.Fetch(ctx, id)
}

// OpenShare replaces the working plan with the shared one.
func (e *Engine) OpenShare(ctx context.Context, id string) error {
	snap, err := e.sharer.Fetch(ctx, id)
	if err != nil {
		return err
	}
	return e.store.Import(snap)
}

func (e *Engine) messagingEnabled() bool {
	return e.msgClient != nil && e.cfg.Messaging.Enabled
}

func (e *Engine) restore(ctx context.Context) error {
	if e.workspace == nil {
		return nil
	}
	snap, ok, err := e.workspace.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore workspace: %w", err)
	}
	if !ok {
		e.log.Info("no saved plan", zap.String("slot", e.workspace.Slot()))
		return nil
	}
	if err := e.store.Restore(snap); err != nil {
		return fmt.Errorf("restore workspace: %w", err)
	}
	e.measureFloorPlans(ctx)
	e.log.Info("plan restored", zap.String("slot", e.workspace.Slot()), zap.Int("rooms", len(snap.Rooms)))
	return nil
}

// measureFloorPlans starts a size load for every floor plan without one.
func (e *Engine) measureFloorPlans(ctx context.Context) {
	for _, fp := range e.store.Export().FloorPlans {
		e.loader.Load(ctx, fp)
	}
}

// save writes the current plan to the workspace slot. Saves are serialized
// and each one exports the store afresh, so the last save always holds the
// latest state.
func (e *Engine) save() {
	if e.workspace == nil {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	changed, err := e.workspace.Save(context.Background(), e.store.Export())
	if err != nil {
		e.log.Error("autosave failed", zap.String("slot", e.workspace.Slot()), zap.Error(err))
		e.Events.Emit(Event{Type: EventSaveFailed, Payload: SaveFailedEvent{
			Slot: e.workspace.Slot(), Error: err.Error(),
		}})
		return
	}
	if changed {
		e.Events.Emit(Event{Type: EventPlanSaved, Payload: PlanSavedEvent{Slot: e.workspace.Slot()}})
	}
}

func (e *Engine) checkConnectionStatus() {
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else if e.msgConnected {
		e.msgConnected = false
		e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
	}
}

func (e *Engine) connectionHealthLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}
