package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
	"github.com/yonbergman/electric-planner/slots"
)

var (
	// ErrNotFound means the link never existed or has expired.
	ErrNotFound = errors.New("share link expired or not found")
	// ErrIDTaken is returned by a Backend when the id is already in use.
	ErrIDTaken = errors.New("share id already in use")
)

// DefaultTTL is how long a share link stays valid.
const DefaultTTL = 30 * 24 * time.Hour

const createAttempts = 3

// Link locates a stored share.
type Link struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

func LinkFor(id string) Link {
	return Link{ID: id, Path: "/s/" + id}
}

// Sharer creates and resolves share links.
type Sharer interface {
	Create(ctx context.Context, s plan.Snapshot) (Link, error)
	Fetch(ctx context.Context, id string) (plan.Snapshot, error)
}

// Backend is the key/value store behind share links. Get returns ErrNotFound
// for unknown or expired ids.
type Backend interface {
	Put(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Get(ctx context.Context, id string) ([]byte, error)
}

// Service stores snapshots in a Backend under generated ids. Fetched
// snapshots are kept in a short-lived read cache.
type Service struct {
	backend Backend
	ttl     time.Duration
	cache   *cache.Cache
	newID   func() string
	log     *zap.Logger
}

// NewService returns a Service. A cacheTTL of zero disables the read cache.
func NewService(backend Backend, ttl, cacheTTL time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{backend: backend, ttl: ttl, newID: NewID, log: log}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Create stores snap behind a new link. Snapshots that could not be imported
// are refused with an error wrapping plan.ErrInvalidSnapshot.
func (s *Service) Create(ctx context.Context, snap plan.Snapshot) (Link, error) {
	if err := checkSnapshot(snap); err != nil {
		return Link{}, err
	}
	data, err := snap.Encode()
	if err != nil {
		return Link{}, fmt.Errorf("encode snapshot: %w", err)
	}
	for attempt := 0; attempt < createAttempts; attempt++ {
		id := s.newID()
		err = s.backend.Put(ctx, id, data, s.ttl)
		if errors.Is(err, ErrIDTaken) {
			s.log.Warn("share id collision", zap.String("id", id))
			continue
		}
		if err != nil {
			return Link{}, fmt.Errorf("store share: %w", err)
		}
		s.log.Info("share created", zap.String("id", id), zap.Int("bytes", len(data)))
		return LinkFor(id), nil
	}
	return Link{}, fmt.Errorf("store share: %w", err)
}

// Fetch returns ErrNotFound for unknown or expired ids and an error wrapping
// plan.ErrInvalidSnapshot when the stored record is not a usable plan.
func (s *Service) Fetch(ctx context.Context, id string) (plan.Snapshot, error) {
	if !ValidID(id) {
		return plan.Snapshot{}, ErrNotFound
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(id); ok {
			return v.(plan.Snapshot).Clone(), nil
		}
	}
	data, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return plan.Snapshot{}, ErrNotFound
		}
		return plan.Snapshot{}, fmt.Errorf("load share %s: %w", id, err)
	}
	snap, err := plan.Decode(data)
	if err == nil {
		err = slots.CheckSnapshot(snap)
	}
	if err != nil {
		return plan.Snapshot{}, fmt.Errorf("share %s: %w", id, err)
	}
	if s.cache != nil {
		s.cache.SetDefault(id, snap.Clone())
	}
	return snap, nil
}

func checkSnapshot(snap plan.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return slots.CheckSnapshot(snap)
}
