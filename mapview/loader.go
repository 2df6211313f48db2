package mapview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yonbergman/electric-planner/plan"
)

// ErrHostNotAllowed is returned for remote floor-plan images on hosts that
// are not in the loader's allowlist.
var ErrHostNotAllowed = errors.New("image host not allowed")

// SizeSetter records the measured size of a floor plan.
type SizeSetter interface {
	SetFloorPlanSize(id string, width, height int) error
}

// Loader measures floor-plan images whose size is not stored, such as those
// from imported snapshots, and writes the result back. Each floor plan has a
// generation counter; a result is dropped if the floor plan was forgotten or
// reloaded while it was in flight.
//
// Data URLs are decoded in place. Remote images are fetched only from hosts
// in the allowlist, redirects included; with an empty allowlist the loader
// never makes a request.
type Loader struct {
	sizes    SizeSetter
	client   *http.Client
	hosts    map[string]bool
	log      *zap.Logger
	maxBytes int64

	mu   sync.Mutex
	gens map[string]uint64
	wg   sync.WaitGroup
}

// NewLoader returns a loader. Entries in imageHosts are matched against the
// URL host, with or without its port.
func NewLoader(sizes SizeSetter, client *http.Client, maxBytes int64, imageHosts []string, log *zap.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{
		sizes:    sizes,
		hosts:    make(map[string]bool, len(imageHosts)),
		log:      log,
		maxBytes: maxBytes,
		gens:     make(map[string]uint64),
	}
	for _, h := range imageHosts {
		l.hosts[strings.ToLower(h)] = true
	}
	l.client = &http.Client{
		Transport: client.Transport,
		Jar:       client.Jar,
		Timeout:   client.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !l.allowed(req.URL) {
				return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrHostNotAllowed)
			}
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
	return l
}

func (l *Loader) allowed(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return l.hosts[strings.ToLower(u.Host)] || l.hosts[strings.ToLower(u.Hostname())]
}

// Load measures fp in the background. Floor plans that already carry a size
// are skipped.
func (l *Loader) Load(ctx context.Context, fp plan.FloorPlan) {
	if fp.Width > 0 && fp.Height > 0 {
		return
	}
	l.mu.Lock()
	l.gens[fp.ID]++
	gen := l.gens[fp.ID]
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		w, h, err := l.measure(ctx, fp.ImageURL)
		if err != nil {
			l.log.Warn("measure floor plan", zap.String("floor_plan", fp.ID), zap.Error(err))
			return
		}
		if !l.current(fp.ID, gen) {
			l.log.Debug("discarding stale floor plan size", zap.String("floor_plan", fp.ID))
			return
		}
		if err := l.sizes.SetFloorPlanSize(fp.ID, w, h); err != nil {
			l.log.Warn("store floor plan size", zap.String("floor_plan", fp.ID), zap.Error(err))
		}
	}()
}

// Forget invalidates any load in flight for id.
func (l *Loader) Forget(id string) {
	l.mu.Lock()
	l.gens[id]++
	l.mu.Unlock()
}

// Wait blocks until every started load has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func (l *Loader) current(id string, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[id] == gen
}

func (l *Loader) measure(ctx context.Context, imageURL string) (int, int, error) {
	if strings.HasPrefix(imageURL, "data:") {
		_, data, err := DecodeDataURL(imageURL)
		if err != nil {
			return 0, 0, err
		}
		return ImageSize(data)
	}
	u, err := url.Parse(imageURL)
	if err != nil {
		return 0, 0, fmt.Errorf("parse image url: %w", err)
	}
	if !l.allowed(u) {
		return 0, 0, fmt.Errorf("%s: %w", u.Host, ErrHostNotAllowed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("fetch image: HTTP %d", resp.StatusCode)
	}
	var body io.Reader = resp.Body
	if l.maxBytes > 0 {
		body = io.LimitReader(body, l.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return 0, 0, fmt.Errorf("read image: %w", err)
	}
	w, h, err := ImageSize(data)
	if errors.Is(err, ErrNotImage) {
		return 0, 0, fmt.Errorf("%s: %w", imageURL, err)
	}
	return w, h, err
}
