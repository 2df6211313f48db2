package www

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// clientLimiter applies a per-client token bucket keyed by remote IP.
type clientLimiter struct {
	limit rate.Limit
	burst int
	log   *zap.Logger

	mu      sync.Mutex
	clients map[string]*rate.Limiter

	stop     chan struct{}
	stopOnce sync.Once
}

// newClientLimiter allows perMinute requests per client. Zero or less
// disables limiting.
func newClientLimiter(perMinute int, log *zap.Logger) *clientLimiter {
	l := &clientLimiter{
		log:     log,
		clients: make(map[string]*rate.Limiter),
		stop:    make(chan struct{}),
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
		go l.cleanup()
	}
	return l
}

func (l *clientLimiter) enabled() bool { return l.burst > 0 }

func (l *clientLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.clients[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[ip] = lim
	}
	return lim
}

func (l *clientLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for ip, lim := range l.clients {
				if lim.TokensAt(now) >= float64(l.burst) {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *clientLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *clientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !l.get(ip).Allow() {
			l.log.Warn("rate limit exceeded", zap.String("client_ip", ip), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
