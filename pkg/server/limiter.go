package server

import (
	"net"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 4096

// limiterSet hands out one token bucket per client. Buckets for clients not
// seen in a while fall out of the LRU and start full on return.
type limiterSet struct {
	limit   rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

// newLimiterSet returns nil when rps is not positive, which disables limiting.
func newLimiterSet(rps float64, burst int) *limiterSet {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	clients, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &limiterSet{limit: rate.Limit(rps), burst: burst, clients: clients}
}

func (s *limiterSet) allow(client string) bool {
	if s == nil {
		return true
	}
	l, ok := s.clients.Get(client)
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		// another request may have raced us here; keep whichever landed first
		if prev, loaded, _ := s.clients.PeekOrAdd(client, l); loaded {
			l = prev
		}
	}
	return l.Allow()
}

// clientKey identifies the caller: the first X-Forwarded-For hop, else the
// remote host.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
