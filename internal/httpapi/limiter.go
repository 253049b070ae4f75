package httpapi

import (
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// SenderLimiter rate-limits inbound webhook calls per remote host, so one
// runaway client cannot starve the sqlite writer.
type SenderLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func NewSenderLimiter(reqPerSec float64, burst int) *SenderLimiter {
	return &SenderLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (sl *SenderLimiter) limiterFor(host string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if lim, ok := sl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(sl.r, sl.b)
	sl.m[host] = lim
	return lim
}

// AllowAddr reports whether a request from remoteAddr may proceed now.
func (sl *SenderLimiter) AllowAddr(remoteAddr string) bool {
	if sl == nil {
		return true
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if host == "" {
		host = "_"
	}
	return sl.limiterFor(host).Allow()
}
