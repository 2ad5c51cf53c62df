package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// Pool rotates through a fixed list of proxies, skipping ones that failed
// recently. It is safe for concurrent use by the HTTP transport.
type Pool struct {
	proxies  []*url.URL
	index    int
	mu       sync.Mutex
	failed   map[string]time.Time
	cooldown time.Duration
}

// Parse splits a comma separated proxy list ("http://h:1,socks5://h:2")
// and validates every entry.
func Parse(list string) ([]*url.URL, error) {
	var out []*url.URL
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("invalid proxy %q: unsupported scheme %q", raw, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q: missing host", raw)
		}
		out = append(out, u)
	}
	return out, nil
}

// NewPool creates a pool; an empty pool always yields nil (direct)
func NewPool(proxies []*url.URL) *Pool {
	return &Pool{
		proxies:  proxies,
		failed:   make(map[string]time.Time),
		cooldown: DefaultCooldown,
	}
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Next returns the next healthy proxy, or nil when none are configured.
// When every proxy is cooling down the next one in rotation is returned anyway.
func (p *Pool) Next() *url.URL {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	start := p.index
	for {
		candidate := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		key := candidate.String()
		if failedAt, ok := p.failed[key]; ok {
			if time.Since(failedAt) < p.cooldown {
				if p.index == start {
					return candidate
				}
				continue
			}
			delete(p.failed, key)
		}
		return candidate
	}
}

// MarkFailed puts a proxy on cooldown
func (p *Pool) MarkFailed(u *url.URL) {
	if p == nil || u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[u.String()] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(u *url.URL) {
	if p == nil || u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, u.String())
}
