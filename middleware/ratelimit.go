package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"SupportChat/pkg/config"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

type lastText struct {
	text string
	ts   time.Time
}

var (
	rlMu        sync.Mutex
	buckets     = map[string]*bucket{}
	window      = 10 * time.Second
	capacity    = 5
	refillPerWd = capacity

	dupMu   sync.Mutex
	lastMsg = map[string]lastText{}
	dupTTL  = 10 * time.Second

	cgMu     sync.Mutex
	slotSem  = map[string]chan struct{}{}
	slotConc = 2
)

func SetRateLimitConfig(win time.Duration, cap, conc int) {
	rlMu.Lock()
	window = win
	capacity = cap
	refillPerWd = cap
	rlMu.Unlock()
	cgMu.Lock()
	slotConc = conc
	cgMu.Unlock()
}

// SetDuplicateTTL sets the window in which a repeated message is dropped.
// A non-positive ttl disables the guard.
func SetDuplicateTTL(ttl time.Duration) {
	dupMu.Lock()
	dupTTL = ttl
	dupMu.Unlock()
}

// ConfigureFromSettings copies the abuse-guard limits from pkg/config.
func ConfigureFromSettings() {
	SetRateLimitConfig(time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity, config.SessionConcurrencyLimit)
	SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)
}

func ClientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return ip
}

// Rate limit scopes. Each scope has its own bucket per caller.
const (
	ScopeConversations = "conversations"
	ScopeMessages      = "messages"
	ScopeFeedback      = "feedback"
	ScopeRelay         = "ws"
)

// SessionKey identifies a caller by widget session (or operator) and IP.
func SessionKey(sessionID, ip string) string {
	return sessionID + "@" + ip
}

// ScopedKey names the bucket of key within scope.
func ScopedKey(scope, key string) string {
	return scope + "|" + key
}

// RequestKey identifies the caller of an HTTP request.
func RequestKey(c *gin.Context) string {
	id := c.GetHeader("X-Session-ID")
	if id == "" {
		id = c.Query("session_id")
	}
	if id == "" {
		raw, _ := c.Get(ContextOperatorIDKey)
		id, _ = raw.(string)
	}
	return SessionKey(id, ClientIP(c))
}

// Allow takes one token from the bucket for key.
func Allow(key string) bool {
	now := time.Now()

	rlMu.Lock()
	defer rlMu.Unlock()
	b := buckets[key]
	if b == nil {
		b = &bucket{tokens: capacity, lastRefill: now}
		buckets[key] = b
	}
	elapsed := now.Sub(b.lastRefill)
	if elapsed > 0 {
		add := int(float64(refillPerWd) * (float64(elapsed) / float64(window)))
		if add > 0 {
			b.tokens += add
			if b.tokens > capacity {
				b.tokens = capacity
			}
			b.lastRefill = now
		}
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter is the Retry-After value sent with a 429.
func RetryAfter() int {
	rlMu.Lock()
	defer rlMu.Unlock()
	return int(window.Seconds())
}

// AbortTooManyRequests answers 429 with a Retry-After header.
func AbortTooManyRequests(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(RetryAfter()))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "too many requests"})
}

// RateLimit charges one token from the caller's bucket in scope.
func RateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Allow(ScopedKey(scope, RequestKey(c))) {
			AbortTooManyRequests(c)
			return
		}
		c.Next()
	}
}

// DuplicateGuard reports whether text may pass for key. The same text
// from the same key within the duplicate window is rejected.
func DuplicateGuard(key string, text string) bool {
	now := time.Now()
	text = strings.TrimSpace(text)
	dupMu.Lock()
	defer dupMu.Unlock()
	if dupTTL <= 0 {
		return true
	}
	entry, ok := lastMsg[key]
	if ok && entry.text == text && now.Sub(entry.ts) < dupTTL {
		return false
	}
	lastMsg[key] = lastText{text: text, ts: now}
	return true
}

// AcquireSessionSlot blocks until key has a free slot or ctx is done.
func AcquireSessionSlot(ctx context.Context, key string) (release func(), err error) {
	cgMu.Lock()
	sem := slotSem[key]
	if sem == nil {
		sem = make(chan struct{}, slotConc)
		slotSem[key] = sem
	}
	cgMu.Unlock()
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
