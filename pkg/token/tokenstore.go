package tokenstore

import (
	"sync"
	"time"
)

// In-memory revocation list for operator tokens. An entry is kept until
// the token it revokes would have expired anyway.
var (
	mu            sync.Mutex
	revokedTokens = map[string]time.Time{}
)

func RevokeToken(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(24 * time.Hour)
	}
	mu.Lock()
	defer mu.Unlock()
	revokedTokens[jti] = expiresAt
	pruneNoLock(time.Now())
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	exp, ok := revokedTokens[jti]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(revokedTokens, jti)
		return false
	}
	return true
}

func pruneNoLock(now time.Time) {
	for jti, exp := range revokedTokens {
		if now.After(exp) {
			delete(revokedTokens, jti)
		}
	}
}
