package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket throttles one actor's actions.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

// RateLimiter keys token buckets by user, used to throttle inbound
// websocket frames per connected client.
type RateLimiter struct {
	buckets    map[string]*TokenBucket
	mutex      sync.RWMutex
	maxTokens  int
	refillRate int
	refillTime time.Duration
}

func NewRateLimiter(maxTokens, refillRate int, refillTime time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*TokenBucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
	}
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available, otherwise reports how long
// until the next token.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()

	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	nextRefill := tb.lastRefill.Add(tb.refillTime)
	return false, nextRefill.Sub(now)
}

// Allow checks whether userID may perform another action right now.
func (rl *RateLimiter) Allow(userID string) (bool, time.Duration) {
	rl.mutex.RLock()
	bucket, exists := rl.buckets[userID]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		bucket, exists = rl.buckets[userID]
		if !exists {
			bucket = NewTokenBucket(rl.maxTokens, rl.refillRate, rl.refillTime)
			rl.buckets[userID] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

// Forget drops the bucket for a disconnected user.
func (rl *RateLimiter) Forget(userID string) {
	rl.mutex.Lock()
	delete(rl.buckets, userID)
	rl.mutex.Unlock()
}
