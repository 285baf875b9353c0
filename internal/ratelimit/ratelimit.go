// Package ratelimit implements a per-key sliding window limiter: at most
// Limit hits within any Window.
package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Limiter interface {
	// Allow records a hit for key. When the hit is rejected, retryAfter is
	// how long until the oldest hit leaves the window.
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRule is ten hits per minute.
var DefaultRule = Rule{Limit: 10, Window: time.Minute}

// Memory is a single-process Limiter. It tracks at most maxKeys clients;
// when full it first drops keys with no hits inside the window and then the
// least recently seen ones.
type Memory struct {
	rule    Rule
	maxKeys int
	now     func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemory(rule Rule, maxKeys int) *Memory {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &Memory{
		rule:    rule,
		maxKeys: maxKeys,
		now:     time.Now,
		hits:    make(map[string][]time.Time),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := trim(m.hits[key], now.Add(-m.rule.Window))
	if len(recent) >= m.rule.Limit {
		m.hits[key] = recent
		return false, recent[0].Add(m.rule.Window).Sub(now), nil
	}

	if _, tracked := m.hits[key]; !tracked && len(m.hits) >= m.maxKeys {
		m.evict(now)
	}
	m.hits[key] = append(recent, now)
	return true, 0, nil
}

// Len reports how many keys are tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// evict makes room for one key. Caller holds mu.
func (m *Memory) evict(now time.Time) {
	cutoff := now.Add(-m.rule.Window)
	for k, ts := range m.hits {
		if len(trim(ts, cutoff)) == 0 {
			delete(m.hits, k)
		}
	}
	if len(m.hits) < m.maxKeys {
		return
	}

	type seen struct {
		key  string
		last time.Time
	}
	keys := make([]seen, 0, len(m.hits))
	for k, ts := range m.hits {
		keys = append(keys, seen{key: k, last: ts[len(ts)-1]})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].last.Before(keys[j].last) })
	for _, s := range keys[:len(m.hits)-m.maxKeys+1] {
		delete(m.hits, s.key)
	}
}

// trim drops timestamps at or before cutoff. ts is in ascending order.
func trim(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}
