// Package guard prevents the same import batch from being submitted twice
// while the first submission is still in flight.
package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Bessima/fieldops/internal/models"
)

var ErrInFlight = errors.New("an identical import batch is already in flight")

// DefaultTTL ограничивает время жизни блокировки, если Release не вызван.
const DefaultTTL = 5 * time.Minute

// Guard hands out one lease per batch fingerprint. Release must be called
// when the batch has been submitted.
type Guard interface {
	Acquire(ctx context.Context, keys []models.OrderKey) (release func(), err error)
}

// Fingerprint identifies a batch by its set of order keys, independent of order.
func Fingerprint(keys []models.OrderKey) string {
	sorted := make([]string, len(keys))
	for i, key := range keys {
		sorted[i] = string(key)
	}
	sort.Strings(sorted)

	hash := sha256.New()
	for _, key := range sorted {
		hash.Write([]byte(key))
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}

type MemoryGuard struct {
	mu       sync.Mutex
	ttl      time.Duration
	inFlight map[string]time.Time
	now      func() time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		ttl:      ttl,
		inFlight: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (g *MemoryGuard) Acquire(_ context.Context, keys []models.OrderKey) (func(), error) {
	fingerprint := Fingerprint(keys)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, ok := g.inFlight[fingerprint]; ok && now.Before(expires) {
		return nil, ErrInFlight
	}
	expires := now.Add(g.ttl)
	g.inFlight[fingerprint] = expires

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.inFlight[fingerprint].Equal(expires) {
				delete(g.inFlight, fingerprint)
			}
		})
	}, nil
}
