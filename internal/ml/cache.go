package ml

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// CacheKey identifies one scored feature row under a model version
type CacheKey struct {
	ModelVersion string
	Digest       string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return k.ModelVersion + ":" + k.Digest
}

// NewCacheKey digests a feature row. Rows equal bit for bit share a key.
func NewCacheKey(modelVersion string, row []float64) CacheKey {
	h := sha256.New()
	var buf [8]byte
	for _, x := range row {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
		h.Write(buf[:])
	}
	return CacheKey{ModelVersion: modelVersion, Digest: hex.EncodeToString(h.Sum(nil))}
}

// PredictionCache provides in-memory caching for row probabilities
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached probability
func (pc *PredictionCache) Get(key CacheKey) (float64, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if v, found := pc.cache.Get(key.String()); found {
		if p, ok := v.(float64); ok {
			pc.hitCount++
			pc.updateMetrics()
			return p, true
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return 0, false
}

// Set stores a probability. When the cache is full, expired items are dropped
// first and the write is skipped if that frees nothing.
func (pc *PredictionCache) Set(key CacheKey, p float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.maxSize > 0 && pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
		if pc.cache.ItemCount() >= pc.maxSize {
			return
		}
	}

	pc.cache.Set(key.String(), p, pc.ttl)
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.stats()
}

func (pc *PredictionCache) stats() (hits, misses uint64, ratio float64) {
	hits = pc.hitCount
	misses = pc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (pc *PredictionCache) updateMetrics() {
	_, _, ratio := pc.stats()
	ScorerCacheHitRatio.Set(ratio)
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}
