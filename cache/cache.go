// Package cache implements the namespaced TTL cache and sliding-window
// rate limiter shared by every AI feature (spec §4.4), backed by Redis.
// Grounded on the teacher's llm/cache/prompt_cache.go MultiLevelCache,
// trimmed from local-LRU+redis to a single redis-backed layer since the
// spec names no local tier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Namespace fixes a cache entry's TTL class. Keys are formed as
// ai:{namespace}:{parts...}.
type Namespace string

const (
	NamespaceSuggestions Namespace = "suggestions"
	NamespaceAnomalies   Namespace = "anomalies"
	NamespaceUserContext Namespace = "user_context"
	NamespaceForecast    Namespace = "forecast"
	NamespaceRateLimit   Namespace = "ratelimit"
)

// Store is a namespaced get/set/incr cache over a shared redis.Cmdable.
// Every method fails soft: a backing-store error never propagates to the
// caller — get reports a miss, set reports failure — matching spec
// §4.4's "never raise to the caller" contract.
type Store struct {
	rdb    redis.Cmdable
	logger *zap.Logger
}

// New constructs a Store over an existing redis client (or miniredis
// client in tests).
func New(rdb redis.Cmdable, logger *zap.Logger) *Store {
	return &Store{rdb: rdb, logger: logger}
}

func key(ns Namespace, parts ...string) string {
	return "ai:" + string(ns) + ":" + strings.Join(parts, ":")
}

// Get fetches a JSON-encoded value. found is false both on a real miss
// and on a backing-store error; callers cannot and need not distinguish
// the two.
func (s *Store) Get(ctx context.Context, ns Namespace, out any, parts ...string) bool {
	raw, err := s.rdb.Get(ctx, key(ns, parts...)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("cache get failed", zap.String("namespace", string(ns)), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("cache value corrupt", zap.String("namespace", string(ns)), zap.Error(err))
		return false
	}
	return true
}

// Set stores a JSON-encoded value under the given namespace and TTL.
// Returns false ("failed") on any backing-store error.
func (s *Store) Set(ctx context.Context, ns Namespace, ttl time.Duration, value any, parts ...string) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache value not serializable", zap.String("namespace", string(ns)), zap.Error(err))
		return false
	}
	if err := s.rdb.Set(ctx, key(ns, parts...), raw, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", zap.String("namespace", string(ns)), zap.Error(err))
		return false
	}
	return true
}

// Invalidate removes an entry immediately instead of waiting for its TTL.
func (s *Store) Invalidate(ctx context.Context, ns Namespace, parts ...string) {
	if err := s.rdb.Del(ctx, key(ns, parts...)).Err(); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("namespace", string(ns)), zap.Error(err))
	}
}

// Fingerprint computes a stable 12-hex-digit digest of an arbitrary
// structured context: keys are sorted before serialization so map
// iteration order never affects the result (spec §4.4 and Open
// Question on fingerprint stability).
func Fingerprint(context map[string]any) string {
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		v, _ := json.Marshal(context[k])
		fmt.Fprintf(&b, "%q:%s", k, v)
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:12]
}
