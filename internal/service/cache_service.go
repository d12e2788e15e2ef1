package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/pkg/config"
)

// CacheStore is the subset of cache repository behaviour the services
// need.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the cache store with key construction and the
// invalidation rules of the workflow. Keys are "op:partition:fingerprint"
// so writes can invalidate every cached variant of a partition with one
// pattern delete.
type CacheService struct {
	store   CacheStore
	cfg     config.CacheConfig
	logger  *zap.Logger
	metrics *MetricsService
}

func NewCacheService(store CacheStore, cfg config.CacheConfig, metrics *MetricsService, logger *zap.Logger) *CacheService {
	return &CacheService{store: store, cfg: cfg, metrics: metrics, logger: logger}
}

// Enabled reports whether caching is switched on.
func (s *CacheService) Enabled() bool {
	return s.cfg.Enabled && s.store != nil
}

// Key builds a cache key from the operation, its partition (a lab ID,
// study ID or "all") and a fingerprint of the filter payload.
func (s *CacheService) Key(op, partition string, filter interface{}) string {
	payload, err := json.Marshal(filter)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", filter))
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s", op, partition, hex.EncodeToString(sum[:])[:16])
}

// Get loads a cached payload. Returns false on miss or when caching is
// disabled; cache failures are treated as misses.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	if err := s.store.Get(ctx, key, dest); err != nil {
		s.metrics.CacheMiss()
		return false
	}
	s.metrics.CacheHit()
	return true
}

// Set stores a payload with the given TTL. Failures are logged, never
// propagated; a broken cache must not break reads.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateWorklist drops cached worklists and summaries for a lab,
// plus the cross-lab variants admins see.
func (s *CacheService) InvalidateWorklist(ctx context.Context, labID string) {
	s.deletePattern(ctx, fmt.Sprintf("worklist:%s:*", labID))
	s.deletePattern(ctx, "worklist:all:*")
	s.deletePattern(ctx, fmt.Sprintf("summary:%s:*", labID))
	s.deletePattern(ctx, "summary:all:*")
	s.deletePattern(ctx, fmt.Sprintf("tat_report:%s:*", labID))
	s.deletePattern(ctx, "tat_report:all:*")
}

func (s *CacheService) deletePattern(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.store.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// WorklistTTL returns the TTL for worklist payloads.
func (s *CacheService) WorklistTTL() time.Duration { return s.cfg.WorklistTTL }
