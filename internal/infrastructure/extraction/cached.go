package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stocklens/backend/internal/domain"
)

// CachedGateway wraps an ExtractionGateway with content-addressed caching:
// re-submitting the same invoice image or audio clip returns the previous
// extraction instead of paying for another gateway call. Keys are the SHA-256
// of the input bytes, so the cache never confuses distinct inputs.
type CachedGateway struct {
	gateway domain.ExtractionGateway
	cache   domain.CacheRepository
	ttl     time.Duration
	logger  *zap.Logger
}

var _ domain.ExtractionGateway = (*CachedGateway)(nil)

// NewCachedGateway wraps gateway with a cache. A zero ttl defaults to 24h.
func NewCachedGateway(gateway domain.ExtractionGateway, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGateway{
		gateway: gateway,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

// ExtractFromImage returns cached mentions for a previously seen image, or
// delegates to the wrapped gateway and caches the result.
func (g *CachedGateway) ExtractFromImage(ctx context.Context, imageBase64 string) ([]domain.ExtractedMention, error) {
	key := fmt.Sprintf("extraction:image:%x", sha256.Sum256([]byte(imageBase64)))

	if mentions, ok := g.fromCache(ctx, key); ok {
		return mentions, nil
	}

	mentions, err := g.gateway.ExtractFromImage(ctx, imageBase64)
	if err != nil {
		return nil, err
	}

	g.store(ctx, key, mentions)
	return mentions, nil
}

// ExtractFromAudio returns cached mentions for a previously seen recording,
// or delegates to the wrapped gateway and caches the result.
func (g *CachedGateway) ExtractFromAudio(ctx context.Context, audio []byte, filename string) ([]domain.ExtractedMention, error) {
	key := fmt.Sprintf("extraction:audio:%x", sha256.Sum256(audio))

	if mentions, ok := g.fromCache(ctx, key); ok {
		return mentions, nil
	}

	mentions, err := g.gateway.ExtractFromAudio(ctx, audio, filename)
	if err != nil {
		return nil, err
	}

	g.store(ctx, key, mentions)
	return mentions, nil
}

// fromCache loads and decodes a cached extraction. Both cache backends hand
// back generic JSON structures, so recover the typed slice with a marshal
// round-trip.
func (g *CachedGateway) fromCache(ctx context.Context, key string) ([]domain.ExtractedMention, bool) {
	value, err := g.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}

	var mentions []domain.ExtractedMention
	if err := json.Unmarshal(data, &mentions); err != nil {
		g.logger.Warn("discarding malformed cached extraction", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return mentions, true
}

func (g *CachedGateway) store(ctx context.Context, key string, mentions []domain.ExtractedMention) {
	if err := g.cache.Set(ctx, key, mentions, g.ttl); err != nil {
		g.logger.Warn("failed to cache extraction result", zap.String("key", key), zap.Error(err))
	}
}
