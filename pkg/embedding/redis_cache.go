package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps an EmbeddingProvider with a Redis read-through cache.
// Query embeddings repeat heavily (follow-ups reuse reformulated queries),
// and an Ollama round trip costs two orders of magnitude more than a GET.
type CachedProvider struct {
	inner EmbeddingProvider
	rdb   *redis.Client
	model string
	ttl   time.Duration
}

func NewCachedProvider(inner EmbeddingProvider, rdb *redis.Client, model string, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner: inner,
		rdb:   rdb,
		model: model,
		ttl:   ttl,
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string) (*EmbeddingResponse, error) {
	key := p.cacheKey(text)

	if cached, err := p.rdb.Get(ctx, key).Bytes(); err == nil {
		var values []float32
		if err := json.Unmarshal(cached, &values); err == nil {
			return &EmbeddingResponse{Values: values}, nil
		}
		// Corrupt entry, fall through and overwrite
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resp, err := p.inner.Generate(ctx, text)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(resp.Values); err == nil {
		// Cache write failures are not worth failing the turn over
		_ = p.rdb.Set(ctx, key, payload, p.ttl).Err()
	}

	return resp, nil
}

func (p *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", p.model, hex.EncodeToString(sum[:]))
}
