package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ScoreCache guarda respuestas de inferencia serializadas.
type ScoreCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// DefaultMemoryCacheSize acota el cache en memoria cuando no hay Redis.
const DefaultMemoryCacheSize = 10000

type memoryScoreCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryScoreCache crea un LRU con expiración única ttl para todas las entradas
// (ttl <= 0: sin expiración). El ttl de Set se ignora en este backend.
func NewMemoryScoreCache(size int, ttl time.Duration) ScoreCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	return &memoryScoreCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *memoryScoreCache) Get(_ context.Context, key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *memoryScoreCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.lru.Add(key, value)
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisScoreCache struct {
	client  redisKV
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedisScoreCache(client *redis.Client, logger *zap.Logger) ScoreCache {
	if client == nil {
		return nil
	}
	return newRedisScoreCache(client, logger)
}

func newRedisScoreCache(client redisKV, logger *zap.Logger) *redisScoreCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisScoreCache{
		client:  client,
		prefix:  "nlp:scores:",
		timeout: 500 * time.Millisecond,
		logger:  logger,
	}
}

// Get trata cualquier error de redis como un miss.
func (c *redisScoreCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("score cache get failed", zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

func (c *redisScoreCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		c.logger.Debug("score cache set failed", zap.Error(err))
	}
}

func cacheKey(kind, model, text string, labels []string) string {
	h := sha256.New()
	h.Write([]byte(text))
	if len(labels) > 0 {
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(labels, "\x1f")))
	}
	return kind + ":" + model + ":" + hex.EncodeToString(h.Sum(nil))
}

// CachedSentiment memoiza un SentimentClassifier por modelo y hash del texto.
type CachedSentiment struct {
	next  SentimentClassifier
	cache ScoreCache
	model string
	ttl   time.Duration
}

func NewCachedSentiment(next SentimentClassifier, cache ScoreCache, model string, ttl time.Duration) *CachedSentiment {
	return &CachedSentiment{next: next, cache: cache, model: model, ttl: ttl}
}

func (c *CachedSentiment) Classify(ctx context.Context, text string) (Sentiment, error) {
	key := cacheKey("sentiment", c.model, text, nil)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var s Sentiment
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, nil
		}
	}
	s, err := c.next.Classify(ctx, text)
	if err != nil {
		return Sentiment{}, err
	}
	if raw, err := json.Marshal(s); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return s, nil
}

// Probe no usa la cache: la carga siempre consulta al modelo.
func (c *CachedSentiment) Probe(ctx context.Context) error {
	if p, ok := c.next.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}

// CachedZeroShot memoiza un ZeroShotClassifier por modelo, etiquetas y hash del texto.
type CachedZeroShot struct {
	next  ZeroShotClassifier
	cache ScoreCache
	model string
	ttl   time.Duration
}

func NewCachedZeroShot(next ZeroShotClassifier, cache ScoreCache, model string, ttl time.Duration) *CachedZeroShot {
	return &CachedZeroShot{next: next, cache: cache, model: model, ttl: ttl}
}

func (c *CachedZeroShot) Classify(ctx context.Context, text string, labels []string) ([]LabelScore, error) {
	key := cacheKey("zeroshot", c.model, text, labels)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var scores []LabelScore
		if err := json.Unmarshal(raw, &scores); err == nil {
			return scores, nil
		}
	}
	scores, err := c.next.Classify(ctx, text, labels)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(scores); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return scores, nil
}

func (c *CachedZeroShot) Probe(ctx context.Context) error {
	if p, ok := c.next.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}
