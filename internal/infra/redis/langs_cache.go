package redis

import (
	"context"
	"math/rand"
	"time"

	"classy-quiz-bot/internal/content"
	"classy-quiz-bot/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const langsKey = "codeguessr:langs"

// LanguageCache wraps a SolutionStore and caches its distinct-languages set
// in Redis. The set changes only when the solutions bank is reseeded, so a
// generous TTL saves a table scan per quiz.
type LanguageCache struct {
	client *redis.Client
	inner  content.SolutionStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLanguageCache(client *redis.Client, inner content.SolutionStore, ttl time.Duration) *LanguageCache {
	return &LanguageCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RandomSolution is never cached; every quiz needs a fresh draw.
func (c *LanguageCache) RandomSolution(ctx context.Context) (domain.Solution, error) {
	return c.inner.RandomSolution(ctx)
}

func (c *LanguageCache) Languages(ctx context.Context) ([]string, error) {
	langs, err := c.client.SMembers(ctx, langsKey).Result()
	if err == nil && len(langs) > 0 {
		return langs, nil
	}

	result, err, _ := c.sf.Do(langsKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		langs, err := c.client.SMembers(ctx, langsKey).Result()
		if err == nil && len(langs) > 0 {
			return langs, nil
		}

		langs, err = c.inner.Languages(ctx)
		if err != nil {
			return nil, err
		}
		if len(langs) > 0 {
			members := make([]interface{}, len(langs))
			for i, lang := range langs {
				members[i] = lang
			}
			pipe := c.client.Pipeline()
			pipe.SAdd(ctx, langsKey, members...)
			if c.ttl > 0 {
				pipe.Expire(ctx, langsKey, c.ttlWithJitter())
			}
			// best-effort; a failed fill just means the next call reloads
			_, _ = pipe.Exec(ctx)
		}
		return langs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *LanguageCache) ttlWithJitter() time.Duration {
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
