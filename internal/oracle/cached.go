package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cached remembers positive verdicts in Redis. Negative verdicts are not
// cached since the user may still solve the problem. Concurrent lookups of
// the same key share one upstream call.
type Cached struct {
	next   Oracle
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
}

// upstreamTimeout bounds a shared lookup, which outlives any single caller.
const upstreamTimeout = 30 * time.Second

func NewCached(next Oracle, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, client: client, ttl: ttl}
}

func cacheKey(platform models.Platform, username, problem string) string {
	return fmt.Sprintf("oracle:%s:%s:%s", platform, username, problem)
}

func (c *Cached) HasAcceptedSubmission(ctx context.Context, platform models.Platform, username, problem string) (bool, error) {
	if username == "" {
		return false, nil
	}
	key := cacheKey(platform, username, problem)

	hit, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		zap.S().Warnf("oracle cache lookup failed for %s: %v", key, err)
	} else if hit > 0 {
		return true, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Coalesced callers wait on this lookup, so the first caller's
		// cancellation must not fail them all.
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), upstreamTimeout)
		defer cancel()

		ok, err := c.next.HasAcceptedSubmission(sctx, platform, username, problem)
		if err != nil {
			return false, err
		}
		if ok {
			if err := c.client.Set(sctx, key, "1", c.ttl).Err(); err != nil {
				zap.S().Warnf("oracle cache store failed for %s: %v", key, err)
			}
		}
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}
