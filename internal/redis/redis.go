// Package redis caches eligibility answers per device so players polling
// their campaigns don't hit the store on every request.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/metrics"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

const (
	keyPrefix = "marquee:campaigns:device:"
	genPrefix = "marquee:campaigns:gen:"
	genAllKey = genPrefix + "*all"
)

// setIfCurrent writes the entry only while neither generation counter has
// moved since the caller read them.
var setIfCurrent = redis.NewScript(`
local dev = redis.call('GET', KEYS[2]) or ''
local all = redis.call('GET', KEYS[3]) or ''
if dev ~= ARGV[1] or all ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
return 1
`)

func NewClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// CampaignCache stores the eligible campaigns of each device. A nil
// *CampaignCache is valid and never hits.
type CampaignCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCampaignCache(rdb *redis.Client, ttl time.Duration) *CampaignCache {
	return &CampaignCache{rdb: rdb, ttl: ttl}
}

func key(deviceID string) string    { return keyPrefix + deviceID }
func genKey(deviceID string) string { return genPrefix + deviceID }

// Generation is the invalidation state of one device entry, read before an
// evaluation and checked again when its result is stored.
type Generation struct {
	device string
	all    string
	ok     bool
}

// Generation reads the counters Invalidate and InvalidateAll bump. A failed
// read returns a Generation that Set refuses.
func (c *CampaignCache) Generation(ctx context.Context, deviceID string) Generation {
	if c == nil {
		return Generation{}
	}
	vals, err := c.rdb.MGet(ctx, genKey(deviceID), genAllKey).Result()
	if err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Str("device_id", deviceID).Msg("[cache] generation read failed")
		return Generation{}
	}
	gen := Generation{ok: true}
	if s, isStr := vals[0].(string); isStr {
		gen.device = s
	}
	if s, isStr := vals[1].(string); isStr {
		gen.all = s
	}
	return gen
}

// Get returns the cached answer for deviceID, if any.
func (c *CampaignCache) Get(ctx context.Context, deviceID string) ([]model.Campaign, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(deviceID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.CacheErrors.Inc()
			log.Warn().Err(err).Str("device_id", deviceID).Msg("[cache] get failed")
		}
		return nil, false
	}
	var campaigns []model.Campaign
	if err := json.Unmarshal(raw, &campaigns); err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Str("device_id", deviceID).Msg("[cache] corrupt entry")
		return nil, false
	}
	return campaigns, true
}

// Set stores campaigns for deviceID unless the entry was invalidated after
// gen was read. The entry expires at validUntil when that comes before the
// configured TTL, so a window opening or closing is never hidden by the cache.
func (c *CampaignCache) Set(ctx context.Context, deviceID string, gen Generation, campaigns []model.Campaign, validUntil, now time.Time) {
	if c == nil || !gen.ok {
		return
	}
	ttl := c.ttl
	if !validUntil.IsZero() {
		if until := validUntil.Sub(now); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(campaigns)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("[cache] could not encode campaigns")
		return
	}
	keys := []string{key(deviceID), genKey(deviceID), genAllKey}
	stored, err := setIfCurrent.Run(ctx, c.rdb, keys, gen.device, gen.all, raw, ttl.Milliseconds()).Int()
	if err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Str("device_id", deviceID).Msg("[cache] set failed")
		return
	}
	if stored == 0 {
		log.Debug().Str("device_id", deviceID).Msg("[cache] entry invalidated during evaluation, not stored")
	}
}

// Invalidate drops the entries of the given devices and bumps their
// generations so evaluations already in flight cannot store their result.
func (c *CampaignCache) Invalidate(ctx context.Context, deviceIDs ...string) {
	if c == nil || len(deviceIDs) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range deviceIDs {
			pipe.Incr(ctx, genKey(id))
			pipe.Del(ctx, key(id))
		}
		return nil
	})
	if err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Strs("device_ids", deviceIDs).Msg("[cache] invalidate failed")
	}
}

// InvalidateAll drops every device entry. Used when a change can affect any
// device, such as a content edit.
func (c *CampaignCache) InvalidateAll(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Incr(ctx, genAllKey).Err(); err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Msg("[cache] generation bump failed")
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Msg("[cache] scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheErrors.Inc()
		log.Warn().Err(err).Msg("[cache] invalidate all failed")
	}
}

// Ping checks the connection at startup.
func (c *CampaignCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *CampaignCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
