package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/rs/zerolog/log"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/redis_client"
	"github.com/fleetfuel/fleetfuel/pkg/stopfinder"
)

var stopCatalogCache *cache.Cache[string]

const stopCatalogCacheKey = "diesel-stop-catalog"

func CreateStopCatalogCache() {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(15*time.Minute))

	stopCatalogCache = cache.New[string](redisStore)
}

// CachedCatalog fronts the stop catalog with a redis cache so alert firing
// does not hit the database once per vehicle. The catalog is reference data
// that only changes on re-import, so a short TTL is plenty.
type CachedCatalog struct {
	Source stopfinder.Catalog
}

func (c *CachedCatalog) DieselStops() ([]cfdf.Stop, error) {
	cached, _ := stopCatalogCache.Get(context.Background(), stopCatalogCacheKey)

	if cached != "" {
		var stops []cfdf.Stop
		if err := json.Unmarshal([]byte(cached), &stops); err == nil {
			return stops, nil
		}

		log.Warn().Msg("Discarding undecodable stop catalog cache entry")
	}

	stops, err := c.Source.DieselStops()
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(stops)
	if err == nil {
		if err := stopCatalogCache.Set(context.Background(), stopCatalogCacheKey, string(encoded)); err != nil {
			log.Warn().Err(err).Msg("Failed to cache stop catalog")
		}
	}

	return stops, nil
}
