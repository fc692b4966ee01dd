package moneta

import (
	"github.com/redis/go-redis/v9"

	"github.com/monetahq/moneta/cache"
	"github.com/monetahq/moneta/config"
	"github.com/monetahq/moneta/database"
	redis_db "github.com/monetahq/moneta/internal/redis-db"
)

// Moneta is the ledger core: the only component allowed to mutate account
// balances. The statement reader and the consistency auditor hang off the
// same struct but only ever read.
type Moneta struct {
	datasource database.IDataSource
	redis      redis.UniversalClient
	cache      cache.Cache
}

// NewMoneta builds the ledger around an explicit data-access handle. When
// redis is configured it is used for per-account advisory locks on top of
// the database row locks; without it the row locks alone carry isolation.
func NewMoneta(db database.IDataSource) (*Moneta, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	newMoneta := &Moneta{datasource: db}

	if configuration.Redis.Dns != "" {
		redisClient, err := redis_db.NewRedisClient([]string{configuration.Redis.Dns})
		if err != nil {
			return nil, err
		}
		newMoneta.redis = redisClient.Client()
	}
	newMoneta.cache = cache.NewCache(newMoneta.redis)

	return newMoneta, nil
}
