package repository

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects the snapshot cache. Accepts either a bare host:port or a
// redis:// URL.
func InitRedis(addr string, password string, db int) (*redis.Client, error) {
	var rdb *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		if password != "" {
			opts.Password = password
		}
		rdb = redis.NewClient(opts)
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
	}

	ctx := context.Background()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}
