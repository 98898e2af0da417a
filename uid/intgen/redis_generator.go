package intgen

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string        `cfg:"addr" def:"localhost:6379"`
	Password string        `cfg:"password"`
	DB       int           `cfg:"db"`
	Key      string        `cfg:"key" def:"sorm:sequence"`
	Timeout  time.Duration `cfg:"timeout" def:"3s"`
}

// RedisGenerator 基于 INCR 的分布式自增序列，多个进程共享同一个 key
type RedisGenerator struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisGeneratorWithOptions(options *RedisOptions) (*RedisGenerator, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	if options.Key == "" {
		return nil, errors.New("key is required")
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &RedisGenerator{
		client: redis.NewClient(&redis.Options{
			Addr:     options.Addr,
			Password: options.Password,
			DB:       options.DB,
		}),
		key:     options.Key,
		timeout: timeout,
	}, nil
}

func (g *RedisGenerator) Generate() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	id, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "redis incr %s failed", g.key)
	}
	return id, nil
}

func (g *RedisGenerator) Close() error {
	return g.client.Close()
}
