package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Limit    int
	Window   time.Duration
}

// Limiter caps how many OTP requests one mobile number may make per window
type Limiter interface {
	Allow(ctx context.Context, mobile string) (bool, error)
	Close() error
}

type ValkeyLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// New returns a Valkey backed limiter, or a limiter that allows everything
// when no address is configured.
func New(cfg Config) (Limiter, error) {
	if cfg.Addr == "" || cfg.Limit <= 0 {
		return Noop{}, nil
	}
	return NewValkeyLimiter(cfg)
}

func NewValkeyLimiter(cfg Config) (*ValkeyLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}

	return &ValkeyLimiter{client: rdb, limit: int64(cfg.Limit), window: window}, nil
}

// Allow считает запрос и сообщает, укладывается ли он в лимит.
// Окно фиксированное: TTL ставится на первом запросе.
func (v *ValkeyLimiter) Allow(ctx context.Context, mobile string) (bool, error) {
	key := "otp:requests:" + mobile

	pipe := v.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, v.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("throttle lookup error: %w", err)
	}

	return incr.Val() <= v.limit, nil
}

func (v *ValkeyLimiter) Close() error {
	return v.client.Close()
}

// Noop allows every request
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

func (Noop) Close() error { return nil }
