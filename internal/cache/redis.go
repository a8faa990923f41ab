package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

// RedisSessions caches resolved users under their token digest. Failures are
// logged and treated as misses so the database stays authoritative.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(ctx context.Context, addr string, ttl time.Duration) (*RedisSessions, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisSessions{client: client, ttl: ttl}, nil
}

func (r *RedisSessions) Close() error {
	return r.client.Close()
}

func sessionKey(digest string) string {
	return "session:" + digest
}

func encodeUser(u *domain.User) ([]byte, error) {
	return json.Marshal(u)
}

func decodeUser(data []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("snapshot has no user id")
	}
	return &u, nil
}

func (r *RedisSessions) Get(ctx context.Context, digest string) (*domain.User, bool) {
	data, err := r.client.Get(ctx, sessionKey(digest)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("session cache get")
		}
		return nil, false
	}
	u, err := decodeUser(data)
	if err != nil {
		log.Warn().Err(err).Msg("session cache decode")
		return nil, false
	}
	return u, true
}

func (r *RedisSessions) Set(ctx context.Context, digest string, u *domain.User) {
	data, err := encodeUser(u)
	if err != nil {
		log.Warn().Err(err).Msg("session cache encode")
		return
	}
	if err := r.client.Set(ctx, sessionKey(digest), data, r.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("session cache set")
	}
}

func (r *RedisSessions) Delete(ctx context.Context, digest string) {
	if err := r.client.Del(ctx, sessionKey(digest)).Err(); err != nil {
		log.Warn().Err(err).Msg("session cache delete")
	}
}
