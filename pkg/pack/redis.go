package pack

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "autoapply:pack:"

// RedisStore keeps each pack as a JSON string under autoapply:pack:<id>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client with the pool settings used across services.
func NewRedisClient(addr, password string, db int) (client *redis.Client) {
	client = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return client
}

// NewRedisStore wraps client. A zero ttl keeps packs forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) (store *RedisStore) {
	store = &RedisStore{client: client, ttl: ttl}
	return store
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) (err error) {
	err = s.client.Ping(ctx).Err()
	if err != nil {
		err = errors.Wrap(err, "redis ping failed")
		return err
	}
	return err
}

// Save writes the pack only if the id is unused.
func (s *RedisStore) Save(ctx context.Context, p ApplicationPack) (err error) {
	err = p.Validate()
	if err != nil {
		err = errors.Wrap(err, "refusing to save invalid pack")
		return err
	}

	var data []byte
	data, err = json.Marshal(p)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal pack")
		return err
	}

	var created bool
	created, err = s.client.SetNX(ctx, redisKeyPrefix+p.ID, data, s.ttl).Result()
	if err != nil {
		err = errors.Wrapf(err, "failed to store pack %s", p.ID)
		return err
	}

	if !created {
		err = errors.Errorf("pack %s already exists", p.ID)
		return err
	}

	return err
}

// Load reads a pack by id.
func (s *RedisStore) Load(ctx context.Context, id string) (p ApplicationPack, err error) {
	var data []byte
	data, err = s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = errors.Wrapf(ErrNotFound, "pack %s", id)
			return p, err
		}
		err = errors.Wrapf(err, "failed to load pack %s", id)
		return p, err
	}

	err = json.Unmarshal(data, &p)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse pack %s", id)
		return p, err
	}

	return p, err
}

// Close closes the underlying client.
func (s *RedisStore) Close() (err error) {
	err = s.client.Close()
	return err
}
