// Package redisstore keeps tokens in Redis so that several console processes
// can share one login.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "edu:token:"
	dialTimeout   = 3 * time.Second
	readTimeout   = 2 * time.Second
	writeTimeout  = 2 * time.Second
	pingTimeout   = 2 * time.Second
)

type Store struct {
	client *redis.Client
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces the token keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open parses redisURL and returns a store over a new client. Connectivity is
// not checked here; token.NewStore pings the backend.
func Open(redisURL string, opts ...Option) (*Store, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout
	options.MaxRetries = 1

	return New(redis.NewClient(options), opts...), nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redis get %s", key)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(s.client.Set(ctx, s.prefix+key, value, 0).Err(), "redis set %s", key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return errors.Wrapf(s.client.Del(ctx, s.prefix+key).Err(), "redis del %s", key)
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return errors.Wrap(s.client.Ping(ctx).Err(), "redis ping failed")
}

func (s *Store) Close() error {
	return s.client.Close()
}
