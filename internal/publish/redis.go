// Package publish makes ranking entries available to other processes
// through Redis.
package publish

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kittclouds/glyphsim/pkg/ranking"
)

// DefaultPrefix namespaces ranking hashes.
const DefaultPrefix = "glyphsim"

// RedisSink stores every entry of a run in one hash,
// `<prefix>:<run>`, field = character, value = comma separated ranking.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink creates a sink writing run's entries through client.
func NewRedisSink(client *redis.Client, prefix, run string) *RedisSink {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisSink{client: client, key: Key(prefix, run)}
}

// Key returns the hash key of a run.
func Key(prefix, run string) string {
	return prefix + ":" + run
}

// NewClient connects to addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Write stores one entry. Scores are not published, only the order.
func (s *RedisSink) Write(e ranking.Entry) error {
	return s.client.HSet(context.Background(), s.key, e.Character, strings.Join(e.Characters(), ",")).Err()
}

// Get reads back the entry of one character. Scores are zero.
func (s *RedisSink) Get(ctx context.Context, character string) (ranking.Entry, bool, error) {
	v, err := s.client.HGet(ctx, s.key, character).Result()
	if errors.Is(err, redis.Nil) {
		return ranking.Entry{}, false, nil
	}
	if err != nil {
		return ranking.Entry{}, false, err
	}
	e, err := ranking.ParseLine(character + ";" + v)
	return e, err == nil, err
}

// Len returns how many characters have been published.
func (s *RedisSink) Len(ctx context.Context) (int64, error) {
	return s.client.HLen(ctx, s.key).Result()
}

// Clear removes the run's hash.
func (s *RedisSink) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

var _ ranking.Sink = (*RedisSink)(nil)
