// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisLister adapts *redis.Client to the RedisLister interface.
type redisLister struct {
	rdb *redis.Client
}

// NewRedisLister wraps a Redis client for use by the forwarding worker.
func NewRedisLister(rdb *redis.Client) RedisLister {
	return &redisLister{rdb: rdb}
}

// BRPopResult pops the oldest queued value, blocking up to timeout.
// Returns "" with a nil error when the timeout elapses with an empty queue.
func (l *redisLister) BRPopResult(ctx context.Context, timeout time.Duration, key string) (string, error) {
	vals, err := l.rdb.BRPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value]
	if len(vals) != 2 {
		return "", nil
	}
	return vals[1], nil
}

// LPushValue pushes a value onto the queue.
func (l *redisLister) LPushValue(ctx context.Context, key, value string) error {
	return l.rdb.LPush(ctx, key, value).Err()
}
