package batch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownUnit is returned for handles the queue has never seen.
var ErrUnknownUnit = errors.New("unknown work unit")

const (
	backlogKey    = "seira:batch:backlog"
	unitKeyPrefix = "seira:batch:unit:"

	// unitTTL bounds how long terminal outcomes are retained, matching
	// the broker's one-hour result expiry.
	unitTTL = time.Hour
)

// RedisQueue is the Redis-backed Queue: a list carries the backlog and one
// hash per unit carries state and outcome. Redis plays the broker role here
// the same way it brokered the original batch pipeline.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue wraps an existing client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func unitKey(handle string) string {
	return unitKeyPrefix + handle
}

func (q *RedisQueue) Submit(ctx context.Context, unit Unit) (string, error) {
	payload, err := json.Marshal(unit)
	if err != nil {
		return "", err
	}
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, unitKey(unit.ID), "state", string(UnitPending))
	pipe.HDel(ctx, unitKey(unit.ID), "outcome")
	pipe.Expire(ctx, unitKey(unit.ID), unitTTL)
	pipe.LPush(ctx, backlogKey, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return unit.ID, nil
}

func (q *RedisQueue) Status(ctx context.Context, handle string) (UnitState, error) {
	state, err := q.client.HGet(ctx, unitKey(handle), "state").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownUnit
	}
	if err != nil {
		return "", err
	}
	return UnitState(state), nil
}

func (q *RedisQueue) Result(ctx context.Context, handle string) (*Outcome, error) {
	values, err := q.client.HGetAll(ctx, unitKey(handle)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrUnknownUnit
	}
	raw, ok := values["outcome"]
	if !ok {
		return nil, nil
	}
	var outcome Outcome
	if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (q *RedisQueue) Next(ctx context.Context) (*Unit, error) {
	for {
		result, err := q.client.BRPop(ctx, time.Second, backlogKey).Result()
		if errors.Is(err, redis.Nil) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
				continue
			}
		}
		if err != nil {
			return nil, err
		}

		var unit Unit
		if err := json.Unmarshal([]byte(result[1]), &unit); err != nil {
			return nil, err
		}
		if err := q.client.HSet(ctx, unitKey(unit.ID), "state", string(UnitDispatched)).Err(); err != nil {
			return nil, err
		}
		return &unit, nil
	}
}

func (q *RedisQueue) Complete(ctx context.Context, outcome Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, unitKey(outcome.Unit.ID), "state", string(outcome.State), "outcome", payload)
	pipe.Expire(ctx, unitKey(outcome.Unit.ID), unitTTL)
	_, err = pipe.Exec(ctx)
	return err
}
