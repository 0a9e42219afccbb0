package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const journalKey = "portal:call_tasks"

// RedisJournal persists accepted call tasks in a Redis list, one JSON
// entry per task, in submission order.
type RedisJournal struct {
	client *redis.Client
}

func NewRedisJournal(client *redis.Client) *RedisJournal {
	return &RedisJournal{client: client}
}

// NewRedisClient connects and pings the journal backend.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

func (j *RedisJournal) Append(ctx context.Context, task CallTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := j.client.RPush(ctx, journalKey, data).Err(); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

func (j *RedisJournal) List(ctx context.Context) ([]CallTask, error) {
	entries, err := j.client.LRange(ctx, journalKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	out := make([]CallTask, 0, len(entries))
	for _, raw := range entries {
		var task CallTask
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		out = append(out, task)
	}
	return out, nil
}
