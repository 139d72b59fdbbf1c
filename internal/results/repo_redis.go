package results

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepo stores each entry as a hash and keeps insertion order in a list.
//
//	<prefix>:results        list of entry IDs
//	<prefix>:results:<id>   hash of entry fields
type RedisRepo struct {
	Client redis.Cmdable
	Prefix string
}

// NewRedisRepo constructs a RedisRepo.
func NewRedisRepo(client redis.Cmdable, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "vision-router"
	}
	return &RedisRepo{Client: client, Prefix: prefix}
}

// Append writes the hash and the list push in one transaction.
func (r *RedisRepo) Append(ctx context.Context, entry LogEntry) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.entryKey(entry.ID), encodeHash(entry))
		pipe.RPush(ctx, r.listKey(), entry.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append result: %w", err)
	}
	return nil
}

// GetByID loads the hash for id.
func (r *RedisRepo) GetByID(ctx context.Context, id string) (LogEntry, error) {
	fields, err := r.Client.HGetAll(ctx, r.entryKey(id)).Result()
	if err != nil {
		return LogEntry{}, fmt.Errorf("redis get result: %w", err)
	}
	if len(fields) == 0 {
		return LogEntry{}, ErrNotFound
	}
	return decodeHash(fields)
}

// AggregateByModel loads every entry and aggregates in process.
func (r *RedisRepo) AggregateByModel(ctx context.Context, task string) ([]ModelLatency, error) {
	ids, err := r.Client.LRange(ctx, r.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list results: %w", err)
	}
	if len(ids) == 0 {
		return []ModelLatency{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.entryKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis load results: %w", err)
	}

	entries := make([]LogEntry, 0, len(ids))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		entry, err := decodeHash(fields)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return Aggregate(entries, task), nil
}

func (r *RedisRepo) listKey() string {
	return r.Prefix + ":results"
}

func (r *RedisRepo) entryKey(id string) string {
	return r.Prefix + ":results:" + id
}

func encodeHash(e LogEntry) map[string]any {
	return map[string]any{
		"id":        e.ID,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
		"task":      e.Task,
		"model":     e.Model,
		"latency":   strconv.FormatFloat(e.LatencySeconds, 'f', -1, 64),
		"result":    e.Result,
	}
}

func decodeHash(fields map[string]string) (LogEntry, error) {
	entry := LogEntry{
		ID:     fields["id"],
		Task:   fields["task"],
		Model:  fields["model"],
		Result: fields["result"],
	}
	if raw := fields["timestamp"]; raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return LogEntry{}, fmt.Errorf("decode timestamp: %w", err)
		}
		entry.Timestamp = ts
	}
	if raw := fields["latency"]; raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return LogEntry{}, fmt.Errorf("decode latency: %w", err)
		}
		entry.LatencySeconds = v
	}
	return entry, nil
}

var _ Repo = (*RedisRepo)(nil)
