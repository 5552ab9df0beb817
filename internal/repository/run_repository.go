package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/osvaldoandrade/placebench/pkg/domain"
	"github.com/osvaldoandrade/placebench/pkg/persistence"

	"github.com/go-redis/redis/v8"
)

type runRedisRepo struct {
	rdb *redis.Client
	tz  *time.Location
}

// NewRunRepository keeps runs in a HASH (id -> JSON) indexed by a ZSET scored
// with the start time.
func NewRunRepository(rdb *redis.Client, tz *time.Location) persistence.RunStorage {
	if tz == nil {
		tz = time.UTC
	}
	return &runRedisRepo{rdb: rdb, tz: tz}
}

const (
	keyRunsHash  = "placebench:runs"
	keyRunsIndex = "placebench:runs:started"
)

func (r *runRedisRepo) Save(ctx context.Context, run *domain.BatchRun) error {
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, keyRunsHash, run.ID, string(b))
	pipe.ZAdd(ctx, keyRunsIndex, &redis.Z{Score: float64(run.StartedAt.UTC().UnixMilli()), Member: run.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save run: %w", err)
	}
	return nil
}

func (r *runRedisRepo) Get(ctx context.Context, id string) (*domain.BatchRun, error) {
	js, err := r.rdb.HGet(ctx, keyRunsHash, id).Result()
	if err == redis.Nil || (err == nil && js == "") {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET run: %w", err)
	}
	return r.decode(js)
}

func (r *runRedisRepo) List(ctx context.Context, limit int) ([]domain.BatchRun, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.rdb.ZRevRange(ctx, keyRunsIndex, 0, stop).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis ZREVRANGE runs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.BatchRun{}, nil
	}
	vals, err := r.rdb.HMGet(ctx, keyRunsHash, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HMGET runs: %w", err)
	}
	out := make([]domain.BatchRun, 0, len(vals))
	for _, v := range vals {
		js, ok := v.(string)
		if !ok || js == "" {
			continue
		}
		run, err := r.decode(js)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, nil
}

// CleanupExpired deletes finished runs started before the cutoff. Running
// batches are never removed.
func (r *runRedisRepo) CleanupExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	ids, err := r.rdb.ZRangeByScore(ctx, keyRunsIndex, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(before.UTC().UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("redis ZRANGEBYSCORE runs: %w", err)
	}
	removed := 0
	for _, id := range ids {
		run, err := r.Get(ctx, id)
		if err == nil && run.Status == domain.RunRunning {
			continue
		}
		pipe := r.rdb.TxPipeline()
		pipe.HDel(ctx, keyRunsHash, id)
		pipe.ZRem(ctx, keyRunsIndex, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("redis delete run: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (r *runRedisRepo) decode(js string) (*domain.BatchRun, error) {
	var run domain.BatchRun
	if err := json.Unmarshal([]byte(js), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	run.StartedAt = run.StartedAt.In(r.tz)
	return &run, nil
}
