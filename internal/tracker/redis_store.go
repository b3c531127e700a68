package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/taigahorikawa-droid/body-track/internal/planner"
	"github.com/taigahorikawa-droid/body-track/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const (
	redisSettingsKey       = "bodytrack::settings"
	redisEntriesKey        = "bodytrack::entries"
	redisEntryIDCounterKey = "bodytrack::entry-id-counter"

	entryDateLayout = "2006-01-02"
)

// RedisStore keeps the settings singleton as a JSON string and the
// daily log in a single hash, one field per calendar date.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb: rdb,
	}
}

func (s *RedisStore) GetSettings(ctx context.Context) (_ *planner.Settings, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.redis.getSettings")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cmd := s.rdb.Get(ctx, redisSettingsKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	var settings planner.Settings
	if err := json.Unmarshal([]byte(cmd.Val()), &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return &settings, nil
}

func (s *RedisStore) SaveSettings(ctx context.Context, settings planner.Settings) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.redis.saveSettings")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	settingsJson, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return s.rdb.Set(ctx, redisSettingsKey, settingsJson, 0).Err()
}

func (s *RedisStore) SaveEntry(ctx context.Context, entry planner.DailyEntry) (_ *planner.DailyEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.redis.saveEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entry.Date = planner.Day(entry.Date)
	field := entry.Date.Format(entryDateLayout)

	// upsert: keep the id and creation time of an already logged day
	existingCmd := s.rdb.HGet(ctx, redisEntriesKey, field)
	switch existingErr := existingCmd.Err(); {
	case existingErr == nil:
		var existing planner.DailyEntry
		if err := json.Unmarshal([]byte(existingCmd.Val()), &existing); err != nil {
			return nil, fmt.Errorf("unmarshal existing entry: %w", err)
		}
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	case errors.Is(existingErr, redis.Nil):
		idCmd := s.rdb.Incr(ctx, redisEntryIDCounterKey)
		if err := idCmd.Err(); err != nil {
			return nil, err
		}
		entry.ID = int(idCmd.Val())
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
	default:
		return nil, existingErr
	}

	entryJson, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	if err := s.rdb.HSet(ctx, redisEntriesKey, field, entryJson).Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("entry.id", entry.ID))

	return &entry, nil
}

func (s *RedisStore) GetEntry(ctx context.Context, date time.Time) (_ *planner.DailyEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.redis.getEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	field := planner.Day(date).Format(entryDateLayout)
	cmd := s.rdb.HGet(ctx, redisEntriesKey, field)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	var entry planner.DailyEntry
	if err := json.Unmarshal([]byte(cmd.Val()), &entry); err != nil {
		return nil, fmt.Errorf("unmarshal entry [%s]: %w", field, err)
	}

	return &entry, nil
}

func (s *RedisStore) ListEntries(ctx context.Context) (_ []planner.DailyEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.redis.listEntries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cmd := s.rdb.HGetAll(ctx, redisEntriesKey)
	if err := cmd.Err(); err != nil {
		return nil, err
	}

	entriesByDate := cmd.Val()
	entries := make([]planner.DailyEntry, 0, len(entriesByDate))
	for field, entryJson := range entriesByDate {
		var entry planner.DailyEntry
		if err := json.Unmarshal([]byte(entryJson), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal entry [%s]: %w", field, err)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	span.SetAttributes(attribute.Int("entries.count", len(entries)))

	return entries, nil
}

func (s *RedisStore) DeleteEntry(ctx context.Context, date time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.redis.deleteEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	field := planner.Day(date).Format(entryDateLayout)
	cmd := s.rdb.HDel(ctx, redisEntriesKey, field)
	if err := cmd.Err(); err != nil {
		return err
	}
	if cmd.Val() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
