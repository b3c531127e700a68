package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taigahorikawa-droid/body-track/internal/planner"
	"github.com/taigahorikawa-droid/body-track/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// PostgresStore keeps the settings singleton in body_settings (id is
// always 1) and the daily log in body_entry, unique per entry date.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

func (s *PostgresStore) GetSettings(ctx context.Context) (_ *planner.Settings, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.getSettings")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(
		ctx,
		`SELECT
			current_weight, current_body_fat, goal_weight, goal_body_fat,
			target_date, gender, age, height_cm,
			gym_session_hours, gym_sessions_per_week,
			maintenance_kcal, gym_day_target_kcal, rest_day_target_kcal, bmr,
			updated_at
		FROM body_settings WHERE id = 1;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrSettingsNotFound
	}

	var settings planner.Settings
	if err := rows.Scan(
		&settings.CurrentWeight, &settings.CurrentBodyFat, &settings.GoalWeight, &settings.GoalBodyFat,
		&settings.TargetDate, &settings.Gender, &settings.Age, &settings.HeightCM,
		&settings.GymSessionHours, &settings.GymSessionsPerWeek,
		&settings.MaintenanceKcal, &settings.GymDayTargetKcal, &settings.RestDayTargetKcal, &settings.BMR,
		&settings.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &settings, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings planner.Settings) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.saveSettings")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO body_settings
			(id, current_weight, current_body_fat, goal_weight, goal_body_fat,
			target_date, gender, age, height_cm,
			gym_session_hours, gym_sessions_per_week,
			maintenance_kcal, gym_day_target_kcal, rest_day_target_kcal, bmr,
			updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			current_weight = EXCLUDED.current_weight,
			current_body_fat = EXCLUDED.current_body_fat,
			goal_weight = EXCLUDED.goal_weight,
			goal_body_fat = EXCLUDED.goal_body_fat,
			target_date = EXCLUDED.target_date,
			gender = EXCLUDED.gender,
			age = EXCLUDED.age,
			height_cm = EXCLUDED.height_cm,
			gym_session_hours = EXCLUDED.gym_session_hours,
			gym_sessions_per_week = EXCLUDED.gym_sessions_per_week,
			maintenance_kcal = EXCLUDED.maintenance_kcal,
			gym_day_target_kcal = EXCLUDED.gym_day_target_kcal,
			rest_day_target_kcal = EXCLUDED.rest_day_target_kcal,
			bmr = EXCLUDED.bmr,
			updated_at = EXCLUDED.updated_at;`,
		settings.CurrentWeight, settings.CurrentBodyFat, settings.GoalWeight, settings.GoalBodyFat,
		settings.TargetDate, settings.Gender, settings.Age, settings.HeightCM,
		settings.GymSessionHours, settings.GymSessionsPerWeek,
		settings.MaintenanceKcal, settings.GymDayTargetKcal, settings.RestDayTargetKcal, settings.BMR,
		settings.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) SaveEntry(ctx context.Context, entry planner.DailyEntry) (_ *planner.DailyEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.saveEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entry.Date = planner.Day(entry.Date)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	rows, err := s.db.Query(
		ctx,
		`INSERT INTO body_entry
			(entry_date, calories, gym_hours, weight, body_fat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entry_date) DO UPDATE SET
			calories = EXCLUDED.calories,
			gym_hours = EXCLUDED.gym_hours,
			weight = EXCLUDED.weight,
			body_fat = EXCLUDED.body_fat
		RETURNING id, created_at;`,
		entry.Date, entry.Calories, entry.GymHours, entry.Weight, entry.BodyFat, entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	// on an update of an already logged day the stored creation time wins
	if err := rows.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("entry.id", entry.ID))

	return &entry, nil
}

func (s *PostgresStore) GetEntry(ctx context.Context, date time.Time) (_ *planner.DailyEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.getEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(
		ctx,
		`SELECT
			id, entry_date, calories, gym_hours, weight, body_fat, created_at
		FROM body_entry WHERE entry_date = $1;`,
		planner.Day(date),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrEntryNotFound
	}

	var entry planner.DailyEntry
	if err := rows.Scan(
		&entry.ID, &entry.Date, &entry.Calories, &entry.GymHours,
		&entry.Weight, &entry.BodyFat, &entry.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &entry, nil
}

func (s *PostgresStore) ListEntries(ctx context.Context) (_ []planner.DailyEntry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.listEntries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(
		ctx,
		`SELECT
			id, entry_date, calories, gym_hours, weight, body_fat, created_at
		FROM body_entry
		ORDER BY entry_date ASC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var entries []planner.DailyEntry
	for rows.Next() {
		var entry planner.DailyEntry
		if err := rows.Scan(
			&entry.ID, &entry.Date, &entry.Calories, &entry.GymHours,
			&entry.Weight, &entry.BodyFat, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		entries = append(entries, entry)
	}

	span.SetAttributes(attribute.Int("entries.count", len(entries)))

	return entries, nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, date time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.psql.deleteEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := s.db.Exec(
		ctx,
		`DELETE FROM body_entry WHERE entry_date = $1;`,
		planner.Day(date),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
