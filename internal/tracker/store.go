package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/taigahorikawa-droid/body-track/internal/planner"
)

var (
	ErrSettingsNotFound = errors.New("settings not found")
	ErrEntryNotFound    = errors.New("entry not found")
)

// Store is the persistence boundary for the tracker. The concrete
// implementation (postgres or redis) is picked from the configured
// storage backend at startup and injected into the handler.
type Store interface {
	GetSettings(ctx context.Context) (*planner.Settings, error)
	SaveSettings(ctx context.Context, settings planner.Settings) error

	// SaveEntry upserts by calendar date and returns the stored entry.
	SaveEntry(ctx context.Context, entry planner.DailyEntry) (*planner.DailyEntry, error)
	GetEntry(ctx context.Context, date time.Time) (*planner.DailyEntry, error)
	// ListEntries returns all entries ordered by date, oldest first.
	ListEntries(ctx context.Context) ([]planner.DailyEntry, error)
	DeleteEntry(ctx context.Context, date time.Time) error
}
