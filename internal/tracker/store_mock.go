package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taigahorikawa-droid/body-track/internal/planner"
)

var _ Store = (*storeMock)(nil)

type storeMock struct {
	mutex    sync.Mutex
	settings *planner.Settings
	entries  map[time.Time]planner.DailyEntry
	nextID   int

	// injectable errors
	getSettingsErr error
	listEntriesErr error
	saveEntryErr   error
}

func newStoreMock() *storeMock {
	return &storeMock{
		entries: make(map[time.Time]planner.DailyEntry),
		nextID:  1,
	}
}

func (s *storeMock) GetSettings(_ context.Context) (*planner.Settings, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.getSettingsErr != nil {
		return nil, s.getSettingsErr
	}
	if s.settings == nil {
		return nil, ErrSettingsNotFound
	}
	settings := *s.settings
	return &settings, nil
}

func (s *storeMock) SaveSettings(_ context.Context, settings planner.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.settings = &settings
	return nil
}

func (s *storeMock) SaveEntry(_ context.Context, entry planner.DailyEntry) (*planner.DailyEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.saveEntryErr != nil {
		return nil, s.saveEntryErr
	}

	day := planner.Day(entry.Date)
	entry.Date = day
	if existing, ok := s.entries[day]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.ID = s.nextID
		s.nextID++
		entry.CreatedAt = time.Now()
	}
	s.entries[day] = entry
	return &entry, nil
}

func (s *storeMock) GetEntry(_ context.Context, date time.Time) (*planner.DailyEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[planner.Day(date)]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return &entry, nil
}

func (s *storeMock) ListEntries(_ context.Context) ([]planner.DailyEntry, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listEntriesErr != nil {
		return nil, s.listEntriesErr
	}

	entries := make([]planner.DailyEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (s *storeMock) DeleteEntry(_ context.Context, date time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	day := planner.Day(date)
	if _, ok := s.entries[day]; !ok {
		return ErrEntryNotFound
	}
	delete(s.entries, day)
	return nil
}
