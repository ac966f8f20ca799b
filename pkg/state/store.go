package state

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/focusloop/attention-budget/pkg/storage"
)

// Store is the typed per-user state store. It owns JSON encoding of the
// models and the defaulting of missing fields; callers never see raw fields.
type Store struct {
	kv storage.KV
}

// NewStore creates a typed store over the given backend.
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// KV exposes the underlying backend for change subscriptions.
func (s *Store) KV() storage.KV {
	return s.kv
}

func (s *Store) getOne(ctx context.Context, userID, field string, v interface{}) error {
	rec, err := s.kv.Get(ctx, userID, field)
	if err != nil {
		return fmt.Errorf("failed to get %s for user %s: %w", field, userID, err)
	}
	if err := storage.Unmarshal(rec[field], v); err != nil {
		// Corrupt stored value: log and keep defaults rather than failing
		// the decision path.
		logrus.Errorf("corrupt %s for user %s, using defaults: %v", field, userID, err)
	}
	return nil
}

func (s *Store) setOne(ctx context.Context, userID, field string, v interface{}) error {
	patch := storage.Record{field: storage.Marshal(v)}
	if err := s.kv.Set(ctx, userID, patch); err != nil {
		return fmt.Errorf("failed to set %s for user %s: %w", field, userID, err)
	}
	return nil
}

// Plan returns the raw stored plan, defaulting to an empty record.
func (s *Store) Plan(ctx context.Context, userID string) (PlanRecord, error) {
	var p PlanRecord
	err := s.getOne(ctx, userID, FieldPlan, &p)
	return p, err
}

// SavePlan stores the raw plan record.
func (s *Store) SavePlan(ctx context.Context, userID string, p PlanRecord) error {
	return s.setOne(ctx, userID, FieldPlan, p)
}

// Settings returns the raw stored settings; nil when nothing is stored.
func (s *Store) Settings(ctx context.Context, userID string) (*StoredSettings, error) {
	var st StoredSettings
	if err := s.getOne(ctx, userID, FieldSettings, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveSettings stores the raw settings.
func (s *Store) SaveSettings(ctx context.Context, userID string, st *StoredSettings) error {
	return s.setOne(ctx, userID, FieldSettings, st)
}

// Counters returns the per-period counters, zero-valued when missing.
func (s *Store) Counters(ctx context.Context, userID string) (Counters, error) {
	var c Counters
	err := s.getOne(ctx, userID, FieldCounters, &c)
	return c, err
}

// SaveCounters stores the per-period counters.
func (s *Store) SaveCounters(ctx context.Context, userID string, c Counters) error {
	return s.setOne(ctx, userID, FieldCounters, c)
}

// ResetKeys returns the last rotation keys.
func (s *Store) ResetKeys(ctx context.Context, userID string) (ResetKeys, error) {
	var k ResetKeys
	err := s.getOne(ctx, userID, FieldResetKeys, &k)
	return k, err
}

// SaveResetKeys stores the rotation keys.
func (s *Store) SaveResetKeys(ctx context.Context, userID string, k ResetKeys) error {
	return s.setOne(ctx, userID, FieldResetKeys, k)
}

// BlockedChannels returns the channel block list.
func (s *Store) BlockedChannels(ctx context.Context, userID string) ([]string, error) {
	var list []string
	err := s.getOne(ctx, userID, FieldBlockedChannels, &list)
	return list, err
}

// SaveBlockedChannels stores the channel block list.
func (s *Store) SaveBlockedChannels(ctx context.Context, userID string, list []string) error {
	return s.setOne(ctx, userID, FieldBlockedChannels, list)
}

// WatchHistory returns the rolling watch history, oldest first.
func (s *Store) WatchHistory(ctx context.Context, userID string) ([]WatchHistoryEntry, error) {
	var h []WatchHistoryEntry
	err := s.getOne(ctx, userID, FieldWatchHistory, &h)
	return h, err
}

// SaveWatchHistory stores the rolling watch history.
func (s *Store) SaveWatchHistory(ctx context.Context, userID string, h []WatchHistoryEntry) error {
	return s.setOne(ctx, userID, FieldWatchHistory, h)
}

// SpiralChannels returns the per-channel spiral records.
func (s *Store) SpiralChannels(ctx context.Context, userID string) (map[string]ChannelSpiralRecord, error) {
	m := make(map[string]ChannelSpiralRecord)
	err := s.getOne(ctx, userID, FieldSpiralChannels, &m)
	return m, err
}

// SaveSpiralChannels stores the per-channel spiral records.
func (s *Store) SaveSpiralChannels(ctx context.Context, userID string, m map[string]ChannelSpiralRecord) error {
	return s.setOne(ctx, userID, FieldSpiralChannels, m)
}

// ChannelLifetime returns the per-channel lifetime stats.
func (s *Store) ChannelLifetime(ctx context.Context, userID string) (map[string]ChannelLifetimeStats, error) {
	m := make(map[string]ChannelLifetimeStats)
	err := s.getOne(ctx, userID, FieldChannelLifetime, &m)
	return m, err
}

// SaveChannelLifetime stores the per-channel lifetime stats.
func (s *Store) SaveChannelLifetime(ctx context.Context, userID string, m map[string]ChannelLifetimeStats) error {
	return s.setOne(ctx, userID, FieldChannelLifetime, m)
}

// SpiralEvents returns the rolling spiral event log.
func (s *Store) SpiralEvents(ctx context.Context, userID string) ([]SpiralEvent, error) {
	var evs []SpiralEvent
	err := s.getOne(ctx, userID, FieldSpiralEvents, &evs)
	return evs, err
}

// SaveSpiralEvents stores the rolling spiral event log.
func (s *Store) SaveSpiralEvents(ctx context.Context, userID string, evs []SpiralEvent) error {
	return s.setOne(ctx, userID, FieldSpiralEvents, evs)
}

// SpiralDismissals returns the per-channel dismissal timestamps.
func (s *Store) SpiralDismissals(ctx context.Context, userID string) (map[string]time.Time, error) {
	m := make(map[string]time.Time)
	err := s.getOne(ctx, userID, FieldSpiralDismissals, &m)
	return m, err
}

// SaveSpiralDismissals stores the per-channel dismissal timestamps.
func (s *Store) SaveSpiralDismissals(ctx context.Context, userID string, m map[string]time.Time) error {
	return s.setOne(ctx, userID, FieldSpiralDismissals, m)
}

// BehaviorCounters returns the behavior-loop counters, zero-valued when missing.
func (s *Store) BehaviorCounters(ctx context.Context, userID string) (BehaviorCounters, error) {
	var b BehaviorCounters
	err := s.getOne(ctx, userID, FieldBehaviorLoop, &b)
	return b, err
}

// SaveBehaviorCounters stores the behavior-loop counters.
func (s *Store) SaveBehaviorCounters(ctx context.Context, userID string, b BehaviorCounters) error {
	return s.setOne(ctx, userID, FieldBehaviorLoop, b)
}

// Archive returns the archived totals for the given day key, or nil when no
// archive exists for that day.
func (s *Store) Archive(ctx context.Context, userID, day string) (*DailyArchive, error) {
	field := archiveFieldPrefix + day
	rec, err := s.kv.Get(ctx, userID, field)
	if err != nil {
		return nil, fmt.Errorf("failed to get archive %s for user %s: %w", day, userID, err)
	}
	if rec[field] == nil {
		return nil, nil
	}
	var a DailyArchive
	if err := storage.Unmarshal(rec[field], &a); err != nil {
		return nil, fmt.Errorf("corrupt archive %s for user %s: %w", day, userID, err)
	}
	return &a, nil
}

// SaveArchive stores a daily archive snapshot.
func (s *Store) SaveArchive(ctx context.Context, userID string, a DailyArchive) error {
	return s.setOne(ctx, userID, archiveFieldPrefix+a.Day, a)
}

// IncrementSearches bumps the daily search counter. Read-modify-write with
// last-writer-wins; concurrent writers are tolerated.
func (s *Store) IncrementSearches(ctx context.Context, userID string) (int, error) {
	c, err := s.Counters(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.SearchesToday++
	if err := s.SaveCounters(ctx, userID, c); err != nil {
		return 0, err
	}
	return c.SearchesToday, nil
}

// ReconcileWatchSeconds folds a locally accumulated watch-seconds estimate
// into the stored counter, taking the maximum of the two. Monotonic take-max
// is the documented reconciliation rule for scalar counters shared between
// tabs and devices; it never double counts and at worst undercounts briefly.
func (s *Store) ReconcileWatchSeconds(ctx context.Context, userID string, localEstimate int) (int, error) {
	c, err := s.Counters(ctx, userID)
	if err != nil {
		return 0, err
	}
	if localEstimate > c.WatchSecondsToday {
		c.WatchSecondsToday = localEstimate
		if err := s.SaveCounters(ctx, userID, c); err != nil {
			return 0, err
		}
	}
	return c.WatchSecondsToday, nil
}
