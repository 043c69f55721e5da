package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"phasegarden/internal/fulfillment/models"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/pkg/platform/sentinel"
)

// InMemoryStore keeps fulfillments in a map for tests and single-process
// development. All methods take the write lock for the whole check-and-set.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[paymodels.Key]*models.Record
	serials map[string]paymodels.Key
	lease   time.Duration
}

func NewMemory(opts ...Option) *InMemoryStore {
	cfg := newConfig(opts)
	return &InMemoryStore{
		records: make(map[paymodels.Key]*models.Record),
		serials: make(map[string]paymodels.Key),
		lease:   cfg.lease,
	}
}

func (s *InMemoryStore) TryClaim(_ context.Context, key paymodels.Key, email string, now time.Time) (models.ClaimResult, *models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		return models.AlreadyClaimed, existing.Clone(), nil
	}
	lease := now.Add(s.lease)
	record := &models.Record{
		Key:        key,
		PayerEmail: email,
		Status:     models.DeliveryPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		LeaseUntil: &lease,
	}
	s.records[key] = record
	return models.Claimed, record.Clone(), nil
}

func (s *InMemoryStore) Get(_ context.Context, key paymodels.Key) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) AcquireDelivery(_ context.Context, key paymodels.Key, email string, now time.Time, includeSent bool) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Leased(now) {
		return nil, sentinel.ErrConflict
	}
	if record.Status == models.DeliverySent && !includeSent {
		return nil, sentinel.ErrConflict
	}
	lease := now.Add(s.lease)
	record.LeaseUntil = &lease
	record.UpdatedAt = now
	if record.PayerEmail == "" {
		record.PayerEmail = email
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) AssignSerial(_ context.Context, key paymodels.Key, serial string, now time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Serial != "" {
		return nil, sentinel.ErrAlreadyUsed
	}
	if _, taken := s.serials[serial]; taken {
		return nil, sentinel.ErrConflict
	}
	record.Serial = serial
	record.UpdatedAt = now
	s.serials[serial] = key
	return record.Clone(), nil
}

func (s *InMemoryStore) MarkSent(_ context.Context, key paymodels.Key, now time.Time) (*models.Record, error) {
	return s.finish(key, models.DeliverySent, "", now)
}

func (s *InMemoryStore) MarkFailed(_ context.Context, key paymodels.Key, reason string, now time.Time) (*models.Record, error) {
	return s.finish(key, models.DeliveryFailed, reason, now)
}

func (s *InMemoryStore) finish(key paymodels.Key, status models.DeliveryStatus, reason string, now time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record.Status = status
	record.Attempts++
	record.LastError = reason
	record.UpdatedAt = now
	record.LeaseUntil = nil
	if status == models.DeliverySent {
		t := now
		record.FulfilledAt = &t
	}
	return record.Clone(), nil
}

// ListByStatus returns records in any of the given statuses, oldest first.
func (s *InMemoryStore) ListByStatus(_ context.Context, statuses []models.DeliveryStatus, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[models.DeliveryStatus]struct{}, len(statuses))
	for _, st := range statuses {
		want[st] = struct{}{}
	}
	var out []*models.Record
	for _, r := range s.records {
		if _, ok := want[r.Status]; ok {
			out = append(out, r.Clone())
		}
	}
	sortOldestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListStalePending returns Pending records not updated since before.
func (s *InMemoryStore) ListStalePending(_ context.Context, before time.Time, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Record
	for _, r := range s.records {
		if r.Status == models.DeliveryPending && r.UpdatedAt.Before(before) {
			out = append(out, r.Clone())
		}
	}
	sortOldestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortOldestFirst(records []*models.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Key.String() < records[j].Key.String()
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
