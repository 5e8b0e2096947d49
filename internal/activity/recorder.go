// Package activity ведёт журнал изменений статусов объявлений, ставок и сделок.
package activity

import (
	"context"
	"sort"
	"sync"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// Recorder сохраняет и читает историю статусов
type Recorder interface {
	Record(ctx context.Context, entries ...models.HistoryStatus) error
	ListByListing(ctx context.Context, listingID string) ([]models.HistoryStatus, error)
}

// MemoryRecorder хранит журнал в памяти, используется без MONGO_URI
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries map[string][]models.HistoryStatus
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[string][]models.HistoryStatus)}
}

func (r *MemoryRecorder) Record(_ context.Context, entries ...models.HistoryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ListingID] = append(r.entries[e.ListingID], e)
	}
	return nil
}

func (r *MemoryRecorder) ListByListing(_ context.Context, listingID string) ([]models.HistoryStatus, error) {
	r.mu.RLock()
	out := append([]models.HistoryStatus{}, r.entries[listingID]...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
