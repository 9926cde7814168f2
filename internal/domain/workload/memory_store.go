package workload

import (
	"context"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/danghamo/workload/pkg/logger"
)

// dedupCacheSize bounds the remembered request IDs. Redeliveries arrive
// within seconds, so a few thousand recent IDs is ample headroom.
const dedupCacheSize = 4096

// entry pairs one trainer's aggregate with the mutex that serializes
// same-key updates
type entry struct {
	mu       sync.Mutex
	workload *TrainerWorkload
}

// MemoryStore is the process-resident Store. The outer RWMutex guards only
// the entry map; each entry carries its own lock, so trainers never contend
// with each other beyond the map lookup. Contents live for the process
// lifetime and are rebuildable from the session system of record.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seen    *lru.Cache[string, struct{}]
	logger  *logger.Logger
}

// NewMemoryStore creates an empty store
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	// Only errors when size is non-positive
	seen, _ := lru.New[string, struct{}](dedupCacheSize)

	return &MemoryStore{
		entries: make(map[string]*entry),
		seen:    seen,
		logger:  log.WithComponent("workload-store"),
	}
}

// Apply implements Store
func (s *MemoryStore) Apply(ctx context.Context, delta Delta) error {
	if err := delta.Validate(); err != nil {
		return err
	}

	log := s.logger.WithTrainer(delta.Username)

	if delta.RequestID != "" {
		if existed, _ := s.seen.ContainsOrAdd(delta.RequestID, struct{}{}); existed {
			log.WithRequestID(delta.RequestID).Info("Dropping redelivered delta")
			return nil
		}
	}

	e := s.entryFor(delta.Username)

	e.mu.Lock()
	e.workload.apply(delta)
	total := e.workload.Duration(delta.mustBucket())
	e.mu.Unlock()

	year, month := delta.mustBucket()
	log.Debug("Applied workload delta",
		zap.String("action", delta.Action.String()),
		zap.Int("minutes", delta.DurationMinutes),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("total", total),
	)

	return nil
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, username string) (*TrainerWorkload, error) {
	s.mu.RLock()
	e, ok := s.entries[username]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workload.Clone(), nil
}

// List implements Store
func (s *MemoryStore) List(ctx context.Context) ([]*TrainerWorkload, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	workloads := make([]*TrainerWorkload, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		workloads = append(workloads, e.workload.Clone())
		e.mu.Unlock()
	}

	sort.Slice(workloads, func(i, j int) bool {
		return workloads[i].Username < workloads[j].Username
	})

	return workloads, nil
}

// entryFor returns the trainer's entry, creating it on first contact.
// Concurrent creators race on the write lock; only one entry survives.
func (s *MemoryStore) entryFor(username string) *entry {
	s.mu.RLock()
	e, ok := s.entries[username]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[username]; ok {
		return e
	}

	e = &entry{workload: NewTrainerWorkload(username)}
	s.entries[username] = e
	return e
}
