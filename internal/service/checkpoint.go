package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MimeLyc/bulk-sub-translator/internal/persistence"
)

// persistentChunkCheckpointStore bridges the sqlite store to the
// translation engine's checkpoint interface. Checkpoints of the job are
// loaded up front so lookups during a run stay in memory.
type persistentChunkCheckpointStore struct {
	store *persistence.SQLiteStore
	jobID string

	mu     sync.RWMutex
	cached map[string][]string
}

func newPersistentChunkCheckpointStore(ctx context.Context, store *persistence.SQLiteStore, jobID string) (*persistentChunkCheckpointStore, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if jobID == "" {
		return nil, fmt.Errorf("job id is empty")
	}

	checkpoints, err := store.LoadChunkCheckpoints(ctx, jobID)
	if err != nil {
		return nil, err
	}

	cached := make(map[string][]string, len(checkpoints))
	for _, cp := range checkpoints {
		cached[chunkKey(cp.ChunkStart, cp.ChunkEnd)] = append([]string(nil), cp.TranslatedLines...)
	}

	return &persistentChunkCheckpointStore{
		store:  store,
		jobID:  jobID,
		cached: cached,
	}, nil
}

func (s *persistentChunkCheckpointStore) Load(start, end int) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret, ok := s.cached[chunkKey(start, end)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), ret...), true
}

func (s *persistentChunkCheckpointStore) Save(ctx context.Context, start, end int, translated []string) error {
	if s == nil {
		return nil
	}
	copyData := append([]string(nil), translated...)
	if err := s.store.SaveChunkCheckpoint(ctx, s.jobID, start, end, copyData); err != nil {
		return err
	}
	s.mu.Lock()
	s.cached[chunkKey(start, end)] = copyData
	s.mu.Unlock()
	return nil
}

func chunkKey(start, end int) string {
	return fmt.Sprintf("%d:%d", start, end)
}
