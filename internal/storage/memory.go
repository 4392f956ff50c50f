package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
)

// MemoryStore хранит журнал в памяти процесса.
type MemoryStore struct {
	mutex sync.RWMutex
	items []model.Generation
}

// NewMemoryStore создаёт пустой журнал в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save сохраняет копию записи.
func (s *MemoryStore) Save(_ context.Context, g *model.Generation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.items = append(s.items, *g)
	return nil
}

// ListByUser возвращает записи пользователя, новые первыми.
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*model.Generation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []*model.Generation
	for i := range s.items {
		if s.items[i].UserID == userID {
			g := s.items[i]
			out = append(out, &g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

// Stats считает записи, коды, слайды и уникальных пользователей.
func (s *MemoryStore) Stats(_ context.Context) (model.Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := model.Stats{Generations: len(s.items)}
	users := make(map[string]struct{})
	for _, g := range s.items {
		stats.Codes += g.Codes
		stats.Slides += g.Slides
		if g.UserID != "" {
			users[g.UserID] = struct{}{}
		}
	}
	stats.Users = len(users)
	return stats, nil
}

// Ping для памяти всегда успешен.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) load(g model.Generation) {
	s.mutex.Lock()
	s.items = append(s.items, g)
	s.mutex.Unlock()
}
