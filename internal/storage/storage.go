package storage

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

import (
	"context"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
)

// Storage определяет интерфейс журнала генераций.
type Storage interface {
	// Save добавляет запись о генерации.
	Save(ctx context.Context, g *model.Generation) error
	// ListByUser возвращает генерации пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string) ([]*model.Generation, error)
	// Stats возвращает агрегированную статистику.
	Stats(ctx context.Context) (model.Stats, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}
