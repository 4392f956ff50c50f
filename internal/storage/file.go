package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
)

// FileStore хранит журнал в памяти и дописывает каждую запись в файл (одна JSON-запись на строку).
type FileStore struct {
	*MemoryStore
	file   string
	logger *zap.Logger
	mutex  sync.Mutex
}

// NewFileStore создаёт журнал и загружает в него записи из файла.
func NewFileStore(file string, logger *zap.Logger) *FileStore {
	store := &FileStore{
		MemoryStore: NewMemoryStore(),
		file:        file,
		logger:      logger,
	}

	// Загружаем данные из файла
	if err := store.LoadFromFile(); err != nil {
		logger.Error("Ошибка загрузки журнала из файла", zap.String("file", file), zap.Error(err))
	}

	return store
}

// Save сохраняет запись в памяти и дописывает её в файл.
func (s *FileStore) Save(ctx context.Context, g *model.Generation) error {
	if err := s.AppendToFile(g); err != nil {
		return fmt.Errorf("append generation to %s: %w", s.file, err)
	}
	return s.MemoryStore.Save(ctx, g)
}

// Ping проверяет, что файл журнала доступен на запись.
func (s *FileStore) Ping(_ context.Context) error {
	file, err := os.OpenFile(s.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return file.Close()
}

// LoadFromFile загружает записи при старте сервера.
func (s *FileStore) LoadFromFile() error {
	file, err := os.Open(s.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // Файл ещё не создан, это не ошибка
		}
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	count := 0
	for {
		var g model.Generation
		if err := decoder.Decode(&g); err != nil {
			break
		}
		s.MemoryStore.load(g)
		count++
	}

	s.logger.Info("Журнал генераций загружен", zap.Int("count", count), zap.String("file", s.file))
	return nil
}

// AppendToFile добавляет новую запись в файл
func (s *FileStore) AppendToFile(g *model.Generation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	file, err := os.OpenFile(s.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := json.Marshal(g)
	if err != nil {
		return err
	}

	_, err = file.Write(append(data, '\n')) // Записываем с новой строки
	return err
}
