package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/metrics"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/pptx"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/storage"
	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/util"
)

// DefaultPlaceholder: метка-заполнитель по умолчанию.
const DefaultPlaceholder = "{{NUM}}"

var (
	// ErrNoCodes: после разбора не осталось ни одного кода.
	ErrNoCodes = errors.New("no running numbers provided")
	// ErrInvalidItemsPerSlide: число кодов на слайд меньше единицы.
	ErrInvalidItemsPerSlide = errors.New("items per slide must be a positive integer")
)

// GeneratorService заполняет шаблоны и ведёт журнал генераций.
type GeneratorService struct {
	Store                storage.Storage
	Metrics              *metrics.Metrics
	Logger               *zap.Logger
	DefaultPlaceholder   string
	DefaultItemsPerSlide int
}

// NewGeneratorService создаёт сервис. Пустые значения по умолчанию заменяются на {{NUM}} и 1.
func NewGeneratorService(store storage.Storage, m *metrics.Metrics, logger *zap.Logger, placeholder string, itemsPerSlide int) *GeneratorService {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if itemsPerSlide < 1 {
		itemsPerSlide = 1
	}
	if m == nil {
		m = metrics.New()
	}
	return &GeneratorService{
		Store:                store,
		Metrics:              m,
		Logger:               logger,
		DefaultPlaceholder:   placeholder,
		DefaultItemsPerSlide: itemsPerSlide,
	}
}

// Generate дублирует первый слайд шаблона по числу групп кодов и подставляет
// в слайд i коды группы i.
func (s *GeneratorService) Generate(ctx context.Context, userID string, req model.GenerateRequest) (*model.GenerateResult, error) {
	start := time.Now()

	result, err := s.generate(req)
	if err != nil {
		s.Metrics.ObserveFailure(outcome(err))
		return nil, err
	}
	s.Metrics.ObserveSuccess(result.Codes, result.Slides, time.Since(start))

	s.record(ctx, userID, req, result)
	return result, nil
}

func (s *GeneratorService) generate(req model.GenerateRequest) (*model.GenerateResult, error) {
	codes := util.ParseCodes(req.RunningNumbers)
	if len(codes) == 0 {
		return nil, ErrNoCodes
	}

	itemsPerSlide := req.ItemsPerSlide
	if itemsPerSlide == 0 {
		itemsPerSlide = s.DefaultItemsPerSlide
	}
	chunks, err := util.Chunk(codes, itemsPerSlide)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemsPerSlide, itemsPerSlide)
	}

	placeholder := req.Placeholder
	if placeholder == "" {
		placeholder = s.DefaultPlaceholder
	}

	prs, err := pptx.Open(req.Template, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}

	// Фаза 1: дублируем исходный слайд
	source := prs.Slides()[0]
	for i := 1; i < len(chunks); i++ {
		if _, err := prs.DuplicateSlide(source); err != nil {
			return nil, fmt.Errorf("duplicate slide: %w", err)
		}
	}

	// Фаза 2: подставляем данные
	slides := prs.Slides()
	for i, chunk := range chunks {
		used := slides[i].ReplacePlaceholders(placeholder, chunk)
		if used < len(chunk) {
			s.Logger.Debug("slide has fewer placeholders than codes",
				zap.Int("slide", i+1), zap.Int("codes", len(chunk)), zap.Int("placed", used))
		}
	}

	var buf bytes.Buffer
	if err := prs.Save(&buf); err != nil {
		return nil, fmt.Errorf("save presentation: %w", err)
	}

	return &model.GenerateResult{
		Filename: util.OutputName(req.Filename),
		Document: buf.Bytes(),
		Slides:   len(chunks),
		Codes:    len(codes),
	}, nil
}

// record пишет запись в журнал. Ошибка журнала не ломает генерацию.
func (s *GeneratorService) record(ctx context.Context, userID string, req model.GenerateRequest, result *model.GenerateResult) {
	placeholder := req.Placeholder
	if placeholder == "" {
		placeholder = s.DefaultPlaceholder
	}
	itemsPerSlide := req.ItemsPerSlide
	if itemsPerSlide == 0 {
		itemsPerSlide = s.DefaultItemsPerSlide
	}

	g := &model.Generation{
		ID:            uuid.NewString(),
		UserID:        userID,
		Template:      req.Filename,
		Output:        result.Filename,
		Placeholder:   placeholder,
		Codes:         result.Codes,
		Slides:        result.Slides,
		ItemsPerSlide: itemsPerSlide,
		Created:       time.Now(),
	}
	if err := s.Store.Save(ctx, g); err != nil {
		s.Logger.Error("failed to record generation", zap.String("id", g.ID), zap.Error(err))
	}
}

// History возвращает генерации пользователя.
func (s *GeneratorService) History(ctx context.Context, userID string) ([]*model.Generation, error) {
	return s.Store.ListByUser(ctx, userID)
}

// Stats возвращает статистику журнала.
func (s *GeneratorService) Stats(ctx context.Context) (model.Stats, error) {
	stats, err := s.Store.Stats(ctx)
	if err != nil {
		s.Logger.Error("Failed to retrieve stats", zap.Error(err))
		return model.Stats{}, err
	}
	return stats, nil
}

// Ping проверяет хранилище журнала.
func (s *GeneratorService) Ping(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

// IsClientError сообщает, вызвана ли ошибка некорректными входными данными.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoCodes) ||
		errors.Is(err, ErrInvalidItemsPerSlide) ||
		errors.Is(err, pptx.ErrInvalidPackage) ||
		errors.Is(err, pptx.ErrNoSlides)
}

func outcome(err error) string {
	if IsClientError(err) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}
