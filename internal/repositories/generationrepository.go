package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sithlordsylar/PPTX-Gen-Temp/internal/model"
)

// Querier: подмножество методов pgxpool.Pool, которым пользуется репозиторий.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// GenerationRepository хранит журнал генераций в PostgreSQL.
type GenerationRepository struct {
	DB Querier
}

// NewGenerationRepository создаёт новый экземпляр GenerationRepository.
func NewGenerationRepository(db Querier) *GenerationRepository {
	return &GenerationRepository{DB: db}
}

// Save сохраняет запись о генерации.
func (r *GenerationRepository) Save(ctx context.Context, g *model.Generation) error {
	query := `INSERT INTO generations (id, user_id, template, output, placeholder, codes, slides, items_per_slide, created)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.Exec(ctx, query,
		g.ID, g.UserID, g.Template, g.Output, g.Placeholder, g.Codes, g.Slides, g.ItemsPerSlide, g.Created)
	if err != nil {
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// ListByUser возвращает генерации пользователя, новые первыми.
func (r *GenerationRepository) ListByUser(ctx context.Context, userID string) ([]*model.Generation, error) {
	query := `SELECT id, user_id, template, output, placeholder, codes, slides, items_per_slide, created
              FROM generations WHERE user_id = $1 ORDER BY created DESC`

	rows, err := r.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations by user: %w", err)
	}
	defer rows.Close()

	var results []*model.Generation
	for rows.Next() {
		g := &model.Generation{}
		err := rows.Scan(&g.ID, &g.UserID, &g.Template, &g.Output, &g.Placeholder,
			&g.Codes, &g.Slides, &g.ItemsPerSlide, &g.Created)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return results, nil
}

// Stats возвращает агрегированную статистику журнала.
func (r *GenerationRepository) Stats(ctx context.Context) (model.Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(codes), 0), COALESCE(SUM(slides), 0), COUNT(DISTINCT NULLIF(user_id, ''))
              FROM generations`

	var stats model.Stats
	err := r.DB.QueryRow(ctx, query).Scan(&stats.Generations, &stats.Codes, &stats.Slides, &stats.Users)
	if err != nil {
		return model.Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	return stats, nil
}

// Ping проверяет доступность базы данных.
func (r *GenerationRepository) Ping(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, "SELECT 1")
	return err
}
