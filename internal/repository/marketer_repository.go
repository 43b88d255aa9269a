package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// MarketerFilter captures marketer search parameters.
type MarketerFilter struct {
	Active *bool
	Search *string
	Page
}

// MarketerRepository encapsulates marketer persistence.
type MarketerRepository interface {
	Create(ctx context.Context, m *domain.Marketer) error
	Update(ctx context.Context, m *domain.Marketer) error
	GetByID(ctx context.Context, id string) (*domain.Marketer, error)
	List(ctx context.Context, filter MarketerFilter) ([]domain.Marketer, error)
	Delete(ctx context.Context, id string) error
}

type marketerRepository struct {
	pool *pgxpool.Pool
}

// NewMarketerRepository builds repository.
func NewMarketerRepository(pool *pgxpool.Pool) MarketerRepository {
	return &marketerRepository{pool: pool}
}

const marketerColumns = `id, name, phone, user_id, commission_percent, active, created_at, updated_at`

func (r *marketerRepository) Create(ctx context.Context, m *domain.Marketer) error {
	const query = `
        INSERT INTO marketers (name, phone, user_id, commission_percent, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		m.Name, m.Phone, m.UserID, m.CommissionPercent, m.Active,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *marketerRepository) Update(ctx context.Context, m *domain.Marketer) error {
	const query = `
        UPDATE marketers SET name=$1, phone=$2, user_id=$3, commission_percent=$4, active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		m.Name, m.Phone, m.UserID, m.CommissionPercent, m.Active, m.ID,
	).Scan(&m.UpdatedAt)
}

func (r *marketerRepository) GetByID(ctx context.Context, id string) (*domain.Marketer, error) {
	var m domain.Marketer
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+marketerColumns+` FROM marketers WHERE id=$1`, id).Scan(
		&m.ID, &m.Name, &m.Phone, &m.UserID, &m.CommissionPercent, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *marketerRepository) List(ctx context.Context, filter MarketerFilter) ([]domain.Marketer, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}

	limit, offset := filter.bounds()
	query := fmt.Sprintf(`SELECT %s FROM marketers WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`,
		marketerColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Marketer
	for rows.Next() {
		var m domain.Marketer
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Phone, &m.UserID, &m.CommissionPercent, &m.Active, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *marketerRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM marketers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
