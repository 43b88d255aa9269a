package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// NationalityRepository stores the salary reference per nationality.
type NationalityRepository interface {
	List(ctx context.Context) ([]domain.Nationality, error)
	Get(ctx context.Context, code string) (*domain.Nationality, error)
	Upsert(ctx context.Context, n *domain.Nationality) error
	Delete(ctx context.Context, code string) error
}

type nationalityRepository struct {
	pool *pgxpool.Pool
}

// NewNationalityRepository builds repository.
func NewNationalityRepository(pool *pgxpool.Pool) NationalityRepository {
	return &nationalityRepository{pool: pool}
}

func (r *nationalityRepository) List(ctx context.Context) ([]domain.Nationality, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
        SELECT code, name, monthly_salary, recruitment_fee, updated_at
        FROM nationalities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Nationality
	for rows.Next() {
		var n domain.Nationality
		if err := rows.Scan(&n.Code, &n.Name, &n.MonthlySalary, &n.RecruitmentFee, &n.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *nationalityRepository) Get(ctx context.Context, code string) (*domain.Nationality, error) {
	var n domain.Nationality
	if err := conn(ctx, r.pool).QueryRow(ctx, `
        SELECT code, name, monthly_salary, recruitment_fee, updated_at
        FROM nationalities WHERE code=$1`, code).
		Scan(&n.Code, &n.Name, &n.MonthlySalary, &n.RecruitmentFee, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *nationalityRepository) Upsert(ctx context.Context, n *domain.Nationality) error {
	const query = `
        INSERT INTO nationalities (code, name, monthly_salary, recruitment_fee)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (code) DO UPDATE SET name=EXCLUDED.name, monthly_salary=EXCLUDED.monthly_salary,
            recruitment_fee=EXCLUDED.recruitment_fee, updated_at=NOW()
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query, n.Code, n.Name, n.MonthlySalary, n.RecruitmentFee).Scan(&n.UpdatedAt)
}

func (r *nationalityRepository) Delete(ctx context.Context, code string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM nationalities WHERE code=$1`, code)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
