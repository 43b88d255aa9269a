package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// WorkerFilter captures worker search parameters.
type WorkerFilter struct {
	Statuses    []domain.WorkerStatus
	Nationality *string
	Search      *string
	Page
}

// WorkerRepository encapsulates worker persistence.
type WorkerRepository interface {
	Create(ctx context.Context, worker *domain.Worker) error
	Update(ctx context.Context, worker *domain.Worker) error
	UpdateStatus(ctx context.Context, id string, status domain.WorkerStatus) error
	GetByID(ctx context.Context, id string) (*domain.Worker, error)
	GetByResidencyNumber(ctx context.Context, number string) (*domain.Worker, error)
	List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[domain.WorkerStatus]int, error)
}

type workerRepository struct {
	pool *pgxpool.Pool
}

// NewWorkerRepository instantiates repository.
func NewWorkerRepository(pool *pgxpool.Pool) WorkerRepository {
	return &workerRepository{pool: pool}
}

const workerColumns = `id, full_name, nationality, passport_number, residency_number, residency_expiry,
               profession, religion, birth_date, phone, status, monthly_salary, notes, created_at, updated_at`

func (r *workerRepository) Create(ctx context.Context, w *domain.Worker) error {
	const query = `
        INSERT INTO workers (full_name, nationality, passport_number, residency_number, residency_expiry,
            profession, religion, birth_date, phone, status, monthly_salary, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		w.FullName,
		w.Nationality,
		w.PassportNumber,
		w.ResidencyNumber,
		w.ResidencyExpiry,
		w.Profession,
		w.Religion,
		w.BirthDate,
		w.Phone,
		w.Status,
		w.MonthlySalary,
		w.Notes,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

func (r *workerRepository) Update(ctx context.Context, w *domain.Worker) error {
	const query = `
        UPDATE workers SET full_name=$1, nationality=$2, passport_number=$3, residency_number=$4,
            residency_expiry=$5, profession=$6, religion=$7, birth_date=$8, phone=$9, status=$10,
            monthly_salary=$11, notes=$12, updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		w.FullName,
		w.Nationality,
		w.PassportNumber,
		w.ResidencyNumber,
		w.ResidencyExpiry,
		w.Profession,
		w.Religion,
		w.BirthDate,
		w.Phone,
		w.Status,
		w.MonthlySalary,
		w.Notes,
		w.ID,
	).Scan(&w.UpdatedAt)
}

func (r *workerRepository) UpdateStatus(ctx context.Context, id string, status domain.WorkerStatus) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `UPDATE workers SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workerRepository) GetByID(ctx context.Context, id string) (*domain.Worker, error) {
	return r.fetchSingle(ctx, `SELECT `+workerColumns+` FROM workers WHERE id=$1`, id)
}

func (r *workerRepository) GetByResidencyNumber(ctx context.Context, number string) (*domain.Worker, error) {
	return r.fetchSingle(ctx, `SELECT `+workerColumns+` FROM workers WHERE residency_number=$1`, number)
}

func (r *workerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Worker, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	workers, err := scanWorkers(rows)
	if err != nil {
		return nil, err
	}
	if len(workers) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &workers[0], nil
}

func (r *workerRepository) List(ctx context.Context, filter WorkerFilter) ([]domain.Worker, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Nationality != nil {
		args = append(args, *filter.Nationality)
		clauses = append(clauses, fmt.Sprintf("nationality=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(full_name) LIKE %s OR residency_number LIKE %s OR LOWER(passport_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit, offset := filter.bounds()
	query := fmt.Sprintf(`SELECT %s FROM workers WHERE %s ORDER BY full_name ASC LIMIT %d OFFSET %d`,
		workerColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkers(rows)
}

func scanWorkers(rows pgx.Rows) ([]domain.Worker, error) {
	var result []domain.Worker
	for rows.Next() {
		var w domain.Worker
		if err := rows.Scan(
			&w.ID,
			&w.FullName,
			&w.Nationality,
			&w.PassportNumber,
			&w.ResidencyNumber,
			&w.ResidencyExpiry,
			&w.Profession,
			&w.Religion,
			&w.BirthDate,
			&w.Phone,
			&w.Status,
			&w.MonthlySalary,
			&w.Notes,
			&w.CreatedAt,
			&w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (r *workerRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM workers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workerRepository) CountByStatus(ctx context.Context) (map[domain.WorkerStatus]int, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM workers GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.WorkerStatus]int)
	for rows.Next() {
		var (
			status domain.WorkerStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
