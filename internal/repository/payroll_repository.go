package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// PayrollRepository persists monthly payroll entries, one per worker and period.
type PayrollRepository interface {
	Upsert(ctx context.Context, entry *domain.PayrollEntry) (bool, error)
	Update(ctx context.Context, entry *domain.PayrollEntry) error
	GetByID(ctx context.Context, id string) (*domain.PayrollEntry, error)
	ListByPeriod(ctx context.Context, period string) ([]domain.PayrollEntry, error)
	CountUnpaid(ctx context.Context, period string) (int, error)
}

type payrollRepository struct {
	pool *pgxpool.Pool
}

// NewPayrollRepository builds repository.
func NewPayrollRepository(pool *pgxpool.Pool) PayrollRepository {
	return &payrollRepository{pool: pool}
}

const payrollColumns = `id, worker_id, worker_name, contract_id, period, days_worked, base_salary, allowances,
               deductions, net, paid, paid_at, created_at, updated_at`

// Upsert writes the computed part of an entry. Manual allowances and deductions
// on an existing row are kept, and paid rows are left alone; the boolean
// reports whether a row was written.
func (r *payrollRepository) Upsert(ctx context.Context, e *domain.PayrollEntry) (bool, error) {
	const query = `
        INSERT INTO payroll_entries (worker_id, worker_name, contract_id, period, days_worked, base_salary,
            allowances, deductions, net)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (worker_id, period) DO UPDATE SET
            worker_name=EXCLUDED.worker_name,
            contract_id=EXCLUDED.contract_id,
            days_worked=EXCLUDED.days_worked,
            base_salary=EXCLUDED.base_salary,
            net=EXCLUDED.base_salary + payroll_entries.allowances - payroll_entries.deductions,
            updated_at=NOW()
        WHERE NOT payroll_entries.paid
        RETURNING ` + payrollColumns
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		e.WorkerID,
		e.WorkerName,
		e.ContractID,
		e.Period,
		e.DaysWorked,
		e.BaseSalary,
		e.Allowances,
		e.Deductions,
		e.Net,
	)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	entries, err := scanPayroll(rows)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}
	*e = entries[0]
	return true, nil
}

func (r *payrollRepository) Update(ctx context.Context, e *domain.PayrollEntry) error {
	const query = `
        UPDATE payroll_entries SET allowances=$1, deductions=$2, net=$3, paid=$4, paid_at=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		e.Allowances, e.Deductions, e.Net, e.Paid, e.PaidAt, e.ID,
	).Scan(&e.UpdatedAt)
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (*domain.PayrollEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+payrollColumns+` FROM payroll_entries WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries, err := scanPayroll(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &entries[0], nil
}

func (r *payrollRepository) ListByPeriod(ctx context.Context, period string) ([]domain.PayrollEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+payrollColumns+` FROM payroll_entries WHERE period=$1 ORDER BY worker_name`, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayroll(rows)
}

func (r *payrollRepository) CountUnpaid(ctx context.Context, period string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM payroll_entries WHERE period=$1 AND NOT paid`, period).Scan(&n)
	return n, err
}

func scanPayroll(rows pgx.Rows) ([]domain.PayrollEntry, error) {
	var result []domain.PayrollEntry
	for rows.Next() {
		var e domain.PayrollEntry
		if err := rows.Scan(
			&e.ID,
			&e.WorkerID,
			&e.WorkerName,
			&e.ContractID,
			&e.Period,
			&e.DaysWorked,
			&e.BaseSalary,
			&e.Allowances,
			&e.Deductions,
			&e.Net,
			&e.Paid,
			&e.PaidAt,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
