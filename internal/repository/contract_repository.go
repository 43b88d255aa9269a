package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// ContractFilter captures contract search parameters. Date bounds compare calendar days.
type ContractFilter struct {
	Statuses   []domain.ContractStatus
	WorkerID   *string
	ClientID   *string
	MarketerID *string
	// StartFrom <= start_date < StartTo
	StartFrom *time.Time
	StartTo   *time.Time
	// EndAfter < end_date <= EndOnOrBefore
	EndAfter      *time.Time
	EndOnOrBefore *time.Time
	// contracts covering any day in [OverlapFrom, OverlapTo)
	OverlapFrom   *time.Time
	OverlapTo     *time.Time
	UpdatedBefore *time.Time
	Search        *string
	// Unbounded lifts the page size cap for internal sweeps and reports.
	Unbounded bool
	Page
}

// ContractRepository encapsulates contract persistence.
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) error
	Update(ctx context.Context, contract *domain.Contract) error
	GetByID(ctx context.Context, id string) (*domain.Contract, error)
	// GetForUpdate reads the row and locks it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Contract, error)
	GetByNumber(ctx context.Context, number string) (*domain.Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]domain.Contract, error)
	HasOpenContract(ctx context.Context, workerID string) (bool, error)
	CountByWorker(ctx context.Context, workerID string) (int, error)
	CountByClient(ctx context.Context, clientID string) (int, error)
	CountByStatus(ctx context.Context) (map[domain.ContractStatus]int, error)
}

type contractRepository struct {
	pool *pgxpool.Pool
}

// NewContractRepository instantiates repository.
func NewContractRepository(pool *pgxpool.Pool) ContractRepository {
	return &contractRepository{pool: pool}
}

const contractColumns = `id, number, worker_id, client_id, marketer_id, start_date, end_date, fee, monthly_salary,
               status, termination_date, termination_reason, refund, penalty, notes, created_by, created_at, updated_at`

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	const query = `
        INSERT INTO contracts (number, worker_id, client_id, marketer_id, start_date, end_date, fee,
            monthly_salary, status, notes, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		c.Number,
		c.WorkerID,
		c.ClientID,
		c.MarketerID,
		c.StartDate,
		c.EndDate,
		c.Fee,
		c.MonthlySalary,
		c.Status,
		c.Notes,
		c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	const query = `
        UPDATE contracts SET marketer_id=$1, start_date=$2, end_date=$3, fee=$4, monthly_salary=$5, status=$6,
            termination_date=$7, termination_reason=$8, refund=$9, penalty=$10, notes=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		c.MarketerID,
		c.StartDate,
		c.EndDate,
		c.Fee,
		c.MonthlySalary,
		c.Status,
		c.TerminationDate,
		c.TerminationReason,
		c.Refund,
		c.Penalty,
		c.Notes,
		c.ID,
	).Scan(&c.UpdatedAt)
}

func (r *contractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	return r.fetchSingle(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id=$1`, id)
}

func (r *contractRepository) GetForUpdate(ctx context.Context, id string) (*domain.Contract, error) {
	return r.fetchSingle(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id=$1 FOR UPDATE`, id)
}

func (r *contractRepository) GetByNumber(ctx context.Context, number string) (*domain.Contract, error) {
	return r.fetchSingle(ctx, `SELECT `+contractColumns+` FROM contracts WHERE number=$1`, number)
}

func (r *contractRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Contract, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	contracts, err := scanContracts(rows)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &contracts[0], nil
}

func (r *contractRepository) List(ctx context.Context, filter ContractFilter) ([]domain.Contract, error) {
	clauses := []string{"1=1"}
	args := []any{}
	add := func(format string, val any) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.WorkerID != nil {
		add("worker_id=$%d", *filter.WorkerID)
	}
	if filter.ClientID != nil {
		add("client_id=$%d", *filter.ClientID)
	}
	if filter.MarketerID != nil {
		add("marketer_id=$%d", *filter.MarketerID)
	}
	if filter.StartFrom != nil {
		add("start_date >= $%d", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		add("start_date < $%d", *filter.StartTo)
	}
	if filter.EndAfter != nil {
		add("end_date > $%d", *filter.EndAfter)
	}
	if filter.EndOnOrBefore != nil {
		add("end_date <= $%d", *filter.EndOnOrBefore)
	}
	if filter.OverlapTo != nil {
		add("start_date < $%d", *filter.OverlapTo)
	}
	if filter.OverlapFrom != nil {
		add("LEAST(end_date, COALESCE(termination_date, end_date)) > $%d", *filter.OverlapFrom)
	}
	if filter.UpdatedBefore != nil {
		add("updated_at < $%d", *filter.UpdatedBefore)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		add("LOWER(number) LIKE $%d", "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
	}

	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE %s ORDER BY start_date DESC, number DESC`,
		contractColumns, strings.Join(clauses, " AND "))
	if !filter.Unbounded {
		limit, offset := filter.bounds()
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContracts(rows)
}

func scanContracts(rows pgx.Rows) ([]domain.Contract, error) {
	var result []domain.Contract
	for rows.Next() {
		var c domain.Contract
		if err := rows.Scan(
			&c.ID,
			&c.Number,
			&c.WorkerID,
			&c.ClientID,
			&c.MarketerID,
			&c.StartDate,
			&c.EndDate,
			&c.Fee,
			&c.MonthlySalary,
			&c.Status,
			&c.TerminationDate,
			&c.TerminationReason,
			&c.Refund,
			&c.Penalty,
			&c.Notes,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// HasOpenContract reports whether the worker has a PENDING or ACTIVE contract.
func (r *contractRepository) HasOpenContract(ctx context.Context, workerID string) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM contracts WHERE worker_id=$1 AND status IN ('PENDING','ACTIVE'))`,
		workerID).Scan(&exists)
	return exists, err
}

func (r *contractRepository) CountByWorker(ctx context.Context, workerID string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM contracts WHERE worker_id=$1`, workerID).Scan(&n)
	return n, err
}

func (r *contractRepository) CountByClient(ctx context.Context, clientID string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM contracts WHERE client_id=$1`, clientID).Scan(&n)
	return n, err
}

func (r *contractRepository) CountByStatus(ctx context.Context) (map[domain.ContractStatus]int, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM contracts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ContractStatus]int)
	for rows.Next() {
		var (
			status domain.ContractStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
