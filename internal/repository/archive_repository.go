package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// ArchiveFilter narrows archive listings.
type ArchiveFilter struct {
	Search   *string
	WorkerID *string
	Page
}

// ArchiveRepository moves rows between the live and archive tables. Every move
// copies then deletes inside one transaction.
type ArchiveRepository interface {
	ArchiveContract(ctx context.Context, contractID string, by *string, reason string) (*domain.ArchivedContract, error)
	ArchiveWorker(ctx context.Context, workerID string, by *string, reason string) (*domain.ArchivedWorker, error)
	RestoreContract(ctx context.Context, archiveID string) (*domain.Contract, error)
	RestoreWorker(ctx context.Context, archiveID string) (*domain.Worker, error)
	GetContract(ctx context.Context, archiveID string) (*domain.ArchivedContract, error)
	GetWorker(ctx context.Context, archiveID string) (*domain.ArchivedWorker, error)
	ListContracts(ctx context.Context, filter ArchiveFilter) ([]domain.ArchivedContract, error)
	ListWorkers(ctx context.Context, filter ArchiveFilter) ([]domain.ArchivedWorker, error)
	Duplicates(ctx context.Context) ([]domain.ArchiveDuplicate, error)
	PurgeDuplicates(ctx context.Context) (int64, error)
}

type archiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository builds repository.
func NewArchiveRepository(pool *pgxpool.Pool) ArchiveRepository {
	return &archiveRepository{pool: pool}
}

const archivedContractColumns = `archive_id, ` + contractColumns + `, archived_at, archived_by, reason`

const archivedWorkerColumns = `archive_id, ` + workerColumns + `, archived_at, archived_by, reason`

func (r *archiveRepository) ArchiveContract(ctx context.Context, contractID string, by *string, reason string) (*domain.ArchivedContract, error) {
	var archived *domain.ArchivedContract
	err := withTx(ctx, r.pool, func(db DBTX) error {
		query := `
            INSERT INTO archived_contracts (` + contractColumns + `, archived_by, reason)
            SELECT ` + contractColumns + `, $2, $3 FROM contracts WHERE id=$1
            RETURNING ` + archivedContractColumns
		rows, err := db.Query(ctx, query, contractID, by, reason)
		if err != nil {
			return err
		}
		list, err := scanArchivedContracts(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return pgx.ErrNoRows
		}
		if _, err := db.Exec(ctx, `DELETE FROM contracts WHERE id=$1`, contractID); err != nil {
			return err
		}
		archived = &list[0]
		return nil
	})
	return archived, err
}

func (r *archiveRepository) ArchiveWorker(ctx context.Context, workerID string, by *string, reason string) (*domain.ArchivedWorker, error) {
	var archived *domain.ArchivedWorker
	err := withTx(ctx, r.pool, func(db DBTX) error {
		query := `
            INSERT INTO archived_workers (` + workerColumns + `, archived_by, reason)
            SELECT ` + workerColumns + `, $2, $3 FROM workers WHERE id=$1
            RETURNING ` + archivedWorkerColumns
		rows, err := db.Query(ctx, query, workerID, by, reason)
		if err != nil {
			return err
		}
		list, err := scanArchivedWorkers(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return pgx.ErrNoRows
		}
		if _, err := db.Exec(ctx, `DELETE FROM workers WHERE id=$1`, workerID); err != nil {
			return err
		}
		archived = &list[0]
		return nil
	})
	return archived, err
}

// RestoreContract puts the archived row back under its original id. A live row
// with the same id makes the insert fail with a unique violation.
func (r *archiveRepository) RestoreContract(ctx context.Context, archiveID string) (*domain.Contract, error) {
	var restored *domain.Contract
	err := withTx(ctx, r.pool, func(db DBTX) error {
		query := `
            INSERT INTO contracts (` + contractColumns + `)
            SELECT ` + contractColumns + ` FROM archived_contracts WHERE archive_id=$1
            RETURNING ` + contractColumns
		rows, err := db.Query(ctx, query, archiveID)
		if err != nil {
			return err
		}
		list, err := scanContracts(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return pgx.ErrNoRows
		}
		if _, err := db.Exec(ctx, `DELETE FROM archived_contracts WHERE archive_id=$1`, archiveID); err != nil {
			return err
		}
		restored = &list[0]
		return nil
	})
	return restored, err
}

func (r *archiveRepository) RestoreWorker(ctx context.Context, archiveID string) (*domain.Worker, error) {
	var restored *domain.Worker
	err := withTx(ctx, r.pool, func(db DBTX) error {
		query := `
            INSERT INTO workers (` + workerColumns + `)
            SELECT ` + workerColumns + ` FROM archived_workers WHERE archive_id=$1
            RETURNING ` + workerColumns
		rows, err := db.Query(ctx, query, archiveID)
		if err != nil {
			return err
		}
		list, err := scanWorkers(rows)
		rows.Close()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return pgx.ErrNoRows
		}
		if _, err := db.Exec(ctx, `DELETE FROM archived_workers WHERE archive_id=$1`, archiveID); err != nil {
			return err
		}
		restored = &list[0]
		return nil
	})
	return restored, err
}

func (r *archiveRepository) GetContract(ctx context.Context, archiveID string) (*domain.ArchivedContract, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+archivedContractColumns+` FROM archived_contracts WHERE archive_id=$1`, archiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := scanArchivedContracts(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &list[0], nil
}

func (r *archiveRepository) GetWorker(ctx context.Context, archiveID string) (*domain.ArchivedWorker, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+archivedWorkerColumns+` FROM archived_workers WHERE archive_id=$1`, archiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list, err := scanArchivedWorkers(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &list[0], nil
}

func (r *archiveRepository) ListContracts(ctx context.Context, filter ArchiveFilter) ([]domain.ArchivedContract, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		clauses = append(clauses, fmt.Sprintf("worker_id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(number) LIKE $%d", len(args)))
	}
	limit, offset := filter.bounds()
	query := fmt.Sprintf(`SELECT %s FROM archived_contracts WHERE %s ORDER BY archived_at DESC LIMIT %d OFFSET %d`,
		archivedContractColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArchivedContracts(rows)
}

func (r *archiveRepository) ListWorkers(ctx context.Context, filter ArchiveFilter) ([]domain.ArchivedWorker, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.WorkerID != nil {
		args = append(args, *filter.WorkerID)
		clauses = append(clauses, fmt.Sprintf("id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(full_name) LIKE %s OR residency_number LIKE %s)", placeholder, placeholder))
	}
	limit, offset := filter.bounds()
	query := fmt.Sprintf(`SELECT %s FROM archived_workers WHERE %s ORDER BY archived_at DESC LIMIT %d OFFSET %d`,
		archivedWorkerColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArchivedWorkers(rows)
}

// Duplicates lists archived ids that are either archived more than once or still live.
func (r *archiveRepository) Duplicates(ctx context.Context) ([]domain.ArchiveDuplicate, error) {
	const query = `
        SELECT 'contract' AS kind, a.id::text,
               array_agg(a.archive_id::text ORDER BY a.archived_at DESC),
               EXISTS (SELECT 1 FROM contracts c WHERE c.id = a.id)
        FROM archived_contracts a
        GROUP BY a.id
        HAVING COUNT(*) > 1 OR EXISTS (SELECT 1 FROM contracts c WHERE c.id = a.id)
        UNION ALL
        SELECT 'worker' AS kind, a.id::text,
               array_agg(a.archive_id::text ORDER BY a.archived_at DESC),
               EXISTS (SELECT 1 FROM workers w WHERE w.id = a.id)
        FROM archived_workers a
        GROUP BY a.id
        HAVING COUNT(*) > 1 OR EXISTS (SELECT 1 FROM workers w WHERE w.id = a.id)
        ORDER BY 1, 2`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ArchiveDuplicate
	for rows.Next() {
		var d domain.ArchiveDuplicate
		if err := rows.Scan(&d.Kind, &d.OriginalID, &d.ArchiveIDs, &d.LiveExists); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// PurgeDuplicates removes archive rows whose original is live, then every
// archived copy but the newest.
func (r *archiveRepository) PurgeDuplicates(ctx context.Context) (int64, error) {
	statements := []string{
		`DELETE FROM archived_contracts a USING contracts c WHERE a.id = c.id`,
		`DELETE FROM archived_workers a USING workers w WHERE a.id = w.id`,
		`DELETE FROM archived_contracts a WHERE EXISTS (
            SELECT 1 FROM archived_contracts b
            WHERE b.id = a.id AND (b.archived_at, b.archive_id) > (a.archived_at, a.archive_id))`,
		`DELETE FROM archived_workers a WHERE EXISTS (
            SELECT 1 FROM archived_workers b
            WHERE b.id = a.id AND (b.archived_at, b.archive_id) > (a.archived_at, a.archive_id))`,
	}
	var total int64
	err := withTx(ctx, r.pool, func(db DBTX) error {
		for _, stmt := range statements {
			cmd, err := db.Exec(ctx, stmt)
			if err != nil {
				return err
			}
			total += cmd.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func scanArchivedContracts(rows pgx.Rows) ([]domain.ArchivedContract, error) {
	var result []domain.ArchivedContract
	for rows.Next() {
		var a domain.ArchivedContract
		c := &a.Contract
		if err := rows.Scan(
			&a.ArchiveID,
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
			&a.ArchivedAt,
			&a.ArchivedBy,
			&a.Reason,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanArchivedWorkers(rows pgx.Rows) ([]domain.ArchivedWorker, error) {
	var result []domain.ArchivedWorker
	for rows.Next() {
		var a domain.ArchivedWorker
		w := &a.Worker
		if err := rows.Scan(
			&a.ArchiveID,
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
			&a.ArchivedAt,
			&a.ArchivedBy,
			&a.Reason,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
