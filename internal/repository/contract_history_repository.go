package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// ContractHistoryRepository stores audit entries.
type ContractHistoryRepository interface {
	Create(ctx context.Context, history *domain.ContractHistory) error
	ListByContract(ctx context.Context, contractID string) ([]domain.ContractHistory, error)
}

type contractHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewContractHistoryRepository builds repository.
func NewContractHistoryRepository(pool *pgxpool.Pool) ContractHistoryRepository {
	return &contractHistoryRepository{pool: pool}
}

func (r *contractHistoryRepository) Create(ctx context.Context, history *domain.ContractHistory) error {
	const query = `
        INSERT INTO contract_history (contract_id, changed_by, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		history.ContractID,
		history.ChangedBy,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *contractHistoryRepository) ListByContract(ctx context.Context, contractID string) ([]domain.ContractHistory, error) {
	const query = `
        SELECT id, contract_id, changed_by, change_type, old_value, new_value, created_at
        FROM contract_history WHERE contract_id=$1 ORDER BY created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ContractHistory
	for rows.Next() {
		var history domain.ContractHistory
		if err := rows.Scan(
			&history.ID,
			&history.ContractID,
			&history.ChangedBy,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
