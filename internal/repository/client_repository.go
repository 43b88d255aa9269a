package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// ClientFilter captures client search parameters.
type ClientFilter struct {
	City   *string
	Search *string
	Page
}

// ClientRepository encapsulates client persistence.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByNationalID(ctx context.Context, nationalID string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
	Delete(ctx context.Context, id string) error
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository builds repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, full_name, national_id, phone, city, address, notes, created_at, updated_at`

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) error {
	const query = `
        INSERT INTO clients (full_name, national_id, phone, city, address, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		c.FullName, c.NationalID, c.Phone, c.City, c.Address, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, c *domain.Client) error {
	const query = `
        UPDATE clients SET full_name=$1, national_id=$2, phone=$3, city=$4, address=$5, notes=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		c.FullName, c.NationalID, c.Phone, c.City, c.Address, c.Notes, c.ID,
	).Scan(&c.UpdatedAt)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.fetchSingle(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id)
}

func (r *clientRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Client, error) {
	return r.fetchSingle(ctx, `SELECT `+clientColumns+` FROM clients WHERE national_id=$1`, nationalID)
}

func (r *clientRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Client, error) {
	var c domain.Client
	if err := conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.FullName, &c.NationalID, &c.Phone, &c.City, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter) ([]domain.Client, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.City != nil {
		args = append(args, strings.ToLower(*filter.City))
		clauses = append(clauses, fmt.Sprintf("LOWER(city)=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.Search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(full_name) LIKE %s OR national_id LIKE %s OR phone LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit, offset := filter.bounds()
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY full_name ASC LIMIT %d OFFSET %d`,
		clientColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(
			&c.ID, &c.FullName, &c.NationalID, &c.Phone, &c.City, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
