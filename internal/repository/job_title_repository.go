package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// JobTitleRepository persists job titles, their permission grants and the permission list.
type JobTitleRepository interface {
	Create(ctx context.Context, title *domain.JobTitle) error
	Update(ctx context.Context, title *domain.JobTitle) error
	GetByID(ctx context.Context, id string) (*domain.JobTitle, error)
	GetByName(ctx context.Context, name string) (*domain.JobTitle, error)
	List(ctx context.Context) ([]domain.JobTitle, error)
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, id string) (int, error)
	UpsertPermissions(ctx context.Context, perms []domain.PermissionInfo) error
	ListPermissions(ctx context.Context) ([]domain.PermissionInfo, error)
}

type jobTitleRepository struct {
	pool *pgxpool.Pool
}

// NewJobTitleRepository builds repository.
func NewJobTitleRepository(pool *pgxpool.Pool) JobTitleRepository {
	return &jobTitleRepository{pool: pool}
}

const jobTitleSelect = `
        SELECT jt.id, jt.name, jt.description, jt.is_system, jt.created_at, jt.updated_at,
               COALESCE(array_agg(p.permission_code ORDER BY p.permission_code)
                        FILTER (WHERE p.permission_code IS NOT NULL), '{}')
        FROM job_titles jt
        LEFT JOIN job_title_permissions p ON p.job_title_id = jt.id`

func (r *jobTitleRepository) Create(ctx context.Context, title *domain.JobTitle) error {
	return withTx(ctx, r.pool, func(db DBTX) error {
		const query = `
            INSERT INTO job_titles (name, description, is_system)
            VALUES ($1,$2,$3)
            RETURNING id, created_at, updated_at`
		if err := db.QueryRow(ctx, query, title.Name, title.Description, title.IsSystem).
			Scan(&title.ID, &title.CreatedAt, &title.UpdatedAt); err != nil {
			return err
		}
		return replacePermissions(ctx, db, title.ID, title.Permissions)
	})
}

func (r *jobTitleRepository) Update(ctx context.Context, title *domain.JobTitle) error {
	return withTx(ctx, r.pool, func(db DBTX) error {
		const query = `
            UPDATE job_titles SET name=$1, description=$2, updated_at=NOW()
            WHERE id=$3
            RETURNING updated_at`
		if err := db.QueryRow(ctx, query, title.Name, title.Description, title.ID).Scan(&title.UpdatedAt); err != nil {
			return err
		}
		return replacePermissions(ctx, db, title.ID, title.Permissions)
	})
}

func replacePermissions(ctx context.Context, db DBTX, titleID string, perms []domain.Permission) error {
	if _, err := db.Exec(ctx, `DELETE FROM job_title_permissions WHERE job_title_id=$1`, titleID); err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	_, err := db.Exec(ctx, `
        INSERT INTO job_title_permissions (job_title_id, permission_code)
        SELECT $1, code FROM unnest($2::text[]) AS code
        ON CONFLICT DO NOTHING`, titleID, codes)
	return err
}

func (r *jobTitleRepository) GetByID(ctx context.Context, id string) (*domain.JobTitle, error) {
	return r.fetchSingle(ctx, jobTitleSelect+` WHERE jt.id=$1 GROUP BY jt.id`, id)
}

func (r *jobTitleRepository) GetByName(ctx context.Context, name string) (*domain.JobTitle, error) {
	return r.fetchSingle(ctx, jobTitleSelect+` WHERE LOWER(jt.name)=LOWER($1) GROUP BY jt.id`, name)
}

func (r *jobTitleRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.JobTitle, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	titles, err := scanJobTitles(rows)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &titles[0], nil
}

func (r *jobTitleRepository) List(ctx context.Context) ([]domain.JobTitle, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, jobTitleSelect+` GROUP BY jt.id ORDER BY jt.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobTitles(rows)
}

func scanJobTitles(rows pgx.Rows) ([]domain.JobTitle, error) {
	var result []domain.JobTitle
	for rows.Next() {
		var (
			title domain.JobTitle
			codes []string
		)
		if err := rows.Scan(
			&title.ID,
			&title.Name,
			&title.Description,
			&title.IsSystem,
			&title.CreatedAt,
			&title.UpdatedAt,
			&codes,
		); err != nil {
			return nil, err
		}
		title.Permissions = make([]domain.Permission, len(codes))
		for i, code := range codes {
			title.Permissions[i] = domain.Permission(code)
		}
		result = append(result, title)
	}
	return result, rows.Err()
}

func (r *jobTitleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM job_titles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *jobTitleRepository) CountUsers(ctx context.Context, id string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE job_title_id=$1`, id).Scan(&n)
	return n, err
}

func (r *jobTitleRepository) UpsertPermissions(ctx context.Context, perms []domain.PermissionInfo) error {
	return withTx(ctx, r.pool, func(db DBTX) error {
		const query = `
            INSERT INTO permissions (code, description, grp) VALUES ($1,$2,$3)
            ON CONFLICT (code) DO UPDATE SET description=EXCLUDED.description, grp=EXCLUDED.grp`
		for _, p := range perms {
			if _, err := db.Exec(ctx, query, string(p.Code), p.Description, p.Group); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *jobTitleRepository) ListPermissions(ctx context.Context) ([]domain.PermissionInfo, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT code, description, grp FROM permissions ORDER BY grp, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PermissionInfo
	for rows.Next() {
		var (
			p    domain.PermissionInfo
			code string
		)
		if err := rows.Scan(&code, &p.Description, &p.Group); err != nil {
			return nil, err
		}
		p.Code = domain.Permission(code)
		result = append(result, p)
	}
	return result, rows.Err()
}
