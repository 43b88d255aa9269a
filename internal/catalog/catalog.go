// Package catalog holds the built-in permission list and the default job titles.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

//go:embed permissions.yaml
var rawCatalog []byte

// JobTitleDef is a default job title seeded at boot.
type JobTitleDef struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Permissions []domain.Permission `yaml:"permissions"`
}

// Catalog is the parsed permissions file.
type Catalog struct {
	Permissions []domain.PermissionInfo `yaml:"permissions"`
	JobTitles   []JobTitleDef           `yaml:"job_titles"`

	index map[domain.Permission]struct{}
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(rawCatalog)
}

// Parse decodes a catalog document and checks that job titles only use declared permissions.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse permission catalog: %w", err)
	}
	c.index = make(map[domain.Permission]struct{}, len(c.Permissions))
	for _, p := range c.Permissions {
		if _, dup := c.index[p.Code]; dup {
			return nil, fmt.Errorf("permission %q declared twice", p.Code)
		}
		c.index[p.Code] = struct{}{}
	}
	for _, jt := range c.JobTitles {
		for _, p := range jt.Permissions {
			if !c.Contains(p) {
				return nil, fmt.Errorf("job title %q uses unknown permission %q", jt.Name, p)
			}
		}
	}
	return &c, nil
}

// Contains reports whether p is a declared permission.
func (c *Catalog) Contains(p domain.Permission) bool {
	_, ok := c.index[p]
	return ok
}

// Unknown returns the permissions in perms that the catalog does not declare.
func (c *Catalog) Unknown(perms []domain.Permission) []domain.Permission {
	var out []domain.Permission
	for _, p := range perms {
		if !c.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// Store is the persistence needed to seed the catalog.
type Store interface {
	UpsertPermissions(ctx context.Context, perms []domain.PermissionInfo) error
	GetByName(ctx context.Context, name string) (*domain.JobTitle, error)
	Create(ctx context.Context, title *domain.JobTitle) error
}

// Seed writes permissions and creates missing default job titles. Existing
// job titles keep whatever permissions an administrator gave them.
func (c *Catalog) Seed(ctx context.Context, store Store, logger *zap.Logger) error {
	if err := store.UpsertPermissions(ctx, c.Permissions); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	for _, def := range c.JobTitles {
		existing, err := store.GetByName(ctx, def.Name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lookup job title %s: %w", def.Name, err)
		}
		if existing != nil {
			continue
		}
		title := &domain.JobTitle{
			Name:        def.Name,
			Description: def.Description,
			Permissions: def.Permissions,
			IsSystem:    true,
		}
		if err := store.Create(ctx, title); err != nil {
			return fmt.Errorf("seed job title %s: %w", def.Name, err)
		}
		logger.Info("seeded job title", zap.String("name", def.Name), zap.String("id", title.ID))
	}
	return nil
}
