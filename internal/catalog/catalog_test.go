package catalog

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

type memStore struct {
	perms  []domain.PermissionInfo
	titles map[string]*domain.JobTitle
}

func (m *memStore) UpsertPermissions(_ context.Context, perms []domain.PermissionInfo) error {
	m.perms = perms
	return nil
}

func (m *memStore) GetByName(_ context.Context, name string) (*domain.JobTitle, error) {
	if t, ok := m.titles[name]; ok {
		return t, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) Create(_ context.Context, title *domain.JobTitle) error {
	title.ID = "id-" + title.Name
	m.titles[title.Name] = title
	return nil
}

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.True(t, c.Contains(domain.PermissionAll))
	for _, p := range []domain.Permission{
		domain.PermUsersManage, domain.PermWorkersRead, domain.PermContractsManage,
		domain.PermPayrollWrite, domain.PermBackupsManage, domain.PermDocuments, domain.PermDashboard,
	} {
		assert.True(t, c.Contains(p), p)
	}
	require.NotEmpty(t, c.JobTitles)
	assert.Equal(t, "Administrator", c.JobTitles[0].Name)
	assert.Equal(t, []domain.Permission{domain.PermissionAll}, c.JobTitles[0].Permissions)
}

func TestParseRejectsUnknownPermission(t *testing.T) {
	_, err := Parse([]byte(`
permissions:
  - code: a.read
job_titles:
  - name: X
    permissions: [b.write]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.write")
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
permissions:
  - code: a.read
  - code: a.read
`))
	require.Error(t, err)
}

func TestUnknown(t *testing.T) {
	c := loadCatalog(t)
	assert.Equal(t, []domain.Permission{"nope"}, c.Unknown([]domain.Permission{domain.PermWorkersRead, "nope"}))
}

func TestSeedIsIdempotent(t *testing.T) {
	c := loadCatalog(t)
	store := &memStore{titles: map[string]*domain.JobTitle{}}

	require.NoError(t, c.Seed(context.Background(), store, zap.NewNop()))
	assert.Len(t, store.titles, len(c.JobTitles))
	assert.Len(t, store.perms, len(c.Permissions))

	store.titles["Accountant"].Permissions = []domain.Permission{domain.PermPayrollRead}
	require.NoError(t, c.Seed(context.Background(), store, zap.NewNop()))
	assert.Len(t, store.titles, len(c.JobTitles))
	assert.Equal(t, []domain.Permission{domain.PermPayrollRead}, store.titles["Accountant"].Permissions)
	assert.True(t, store.titles["Administrator"].IsSystem)
}

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	require.NoError(t, err)
	return c
}
