package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/notify"
	"github.com/spec-kit/recruitment-office/internal/repository"
)

// seedTitles installs the system administrator title and a clerk title.
func seedTitles(t *testing.T, env *testEnv) (admin, clerk *domain.JobTitle) {
	t.Helper()
	ctx := context.Background()
	admin = &domain.JobTitle{Name: "Administrator", Permissions: []domain.Permission{domain.PermissionAll}, IsSystem: true}
	clerk = &domain.JobTitle{Name: "Clerk", Permissions: []domain.Permission{domain.PermWorkersRead}}
	require.NoError(t, env.repos.JobTitles.Create(ctx, admin))
	require.NoError(t, env.repos.JobTitles.Create(ctx, clerk))
	return admin, clerk
}

func TestBootstrapAdminOnlyOnEmptyTable(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()
	admin, _ := seedTitles(t, env)

	user, err := env.users.EnsureBootstrapAdmin(ctx, "Admin@Office.test", "changeme1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "admin@office.test", user.Email)
	assert.Equal(t, admin.ID, user.JobTitleID)
	assert.True(t, user.Active)

	again, err := env.users.EnsureBootstrapAdmin(ctx, "other@office.test", "changeme1")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestLastAdministratorIsProtected(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()
	admin, clerk := seedTitles(t, env)

	root, err := env.users.CreateUser(ctx, CreateUserInput{Name: "Root", Email: "root@office.test", Password: "changeme1", JobTitleID: admin.ID, Active: true})
	require.NoError(t, err)
	staff, err := env.users.CreateUser(ctx, CreateUserInput{Name: "Staff", Email: "staff@office.test", Password: "changeme1", JobTitleID: clerk.ID, Active: true})
	require.NoError(t, err)

	_, err = env.users.SetActive(ctx, root.ID, false)
	requireCode(t, err, "CONFLICT")
	_, err = env.users.UpdateUser(ctx, root.ID, UpdateUserInput{JobTitleID: &clerk.ID})
	requireCode(t, err, "CONFLICT")
	requireCode(t, env.users.DeleteUser(ctx, staff.ID, root.ID), "CONFLICT")
	requireCode(t, env.users.DeleteUser(ctx, root.ID, root.ID), "CONFLICT")

	// with a second administrator the first can step down
	_, err = env.users.UpdateUser(ctx, staff.ID, UpdateUserInput{JobTitleID: &admin.ID})
	require.NoError(t, err)
	demoted, err := env.users.UpdateUser(ctx, root.ID, UpdateUserInput{JobTitleID: &clerk.ID})
	require.NoError(t, err)
	assert.Equal(t, clerk.ID, demoted.JobTitleID)
	require.NoError(t, env.users.DeleteUser(ctx, staff.ID, root.ID))
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()
	_, clerk := seedTitles(t, env)

	_, err := env.users.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@office.test", Password: "short", JobTitleID: clerk.ID})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = env.users.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@office.test", Password: "changeme1", JobTitleID: "nope"})
	requireCode(t, err, "NOT_FOUND")
	_, err = env.users.CreateUser(ctx, CreateUserInput{Name: "A", Email: "a@office.test", Password: "changeme1", JobTitleID: clerk.ID})
	require.NoError(t, err)
	_, err = env.users.CreateUser(ctx, CreateUserInput{Name: "B", Email: "A@office.test", Password: "changeme1", JobTitleID: clerk.ID})
	requireCode(t, err, "CONFLICT")
}

func TestJobTitleRules(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()
	admin, clerk := seedTitles(t, env)

	_, err := env.users.CreateJobTitle(ctx, JobTitleInput{Name: "Cashier", Permissions: []domain.Permission{"payroll.steal"}})
	requireCode(t, err, "VALIDATION_FAILED")

	cashier, err := env.users.CreateJobTitle(ctx, JobTitleInput{
		Name:        "Cashier",
		Permissions: []domain.Permission{domain.PermPayrollRead, domain.PermPayrollWrite, domain.PermPayrollRead},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Permission{domain.PermPayrollRead, domain.PermPayrollWrite}, cashier.Permissions)

	_, err = env.users.UpdateJobTitle(ctx, admin.ID, JobTitleInput{Name: "Administrator", Permissions: []domain.Permission{domain.PermUsersManage}})
	requireCode(t, err, "CONFLICT")

	requireCode(t, env.users.DeleteJobTitle(ctx, admin.ID), "CONFLICT")

	_, err = env.users.CreateUser(ctx, CreateUserInput{Name: "C", Email: "c@office.test", Password: "changeme1", JobTitleID: clerk.ID})
	require.NoError(t, err)
	requireCode(t, env.users.DeleteJobTitle(ctx, clerk.ID), "CONFLICT")
	require.NoError(t, env.users.DeleteJobTitle(ctx, cashier.ID))

	assert.NotEmpty(t, env.users.ListPermissions())
}

type memRevoker struct {
	revoked map[string]time.Duration
}

func (m *memRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.revoked[id] = ttl
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type memMailer struct {
	sent []sentMail
}

func (m *memMailer) Send(_ context.Context, to []string, subject, html string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: html})
	return nil
}

func newAuthEnv(t *testing.T) (*testEnv, *AuthService, *memRevoker, *memMailer) {
	t.Helper()
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	renderer, err := notify.NewRenderer("Test Office")
	require.NoError(t, err)
	revoker := &memRevoker{revoked: map[string]time.Duration{}}
	mailer := &memMailer{}
	svc := NewAuthService(config.AuthConfig{BcryptCost: 4, PasswordResetTTLMinutes: 30}, AuthDependencies{
		UserRepo:          env.repos.Users,
		JobTitleRepo:      env.repos.JobTitles,
		PasswordResetRepo: env.repos.PasswordResets,
		Tx:                env.repos.Tx,
		Tokens:            auth.NewTokenManager("test-secret", 60),
		Revoker:           revoker,
		Mailer:            mailer,
		Renderer:          renderer,
		Clock:             func() time.Time { return env.now },
	})
	return env, svc, revoker, mailer
}

func TestLoginAndLogout(t *testing.T) {
	env, svc, revoker, _ := newAuthEnv(t)
	ctx := context.Background()
	_, clerk := seedTitles(t, env)
	user, err := env.users.CreateUser(ctx, CreateUserInput{Name: "Clerk", Email: "clerk@office.test", Password: "changeme1", JobTitleID: clerk.ID, Active: true})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "clerk@office.test", "wrong-pass1")
	requireCode(t, err, "UNAUTHORIZED")
	_, err = svc.Login(ctx, "nobody@office.test", "changeme1")
	requireCode(t, err, "UNAUTHORIZED")

	result, err := svc.Login(ctx, " clerk@office.test ", "changeme1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, clerk.ID, result.JobTitle.ID)
	require.NotEmpty(t, result.Token.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	require.NoError(t, svc.Logout(ctx, &auth.Principal{User: result.User, TokenID: result.Token.ID, ExpiresAt: env.now.Add(time.Hour)}))
	assert.Equal(t, time.Hour, revoker.revoked[result.Token.ID])

	_, err = env.users.SetActive(ctx, user.ID, false)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "clerk@office.test", "changeme1")
	requireCode(t, err, "FORBIDDEN")
}

func TestPasswordResetFlow(t *testing.T) {
	env, svc, _, mailer := newAuthEnv(t)
	ctx := context.Background()
	_, clerk := seedTitles(t, env)
	_, err := env.users.CreateUser(ctx, CreateUserInput{Name: "Clerk", Email: "clerk@office.test", Password: "changeme1", JobTitleID: clerk.ID, Active: true})
	require.NoError(t, err)

	raw, err := svc.RequestPasswordReset(ctx, "nobody@office.test")
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Empty(t, mailer.sent)

	raw, err = svc.RequestPasswordReset(ctx, "clerk@office.test")
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"clerk@office.test"}, mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, raw)

	requireCode(t, svc.ConfirmPasswordReset(ctx, raw, "short"), "VALIDATION_FAILED")
	requireCode(t, svc.ConfirmPasswordReset(ctx, "bogus", "newpass99"), "VALIDATION_FAILED")
	require.NoError(t, svc.ConfirmPasswordReset(ctx, raw, "newpass99"))
	requireCode(t, svc.ConfirmPasswordReset(ctx, raw, "newpass98"), "VALIDATION_FAILED")

	_, err = svc.Login(ctx, "clerk@office.test", "newpass99")
	require.NoError(t, err)

	// codes expire
	raw, err = svc.RequestPasswordReset(ctx, "clerk@office.test")
	require.NoError(t, err)
	env.advance(1)
	requireCode(t, svc.ConfirmPasswordReset(ctx, raw, "newpass77"), "VALIDATION_FAILED")
}

// resetRollbackTx undoes reset-code changes when the transaction body fails.
type resetRollbackTx struct{ s *store }

func (tx resetRollbackTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.s.mu.Lock()
	saved := make(map[string]repository.PasswordResetToken, len(tx.s.resets))
	for id, tok := range tx.s.resets {
		saved[id] = *tok
	}
	tx.s.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		tx.s.mu.Lock()
		for id, tok := range saved {
			tok := tok
			tx.s.resets[id] = &tok
		}
		tx.s.mu.Unlock()
	}
	return err
}

type failingUserUpdates struct {
	repository.UserRepository
}

func (failingUserUpdates) Update(context.Context, *domain.User) error {
	return errors.New("connection reset")
}

func TestPasswordResetKeepsCodeWhenUpdateFails(t *testing.T) {
	env, svc, _, _ := newAuthEnv(t)
	ctx := context.Background()
	_, clerk := seedTitles(t, env)
	_, err := env.users.CreateUser(ctx, CreateUserInput{Name: "Clerk", Email: "clerk@office.test", Password: "changeme1", JobTitleID: clerk.ID, Active: true})
	require.NoError(t, err)
	raw, err := svc.RequestPasswordReset(ctx, "clerk@office.test")
	require.NoError(t, err)

	renderer, err := notify.NewRenderer("Test Office")
	require.NoError(t, err)
	broken := NewAuthService(config.AuthConfig{BcryptCost: 4, PasswordResetTTLMinutes: 30}, AuthDependencies{
		UserRepo:          failingUserUpdates{env.repos.Users},
		JobTitleRepo:      env.repos.JobTitles,
		PasswordResetRepo: env.repos.PasswordResets,
		Tx:                resetRollbackTx{env.store},
		Tokens:            auth.NewTokenManager("test-secret", 60),
		Revoker:           &memRevoker{revoked: map[string]time.Duration{}},
		Mailer:            &memMailer{},
		Renderer:          renderer,
		Clock:             func() time.Time { return env.now },
	})
	requireCode(t, broken.ConfirmPasswordReset(ctx, raw, "newpass99"), "INTERNAL_ERROR")

	// the same code still works once the store recovers
	require.NoError(t, svc.ConfirmPasswordReset(ctx, raw, "newpass99"))
	_, err = svc.Login(ctx, "clerk@office.test", "newpass99")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	env, svc, _, _ := newAuthEnv(t)
	ctx := context.Background()
	_, clerk := seedTitles(t, env)
	user, err := env.users.CreateUser(ctx, CreateUserInput{Name: "Clerk", Email: "clerk@office.test", Password: "changeme1", JobTitleID: clerk.ID, Active: true})
	require.NoError(t, err)

	requireCode(t, svc.ChangePassword(ctx, user.ID, "wrong", "newpass99"), "UNAUTHORIZED")
	requireCode(t, svc.ChangePassword(ctx, user.ID, "changeme1", "weak"), "VALIDATION_FAILED")
	require.NoError(t, svc.ChangePassword(ctx, user.ID, "changeme1", "newpass99"))
	_, err = svc.Login(ctx, "clerk@office.test", "newpass99")
	require.NoError(t, err)
}
