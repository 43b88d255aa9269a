package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/repository"
)

// store is a shared in-memory backing for the repository fakes.
type store struct {
	mu  sync.Mutex
	seq int

	users     map[string]*domain.User
	titles    map[string]*domain.JobTitle
	resets    map[string]*repository.PasswordResetToken
	nats      map[string]*domain.Nationality
	workers   map[string]*domain.Worker
	clients   map[string]*domain.Client
	marketers map[string]*domain.Marketer
	contracts map[string]*domain.Contract
	history   []domain.ContractHistory
	payroll   map[string]*domain.PayrollEntry

	archivedContracts map[string]*domain.ArchivedContract
	archivedWorkers   map[string]*domain.ArchivedWorker
}

func newStore() *store {
	return &store{
		users:             map[string]*domain.User{},
		titles:            map[string]*domain.JobTitle{},
		resets:            map[string]*repository.PasswordResetToken{},
		nats:              map[string]*domain.Nationality{},
		workers:           map[string]*domain.Worker{},
		clients:           map[string]*domain.Client{},
		marketers:         map[string]*domain.Marketer{},
		contracts:         map[string]*domain.Contract{},
		payroll:           map[string]*domain.PayrollEntry{},
		archivedContracts: map[string]*domain.ArchivedContract{},
		archivedWorkers:   map[string]*domain.ArchivedWorker{},
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) repos() *repository.Repositories {
	return &repository.Repositories{
		Users:           &fakeUsers{s},
		JobTitles:       &fakeTitles{s},
		PasswordResets:  &fakeResets{s},
		Nationalities:   &fakeNationalities{s},
		Workers:         &fakeWorkers{s},
		Clients:         &fakeClients{s},
		Marketers:       &fakeMarketers{s},
		Contracts:       &fakeContracts{s},
		ContractHistory: &fakeHistory{s},
		Payroll:         &fakePayroll{s},
		Archive:         &fakeArchive{s},
		Tx:              fakeTx{},
	}
}

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func matches(needle *string, fields ...string) bool {
	if needle == nil {
		return true
	}
	n := strings.ToLower(*needle)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), n) {
			return true
		}
	}
	return false
}

// ---- users ----

type fakeUsers struct{ s *store }

func (r *fakeUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("duplicate email")
		}
	}
	u.ID = r.s.nextID("user")
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUsers) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUsers) List(_ context.Context, f repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.users {
		if f.JobTitleID != nil && u.JobTitleID != *f.JobTitleID {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		if !matches(f.Search, u.Name, u.Email) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.users, id)
	return nil
}

func (r *fakeUsers) Count(context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

func (r *fakeUsers) CountActiveWithPermission(_ context.Context, perm domain.Permission) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, u := range r.s.users {
		t, ok := r.s.titles[u.JobTitleID]
		if !u.Active || !ok {
			continue
		}
		for _, p := range t.Permissions {
			if p == perm {
				n++
				break
			}
		}
	}
	return n, nil
}

// ---- job titles ----

type fakeTitles struct{ s *store }

func (r *fakeTitles) Create(_ context.Context, t *domain.JobTitle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.nextID("title")
	cp := *t
	r.s.titles[t.ID] = &cp
	return nil
}

func (r *fakeTitles) Update(_ context.Context, t *domain.JobTitle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.titles[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *t
	r.s.titles[t.ID] = &cp
	return nil
}

func (r *fakeTitles) GetByID(_ context.Context, id string) (*domain.JobTitle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.titles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTitles) GetByName(_ context.Context, name string) (*domain.JobTitle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.titles {
		if strings.EqualFold(t.Name, name) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTitles) List(context.Context) ([]domain.JobTitle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.JobTitle
	for _, t := range r.s.titles {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTitles) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.titles, id)
	return nil
}

func (r *fakeTitles) CountUsers(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, u := range r.s.users {
		if u.JobTitleID == id {
			n++
		}
	}
	return n, nil
}

func (r *fakeTitles) UpsertPermissions(context.Context, []domain.PermissionInfo) error { return nil }

func (r *fakeTitles) ListPermissions(context.Context) ([]domain.PermissionInfo, error) {
	return nil, nil
}

// ---- password resets ----

type fakeResets struct{ s *store }

func (r *fakeResets) Create(_ context.Context, t *repository.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.nextID("reset")
	t.CreatedAt = time.Now()
	cp := *t
	r.s.resets[t.ID] = &cp
	return nil
}

func (r *fakeResets) GetByToken(_ context.Context, token string) (*repository.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.resets {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResets) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.resets[id]
	if !ok || t.UsedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	t.UsedAt = &now
	return nil
}

func (r *fakeResets) DeleteForUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.resets {
		if t.UserID == userID {
			delete(r.s.resets, id)
		}
	}
	return nil
}

// ---- nationalities ----

type fakeNationalities struct{ s *store }

func (r *fakeNationalities) List(context.Context) ([]domain.Nationality, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Nationality
	for _, n := range r.s.nats {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *fakeNationalities) Get(_ context.Context, code string) (*domain.Nationality, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.nats[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNationalities) Upsert(_ context.Context, n *domain.Nationality) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *n
	r.s.nats[n.Code] = &cp
	return nil
}

func (r *fakeNationalities) Delete(_ context.Context, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.nats[code]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.nats, code)
	return nil
}

// ---- workers ----

type fakeWorkers struct{ s *store }

func (r *fakeWorkers) Create(_ context.Context, w *domain.Worker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w.ID == "" {
		w.ID = r.s.nextID("worker")
	}
	w.CreatedAt, w.UpdatedAt = time.Now(), time.Now()
	cp := *w
	r.s.workers[w.ID] = &cp
	return nil
}

func (r *fakeWorkers) Update(_ context.Context, w *domain.Worker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workers[w.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *w
	r.s.workers[w.ID] = &cp
	return nil
}

func (r *fakeWorkers) UpdateStatus(_ context.Context, id string, status domain.WorkerStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	w.Status = status
	return nil
}

func (r *fakeWorkers) GetByID(_ context.Context, id string) (*domain.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkers) GetByResidencyNumber(_ context.Context, number string) (*domain.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.workers {
		if w.ResidencyNumber == number {
			cp := *w
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeWorkers) List(_ context.Context, f repository.WorkerFilter) ([]domain.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Worker
	for _, w := range r.s.workers {
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, w.Status) {
			continue
		}
		if f.Nationality != nil && w.Nationality != *f.Nationality {
			continue
		}
		if !matches(f.Search, w.FullName, w.ResidencyNumber, w.PassportNumber) {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hasStatus[T comparable](list []T, v T) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (r *fakeWorkers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.workers, id)
	return nil
}

func (r *fakeWorkers) CountByStatus(context.Context) (map[domain.WorkerStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[domain.WorkerStatus]int{}
	for _, w := range r.s.workers {
		out[w.Status]++
	}
	return out, nil
}

// ---- clients ----

type fakeClients struct{ s *store }

func (r *fakeClients) Create(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.nextID("client")
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *fakeClients) Update(_ context.Context, c *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	r.s.clients[c.ID] = &cp
	return nil
}

func (r *fakeClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClients) GetByNationalID(_ context.Context, nid string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clients {
		if c.NationalID == nid {
			cp := *c
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeClients) List(_ context.Context, f repository.ClientFilter) ([]domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Client
	for _, c := range r.s.clients {
		if f.City != nil && !strings.EqualFold(c.City, *f.City) {
			continue
		}
		if !matches(f.Search, c.FullName, c.NationalID, c.Phone) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeClients) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.clients, id)
	return nil
}

// ---- marketers ----

type fakeMarketers struct{ s *store }

func (r *fakeMarketers) Create(_ context.Context, m *domain.Marketer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.nextID("marketer")
	cp := *m
	r.s.marketers[m.ID] = &cp
	return nil
}

func (r *fakeMarketers) Update(_ context.Context, m *domain.Marketer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.marketers[m.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *m
	r.s.marketers[m.ID] = &cp
	return nil
}

func (r *fakeMarketers) GetByID(_ context.Context, id string) (*domain.Marketer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.marketers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMarketers) List(_ context.Context, f repository.MarketerFilter) ([]domain.Marketer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Marketer
	for _, m := range r.s.marketers {
		if f.Active != nil && m.Active != *f.Active {
			continue
		}
		if !matches(f.Search, m.Name, m.Phone) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMarketers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.marketers, id)
	return nil
}

// ---- contracts ----

type fakeContracts struct{ s *store }

func (r *fakeContracts) Create(_ context.Context, c *domain.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = r.s.nextID("contract")
	}
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	cp := *c
	r.s.contracts[c.ID] = &cp
	return nil
}

func (r *fakeContracts) Update(_ context.Context, c *domain.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = time.Now()
	cp := *c
	r.s.contracts[c.ID] = &cp
	return nil
}

func (r *fakeContracts) GetByID(_ context.Context, id string) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContracts) GetForUpdate(ctx context.Context, id string) (*domain.Contract, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeContracts) GetByNumber(_ context.Context, number string) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contracts {
		if c.Number == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeContracts) List(_ context.Context, f repository.ContractFilter) ([]domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Contract
	for _, c := range r.s.contracts {
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, c.Status) {
			continue
		}
		if f.WorkerID != nil && c.WorkerID != *f.WorkerID {
			continue
		}
		if f.ClientID != nil && c.ClientID != *f.ClientID {
			continue
		}
		if f.MarketerID != nil && (c.MarketerID == nil || *c.MarketerID != *f.MarketerID) {
			continue
		}
		if f.StartFrom != nil && c.StartDate.Before(*f.StartFrom) {
			continue
		}
		if f.StartTo != nil && !c.StartDate.Before(*f.StartTo) {
			continue
		}
		if f.EndAfter != nil && !c.EndDate.After(*f.EndAfter) {
			continue
		}
		if f.EndOnOrBefore != nil && c.EndDate.After(*f.EndOnOrBefore) {
			continue
		}
		if f.OverlapFrom != nil && f.OverlapTo != nil && !c.Overlaps(*f.OverlapFrom, *f.OverlapTo) {
			continue
		}
		if f.UpdatedBefore != nil && !c.UpdatedAt.Before(*f.UpdatedBefore) {
			continue
		}
		if !matches(f.Search, c.Number, c.Notes) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeContracts) HasOpenContract(_ context.Context, workerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contracts {
		if c.WorkerID == workerID && (c.Status == domain.ContractStatusPending || c.Status == domain.ContractStatusActive) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeContracts) CountByWorker(_ context.Context, workerID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.contracts {
		if c.WorkerID == workerID {
			n++
		}
	}
	return n, nil
}

func (r *fakeContracts) CountByClient(_ context.Context, clientID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.contracts {
		if c.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func (r *fakeContracts) CountByStatus(context.Context) (map[domain.ContractStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[domain.ContractStatus]int{}
	for _, c := range r.s.contracts {
		out[c.Status]++
	}
	return out, nil
}

// ---- history ----

type fakeHistory struct{ s *store }

func (r *fakeHistory) Create(_ context.Context, h *domain.ContractHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.nextID("history")
	h.CreatedAt = time.Now()
	r.s.history = append(r.s.history, *h)
	return nil
}

func (r *fakeHistory) ListByContract(_ context.Context, id string) ([]domain.ContractHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ContractHistory
	for _, h := range r.s.history {
		if h.ContractID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

// ---- payroll ----

type fakePayroll struct{ s *store }

func (r *fakePayroll) Upsert(_ context.Context, e *domain.PayrollEntry) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payroll {
		if existing.WorkerID == e.WorkerID && existing.Period == e.Period {
			if existing.Paid {
				return false, nil
			}
			e.ID = existing.ID
			e.Allowances, e.Deductions = existing.Allowances, existing.Deductions
			e.Recalculate()
			cp := *e
			r.s.payroll[e.ID] = &cp
			return true, nil
		}
	}
	e.ID = r.s.nextID("payroll")
	cp := *e
	r.s.payroll[e.ID] = &cp
	return true, nil
}

func (r *fakePayroll) Update(_ context.Context, e *domain.PayrollEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payroll[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *e
	r.s.payroll[e.ID] = &cp
	return nil
}

func (r *fakePayroll) GetByID(_ context.Context, id string) (*domain.PayrollEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.payroll[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (r *fakePayroll) ListByPeriod(_ context.Context, period string) ([]domain.PayrollEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.PayrollEntry
	for _, e := range r.s.payroll {
		if e.Period == period {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerName < out[j].WorkerName })
	return out, nil
}

func (r *fakePayroll) CountUnpaid(_ context.Context, period string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.payroll {
		if e.Period == period && !e.Paid {
			n++
		}
	}
	return n, nil
}

// ---- archive ----

type fakeArchive struct{ s *store }

func (r *fakeArchive) ArchiveContract(_ context.Context, id string, by *string, reason string) (*domain.ArchivedContract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	a := &domain.ArchivedContract{
		ArchiveID:  r.s.nextID("arch"),
		Contract:   *c,
		ArchivedAt: time.Now(),
		ArchivedBy: by,
		Reason:     reason,
	}
	r.s.archivedContracts[a.ArchiveID] = a
	delete(r.s.contracts, id)
	cp := *a
	return &cp, nil
}

func (r *fakeArchive) ArchiveWorker(_ context.Context, id string, by *string, reason string) (*domain.ArchivedWorker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	a := &domain.ArchivedWorker{
		ArchiveID:  r.s.nextID("arch"),
		Worker:     *w,
		ArchivedAt: time.Now(),
		ArchivedBy: by,
		Reason:     reason,
	}
	r.s.archivedWorkers[a.ArchiveID] = a
	delete(r.s.workers, id)
	cp := *a
	return &cp, nil
}

func (r *fakeArchive) RestoreContract(_ context.Context, archiveID string) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.archivedContracts[archiveID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := a.Contract
	r.s.contracts[c.ID] = &c
	delete(r.s.archivedContracts, archiveID)
	cp := c
	return &cp, nil
}

func (r *fakeArchive) RestoreWorker(_ context.Context, archiveID string) (*domain.Worker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.archivedWorkers[archiveID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	w := a.Worker
	r.s.workers[w.ID] = &w
	delete(r.s.archivedWorkers, archiveID)
	cp := w
	return &cp, nil
}

func (r *fakeArchive) GetContract(_ context.Context, archiveID string) (*domain.ArchivedContract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.archivedContracts[archiveID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *fakeArchive) GetWorker(_ context.Context, archiveID string) (*domain.ArchivedWorker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.archivedWorkers[archiveID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *fakeArchive) ListContracts(_ context.Context, f repository.ArchiveFilter) ([]domain.ArchivedContract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ArchivedContract
	for _, a := range r.s.archivedContracts {
		if f.WorkerID != nil && a.Contract.WorkerID != *f.WorkerID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchiveID < out[j].ArchiveID })
	return out, nil
}

func (r *fakeArchive) ListWorkers(_ context.Context, f repository.ArchiveFilter) ([]domain.ArchivedWorker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ArchivedWorker
	for _, a := range r.s.archivedWorkers {
		if !matches(f.Search, a.Worker.FullName) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchiveID < out[j].ArchiveID })
	return out, nil
}

func (r *fakeArchive) Duplicates(context.Context) ([]domain.ArchiveDuplicate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byOriginal := map[string][]string{}
	for id, a := range r.s.archivedContracts {
		byOriginal[a.Contract.ID] = append(byOriginal[a.Contract.ID], id)
	}
	var out []domain.ArchiveDuplicate
	for original, ids := range byOriginal {
		_, live := r.s.contracts[original]
		if len(ids) < 2 && !live {
			continue
		}
		sort.Strings(ids)
		out = append(out, domain.ArchiveDuplicate{Kind: "contract", OriginalID: original, ArchiveIDs: ids, LiveExists: live})
	}
	return out, nil
}

func (r *fakeArchive) PurgeDuplicates(ctx context.Context) (int64, error) {
	dups, _ := r.Duplicates(ctx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, d := range dups {
		drop := d.ArchiveIDs
		if !d.LiveExists {
			drop = drop[1:]
		}
		for _, id := range drop {
			delete(r.s.archivedContracts, id)
			n++
		}
	}
	return n, nil
}

// ---- events ----

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Subscribe(events.EventType, events.EventHandler) {}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
