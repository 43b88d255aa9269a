package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/observability"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/sanitize"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// ContractService coordinates the contract lifecycle.
type ContractService struct {
	contracts    repository.ContractRepository
	history      repository.ContractHistoryRepository
	workers      repository.WorkerRepository
	clients      repository.ClientRepository
	marketers    repository.MarketerRepository
	tx           repository.Transactor
	events       eventPublisher
	metrics      *observability.Metrics
	policy       domain.SettlementPolicy
	expiringDays int
	clock        Clock
	logger       *zap.Logger
}

// ContractDependencies bundles collaborators.
type ContractDependencies struct {
	ContractRepo repository.ContractRepository
	HistoryRepo  repository.ContractHistoryRepository
	WorkerRepo   repository.WorkerRepository
	ClientRepo   repository.ClientRepository
	MarketerRepo repository.MarketerRepository
	Tx           repository.Transactor
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Clock        Clock
	Logger       *zap.Logger
}

// NewContractService constructs the service.
func NewContractService(cfg config.ContractConfig, deps ContractDependencies) *ContractService {
	logger := orNop(deps.Logger)
	window := cfg.ExpiringWindowDays
	if window <= 0 {
		window = 30
	}
	return &ContractService{
		contracts: deps.ContractRepo,
		history:   deps.HistoryRepo,
		workers:   deps.WorkerRepo,
		clients:   deps.ClientRepo,
		marketers: deps.MarketerRepo,
		tx:        deps.Tx,
		events:    eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		metrics:   deps.Metrics,
		policy: domain.SettlementPolicy{
			ClientPenaltyPercent: cfg.ClientPenaltyPercent,
			ProbationDays:        cfg.ProbationDays,
		},
		expiringDays: window,
		clock:        deps.Clock,
		logger:       logger,
	}
}

// ContractInput describes a new contract.
type ContractInput struct {
	WorkerID      string
	ClientID      string
	MarketerID    *string
	StartDate     time.Time
	EndDate       time.Time
	Fee           domain.Money
	MonthlySalary domain.Money
	Notes         string
}

// ContractTermsInput holds optional changes to a contract. Only Notes may change after activation.
type ContractTermsInput struct {
	MarketerID    *string
	ClearMarketer bool
	StartDate     *time.Time
	EndDate       *time.Time
	Fee           *domain.Money
	MonthlySalary *domain.Money
	Notes         *string
}

// TerminateInput describes an early termination.
type TerminateInput struct {
	Date   time.Time
	Reason domain.TerminationReason
	Notes  string
}

// RenewInput describes the follow-up contract. Zero amounts carry over from the previous contract.
type RenewInput struct {
	EndDate       time.Time
	Fee           domain.Money
	MonthlySalary domain.Money
	Notes         string
}

// ExpiringContract is an active contract nearing its end date.
type ExpiringContract struct {
	Contract      domain.Contract `json:"contract"`
	WorkerName    string          `json:"worker_name"`
	ClientName    string          `json:"client_name"`
	RemainingDays int             `json:"remaining_days"`
}

func newContractNumber() string {
	return "CNT-" + ulid.Make().String()
}

func validateTerm(start, end time.Time, fee, salary domain.Money) error {
	details := map[string]any{}
	if start.IsZero() {
		details["start_date"] = "required"
	}
	if !end.After(start) {
		details["end_date"] = "must be after start_date"
	}
	if fee < 0 {
		details["fee"] = "must not be negative"
	}
	if salary < 0 {
		details["monthly_salary"] = "must not be negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid contract terms", details)
	}
	return nil
}

func (s *ContractService) activeMarketer(ctx context.Context, id string) error {
	m, err := s.marketers.GetByID(ctx, id)
	if err != nil {
		return apperrors.NotFoundOr(err, "marketer", map[string]any{"id": id})
	}
	if !m.Active {
		return apperrors.NewValidationError("marketer is inactive", map[string]any{"marketer_id": id})
	}
	return nil
}

// Create drafts a PENDING contract for an available worker.
func (s *ContractService) Create(ctx context.Context, actorID *string, input ContractInput) (*domain.Contract, error) {
	input.StartDate = domain.TruncateDay(input.StartDate)
	input.EndDate = domain.TruncateDay(input.EndDate)
	input.MarketerID = trimPtr(input.MarketerID)
	if err := validateTerm(input.StartDate, input.EndDate, input.Fee, input.MonthlySalary); err != nil {
		return nil, err
	}

	var contract *domain.Contract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		worker, err := s.workers.GetByID(ctx, input.WorkerID)
		if err != nil {
			return apperrors.NotFoundOr(err, "worker", map[string]any{"id": input.WorkerID})
		}
		if worker.Status != domain.WorkerStatusAvailable {
			return apperrors.NewConflict("worker is not available", map[string]any{"status": worker.Status})
		}
		open, err := s.contracts.HasOpenContract(ctx, worker.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if open {
			return apperrors.NewConflict("worker already has an open contract", map[string]any{"worker_id": worker.ID})
		}
		if _, err := s.clients.GetByID(ctx, input.ClientID); err != nil {
			return apperrors.NotFoundOr(err, "client", map[string]any{"id": input.ClientID})
		}
		if input.MarketerID != nil {
			if err := s.activeMarketer(ctx, *input.MarketerID); err != nil {
				return err
			}
		}

		salary := input.MonthlySalary
		if salary == 0 {
			salary = worker.MonthlySalary
		}
		contract = &domain.Contract{
			Number:        newContractNumber(),
			WorkerID:      worker.ID,
			ClientID:      input.ClientID,
			MarketerID:    input.MarketerID,
			StartDate:     input.StartDate,
			EndDate:       input.EndDate,
			Fee:           input.Fee,
			MonthlySalary: salary,
			Status:        domain.ContractStatusPending,
			Notes:         sanitize.Text(input.Notes),
			CreatedBy:     actorID,
		}
		if err := s.contracts.Create(ctx, contract); err != nil {
			return apperrors.MapError(err)
		}
		return s.record(ctx, contract.ID, actorID, domain.ChangeTypeCreated, nil, contractSnapshot(contract))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordContractTransition("", string(domain.ContractStatusPending))
	s.events.publish(ctx, events.Event{
		Type:      events.EventContractCreated,
		SubjectID: contract.ID,
		Actor:     actorOf(actorID),
		Payload:   events.ContractStatusChangedPayload{Number: contract.Number, NewStatus: contract.Status},
	})
	return contract, nil
}

// Get fetches a contract.
func (s *ContractService) Get(ctx context.Context, id string) (*domain.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "contract", map[string]any{"id": id})
	}
	return c, nil
}

// lock re-reads a contract under a row lock. Call it inside a transaction so
// concurrent transitions serialize on the row.
func (s *ContractService) lock(ctx context.Context, id string) (*domain.Contract, error) {
	c, err := s.contracts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "contract", map[string]any{"id": id})
	}
	return c, nil
}

// List returns contracts matching filter.
func (s *ContractService) List(ctx context.Context, filter repository.ContractFilter) ([]domain.Contract, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("unknown contract status", map[string]any{"status": st})
		}
	}
	filter.Unbounded = false
	list, err := s.contracts.List(ctx, filter)
	return list, apperrors.MapError(err)
}

// History returns the audit trail of a contract, including archived ones.
func (s *ContractService) History(ctx context.Context, id string) ([]domain.ContractHistory, error) {
	list, err := s.history.ListByContract(ctx, id)
	return list, apperrors.MapError(err)
}

// UpdateTerms edits a PENDING contract. Once active only the notes can change.
func (s *ContractService) UpdateTerms(ctx context.Context, actorID *string, id string, input ContractTermsInput) (*domain.Contract, error) {
	var contract *domain.Contract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.lock(ctx, id)
		if err != nil {
			return err
		}
		termsChanged := input.MarketerID != nil || input.ClearMarketer || input.StartDate != nil ||
			input.EndDate != nil || input.Fee != nil || input.MonthlySalary != nil
		if termsChanged && c.Status != domain.ContractStatusPending {
			return apperrors.NewConflict("only pending contracts can change terms", map[string]any{"status": c.Status})
		}
		before := contractSnapshot(c)

		if input.ClearMarketer {
			c.MarketerID = nil
		} else if m := trimPtr(input.MarketerID); m != nil {
			if err := s.activeMarketer(ctx, *m); err != nil {
				return err
			}
			c.MarketerID = m
		}
		if input.StartDate != nil {
			c.StartDate = domain.TruncateDay(*input.StartDate)
		}
		if input.EndDate != nil {
			c.EndDate = domain.TruncateDay(*input.EndDate)
		}
		if input.Fee != nil {
			c.Fee = *input.Fee
		}
		if input.MonthlySalary != nil {
			c.MonthlySalary = *input.MonthlySalary
		}
		if input.Notes != nil {
			c.Notes = sanitize.Text(*input.Notes)
		}
		if err := validateTerm(c.StartDate, c.EndDate, c.Fee, c.MonthlySalary); err != nil {
			return err
		}
		if err := s.contracts.Update(ctx, c); err != nil {
			return apperrors.MapError(err)
		}
		contract = c
		return s.record(ctx, c.ID, actorID, domain.ChangeTypeTerms, before, contractSnapshot(c))
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// Activate starts a PENDING contract and marks the worker CONTRACTED.
func (s *ContractService) Activate(ctx context.Context, actorID *string, id string) (*domain.Contract, error) {
	today := s.clock.today()
	var contract *domain.Contract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.lock(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureTransition(c, domain.ContractStatusActive); err != nil {
			return err
		}
		if !c.EndDate.After(today) {
			return apperrors.NewConflict("contract end date has already passed", map[string]any{"end_date": c.EndDate.Format(domain.DateLayout)})
		}
		worker, err := s.workers.GetByID(ctx, c.WorkerID)
		if err != nil {
			return apperrors.NotFoundOr(err, "worker", map[string]any{"id": c.WorkerID})
		}
		if worker.Status != domain.WorkerStatusAvailable {
			return apperrors.NewConflict("worker is not available", map[string]any{"status": worker.Status})
		}
		if err := s.setStatus(ctx, actorID, c, domain.ContractStatusActive, nil); err != nil {
			return err
		}
		if err := s.workers.UpdateStatus(ctx, worker.ID, domain.WorkerStatusContracted); err != nil {
			return apperrors.MapError(err)
		}
		contract = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, actorID, contract, domain.ContractStatusPending)
	return contract, nil
}

// Cancel drops a PENDING contract.
func (s *ContractService) Cancel(ctx context.Context, actorID *string, id, reason string) (*domain.Contract, error) {
	var contract *domain.Contract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.lock(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureTransition(c, domain.ContractStatusCancelled); err != nil {
			return err
		}
		var extra map[string]any
		if reason = sanitize.Text(reason); reason != "" {
			extra = map[string]any{"reason": reason}
		}
		if err := s.setStatus(ctx, actorID, c, domain.ContractStatusCancelled, extra); err != nil {
			return err
		}
		contract = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, actorID, contract, domain.ContractStatusPending)
	return contract, nil
}

// SettlementPreview computes what Terminate would settle without changing anything.
// A zero date means today.
func (s *ContractService) SettlementPreview(ctx context.Context, id string, date time.Time, reason domain.TerminationReason) (*domain.Contract, domain.Settlement, error) {
	if date.IsZero() {
		date = s.clock.today()
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, domain.Settlement{}, err
	}
	settlement, err := s.settle(c, date, reason)
	return c, settlement, err
}

func (s *ContractService) settle(c *domain.Contract, date time.Time, reason domain.TerminationReason) (domain.Settlement, error) {
	if !reason.Valid() {
		return domain.Settlement{}, apperrors.NewValidationError("unknown termination reason", map[string]any{"reason": reason})
	}
	settlement, err := domain.CalculateSettlement(c, date, reason, s.policy)
	if err != nil {
		return domain.Settlement{}, apperrors.NewValidationError(err.Error(), map[string]any{
			"start_date": c.StartDate.Format(domain.DateLayout),
			"end_date":   c.EndDate.Format(domain.DateLayout),
		})
	}
	return settlement, nil
}

// Terminate ends an ACTIVE contract early, storing the settlement and freeing the worker
// (or flagging them ABSCONDED).
func (s *ContractService) Terminate(ctx context.Context, actorID *string, id string, input TerminateInput) (*domain.Contract, domain.Settlement, error) {
	date := domain.TruncateDay(input.Date)
	if date.IsZero() {
		date = s.clock.today()
	}

	var (
		contract   *domain.Contract
		settlement domain.Settlement
		worker     *domain.Worker
		client     *domain.Client
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.lock(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureTransition(c, domain.ContractStatusTerminated); err != nil {
			return err
		}
		if settlement, err = s.settle(c, date, input.Reason); err != nil {
			return err
		}
		if worker, err = s.workers.GetByID(ctx, c.WorkerID); err != nil {
			return apperrors.NotFoundOr(err, "worker", map[string]any{"id": c.WorkerID})
		}
		if client, err = s.clients.GetByID(ctx, c.ClientID); err != nil {
			return apperrors.NotFoundOr(err, "client", map[string]any{"id": c.ClientID})
		}

		reason := input.Reason
		c.TerminationDate = &date
		c.TerminationReason = &reason
		c.Refund = settlement.Refund
		c.Penalty = settlement.Penalty
		if notes := sanitize.Text(input.Notes); notes != "" {
			c.Notes = joinNotes(c.Notes, notes)
		}
		extra := map[string]any{
			"termination_date":   date.Format(domain.DateLayout),
			"termination_reason": string(reason),
			"refund":             settlement.Refund.String(),
			"penalty":            settlement.Penalty.String(),
		}
		if err := s.setStatus(ctx, actorID, c, domain.ContractStatusTerminated, extra); err != nil {
			return err
		}

		next := domain.WorkerStatusAvailable
		if reason == domain.TerminationWorkerAbsconded {
			next = domain.WorkerStatusAbsconded
		}
		if err := s.workers.UpdateStatus(ctx, worker.ID, next); err != nil {
			return apperrors.MapError(err)
		}
		worker.Status = next
		contract = c
		return nil
	})
	if err != nil {
		return nil, domain.Settlement{}, err
	}

	s.afterTransition(ctx, actorID, contract, domain.ContractStatusActive)
	s.events.publish(ctx, events.Event{
		Type:      events.EventContractTerminated,
		SubjectID: contract.ID,
		Actor:     actorOf(actorID),
		Payload: events.ContractTerminatedPayload{
			Number:     contract.Number,
			WorkerName: worker.FullName,
			ClientName: client.FullName,
			Reason:     input.Reason,
			Date:       date,
			Refund:     settlement.Refund,
			Penalty:    settlement.Penalty,
		},
	})
	s.logger.Info("contract terminated",
		zap.String("contract_id", contract.ID),
		zap.String("reason", string(input.Reason)),
		zap.Stringer("refund", settlement.Refund),
		zap.Stringer("penalty", settlement.Penalty))
	return contract, settlement, nil
}

// Renew drafts a PENDING contract for the same worker and client starting on the
// previous contract's end date.
func (s *ContractService) Renew(ctx context.Context, actorID *string, id string, input RenewInput) (*domain.Contract, error) {
	var renewed, previous *domain.Contract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.lock(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != domain.ContractStatusActive && c.Status != domain.ContractStatusExpired {
			return apperrors.NewConflict("only active or expired contracts can be renewed", map[string]any{"status": c.Status})
		}
		others, err := s.contracts.List(ctx, repository.ContractFilter{
			WorkerID: &c.WorkerID,
			Statuses: []domain.ContractStatus{domain.ContractStatusPending, domain.ContractStatusActive},
			Page:     repository.Page{Limit: 10},
		})
		if err != nil {
			return apperrors.MapError(err)
		}
		for _, o := range others {
			if o.ID != c.ID {
				return apperrors.NewConflict("worker already has another open contract", map[string]any{"contract_id": o.ID})
			}
		}
		if c.MarketerID != nil {
			if err := s.activeMarketer(ctx, *c.MarketerID); err != nil {
				return err
			}
		}

		start := c.EndDate
		end := domain.TruncateDay(input.EndDate)
		if end.IsZero() {
			end = start.AddDate(0, 0, c.TotalDays())
		}
		fee, salary := input.Fee, input.MonthlySalary
		if fee == 0 {
			fee = c.Fee
		}
		if salary == 0 {
			salary = c.MonthlySalary
		}
		if err := validateTerm(start, end, fee, salary); err != nil {
			return err
		}

		next := &domain.Contract{
			Number:        newContractNumber(),
			WorkerID:      c.WorkerID,
			ClientID:      c.ClientID,
			MarketerID:    c.MarketerID,
			StartDate:     start,
			EndDate:       end,
			Fee:           fee,
			MonthlySalary: salary,
			Status:        domain.ContractStatusPending,
			Notes:         sanitize.Text(input.Notes),
			CreatedBy:     actorID,
		}
		if err := s.contracts.Create(ctx, next); err != nil {
			return apperrors.MapError(err)
		}
		if err := s.record(ctx, next.ID, actorID, domain.ChangeTypeCreated,
			map[string]any{"renewal_of": c.Number}, contractSnapshot(next)); err != nil {
			return err
		}
		if err := s.record(ctx, c.ID, actorID, domain.ChangeTypeRenewal, nil,
			map[string]any{"renewed_by": next.Number, "contract_id": next.ID}); err != nil {
			return err
		}
		renewed, previous = next, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordContractTransition("", string(domain.ContractStatusPending))
	s.events.publish(ctx, events.Event{
		Type:      events.EventContractRenewed,
		SubjectID: previous.ID,
		Actor:     actorOf(actorID),
		Payload:   events.ContractRenewedPayload{PreviousID: previous.ID, NewID: renewed.ID, NewNumber: renewed.Number},
	})
	return renewed, nil
}

// ExpireDue moves every ACTIVE contract whose end date has arrived to EXPIRED and
// frees its worker. It returns the number of contracts expired.
func (s *ContractService) ExpireDue(ctx context.Context) (int, error) {
	today := s.clock.today()
	due, err := s.contracts.List(ctx, repository.ContractFilter{
		Statuses:      []domain.ContractStatus{domain.ContractStatusActive},
		EndOnOrBefore: &today,
		Unbounded:     true,
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	var (
		expired int
		errs    []error
	)
	for _, listed := range due {
		var c *domain.Contract
		err := s.tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			if c, err = s.lock(ctx, listed.ID); err != nil {
				return err
			}
			// another transition may have landed since the list was read
			if c.Status != domain.ContractStatusActive || c.EndDate.After(today) {
				c = nil
				return nil
			}
			if err := ensureTransition(c, domain.ContractStatusExpired); err != nil {
				return err
			}
			if err := s.setStatus(ctx, nil, c, domain.ContractStatusExpired, nil); err != nil {
				return err
			}
			worker, err := s.workers.GetByID(ctx, c.WorkerID)
			if err != nil {
				return apperrors.MapError(err)
			}
			if worker.Status == domain.WorkerStatusContracted {
				return apperrors.MapError(s.workers.UpdateStatus(ctx, worker.ID, domain.WorkerStatusAvailable))
			}
			return nil
		})
		if err != nil {
			s.logger.Error("failed to expire contract", zap.String("contract_id", listed.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if c == nil {
			s.logger.Debug("contract left the sweep", zap.String("contract_id", listed.ID))
			continue
		}
		expired++
		s.afterTransition(ctx, nil, c, domain.ContractStatusActive)
	}
	if expired > 0 {
		s.logger.Info("contracts expired", zap.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}

// Expiring lists ACTIVE contracts ending within days (the configured window when days <= 0).
func (s *ContractService) Expiring(ctx context.Context, days int) ([]ExpiringContract, error) {
	if days <= 0 {
		days = s.expiringDays
	}
	today := s.clock.today()
	until := today.AddDate(0, 0, days)
	contracts, err := s.contracts.List(ctx, repository.ContractFilter{
		Statuses:      []domain.ContractStatus{domain.ContractStatusActive},
		EndAfter:      &today,
		EndOnOrBefore: &until,
		Unbounded:     true,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]ExpiringContract, 0, len(contracts))
	for _, c := range contracts {
		item := ExpiringContract{Contract: c, RemainingDays: c.RemainingDays(today)}
		if w, err := s.workers.GetByID(ctx, c.WorkerID); err == nil {
			item.WorkerName = w.FullName
		}
		if cl, err := s.clients.GetByID(ctx, c.ClientID); err == nil {
			item.ClientName = cl.FullName
		}
		out = append(out, item)
	}
	return out, nil
}

// NotifyExpiring publishes one digest event for contracts ending within the window.
func (s *ContractService) NotifyExpiring(ctx context.Context) (int, error) {
	list, err := s.Expiring(ctx, s.expiringDays)
	if err != nil || len(list) == 0 {
		return 0, err
	}
	payload := events.ContractExpiringPayload{WindowDays: s.expiringDays}
	for _, item := range list {
		payload.Contracts = append(payload.Contracts, events.ExpiringSummary{
			Number:        item.Contract.Number,
			WorkerName:    item.WorkerName,
			ClientName:    item.ClientName,
			EndDate:       item.Contract.EndDate,
			RemainingDays: item.RemainingDays,
		})
	}
	s.events.publish(ctx, events.Event{
		Type:    events.EventContractExpiring,
		Payload: payload,
	})
	return len(list), nil
}

func ensureTransition(c *domain.Contract, next domain.ContractStatus) error {
	if !domain.CanTransition(c.Status, next) {
		return apperrors.NewConflict("invalid contract status transition", map[string]any{
			"from": c.Status,
			"to":   next,
		})
	}
	return nil
}

// setStatus persists a status change and its history entry. Callers publish afterwards.
func (s *ContractService) setStatus(ctx context.Context, actorID *string, c *domain.Contract, next domain.ContractStatus, extra map[string]any) error {
	old := c.Status
	c.Status = next
	if err := s.contracts.Update(ctx, c); err != nil {
		c.Status = old
		return apperrors.MapError(err)
	}
	newValue := map[string]any{"status": string(next)}
	for k, v := range extra {
		newValue[k] = v
	}
	return s.record(ctx, c.ID, actorID, domain.ChangeTypeStatus, map[string]any{"status": string(old)}, newValue)
}

func (s *ContractService) afterTransition(ctx context.Context, actorID *string, c *domain.Contract, from domain.ContractStatus) {
	s.metrics.RecordContractTransition(string(from), string(c.Status))
	s.events.publish(ctx, events.Event{
		Type:      events.EventContractStatusChanged,
		SubjectID: c.ID,
		Actor:     actorOf(actorID),
		Payload: events.ContractStatusChangedPayload{
			Number:    c.Number,
			OldStatus: from,
			NewStatus: c.Status,
		},
	})
}

func (s *ContractService) record(ctx context.Context, contractID string, actorID *string, change domain.ContractChangeType, oldValue, newValue map[string]any) error {
	entry := &domain.ContractHistory{
		ContractID: contractID,
		ChangedBy:  actorID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	return apperrors.MapError(s.history.Create(ctx, entry))
}

func contractSnapshot(c *domain.Contract) map[string]any {
	snap := map[string]any{
		"number":         c.Number,
		"worker_id":      c.WorkerID,
		"client_id":      c.ClientID,
		"start_date":     c.StartDate.Format(domain.DateLayout),
		"end_date":       c.EndDate.Format(domain.DateLayout),
		"fee":            c.Fee.String(),
		"monthly_salary": c.MonthlySalary.String(),
		"status":         string(c.Status),
	}
	if c.MarketerID != nil {
		snap["marketer_id"] = *c.MarketerID
	}
	if c.Notes != "" {
		snap["notes"] = c.Notes
	}
	return snap
}

func joinNotes(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "\n" + addition
}
