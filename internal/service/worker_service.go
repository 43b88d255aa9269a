package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/sanitize"
	"github.com/spec-kit/recruitment-office/internal/spreadsheet"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// WorkerService handles worker records.
type WorkerService struct {
	workers       repository.WorkerRepository
	contracts     repository.ContractRepository
	nationalities *NationalityService
	tx            repository.Transactor
	events        eventPublisher
	logger        *zap.Logger
}

// WorkerDependencies bundles collaborators.
type WorkerDependencies struct {
	WorkerRepo    repository.WorkerRepository
	ContractRepo  repository.ContractRepository
	Nationalities *NationalityService
	Tx            repository.Transactor
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewWorkerService constructs the service.
func NewWorkerService(deps WorkerDependencies) *WorkerService {
	logger := orNop(deps.Logger)
	return &WorkerService{
		workers:       deps.WorkerRepo,
		contracts:     deps.ContractRepo,
		nationalities: deps.Nationalities,
		tx:            deps.Tx,
		events:        eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:        logger,
	}
}

// WorkerInput carries the editable worker fields.
type WorkerInput struct {
	FullName        string
	Nationality     string
	PassportNumber  string
	ResidencyNumber string
	ResidencyExpiry *time.Time
	Profession      string
	Religion        string
	BirthDate       *time.Time
	Phone           string
	MonthlySalary   domain.Money
	Notes           string
}

func (in WorkerInput) clean() WorkerInput {
	in.FullName = sanitize.Text(in.FullName)
	in.Nationality = normalizeCode(in.Nationality)
	in.PassportNumber = strings.ToUpper(strings.TrimSpace(in.PassportNumber))
	in.ResidencyNumber = strings.TrimSpace(in.ResidencyNumber)
	in.Profession = sanitize.Text(in.Profession)
	in.Religion = sanitize.Text(in.Religion)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Notes = sanitize.Text(in.Notes)
	return in
}

func (in WorkerInput) validate() error {
	details := map[string]any{}
	if in.FullName == "" {
		details["full_name"] = "required"
	}
	if in.Nationality == "" {
		details["nationality"] = "required"
	}
	if in.ResidencyNumber == "" {
		details["residency_number"] = "required"
	}
	if in.MonthlySalary < 0 {
		details["monthly_salary"] = "must not be negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid worker", details)
	}
	return nil
}

// Create registers a worker as AVAILABLE. A zero salary takes the nationality's reference salary.
func (s *WorkerService) Create(ctx context.Context, input WorkerInput) (*domain.Worker, error) {
	input = input.clean()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureResidencyFree(ctx, input.ResidencyNumber, ""); err != nil {
		return nil, err
	}
	salary, err := s.nationalities.SalaryFor(ctx, input.Nationality)
	if err != nil {
		return nil, err
	}
	if input.MonthlySalary == 0 {
		input.MonthlySalary = salary
	}

	worker := &domain.Worker{Status: domain.WorkerStatusAvailable}
	applyWorkerInput(worker, input)
	if err := s.workers.Create(ctx, worker); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("worker registered", zap.String("worker_id", worker.ID), zap.String("nationality", worker.Nationality))
	return worker, nil
}

func (s *WorkerService) ensureResidencyFree(ctx context.Context, number, selfID string) error {
	existing, err := s.workers.GetByResidencyNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID == selfID {
		return nil
	}
	return apperrors.NewConflict("residency number already registered", map[string]any{
		"residency_number": number,
		"worker_id":        existing.ID,
	})
}

func applyWorkerInput(w *domain.Worker, in WorkerInput) {
	w.FullName = in.FullName
	w.Nationality = in.Nationality
	w.PassportNumber = in.PassportNumber
	w.ResidencyNumber = in.ResidencyNumber
	w.ResidencyExpiry = in.ResidencyExpiry
	w.Profession = in.Profession
	w.Religion = in.Religion
	w.BirthDate = in.BirthDate
	w.Phone = in.Phone
	w.MonthlySalary = in.MonthlySalary
	w.Notes = in.Notes
}

// Get fetches a worker.
func (s *WorkerService) Get(ctx context.Context, id string) (*domain.Worker, error) {
	w, err := s.workers.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "worker", map[string]any{"id": id})
	}
	return w, nil
}

// List returns workers matching filter.
func (s *WorkerService) List(ctx context.Context, filter repository.WorkerFilter) ([]domain.Worker, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("unknown worker status", map[string]any{"status": st})
		}
	}
	list, err := s.workers.List(ctx, filter)
	return list, apperrors.MapError(err)
}

// Update replaces the editable fields of a worker. Status is changed through SetStatus.
func (s *WorkerService) Update(ctx context.Context, id string, input WorkerInput) (*domain.Worker, error) {
	input = input.clean()
	if err := input.validate(); err != nil {
		return nil, err
	}
	worker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.ResidencyNumber != worker.ResidencyNumber {
		if err := s.ensureResidencyFree(ctx, input.ResidencyNumber, id); err != nil {
			return nil, err
		}
	}
	if input.Nationality != worker.Nationality {
		if _, err := s.nationalities.Get(ctx, input.Nationality); err != nil {
			return nil, err
		}
	}
	applyWorkerInput(worker, input)
	if err := s.workers.Update(ctx, worker); err != nil {
		return nil, apperrors.MapError(err)
	}
	return worker, nil
}

// SetStatus changes a worker's availability by hand. CONTRACTED is only set by
// contract activation, and a worker with an open contract can only be reported ABSCONDED.
func (s *WorkerService) SetStatus(ctx context.Context, actorID *string, id string, status domain.WorkerStatus) (*domain.Worker, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown worker status", map[string]any{"status": status})
	}
	if status == domain.WorkerStatusContracted {
		return nil, apperrors.NewValidationError("CONTRACTED is set by activating a contract", nil)
	}

	var (
		worker *domain.Worker
		old    domain.WorkerStatus
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		w, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if w.Status == status {
			worker, old = w, w.Status
			return nil
		}
		open, err := s.contracts.HasOpenContract(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}
		if open && status != domain.WorkerStatusAbsconded {
			return apperrors.NewConflict("worker has an open contract", map[string]any{"worker_id": id})
		}
		if err := s.workers.UpdateStatus(ctx, id, status); err != nil {
			return apperrors.MapError(err)
		}
		old = w.Status
		w.Status = status
		worker = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	if old != status {
		s.events.publish(ctx, events.Event{
			Type:      events.EventWorkerStatusChanged,
			SubjectID: id,
			Actor:     actorOf(actorID),
			Payload:   events.WorkerStatusChangedPayload{OldStatus: old, NewStatus: status},
		})
	}
	return worker, nil
}

// Delete removes a worker that never had a contract. Workers with history are archived instead.
func (s *WorkerService) Delete(ctx context.Context, id string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		n, err := s.contracts.CountByWorker(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}
		if n > 0 {
			return apperrors.NewConflict("worker has contracts; archive the worker instead", map[string]any{"contracts": n})
		}
		return apperrors.MapError(s.workers.Delete(ctx, id))
	})
}

// ImportRowError reports a rejected spreadsheet row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises a worker import.
type ImportResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

var workerSheetHeaders = []string{
	"Full Name", "Nationality", "Passport Number", "Residency Number", "Residency Expiry",
	"Profession", "Religion", "Birth Date", "Phone", "Status", "Monthly Salary", "Notes",
}

// Import creates workers from an xlsx sheet whose header row names the columns.
// Rows whose residency number already exists are skipped; invalid rows are reported and skipped.
func (s *WorkerService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := spreadsheet.ReadRows(r)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	idx := spreadsheet.HeaderIndex(rows[0])
	for _, required := range []string{"full_name", "nationality", "residency_number"} {
		if _, ok := idx[required]; !ok {
			return nil, apperrors.NewValidationError("missing column", map[string]any{"column": required})
		}
	}
	col := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok {
			return ""
		}
		return spreadsheet.Cell(row, i)
	}

	result := &ImportResult{}
	for n, row := range rows[1:] {
		line := n + 2
		input, err := workerInputFromRow(func(name string) string { return col(row, name) })
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: line, Message: err.Error()})
			continue
		}
		if input.FullName == "" && input.ResidencyNumber == "" {
			continue
		}
		if _, err := s.Create(ctx, input); err != nil {
			var de *apperrors.DomainError
			if errors.As(err, &de) && de.Code == "CONFLICT" {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, ImportRowError{Row: line, Message: apperrors.ToDomainError(err).Message})
			continue
		}
		result.Created++
	}
	s.logger.Info("worker import finished",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func workerInputFromRow(col func(string) string) (WorkerInput, error) {
	input := WorkerInput{
		FullName:        col("full_name"),
		Nationality:     col("nationality"),
		PassportNumber:  col("passport_number"),
		ResidencyNumber: col("residency_number"),
		Profession:      col("profession"),
		Religion:        col("religion"),
		Phone:           col("phone"),
		Notes:           col("notes"),
	}
	if v := col("residency_expiry"); v != "" {
		t, err := spreadsheet.ParseDate(v)
		if err != nil {
			return input, fmt.Errorf("residency_expiry: %w", err)
		}
		input.ResidencyExpiry = &t
	}
	if v := col("birth_date"); v != "" {
		t, err := spreadsheet.ParseDate(v)
		if err != nil {
			return input, fmt.Errorf("birth_date: %w", err)
		}
		input.BirthDate = &t
	}
	if v := col("monthly_salary"); v != "" {
		m, err := domain.ParseMoney(v)
		if err != nil {
			return input, fmt.Errorf("monthly_salary: %w", err)
		}
		input.MonthlySalary = m
	}
	return input, nil
}

// Export writes the workers matching filter as an xlsx sheet that Import can read back.
func (s *WorkerService) Export(ctx context.Context, w io.Writer, filter repository.WorkerFilter) (int, error) {
	filter.Page = repository.Page{Limit: spreadsheet.MaxRows}
	workers, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	rows := make([][]any, 0, len(workers))
	for _, wk := range workers {
		rows = append(rows, []any{
			wk.FullName, wk.Nationality, wk.PassportNumber, wk.ResidencyNumber, formatDatePtr(wk.ResidencyExpiry),
			wk.Profession, wk.Religion, formatDatePtr(wk.BirthDate), wk.Phone, string(wk.Status),
			wk.MonthlySalary.Float(), wk.Notes,
		})
	}
	if err := spreadsheet.Write(w, spreadsheet.Sheet{Name: "Workers", Headers: workerSheetHeaders, Rows: rows}); err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	return len(workers), nil
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}
