package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/sanitize"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// ClientService handles client households.
type ClientService struct {
	clients   repository.ClientRepository
	contracts repository.ContractRepository
	tx        repository.Transactor
	logger    *zap.Logger
}

// ClientDependencies bundles collaborators.
type ClientDependencies struct {
	ClientRepo   repository.ClientRepository
	ContractRepo repository.ContractRepository
	Tx           repository.Transactor
	Logger       *zap.Logger
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	return &ClientService{
		clients:   deps.ClientRepo,
		contracts: deps.ContractRepo,
		tx:        deps.Tx,
		logger:    orNop(deps.Logger),
	}
}

// ClientInput carries the editable client fields.
type ClientInput struct {
	FullName   string
	NationalID string
	Phone      string
	City       string
	Address    string
	Notes      string
}

func (in ClientInput) clean() (ClientInput, error) {
	in.FullName = sanitize.Text(in.FullName)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = sanitize.Text(in.City)
	in.Address = sanitize.Text(in.Address)
	in.Notes = sanitize.Text(in.Notes)

	details := map[string]any{}
	if in.FullName == "" {
		details["full_name"] = "required"
	}
	if in.NationalID == "" {
		details["national_id"] = "required"
	}
	if len(details) > 0 {
		return in, apperrors.NewValidationError("invalid client", details)
	}
	return in, nil
}

func (s *ClientService) ensureNationalIDFree(ctx context.Context, nationalID, selfID string) error {
	existing, err := s.clients.GetByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID == selfID {
		return nil
	}
	return apperrors.NewConflict("national id already registered", map[string]any{"client_id": existing.ID})
}

// Create registers a client.
func (s *ClientService) Create(ctx context.Context, input ClientInput) (*domain.Client, error) {
	input, err := input.clean()
	if err != nil {
		return nil, err
	}
	if err := s.ensureNationalIDFree(ctx, input.NationalID, ""); err != nil {
		return nil, err
	}
	client := &domain.Client{}
	applyClientInput(client, input)
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

func applyClientInput(c *domain.Client, in ClientInput) {
	c.FullName = in.FullName
	c.NationalID = in.NationalID
	c.Phone = in.Phone
	c.City = in.City
	c.Address = in.Address
	c.Notes = in.Notes
}

// Get fetches a client.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "client", map[string]any{"id": id})
	}
	return c, nil
}

// List returns clients matching filter.
func (s *ClientService) List(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	list, err := s.clients.List(ctx, filter)
	return list, apperrors.MapError(err)
}

// Update replaces a client's details.
func (s *ClientService) Update(ctx context.Context, id string, input ClientInput) (*domain.Client, error) {
	input, err := input.clean()
	if err != nil {
		return nil, err
	}
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.NationalID != client.NationalID {
		if err := s.ensureNationalIDFree(ctx, input.NationalID, id); err != nil {
			return nil, err
		}
	}
	applyClientInput(client, input)
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// Delete removes a client without contracts.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		n, err := s.contracts.CountByClient(ctx, id)
		if err != nil {
			return apperrors.MapError(err)
		}
		if n > 0 {
			return apperrors.NewConflict("client has contracts", map[string]any{"contracts": n})
		}
		return apperrors.MapError(s.clients.Delete(ctx, id))
	})
}
