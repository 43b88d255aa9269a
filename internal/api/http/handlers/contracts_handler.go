package handlers

import (
	"bytes"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recruitment-office/internal/api/dto"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/service"
)

// ContractsHandler exposes the contract lifecycle and its documents.
type ContractsHandler struct {
	contracts *service.ContractService
	documents *service.DocumentService
}

// NewContractsHandler constructs handler.
func NewContractsHandler(contracts *service.ContractService, documents *service.DocumentService) *ContractsHandler {
	return &ContractsHandler{contracts: contracts, documents: documents}
}

// List handles GET /contracts.
func (h *ContractsHandler) List(c *fiber.Ctx) error {
	filter := repository.ContractFilter{
		WorkerID:   optionalQuery(c, "worker_id"),
		ClientID:   optionalQuery(c, "client_id"),
		MarketerID: optionalQuery(c, "marketer_id"),
		Search:     optionalQuery(c, "q"),
		Page:       pageFromQuery(c),
	}
	for _, raw := range csvQuery(c, "status") {
		filter.Statuses = append(filter.Statuses, domain.ContractStatus(strings.ToUpper(raw)))
	}
	if v := c.Query("start_from"); v != "" {
		t, err := dateQuery(c, "start_from", time.Time{})
		if err != nil {
			return err
		}
		filter.StartFrom = &t
	}
	if v := c.Query("start_to"); v != "" {
		t, err := dateQuery(c, "start_to", time.Time{})
		if err != nil {
			return err
		}
		filter.StartTo = &t
	}
	list, err := h.contracts.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewContractResponse))
}

// Get handles GET /contracts/:id.
func (h *ContractsHandler) Get(c *fiber.Ctx) error {
	contract, err := h.contracts.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewContractResponse(contract))
}

// Create handles POST /contracts.
func (h *ContractsHandler) Create(c *fiber.Ctx) error {
	var req dto.ContractRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contract, err := h.contracts.Create(c.UserContext(), actorID(c), service.ContractInput{
		WorkerID:      req.WorkerID,
		ClientID:      req.ClientID,
		MarketerID:    req.MarketerID,
		StartDate:     dto.Date(req.StartDate),
		EndDate:       dto.Date(req.EndDate),
		Fee:           dto.Money(req.Fee),
		MonthlySalary: dto.Money(req.MonthlySalary),
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewContractResponse(contract))
}

// Update handles PATCH /contracts/:id.
func (h *ContractsHandler) Update(c *fiber.Ctx) error {
	var req dto.ContractTermsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contract, err := h.contracts.UpdateTerms(c.UserContext(), actorID(c), c.Params("id"), service.ContractTermsInput{
		MarketerID:    req.MarketerID,
		ClearMarketer: req.ClearMarketer,
		StartDate:     dto.DatePtr(req.StartDate),
		EndDate:       dto.DatePtr(req.EndDate),
		Fee:           dto.MoneyPtr(req.Fee),
		MonthlySalary: dto.MoneyPtr(req.MonthlySalary),
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return ok(c, dto.NewContractResponse(contract))
}

// Activate handles POST /contracts/:id/activate.
func (h *ContractsHandler) Activate(c *fiber.Ctx) error {
	contract, err := h.contracts.Activate(c.UserContext(), actorID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewContractResponse(contract))
}

// Cancel handles POST /contracts/:id/cancel.
func (h *ContractsHandler) Cancel(c *fiber.Ctx) error {
	var req dto.CancelRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	contract, err := h.contracts.Cancel(c.UserContext(), actorID(c), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return ok(c, dto.NewContractResponse(contract))
}

// Terminate handles POST /contracts/:id/terminate.
func (h *ContractsHandler) Terminate(c *fiber.Ctx) error {
	var req dto.TerminateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contract, settlement, err := h.contracts.Terminate(c.UserContext(), actorID(c), c.Params("id"), service.TerminateInput{
		Date:   dto.Date(req.Date),
		Reason: domain.TerminationReason(strings.ToUpper(string(req.Reason))),
		Notes:  req.Notes,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{
		"contract":   dto.NewContractResponse(contract),
		"settlement": dto.NewSettlementResponse(settlement),
	})
}

// Renew handles POST /contracts/:id/renew.
func (h *ContractsHandler) Renew(c *fiber.Ctx) error {
	var req dto.RenewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	contract, err := h.contracts.Renew(c.UserContext(), actorID(c), c.Params("id"), service.RenewInput{
		EndDate:       dto.Date(req.EndDate),
		Fee:           dto.Money(req.Fee),
		MonthlySalary: dto.Money(req.MonthlySalary),
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewContractResponse(contract))
}

// Settlement handles GET /contracts/:id/settlement?date=&reason= and previews a termination.
func (h *ContractsHandler) Settlement(c *fiber.Ctx) error {
	date, err := dateQuery(c, "date", time.Time{})
	if err != nil {
		return err
	}
	reason := domain.TerminationReason(strings.ToUpper(c.Query("reason", string(domain.TerminationClientRequest))))
	contract, settlement, err := h.contracts.SettlementPreview(c.UserContext(), c.Params("id"), date, reason)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{
		"contract":   dto.NewContractResponse(contract),
		"reason":     reason,
		"settlement": dto.NewSettlementResponse(settlement),
	})
}

// History handles GET /contracts/:id/history.
func (h *ContractsHandler) History(c *fiber.Ctx) error {
	list, err := h.contracts.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewHistoryResponse))
}

// Expiring handles GET /contracts/expiring?days=.
func (h *ContractsHandler) Expiring(c *fiber.Ctx) error {
	list, err := h.contracts.Expiring(c.UserContext(), c.QueryInt("days", 0))
	if err != nil {
		return err
	}
	out := make([]dto.ExpiringResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.ExpiringResponse{
			Contract:      dto.NewContractResponse(&list[i].Contract),
			WorkerName:    list[i].WorkerName,
			ClientName:    list[i].ClientName,
			RemainingDays: list[i].RemainingDays,
		})
	}
	return ok(c, out)
}

// DocumentDOCX handles GET /contracts/:id/document.docx.
func (h *ContractsHandler) DocumentDOCX(c *fiber.Ctx) error {
	return h.document(c, service.FormatDOCX, contentTypeDOCX)
}

// DocumentPDF handles GET /contracts/:id/document.pdf.
func (h *ContractsHandler) DocumentPDF(c *fiber.Ctx) error {
	return h.document(c, service.FormatPDF, contentTypePDF)
}

func (h *ContractsHandler) document(c *fiber.Ctx, format, contentType string) error {
	var buf bytes.Buffer
	name, err := h.documents.ContractDocument(c.UserContext(), &buf, c.Params("id"), format)
	if err != nil {
		return err
	}
	return attachment(c, &buf, name, contentType)
}

// SettlementPDF handles GET /contracts/:id/settlement.pdf. Active contracts need
// ?reason= (and optionally ?date=) for an estimate.
func (h *ContractsHandler) SettlementPDF(c *fiber.Ctx) error {
	date, err := dateQuery(c, "date", time.Time{})
	if err != nil {
		return err
	}
	reason := domain.TerminationReason(strings.ToUpper(c.Query("reason")))
	var buf bytes.Buffer
	name, err := h.documents.SettlementLetter(c.UserContext(), &buf, c.Params("id"), date, reason)
	if err != nil {
		return err
	}
	return attachment(c, &buf, name, contentTypePDF)
}
