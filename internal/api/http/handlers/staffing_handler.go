package handlers

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recruitment-office/internal/api/dto"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/service"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// WorkersHandler exposes worker records, their spreadsheet import/export and profile sheets.
type WorkersHandler struct {
	workers   *service.WorkerService
	documents *service.DocumentService
}

// NewWorkersHandler constructs handler.
func NewWorkersHandler(workers *service.WorkerService, documents *service.DocumentService) *WorkersHandler {
	return &WorkersHandler{workers: workers, documents: documents}
}

func workerFilter(c *fiber.Ctx) (repository.WorkerFilter, error) {
	filter := repository.WorkerFilter{
		Nationality: optionalQuery(c, "nationality"),
		Search:      optionalQuery(c, "q"),
		Page:        pageFromQuery(c),
	}
	for _, raw := range csvQuery(c, "status") {
		status := domain.WorkerStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, apperrors.NewValidationError("unknown worker status", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return filter, nil
}

func workerInput(req dto.WorkerRequest) service.WorkerInput {
	return service.WorkerInput{
		FullName:        req.FullName,
		Nationality:     req.Nationality,
		PassportNumber:  req.PassportNumber,
		ResidencyNumber: req.ResidencyNumber,
		ResidencyExpiry: dto.DatePtr(req.ResidencyExpiry),
		Profession:      req.Profession,
		Religion:        req.Religion,
		BirthDate:       dto.DatePtr(req.BirthDate),
		Phone:           req.Phone,
		MonthlySalary:   dto.Money(req.MonthlySalary),
		Notes:           req.Notes,
	}
}

// List handles GET /workers.
func (h *WorkersHandler) List(c *fiber.Ctx) error {
	filter, err := workerFilter(c)
	if err != nil {
		return err
	}
	workers, err := h.workers.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(workers, dto.NewWorkerResponse))
}

// Get handles GET /workers/:id.
func (h *WorkersHandler) Get(c *fiber.Ctx) error {
	w, err := h.workers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewWorkerResponse(w))
}

// Create handles POST /workers.
func (h *WorkersHandler) Create(c *fiber.Ctx) error {
	var req dto.WorkerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	w, err := h.workers.Create(c.UserContext(), workerInput(req))
	if err != nil {
		return err
	}
	return created(c, dto.NewWorkerResponse(w))
}

// Update handles PUT /workers/:id.
func (h *WorkersHandler) Update(c *fiber.Ctx) error {
	var req dto.WorkerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	w, err := h.workers.Update(c.UserContext(), c.Params("id"), workerInput(req))
	if err != nil {
		return err
	}
	return ok(c, dto.NewWorkerResponse(w))
}

// SetStatus handles PUT /workers/:id/status.
func (h *WorkersHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.WorkerStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	w, err := h.workers.SetStatus(c.UserContext(), actorID(c), c.Params("id"), domain.WorkerStatus(strings.ToUpper(string(req.Status))))
	if err != nil {
		return err
	}
	return ok(c, dto.NewWorkerResponse(w))
}

// Delete handles DELETE /workers/:id.
func (h *WorkersHandler) Delete(c *fiber.Ctx) error {
	if err := h.workers.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Import handles POST /workers/import with a multipart "file" field.
func (h *WorkersHandler) Import(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("an xlsx file is required", map[string]any{"field": "file"})
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	result, err := h.workers.Import(c.UserContext(), f)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// Export handles GET /workers/export.
func (h *WorkersHandler) Export(c *fiber.Ctx) error {
	filter, err := workerFilter(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := h.workers.Export(c.UserContext(), &buf, filter); err != nil {
		return err
	}
	return attachment(c, &buf, "workers.xlsx", contentTypeXLSX)
}

// Profile handles GET /workers/:id/profile.pdf.
func (h *WorkersHandler) Profile(c *fiber.Ctx) error {
	var buf bytes.Buffer
	name, err := h.documents.WorkerProfile(c.UserContext(), &buf, c.Params("id"))
	if err != nil {
		return err
	}
	return attachment(c, &buf, name, contentTypePDF)
}

// ClientsHandler exposes client records.
type ClientsHandler struct {
	clients *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clients *service.ClientService) *ClientsHandler {
	return &ClientsHandler{clients: clients}
}

func clientInput(req dto.ClientRequest) service.ClientInput {
	return service.ClientInput{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		Phone:      req.Phone,
		City:       req.City,
		Address:    req.Address,
		Notes:      req.Notes,
	}
}

// List handles GET /clients.
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	clients, err := h.clients.List(c.UserContext(), repository.ClientFilter{
		City:   optionalQuery(c, "city"),
		Search: optionalQuery(c, "q"),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(clients, dto.NewClientResponse))
}

// Get handles GET /clients/:id.
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	client, err := h.clients.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewClientResponse(client))
}

// Create handles POST /clients.
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	client, err := h.clients.Create(c.UserContext(), clientInput(req))
	if err != nil {
		return err
	}
	return created(c, dto.NewClientResponse(client))
}

// Update handles PUT /clients/:id.
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	client, err := h.clients.Update(c.UserContext(), c.Params("id"), clientInput(req))
	if err != nil {
		return err
	}
	return ok(c, dto.NewClientResponse(client))
}

// Delete handles DELETE /clients/:id.
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
	if err := h.clients.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarketersHandler exposes marketers and their commission reports.
type MarketersHandler struct {
	marketers *service.MarketerService
}

// NewMarketersHandler constructs handler.
func NewMarketersHandler(marketers *service.MarketerService) *MarketersHandler {
	return &MarketersHandler{marketers: marketers}
}

func marketerInput(req dto.MarketerRequest) service.MarketerInput {
	return service.MarketerInput{
		Name:              req.Name,
		Phone:             req.Phone,
		UserID:            req.UserID,
		CommissionPercent: req.CommissionPercent,
		Active:            req.Active == nil || *req.Active,
	}
}

// List handles GET /marketers.
func (h *MarketersHandler) List(c *fiber.Ctx) error {
	active, err := optionalBoolQuery(c, "active")
	if err != nil {
		return err
	}
	list, err := h.marketers.List(c.UserContext(), repository.MarketerFilter{
		Active: active,
		Search: optionalQuery(c, "q"),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewMarketerResponse))
}

// Get handles GET /marketers/:id.
func (h *MarketersHandler) Get(c *fiber.Ctx) error {
	m, err := h.marketers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewMarketerResponse(m))
}

// Create handles POST /marketers.
func (h *MarketersHandler) Create(c *fiber.Ctx) error {
	var req dto.MarketerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.marketers.Create(c.UserContext(), marketerInput(req))
	if err != nil {
		return err
	}
	return created(c, dto.NewMarketerResponse(m))
}

// Update handles PUT /marketers/:id.
func (h *MarketersHandler) Update(c *fiber.Ctx) error {
	var req dto.MarketerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.marketers.Update(c.UserContext(), c.Params("id"), marketerInput(req))
	if err != nil {
		return err
	}
	return ok(c, dto.NewMarketerResponse(m))
}

// Delete handles DELETE /marketers/:id.
func (h *MarketersHandler) Delete(c *fiber.Ctx) error {
	if err := h.marketers.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Commissions handles GET /marketers/:id/commissions?from=&to=. The period
// defaults to the current month.
func (h *MarketersHandler) Commissions(c *fiber.Ctx) error {
	today := domain.Today()
	monthStart := domain.Date(today.Year(), today.Month(), 1)
	from, err := dateQuery(c, "from", monthStart)
	if err != nil {
		return err
	}
	to, err := dateQuery(c, "to", monthStart.AddDate(0, 1, 0))
	if err != nil {
		return err
	}
	report, err := h.marketers.CommissionReport(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return err
	}
	lines := make([]fiber.Map, 0, len(report.Lines))
	for _, l := range report.Lines {
		lines = append(lines, fiber.Map{
			"contract_id":     l.ContractID,
			"contract_number": l.ContractNumber,
			"start_date":      dto.FormatDate(l.StartDate),
			"status":          l.Status,
			"fee":             l.Fee.String(),
			"commission":      l.Commission.String(),
		})
	}
	return ok(c, fiber.Map{
		"marketer":         dto.NewMarketerResponse(&report.Marketer),
		"from":             dto.FormatDate(report.From),
		"to":               dto.FormatDate(report.To),
		"lines":            lines,
		"total_fee":        report.TotalFee.String(),
		"total_commission": report.TotalCommission.String(),
	})
}

// NationalitiesHandler manages nationality salary defaults.
type NationalitiesHandler struct {
	nationalities *service.NationalityService
}

// NewNationalitiesHandler constructs handler.
func NewNationalitiesHandler(nationalities *service.NationalityService) *NationalitiesHandler {
	return &NationalitiesHandler{nationalities: nationalities}
}

// List handles GET /nationalities.
func (h *NationalitiesHandler) List(c *fiber.Ctx) error {
	list, err := h.nationalities.List(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewNationalityResponse))
}

// Put handles PUT /nationalities/:code.
func (h *NationalitiesHandler) Put(c *fiber.Ctx) error {
	var req dto.NationalityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	n, err := h.nationalities.Upsert(c.UserContext(), domain.Nationality{
		Code:           c.Params("code"),
		Name:           req.Name,
		MonthlySalary:  dto.Money(req.MonthlySalary),
		RecruitmentFee: dto.Money(req.RecruitmentFee),
	})
	if err != nil {
		return err
	}
	return ok(c, dto.NewNationalityResponse(n))
}

// Delete handles DELETE /nationalities/:code.
func (h *NationalitiesHandler) Delete(c *fiber.Ctx) error {
	if err := h.nationalities.Delete(c.UserContext(), c.Params("code")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
