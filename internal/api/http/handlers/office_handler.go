package handlers

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recruitment-office/internal/api/dto"
	"github.com/spec-kit/recruitment-office/internal/backup"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/service"
)

// PayrollHandler exposes monthly payroll.
type PayrollHandler struct {
	payroll *service.PayrollService
}

// NewPayrollHandler constructs handler.
func NewPayrollHandler(payroll *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// Generate handles POST /payroll/generate.
func (h *PayrollHandler) Generate(c *fiber.Ctx) error {
	var req dto.PayrollGenerateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.payroll.Generate(c.UserContext(), req.Period)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// List handles GET /payroll/:period.
func (h *PayrollHandler) List(c *fiber.Ctx) error {
	entries, err := h.payroll.List(c.UserContext(), c.Params("period"))
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(entries, dto.NewPayrollEntryResponse))
}

// Adjust handles PATCH /payroll/entries/:id.
func (h *PayrollHandler) Adjust(c *fiber.Ctx) error {
	var req dto.PayrollAdjustRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.payroll.Adjust(c.UserContext(), c.Params("id"), dto.Money(req.Allowances), dto.Money(req.Deductions))
	if err != nil {
		return err
	}
	return ok(c, dto.NewPayrollEntryResponse(entry))
}

// Pay handles POST /payroll/entries/:id/pay.
func (h *PayrollHandler) Pay(c *fiber.Ctx) error {
	entry, err := h.payroll.MarkPaid(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewPayrollEntryResponse(entry))
}

// Export handles GET /payroll/:period/export.
func (h *PayrollHandler) Export(c *fiber.Ctx) error {
	period := c.Params("period")
	var buf bytes.Buffer
	if err := h.payroll.Export(c.UserContext(), &buf, period); err != nil {
		return err
	}
	return attachment(c, &buf, "payroll-"+period+".xlsx", contentTypeXLSX)
}

// ArchiveHandler exposes the archive.
type ArchiveHandler struct {
	archive *service.ArchiveService
}

// NewArchiveHandler constructs handler.
func NewArchiveHandler(archive *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archive: archive}
}

func archiveFilter(c *fiber.Ctx) repository.ArchiveFilter {
	return repository.ArchiveFilter{
		Search:   optionalQuery(c, "q"),
		WorkerID: optionalQuery(c, "worker_id"),
		Page:     pageFromQuery(c),
	}
}

func archiveReason(c *fiber.Ctx) (string, error) {
	var req dto.ArchiveRequest
	if len(c.Body()) == 0 {
		return "", nil
	}
	if err := bind(c, &req); err != nil {
		return "", err
	}
	return req.Reason, nil
}

// ListContracts handles GET /archive/contracts.
func (h *ArchiveHandler) ListContracts(c *fiber.Ctx) error {
	list, err := h.archive.ListContracts(c.UserContext(), archiveFilter(c))
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewArchivedContractResponse))
}

// ListWorkers handles GET /archive/workers.
func (h *ArchiveHandler) ListWorkers(c *fiber.Ctx) error {
	list, err := h.archive.ListWorkers(c.UserContext(), archiveFilter(c))
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewArchivedWorkerResponse))
}

// GetContract handles GET /archive/contracts/:archiveId.
func (h *ArchiveHandler) GetContract(c *fiber.Ctx) error {
	a, err := h.archive.GetContract(c.UserContext(), c.Params("archiveId"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewArchivedContractResponse(a))
}

// GetWorker handles GET /archive/workers/:archiveId.
func (h *ArchiveHandler) GetWorker(c *fiber.Ctx) error {
	a, err := h.archive.GetWorker(c.UserContext(), c.Params("archiveId"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewArchivedWorkerResponse(a))
}

// ArchiveContract handles POST /archive/contracts/:id.
func (h *ArchiveHandler) ArchiveContract(c *fiber.Ctx) error {
	reason, err := archiveReason(c)
	if err != nil {
		return err
	}
	a, err := h.archive.ArchiveContract(c.UserContext(), actorID(c), c.Params("id"), reason)
	if err != nil {
		return err
	}
	return created(c, dto.NewArchivedContractResponse(a))
}

// ArchiveWorker handles POST /archive/workers/:id.
func (h *ArchiveHandler) ArchiveWorker(c *fiber.Ctx) error {
	reason, err := archiveReason(c)
	if err != nil {
		return err
	}
	a, err := h.archive.ArchiveWorker(c.UserContext(), actorID(c), c.Params("id"), reason)
	if err != nil {
		return err
	}
	return created(c, dto.NewArchivedWorkerResponse(a))
}

// RestoreContract handles POST /archive/contracts/:archiveId/restore.
func (h *ArchiveHandler) RestoreContract(c *fiber.Ctx) error {
	contract, err := h.archive.RestoreContract(c.UserContext(), actorID(c), c.Params("archiveId"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewContractResponse(contract))
}

// RestoreWorker handles POST /archive/workers/:archiveId/restore.
func (h *ArchiveHandler) RestoreWorker(c *fiber.Ctx) error {
	w, err := h.archive.RestoreWorker(c.UserContext(), actorID(c), c.Params("archiveId"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewWorkerResponse(w))
}

// Duplicates handles GET /archive/duplicates.
func (h *ArchiveHandler) Duplicates(c *fiber.Ctx) error {
	list, err := h.archive.Duplicates(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(list, dto.NewDuplicateResponse))
}

// PurgeDuplicates handles POST /archive/duplicates/purge.
func (h *ArchiveHandler) PurgeDuplicates(c *fiber.Ctx) error {
	n, err := h.archive.PurgeDuplicates(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"purged": n})
}

// BackupsHandler exposes database backups.
type BackupsHandler struct {
	backups *service.BackupService
}

// NewBackupsHandler constructs handler.
func NewBackupsHandler(backups *service.BackupService) *BackupsHandler {
	return &BackupsHandler{backups: backups}
}

// List handles GET /backups.
func (h *BackupsHandler) List(c *fiber.Ctx) error {
	list, err := h.backups.List()
	if err != nil {
		return err
	}
	if list == nil {
		list = []backup.Backup{}
	}
	return ok(c, list)
}

// Create handles POST /backups.
func (h *BackupsHandler) Create(c *fiber.Ctx) error {
	b, err := h.backups.Create(c.UserContext(), actorID(c), backup.TriggerManual)
	if err != nil {
		return err
	}
	return created(c, b)
}

// Download handles GET /backups/:name.
func (h *BackupsHandler) Download(c *fiber.Ctx) error {
	rc, b, err := h.backups.Open(c.Params("name"))
	if err != nil {
		return err
	}
	c.Attachment(b.Name)
	c.Set(fiber.HeaderContentType, "application/gzip")
	return c.SendStream(rc, int(b.SizeBytes))
}

// Restore handles POST /backups/:name/restore with {"confirm": true}.
func (h *BackupsHandler) Restore(c *fiber.Ctx) error {
	var req dto.BackupRestoreRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	safety, err := h.backups.Restore(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"restored": c.Params("name"), "safety_backup": safety.Name})
}

// Delete handles DELETE /backups/:name.
func (h *BackupsHandler) Delete(c *fiber.Ctx) error {
	if err := h.backups.Delete(c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Cleanup handles POST /backups/cleanup?dry_run=true.
func (h *BackupsHandler) Cleanup(c *fiber.Ctx) error {
	dryRun := c.QueryBool("dry_run", false)
	removed, err := h.backups.Cleanup(dryRun)
	if err != nil {
		return err
	}
	if removed == nil {
		removed = []backup.Backup{}
	}
	return ok(c, fiber.Map{"dry_run": dryRun, "removed": removed})
}

// DashboardHandler serves the office overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get handles GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	d, err := h.dashboard.Get(c.UserContext())
	if err != nil {
		return err
	}
	expiring := make([]dto.ExpiringResponse, 0, len(d.ExpiringContracts))
	for i := range d.ExpiringContracts {
		e := &d.ExpiringContracts[i]
		expiring = append(expiring, dto.ExpiringResponse{
			Contract:      dto.NewContractResponse(&e.Contract),
			WorkerName:    e.WorkerName,
			ClientName:    e.ClientName,
			RemainingDays: e.RemainingDays,
		})
	}
	return ok(c, fiber.Map{
		"generated_at":         d.GeneratedAt,
		"workers_by_status":    d.WorkersByStatus,
		"contracts_by_status":  d.ContractsByStatus,
		"expiring_contracts":   expiring,
		"expiring_window_days": d.ExpiringWindowDays,
		"payroll_period":       d.PayrollPeriod,
		"unpaid_payroll":       d.UnpaidPayroll,
	})
}
