package api

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/approval"
	"gitlab.com/yelinaung/expense-approval/internal/expense"
	"gitlab.com/yelinaung/expense-approval/internal/extract"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/models"
	"gitlab.com/yelinaung/expense-approval/internal/receipt"
)

// ExpenseService is the expense use-case layer behind the handlers.
type ExpenseService interface {
	Create(ctx context.Context, actor approval.Actor, in expense.Input) (*models.Expense, error)
	Update(ctx context.Context, actor approval.Actor, id uuid.UUID, in expense.Input) (*models.ExpenseDetail, error)
	Delete(ctx context.Context, actor approval.Actor, id uuid.UUID) error
	UpdateStatus(ctx context.Context, actor approval.Actor, id uuid.UUID, status string) (*models.ExpenseDetail, error)
	Approvers(ctx context.Context, actor approval.Actor, id uuid.UUID) ([]models.User, error)
	ListCompany(ctx context.Context, actor approval.Actor) ([]models.ExpenseDetail, error)
	ListEmployee(ctx context.Context, actor approval.Actor) ([]models.ExpenseDetail, error)
	ListManager(ctx context.Context, actor approval.Actor, filter string) ([]models.ExpenseDetail, error)
	ListAdmin(ctx context.Context, actor approval.Actor, filter string) ([]models.ExpenseDetail, error)
}

// ReceiptIngester stores uploaded receipts as draft expenses.
type ReceiptIngester interface {
	Ingest(ctx context.Context, employeeID, companyID uuid.UUID, f extract.File) (*receipt.Upload, error)
}

type handlers struct {
	expenses       ExpenseService
	receipts       ReceiptIngester
	uploadMaxBytes int64
}

type expenseRequest struct {
	Category         string          `json:"category"`
	Description      string          `json:"description"`
	AmountOriginal   decimal.Decimal `json:"amountOriginal"`
	CurrencyOriginal string          `json:"currencyOriginal"`
	ReceiptURL       string          `json:"receiptUrl"`
	DateIncurred     string          `json:"dateIncurred"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (r expenseRequest) input() (expense.Input, error) {
	in := expense.Input{
		Category:         r.Category,
		Description:      r.Description,
		AmountOriginal:   r.AmountOriginal,
		CurrencyOriginal: r.CurrencyOriginal,
		ReceiptURL:       r.ReceiptURL,
	}
	if s := strings.TrimSpace(r.DateIncurred); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return expense.Input{}, apperror.Wrap(apperror.ValidationError, err, "Invalid dateIncurred")
		}
		in.DateIncurred = t
	}
	return in, nil
}

// parseDate accepts RFC 3339 timestamps and plain ISO dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.New(apperror.NotFound, "Expense not found")
	}
	return id, nil
}

func (h *handlers) listCompany(c *fiber.Ctx) error {
	details, err := h.expenses.ListCompany(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(newDetailViews(details))
}

func (h *handlers) listEmployee(c *fiber.Ctx) error {
	details, err := h.expenses.ListEmployee(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(newDetailViews(details))
}

func (h *handlers) listManager(c *fiber.Ctx) error {
	details, err := h.expenses.ListManager(c.UserContext(), actorFrom(c), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(newDetailViews(details))
}

func (h *handlers) listAdmin(c *fiber.Ctx) error {
	details, err := h.expenses.ListAdmin(c.UserContext(), actorFrom(c), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(newDetailViews(details))
}

func (h *handlers) create(c *fiber.Ctx) error {
	var req expenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ValidationError, err, "Invalid request body")
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	created, err := h.expenses.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newExpenseView(created))
}

func (h *handlers) update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req expenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ValidationError, err, "Invalid request body")
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	updated, err := h.expenses.Update(c.UserContext(), actorFrom(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(newDetailView(updated))
}

func (h *handlers) remove(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.expenses.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Expense deleted successfully"})
}

func (h *handlers) updateStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ValidationError, err, "Invalid request body")
	}

	updated, err := h.expenses.UpdateStatus(c.UserContext(), actorFrom(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(newDetailView(updated))
}

func (h *handlers) approvals(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	users, err := h.expenses.Approvers(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(newApprovalsView(users))
}

func (h *handlers) uploadReceipt(c *fiber.Ctx) error {
	if h.receipts == nil {
		return uploadFailure(c, fiber.StatusServiceUnavailable, "Receipt processing is not configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return uploadFailure(c, fiber.StatusBadRequest, "No file uploaded")
	}
	if h.uploadMaxBytes > 0 && fh.Size > h.uploadMaxBytes {
		return uploadFailure(c, fiber.StatusRequestEntityTooLarge, "File is too large")
	}

	src, err := fh.Open()
	if err != nil {
		return uploadFailure(c, fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return uploadFailure(c, fiber.StatusBadRequest, "Failed to read uploaded file")
	}

	actor := actorFrom(c)
	result, err := h.receipts.Ingest(c.UserContext(), actor.ID, actor.CompanyID, extract.File{
		Name:      fh.Filename,
		MediaType: fh.Header.Get(fiber.HeaderContentType),
		Content:   content,
	})
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("employee_hash", logger.HashID(actor.ID)).
			Str("kind", string(apperror.KindOf(err))).
			Msg("Receipt upload failed")
		status := statusFor(err)
		return uploadFailure(c, status, messageFor(c, err, status))
	}
	return c.JSON(result)
}

func uploadFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}
