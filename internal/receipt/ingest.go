package receipt

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/yelinaung/expense-approval/internal/extract"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/models"
	"gitlab.com/yelinaung/expense-approval/internal/telemetry"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, f extract.File) (extract.Result, error)
}

// CategoryLister lists a company's active categories.
type CategoryLister interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Category, error)
}

// CompanyGetter loads a company.
type CompanyGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// ExpenseCreator persists a new expense.
type ExpenseCreator interface {
	Create(ctx context.Context, expense *models.Expense) error
}

// Upload is the result of a successful receipt ingestion.
type Upload struct {
	Success  bool            `json:"success"`
	Provider string          `json:"provider"`
	Data     Record          `json:"data"`
	Expense  *models.Expense `json:"-"`
}

// Service runs the upload pipeline: extract, normalize, store a draft.
type Service struct {
	extractor  TextExtractor
	normalizer *Normalizer
	categories CategoryLister
	companies  CompanyGetter
	expenses   ExpenseCreator
	provider   string
	now        func() time.Time
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Extractor  TextExtractor
	Normalizer *Normalizer
	Categories CategoryLister
	Companies  CompanyGetter
	Expenses   ExpenseCreator
	Provider   string
}

// NewService creates a Service.
func NewService(deps Deps) *Service {
	return &Service{
		extractor:  deps.Extractor,
		normalizer: deps.Normalizer,
		categories: deps.Categories,
		companies:  deps.Companies,
		expenses:   deps.Expenses,
		provider:   deps.Provider,
		now:        time.Now,
	}
}

// Ingest extracts and normalizes an uploaded receipt and stores it as a
// draft expense owned by employeeID. Nothing is stored when any step fails.
func (s *Service) Ingest(ctx context.Context, employeeID, companyID uuid.UUID, f extract.File) (_ *Upload, err error) {
	ctx, span := telemetry.StartSpan(ctx, "receipt.Ingest",
		attribute.String("receipt.media_type", f.MediaType),
		attribute.Int("receipt.size", len(f.Content)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	res, err := s.extractor.Extract(ctx, f)
	if err != nil {
		return nil, err
	}

	rec, err := s.normalizer.Normalize(ctx, res.Text)
	if err != nil {
		return nil, err
	}

	incurred := s.now().UTC()
	if rec.DateIncurred != nil && strings.TrimSpace(*rec.DateIncurred) != "" {
		incurred, err = ParseDDMMYYYY(*rec.DateIncurred)
		if err != nil {
			return nil, err
		}
	}

	category, err := s.resolveCategory(ctx, companyID, rec.Category)
	if err != nil {
		return nil, err
	}

	currency, err := s.currency(ctx, companyID, rec.CurrencyOriginal)
	if err != nil {
		return nil, err
	}

	original := decimal.Zero
	if rec.AmountOriginal != nil {
		original = rec.AmountOriginal.Decimal
	}
	converted := original
	if rec.AmountConverted != nil {
		converted = rec.AmountConverted.Decimal
	}

	expense := &models.Expense{
		CompanyID:        companyID,
		EmployeeID:       employeeID,
		Category:         category,
		Description:      deref(rec.Description),
		AmountOriginal:   original,
		CurrencyOriginal: currency,
		AmountConverted:  converted,
		DateIncurred:     incurred,
		Status:           models.StatusDraft,
		ApprovalSequence: []uuid.UUID{},
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("expense_hash", logger.HashID(expense.ID)).
		Str("employee_hash", logger.HashID(employeeID)).
		Str("strategy", res.Strategy).
		Str("provider", s.provider).
		Msg("Receipt stored as draft expense")

	return &Upload{Success: true, Provider: s.provider, Data: rec, Expense: expense}, nil
}

func (s *Service) resolveCategory(ctx context.Context, companyID uuid.UUID, suggested string) (models.CategoryRef, error) {
	categories, err := s.categories.ListByCompany(ctx, companyID)
	if err != nil {
		return models.CategoryRef{}, err
	}
	if match := MatchCategory(suggested, categories); match != nil {
		return models.CategoryID(match.ID), nil
	}
	return models.CategoryOther(), nil
}

func (s *Service) currency(ctx context.Context, companyID uuid.UUID, code *string) (string, error) {
	if code != nil {
		if c := strings.ToUpper(strings.TrimSpace(*code)); c != "" {
			return c, nil
		}
	}
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	if company.BaseCurrency == "" {
		return models.DefaultCurrency, nil
	}
	return company.BaseCurrency, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

