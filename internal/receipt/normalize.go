package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/llm"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
)

var (
	codeFence      = regexp.MustCompile("```json|```")
	trailingObject = regexp.MustCompile(`,\s*}`)
	trailingArray  = regexp.MustCompile(`,\s*]`)
	promptTemplate = strings.TrimSpace(promptText)
)

const promptText = `
You will be given RAW TEXT extracted from a receipt.

Your task is to FORMAT and DERIVE the information into the JSON structure below.

Rules:
- Return ONLY valid JSON (no markdown, no explanation).
- If a field is missing or unclear, use null.
- Use DD/MM/YYYY for "dateIncurred".
- For "description":
  - If an explicit description is present, use it.
  - Otherwise, GENERATE a short description (5-12 words)
    using merchant name and main purchased item or purpose.

JSON FORMAT:
%s

RAW RECEIPT TEXT:
%s
`

// BuildPrompt embeds the schema and the raw text in the model instruction.
func BuildPrompt(rawText string) string {
	return fmt.Sprintf(promptTemplate, schemaTemplate, rawText)
}

// Normalizer coerces raw receipt text into a Record.
type Normalizer struct {
	completer llm.Completer
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(completer llm.Completer) *Normalizer {
	return &Normalizer{completer: completer}
}

// Normalize asks the model to structure rawText and repairs its answer.
func (n *Normalizer) Normalize(ctx context.Context, rawText string) (Record, error) {
	logger.Log.Debug().
		Str("text", logger.SanitizeText(rawText)).
		Msg("Normalizing receipt text")

	reply, err := n.completer.Complete(ctx, BuildPrompt(rawText))
	if err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(reply) == "" {
		return Record{}, apperror.New(apperror.EmptyResponse, "Empty response from language model")
	}
	return ParseRecord(reply)
}

// Sanitize strips Markdown code fences and trailing commas before closing
// braces and brackets.
func Sanitize(reply string) string {
	s := codeFence.ReplaceAllString(reply, "")
	s = trailingObject.ReplaceAllString(s, "}")
	s = trailingArray.ReplaceAllString(s, "]")
	return strings.TrimSpace(s)
}

// ParseRecord sanitizes and decodes a model reply, filling every missing or
// null field with its default.
func ParseRecord(reply string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(Sanitize(reply)), &fields); err != nil {
		return Record{}, apperror.Wrap(apperror.MalformedModelOutput, err, "Language model returned malformed JSON")
	}

	rec := DefaultRecord()

	if s := stringField(fields, "category"); s != nil {
		rec.Category = *s
	}
	rec.Description = stringField(fields, "description")
	rec.AmountOriginal = amountField(fields, "amountOriginal")
	rec.CurrencyOriginal = stringField(fields, "currencyOriginal")
	rec.AmountConverted = amountField(fields, "amountConverted")
	rec.DateIncurred = stringField(fields, "dateIncurred")
	// Uploads never carry a receipt link; the model cannot supply one.
	rec.ReceiptURL = nil
	rec.MerchantName = stringField(fields, "merchantName")
	rec.PaymentMethod = stringField(fields, "paymentMethod")
	rec.Subtotal = amountField(fields, "subtotal")
	rec.TaxAmount = amountField(fields, "taxAmount")

	if raw, ok := present(fields, "items"); ok {
		var items []any
		if err := json.Unmarshal(raw, &items); err == nil && items != nil {
			rec.Items = items
		}
	}
	return rec, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

// stringField reads a string, accepting scalar non-strings by their text.
func stringField(fields map[string]json.RawMessage, key string) *string {
	raw, ok := present(fields, key)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch v.(type) {
	case float64, bool:
		s = strings.TrimSpace(string(raw))
		return &s
	}
	return nil
}

// amountField reads a number or numeric string. Anything else is treated
// as absent.
func amountField(fields map[string]json.RawMessage, key string) *Amount {
	raw, ok := present(fields, key)
	if !ok {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		logger.Log.Debug().Str("field", key).Msg("Ignoring non-numeric amount from model")
		return nil
	}
	return &Amount{Decimal: d}
}
