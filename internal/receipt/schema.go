// Package receipt turns extracted receipt text into a structured record
// with a language model and stores it as a draft expense.
package receipt

import (
	"github.com/shopspring/decimal"
)

// DefaultCategory is the category used when the model gives none.
const DefaultCategory = "Other"

// schemaTemplate is the target shape shown to the model, with each field's
// default value.
const schemaTemplate = `{
  "category": "Other",
  "description": null,
  "amountOriginal": null,
  "currencyOriginal": null,
  "amountConverted": null,
  "dateIncurred": null,
  "receiptUrl": null,
  "merchantName": null,
  "paymentMethod": null,
  "subtotal": null,
  "taxAmount": null,
  "items": []
}`

// Amount is a decimal that marshals as a bare JSON number.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// Record is a normalized receipt. Every field is always present; absent
// values carry the schema default.
type Record struct {
	Category         string  `json:"category"`
	Description      *string `json:"description"`
	AmountOriginal   *Amount `json:"amountOriginal"`
	CurrencyOriginal *string `json:"currencyOriginal"`
	AmountConverted  *Amount `json:"amountConverted"`
	DateIncurred     *string `json:"dateIncurred"`
	ReceiptURL       *string `json:"receiptUrl"`
	MerchantName     *string `json:"merchantName"`
	PaymentMethod    *string `json:"paymentMethod"`
	Subtotal         *Amount `json:"subtotal"`
	TaxAmount        *Amount `json:"taxAmount"`
	Items            []any   `json:"items"`
}

// DefaultRecord returns a record holding only schema defaults.
func DefaultRecord() Record {
	return Record{
		Category: DefaultCategory,
		Items:    []any{},
	}
}
