package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

type stubCompleter struct {
	reply  string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("STARBUCKS 4.50")
	require.Contains(t, prompt, "STARBUCKS 4.50")
	require.Contains(t, prompt, `"amountOriginal": null`)
	require.Contains(t, prompt, "DD/MM/YYYY")
	require.NotContains(t, prompt, "%!")
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "plain", reply: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", reply: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", reply: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "trailing comma in object", reply: `{"a":1,}`, want: `{"a":1}`},
		{name: "trailing comma in array", reply: `{"a":[1,2, ]}`, want: `{"a":[1,2]}`},
		{name: "trailing comma with newline", reply: "{\"a\":1,\n}", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Sanitize(tt.reply))
		})
	}
}

func TestParseRecord(t *testing.T) {
	t.Parallel()

	t.Run("fills every missing field with its default", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord(`{"amountOriginal":42}`)
		require.NoError(t, err)

		out, err := json.Marshal(rec)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"category": "Other",
			"description": null,
			"amountOriginal": 42,
			"currencyOriginal": null,
			"amountConverted": null,
			"dateIncurred": null,
			"receiptUrl": null,
			"merchantName": null,
			"paymentMethod": null,
			"subtotal": null,
			"taxAmount": null,
			"items": []
		}`, string(out))
	})

	t.Run("repairs fenced reply with trailing comma", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord("```json\n{\"merchantName\":\"X\",}\n```")
		require.NoError(t, err)
		require.NotNil(t, rec.MerchantName)
		require.Equal(t, "X", *rec.MerchantName)
		require.Equal(t, DefaultCategory, rec.Category)
		require.Nil(t, rec.AmountOriginal)
	})

	t.Run("reads a complete record", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord(`{
			"category": "Meals",
			"description": "Lunch at Cafe Rio",
			"amountOriginal": "18.75",
			"currencyOriginal": "EUR",
			"amountConverted": 20.1,
			"dateIncurred": "03/02/2025",
			"merchantName": "Cafe Rio",
			"paymentMethod": "card",
			"subtotal": 16.5,
			"taxAmount": 2.25,
			"items": [{"name": "Burrito", "price": 12}]
		}`)
		require.NoError(t, err)
		require.Equal(t, "Meals", rec.Category)
		require.True(t, rec.AmountOriginal.Equal(decimal.RequireFromString("18.75")))
		require.True(t, rec.AmountConverted.Equal(decimal.RequireFromString("20.1")))
		require.Equal(t, "EUR", *rec.CurrencyOriginal)
		require.Equal(t, "03/02/2025", *rec.DateIncurred)
		require.Nil(t, rec.ReceiptURL)
		require.Len(t, rec.Items, 1)
	})

	t.Run("drops receipt url from the model", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord(`{"receiptUrl":"https://example.com/r.png"}`)
		require.NoError(t, err)
		require.Nil(t, rec.ReceiptURL)
	})

	t.Run("null category keeps the default", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord(`{"category": null, "items": null}`)
		require.NoError(t, err)
		require.Equal(t, DefaultCategory, rec.Category)
		require.NotNil(t, rec.Items)
		require.Empty(t, rec.Items)
	})

	t.Run("non numeric amount is treated as absent", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord(`{"amountOriginal": "about ten", "taxAmount": true}`)
		require.NoError(t, err)
		require.Nil(t, rec.AmountOriginal)
		require.Nil(t, rec.TaxAmount)
	})

	t.Run("numeric description is kept as text", func(t *testing.T) {
		t.Parallel()

		rec, err := ParseRecord(`{"description": 7}`)
		require.NoError(t, err)
		require.Equal(t, "7", *rec.Description)
	})

	t.Run("unparseable reply is malformed output", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRecord("Sorry, I cannot read this receipt.")
		require.ErrorIs(t, err, apperror.MalformedModelOutput)
	})

	t.Run("array reply is malformed output", func(t *testing.T) {
		t.Parallel()

		_, err := ParseRecord(`[1, 2]`)
		require.ErrorIs(t, err, apperror.MalformedModelOutput)
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	t.Run("sends the prompt and parses the reply", func(t *testing.T) {
		t.Parallel()

		completer := &stubCompleter{reply: `{"merchantName":"Cafe","amountOriginal":4.5}`}
		rec, err := NewNormalizer(completer).Normalize(context.Background(), "CAFE 4.50")
		require.NoError(t, err)
		require.Contains(t, completer.prompt, "CAFE 4.50")
		require.Equal(t, "Cafe", *rec.MerchantName)
	})

	t.Run("blank reply is an empty response", func(t *testing.T) {
		t.Parallel()

		_, err := NewNormalizer(&stubCompleter{reply: "  \n"}).Normalize(context.Background(), "x")
		require.ErrorIs(t, err, apperror.EmptyResponse)
	})

	t.Run("completer errors pass through", func(t *testing.T) {
		t.Parallel()

		upstream := apperror.New(apperror.Timeout, "Language model request timed out")
		_, err := NewNormalizer(&stubCompleter{err: upstream}).Normalize(context.Background(), "x")
		require.ErrorIs(t, err, apperror.Timeout)
		require.True(t, errors.Is(err, upstream))
	})
}
