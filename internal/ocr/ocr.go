// Package ocr binds the native text recognition and PDF rendering engines
// used by receipt extraction. Both require cgo and their system libraries.
package ocr

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"

	"gitlab.com/yelinaung/expense-approval/internal/extract"
)

const defaultLanguage = "eng"

// Tesseract recognizes text in images. A fresh engine client is used per
// call, so one Tesseract is safe for concurrent use.
type Tesseract struct {
	language string
}

// NewTesseract creates a recognizer for the given tesseract language code.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = defaultLanguage
	}
	return &Tesseract{language: language}
}

// Recognize returns the text found in an encoded image.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}
	return text, nil
}

// OpenPDF opens an in-memory PDF with MuPDF.
func OpenPDF(content []byte) (extract.PDFDocument, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return doc, nil
}

var (
	_ extract.Recognizer = (*Tesseract)(nil)
	_ extract.PDFOpener  = OpenPDF
)
