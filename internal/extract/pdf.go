package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
)

// PDFDocument is an opened PDF.
type PDFDocument interface {
	NumPage() int
	Text(page int) (string, error)
	ImagePNG(page int, dpi float64) ([]byte, error)
	Close() error
}

// PDFOpener opens a PDF held in memory.
type PDFOpener func(content []byte) (PDFDocument, error)

func (x *Extractor) extractPDF(ctx context.Context, content []byte) (Result, error) {
	if x.openPDF == nil {
		return Result{}, apperror.New(apperror.ExtractionFailed, "PDF extraction is not available in this deployment")
	}
	doc, err := x.openPDF(content)
	if err != nil {
		return Result{}, apperror.Wrap(apperror.ExtractionFailed, err, "Failed to read PDF")
	}
	defer func() { _ = doc.Close() }()

	var b strings.Builder
	for i := range doc.NumPage() {
		if err := ctx.Err(); err != nil {
			return Result{}, apperror.Wrap(apperror.Timeout, err, "PDF extraction cancelled")
		}
		pageText, err := doc.Text(i)
		if err != nil {
			logger.Log.Warn().Err(err).Int("page", i+1).Msg("Failed to extract text from page")
			continue
		}
		b.WriteString(strings.Join(strings.Fields(pageText), " "))
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(text) > x.minText {
		return Result{Text: text, Strategy: StrategyPDFText}, nil
	}

	logger.Log.Info().
		Int("pages", doc.NumPage()).
		Int("text_length", len(text)).
		Msg("Scanned PDF detected")

	if !x.scannedPDF || x.recognizer == nil {
		return Result{Strategy: StrategyPDFOCR}, apperror.New(apperror.ExtractionFailed,
			"Scanned PDF detected. OCR for scanned PDFs is not available in this deployment")
	}
	return x.ocrPages(ctx, doc)
}

// ocrPages rasterizes every page and recognizes them concurrently.
// Pages are rasterized in order; only recognition fans out.
func (x *Extractor) ocrPages(ctx context.Context, doc PDFDocument) (Result, error) {
	n := doc.NumPage()
	images := make([][]byte, n)
	for i := range n {
		img, err := doc.ImagePNG(i, x.dpi)
		if err != nil {
			return Result{Strategy: StrategyPDFOCR}, apperror.Wrap(apperror.ExtractionFailed, err, "Failed to rasterize PDF page")
		}
		images[i] = img
	}

	texts := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.pageLimit)
	for i, img := range images {
		g.Go(func() error {
			text, err := x.recognizer.Recognize(gctx, img)
			if err != nil {
				return err
			}
			texts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Strategy: StrategyPDFOCR}, apperror.Wrap(apperror.ExtractionFailed, err, "Scanned PDF OCR failed")
	}

	return Result{Text: strings.TrimSpace(strings.Join(texts, "\n")), Strategy: StrategyPDFOCR}, nil
}
