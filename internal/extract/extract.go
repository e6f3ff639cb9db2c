// Package extract turns uploaded receipt files into plain text.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/semaphore"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/telemetry"
)

// MediaTypeDOCX is the media type of Word documents.
const MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Extraction strategies, reported in Result and metrics.
const (
	StrategyDocument = "docx"
	StrategyImageOCR = "image_ocr"
	StrategyPDFText  = "pdf_text"
	StrategyPDFOCR   = "pdf_ocr"
)

const (
	defaultMinTextLength = 20
	defaultConcurrency   = 4
	defaultDPI           = 200
)

// File is an uploaded receipt.
type File struct {
	Name      string
	MediaType string
	Content   []byte
}

// Result is extracted receipt text and the strategy that produced it.
type Result struct {
	Text     string
	Strategy string
}

// Recognizer runs optical character recognition on one encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Options configures an Extractor.
type Options struct {
	Recognizer Recognizer
	OpenPDF    PDFOpener

	// ScannedPDF enables page rasterization and OCR for PDFs without a
	// usable text layer. When false such PDFs fail with ExtractionFailed.
	ScannedPDF     bool
	DPI            float64
	MinTextLength  int
	MaxConcurrency int
	Metrics        *telemetry.Metrics
}

// Extractor dispatches on file kind. At most MaxConcurrency extractions run
// at once; further callers wait or give up when their context ends.
type Extractor struct {
	recognizer Recognizer
	openPDF    PDFOpener
	scannedPDF bool
	dpi        float64
	minText    int
	pageLimit  int
	sem        *semaphore.Weighted
	metrics    *telemetry.Metrics
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = defaultMinTextLength
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultConcurrency
	}
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	return &Extractor{
		recognizer: opts.Recognizer,
		openPDF:    opts.OpenPDF,
		scannedPDF: opts.ScannedPDF,
		dpi:        opts.DPI,
		minText:    opts.MinTextLength,
		pageLimit:  opts.MaxConcurrency,
		sem:        semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		metrics:    opts.Metrics,
	}
}

// Extract returns the plain text of f.
func (x *Extractor) Extract(ctx context.Context, f File) (Result, error) {
	if len(f.Content) == 0 {
		return Result{}, apperror.New(apperror.ValidationError, "Invalid file input")
	}

	mediaType := DetectMediaType(f)
	if !Supported(mediaType) {
		return Result{}, apperror.Newf(apperror.UnsupportedFormat, "Unsupported file type %q", mediaType)
	}

	if err := x.sem.Acquire(ctx, 1); err != nil {
		return Result{}, apperror.Wrap(apperror.Timeout, err, "Extraction queue wait cancelled")
	}
	defer x.sem.Release(1)

	start := time.Now()
	var (
		res Result
		err error
	)
	switch {
	case mediaType == "application/pdf":
		res, err = x.extractPDF(ctx, f.Content)
	case strings.HasPrefix(mediaType, "image/"):
		res, err = x.extractImage(ctx, f.Content)
	default:
		res, err = extractDOCX(f.Content)
	}

	strategy := res.Strategy
	if strategy == "" {
		strategy = strategyFor(mediaType)
	}
	x.metrics.RecordExtraction(ctx, strategy, time.Since(start), err)

	event := logger.Log.Debug()
	if err != nil {
		event = logger.Log.Warn().Err(err)
	}
	event.
		Str("media_type", mediaType).
		Str("strategy", strategy).
		Int("text_length", len(res.Text)).
		Dur("elapsed", time.Since(start)).
		Msg("Receipt text extraction finished")

	return res, err
}

func (x *Extractor) extractImage(ctx context.Context, content []byte) (Result, error) {
	if x.recognizer == nil {
		return Result{}, apperror.New(apperror.ExtractionFailed, "OCR is not available in this deployment")
	}
	text, err := x.recognizer.Recognize(ctx, content)
	if err != nil {
		return Result{}, apperror.Wrap(apperror.ExtractionFailed, err, "Image OCR failed")
	}
	return Result{Text: strings.TrimSpace(text), Strategy: StrategyImageOCR}, nil
}

// DetectMediaType returns the declared media type without parameters, or a
// sniffed one when the declaration is missing or generic.
func DetectMediaType(f File) string {
	declared, _, _ := strings.Cut(f.MediaType, ";")
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	detected, _, _ := strings.Cut(mimetype.Detect(f.Content).String(), ";")
	return detected
}

// Supported reports whether files of mediaType can be extracted.
func Supported(mediaType string) bool {
	return mediaType == "application/pdf" ||
		mediaType == MediaTypeDOCX ||
		strings.HasPrefix(mediaType, "image/")
}

func strategyFor(mediaType string) string {
	switch {
	case mediaType == "application/pdf":
		return StrategyPDFText
	case strings.HasPrefix(mediaType, "image/"):
		return StrategyImageOCR
	default:
		return StrategyDocument
	}
}
