package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

const docxBodyPart = "word/document.xml"

// extractDOCX reads the raw text of a Word document: the text runs of each
// paragraph, one paragraph per line.
func extractDOCX(content []byte) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, apperror.Wrap(apperror.ExtractionFailed, err, "Failed to read document")
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return Result{}, apperror.New(apperror.ExtractionFailed, "Document has no body")
	}

	rc, err := body.Open()
	if err != nil {
		return Result{}, apperror.Wrap(apperror.ExtractionFailed, err, "Failed to open document body")
	}
	defer func() { _ = rc.Close() }()

	text, err := documentText(rc)
	if err != nil {
		return Result{}, apperror.Wrap(apperror.ExtractionFailed, err, "Failed to parse document body")
	}
	return Result{Text: text, Strategy: StrategyDocument}, nil
}

func documentText(r io.Reader) (string, error) {
	var (
		b      strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
