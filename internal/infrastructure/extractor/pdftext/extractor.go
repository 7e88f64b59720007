package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// Extractor reads per-page text out of uploaded PDF bytes. A page that
// yields no text is kept as an empty string so page order survives; a file
// that is not a parseable PDF fails as a whole.
type Extractor struct {
	maxSizeBytes int64
}

func New(maxSizeBytes int64) *Extractor {
	return &Extractor{maxSizeBytes: maxSizeBytes}
}

func (e *Extractor) ExtractPages(ctx context.Context, filename string, data []byte) (pages []string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages",
			fmt.Errorf("%s is empty", filename))
	}
	if e.maxSizeBytes > 0 && int64(len(data)) > e.maxSizeBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages",
			fmt.Errorf("%s exceeds %d bytes", filename, e.maxSizeBytes))
	}

	// The pdf package panics on some malformed inputs instead of returning
	// an error; a corrupt upload must degrade, not crash the request.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse %s: %v", filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(num)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page does not invalidate the rest.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
