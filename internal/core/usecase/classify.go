package usecase

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// filenameConfidence is the confidence assigned when the classification rests
// on filename evidence alone.
const filenameConfidence = 0.6

// filenameHints maps filename keywords to document types. Order matters:
// earlier entries win when a filename matches several keywords, so the more
// specific keywords come first.
var filenameHints = []struct {
	keyword string
	docType domain.DocumentType
}{
	{"discharge", domain.TypeDischargeSummary},
	{"prescription", domain.TypePrescription},
	{"id_card", domain.TypeIDCard},
	{"idcard", domain.TypeIDCard},
	{"insurance_card", domain.TypeIDCard},
	{"correspondence", domain.TypeCorrespondence},
	{"letter", domain.TypeCorrespondence},
	{"notice", domain.TypeCorrespondence},
	{"claim", domain.TypeClaimForm},
	{"bill", domain.TypeBill},
	{"invoice", domain.TypeBill},
	{"receipt", domain.TypeBill},
}

// classifyByFilename returns the filename-based prior for one upload.
func classifyByFilename(filename string) (domain.DocumentType, bool) {
	name := strings.ToLower(filepath.Base(filename))
	for _, hint := range filenameHints {
		if strings.Contains(name, hint.keyword) {
			return hint.docType, true
		}
	}
	return domain.TypeUnknown, false
}

// classifyDocument combines the filename prior with the model classification.
// A document without extractable text is classified on filename evidence
// alone. Model failures and out-of-enum answers fall back to the prior, so a
// degraded classifier never rejects a document outright.
func (uc *ProcessClaimUseCase) classifyDocument(ctx context.Context, filename string, pages []string) (domain.ClassifiedDocument, string) {
	doc := domain.ClassifiedDocument{
		Filename: filename,
		Type:     domain.TypeUnknown,
		Pages:    pages,
	}
	hintType, hinted := classifyByFilename(filename)
	if hinted {
		doc.Type = hintType
		doc.Confidence = filenameConfidence
	}

	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return doc, ""
	}

	modelType, confidence, err := uc.classifier.Classify(ctx, filename, text)
	if err != nil {
		return doc, "classification degraded for " + filename + ": " + err.Error()
	}
	if modelType == domain.TypeUnknown && hinted {
		return doc, ""
	}
	doc.Type = modelType
	doc.Confidence = confidence
	return doc, ""
}
