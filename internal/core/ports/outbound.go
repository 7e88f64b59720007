package ports

import (
	"context"
	"time"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// TextExtractor turns raw document bytes into ordered per-page text. A
// document with no extractable text yields an empty slice and no error.
type TextExtractor interface {
	ExtractPages(ctx context.Context, filename string, data []byte) ([]string, error)
}

// DocumentClassifier assigns one of the closed document types to extracted
// text. Implementations must normalize out-of-enum model output to
// domain.TypeUnknown with confidence 0.
type DocumentClassifier interface {
	Classify(ctx context.Context, filename, text string) (domain.DocumentType, float64, error)
}

// FieldExtractor produces the type-appropriate structured record for one
// classified document. Unset fields must stay nil, never empty values.
type FieldExtractor interface {
	ExtractBill(ctx context.Context, doc domain.ClassifiedDocument) (*domain.BillData, error)
	ExtractDischarge(ctx context.Context, doc domain.ClassifiedDocument) (*domain.DischargeData, error)
	ExtractAncillary(ctx context.Context, doc domain.ClassifiedDocument) (*domain.ClaimAncillaryData, error)
}

// ClaimRepository persists and reads processed claim envelopes.
type ClaimRepository interface {
	SaveResult(ctx context.Context, result *domain.WorkflowResult) error
	GetResult(ctx context.Context, requestID string) (*domain.WorkflowResult, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ClaimSummary, error)
}

// DocumentArchive retains the raw uploads of a claim run for audit. Archiving
// is best-effort; the pipeline never fails a request over it.
type DocumentArchive interface {
	ArchiveDocuments(ctx context.Context, requestID string, documents []domain.UploadedDocument) error
}

// EventPublisher announces completed claim runs to interested consumers.
// Publishing is best-effort; the pipeline never fails a request over it.
type EventPublisher interface {
	PublishClaimProcessed(ctx context.Context, result *domain.WorkflowResult) error
}

// PipelineObserver receives pipeline telemetry. Implementations must be safe
// for concurrent use; a no-op implementation is valid.
type PipelineObserver interface {
	ObserveWorkflow(status domain.WorkflowStatus, duration time.Duration)
	ObserveStage(stage string, duration time.Duration)
	ObserveClassification(docType domain.DocumentType)
	ObserveExtractionFailure(docType domain.DocumentType)
}
