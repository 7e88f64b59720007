package ports

import (
	"context"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// ClaimProcessor is the inbound contract for running the full claim pipeline
// on one uploaded document set. It always returns a well-formed envelope;
// pipeline failures are reported in-band via WorkflowStatus.
type ClaimProcessor interface {
	ProcessClaim(ctx context.Context, uploads []domain.UploadedDocument) *domain.WorkflowResult
}

// ClaimReader is the inbound read model for previously processed claims.
type ClaimReader interface {
	GetResult(ctx context.Context, requestID string) (*domain.WorkflowResult, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ClaimSummary, error)
}
