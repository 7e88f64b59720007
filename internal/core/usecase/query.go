package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/insurly/claim-processor/internal/core/domain"
	"github.com/insurly/claim-processor/internal/core/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ClaimQueryUseCase serves reads over previously processed claims.
type ClaimQueryUseCase struct {
	repo ports.ClaimRepository
}

func NewClaimQueryUseCase(repo ports.ClaimRepository) *ClaimQueryUseCase {
	return &ClaimQueryUseCase{repo: repo}
}

func (uc *ClaimQueryUseCase) GetResult(ctx context.Context, requestID string) (*domain.WorkflowResult, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get claim result",
			errors.New("empty request id"))
	}
	return uc.repo.GetResult(ctx, requestID)
}

func (uc *ClaimQueryUseCase) ListRecent(ctx context.Context, limit int) ([]domain.ClaimSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return uc.repo.ListRecent(ctx, limit)
}
