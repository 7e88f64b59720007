package usecase

import (
	"fmt"
	"strings"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// Decider turns a validation report into the terminal claim determination.
// The status rule is fixed policy, not a model call, so repeated runs on the
// same report always agree.
type Decider struct {
	RejectThreshold  float64
	PendingThreshold float64
}

// Decide applies the threshold policy: rejected when required documents are
// missing or the score falls below the reject threshold, pending in the
// middle band, approved otherwise. Confidence tracks the validation score.
func (d Decider) Decide(validation domain.ValidationResult) domain.ClaimDecision {
	decision := domain.ClaimDecision{
		ConfidenceScore: validation.ValidationScore,
	}

	switch {
	case len(validation.MissingDocuments) > 0:
		decision.Status = domain.DecisionRejected
		decision.Reason = fmt.Sprintf("Required documents are missing: %s",
			strings.Join(validation.MissingDocuments, ", "))
	case validation.ValidationScore < d.RejectThreshold:
		decision.Status = domain.DecisionRejected
		decision.Reason = fmt.Sprintf("Validation score %.0f is below the reject threshold %.0f",
			validation.ValidationScore, d.RejectThreshold)
	case validation.ValidationScore < d.PendingThreshold:
		decision.Status = domain.DecisionPending
		decision.Reason = fmt.Sprintf("Validation score %.0f requires manual review",
			validation.ValidationScore)
	default:
		decision.Status = domain.DecisionApproved
		decision.Reason = "All required documents are present and consistent"
	}

	if decision.Status != domain.DecisionApproved {
		decision.RecommendedActions = validation.Recommendations
		if len(decision.RecommendedActions) == 0 {
			decision.RecommendedActions = []string{"Route the claim for manual review"}
		}
	}
	return decision
}
