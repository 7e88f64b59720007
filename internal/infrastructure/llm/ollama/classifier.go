package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// Classifier assigns one of the closed claim document types to extracted
// text. An out-of-enum answer maps to unknown with confidence 0 rather than
// an error, so the orchestrator's filename fallback can still apply.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, filename, text string) (domain.DocumentType, float64, error) {
	respText, err := c.client.generateJSON(ctx, "classify", buildClassificationPrompt(filename, text))
	if err != nil {
		return domain.TypeUnknown, 0, err
	}

	payload := []byte(extractJSONObject(respText))
	if err := validateAgainstSchema(classificationSchema, payload); err != nil {
		return domain.TypeUnknown, 0, fmt.Errorf("classify %s: %w", filename, err)
	}

	var result struct {
		DocumentType string  `json:"document_type"`
		Confidence   float64 `json:"confidence"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.TypeUnknown, 0, fmt.Errorf("parse classification json: %w", err)
	}

	docType := domain.ParseDocumentType(strings.ToLower(strings.TrimSpace(result.DocumentType)))
	if docType == domain.TypeUnknown {
		return domain.TypeUnknown, 0, nil
	}
	confidence := result.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return docType, confidence, nil
}
