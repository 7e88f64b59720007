package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// Archive keeps the raw uploads of every processed claim on local disk,
// one directory per request, for audit and reprocessing.
type Archive struct {
	baseDir string
}

func New(baseDir string) (*Archive, error) {
	if baseDir == "" {
		baseDir = "./data/claims"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Archive{baseDir: baseDir}, nil
}

func (a *Archive) ArchiveDocuments(ctx context.Context, requestID string, documents []domain.UploadedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(a.baseDir, filepath.Base(requestID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create claim dir: %w", err)
	}

	for _, doc := range documents {
		name := filepath.Base(doc.Filename)
		if name == "" || name == "." || name == string(filepath.Separator) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
