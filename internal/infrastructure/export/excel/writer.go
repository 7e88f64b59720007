package excel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/insurly/claim-processor/internal/core/ports"
)

// Service produces XLSX workbooks summarizing recently processed claims for
// back-office review.
type Service struct {
	claims ports.ClaimReader
	logger *slog.Logger
}

func NewService(claims ports.ClaimReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{claims: claims, logger: logger}
}

// ExportClaimsXLSX returns a workbook with one row per processed claim,
// newest first, capped at limit rows.
func (s *Service) ExportClaimsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	summaries, err := s.claims.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Claims"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultIndex, _ := f.GetSheetIndex("Sheet1")
	if defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Request ID",
		"Processed At",
		"Workflow Status",
		"Decision",
		"Validation Score",
		"Processing Time (s)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, c := range summaries {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, c.RequestID)
		if !c.CreatedAt.IsZero() {
			write(2, c.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		} else {
			write(2, "")
		}
		write(3, string(c.WorkflowStatus))
		write(4, c.DecisionStatus)
		write(5, c.ValidationScore)
		write(6, c.ProcessingTime)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "B", "B", 20)
	_ = f.SetColWidth(sheet, "C", "D", 16)
	_ = f.SetColWidth(sheet, "E", "F", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(summaries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
