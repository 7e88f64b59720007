package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/insurly/claim-processor/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*ClaimRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ClaimRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetResultReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT payload").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetResult(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetResultUnmarshalsStoredEnvelope(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	stored := domain.WorkflowResult{
		RequestID:      "req-1",
		WorkflowStatus: domain.WorkflowCompleted,
		ProcessingTime: 1.25,
		Timestamp:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	mock.ExpectQuery("SELECT payload").
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := repo.GetResult(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("GetResult() error = %v", err)
	}
	if got.RequestID != "req-1" || got.WorkflowStatus != domain.WorkflowCompleted {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultLiftsDecisionColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	result := &domain.WorkflowResult{
		RequestID:      "req-2",
		WorkflowStatus: domain.WorkflowCompleted,
		ProcessingTime: 2.5,
		Timestamp:      time.Now().UTC(),
		AgentOutputs: &domain.AgentOutputs{
			ValidationResults: &domain.ValidationResult{ValidationScore: 85},
			ClaimDecision:     &domain.ClaimDecision{Status: domain.DecisionApproved},
		},
	}

	mock.ExpectExec("INSERT INTO claims").
		WithArgs("req-2", string(domain.WorkflowCompleted),
			sql.NullString{String: "approved", Valid: true},
			sql.NullFloat64{Float64: 85, Valid: true},
			2.5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentScansSummaries(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"request_id", "workflow_status", "decision_status", "validation_score", "processing_time", "created_at",
	}).
		AddRow("req-1", "completed", "approved", 100.0, 1.5, created).
		AddRow("req-2", "error", nil, nil, 0.2, created)

	mock.ExpectQuery("SELECT request_id, workflow_status").
		WithArgs(50).
		WillReturnRows(rows)

	got, err := repo.ListRecent(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].DecisionStatus != "approved" || got[0].ValidationScore != 100 {
		t.Fatalf("unexpected first summary: %+v", got[0])
	}
	if got[1].DecisionStatus != "" || got[1].ValidationScore != 0 {
		t.Fatalf("null columns must scan to zero values: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
