package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// ClaimRepository stores processed claim envelopes. The full envelope lives
// in a JSONB column; the few columns used for listing and export are lifted
// out so reads never have to unmarshal every payload.
type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ClaimRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent instance startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026090101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS claims (
	request_id TEXT PRIMARY KEY,
	workflow_status TEXT NOT NULL,
	decision_status TEXT,
	validation_score DOUBLE PRECISION,
	processing_time DOUBLE PRECISION NOT NULL DEFAULT 0,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_claims_workflow_status ON claims(workflow_status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ClaimRepository) SaveResult(ctx context.Context, result *domain.WorkflowResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal claim payload: %w", err)
	}

	var decisionStatus sql.NullString
	var validationScore sql.NullFloat64
	if outputs := result.AgentOutputs; outputs != nil {
		if outputs.ClaimDecision != nil {
			decisionStatus = sql.NullString{String: string(outputs.ClaimDecision.Status), Valid: true}
		}
		if outputs.ValidationResults != nil {
			validationScore = sql.NullFloat64{Float64: outputs.ValidationResults.ValidationScore, Valid: true}
		}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO claims (
	request_id, workflow_status, decision_status, validation_score, processing_time, payload, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (request_id) DO UPDATE SET
	workflow_status = EXCLUDED.workflow_status,
	decision_status = EXCLUDED.decision_status,
	validation_score = EXCLUDED.validation_score,
	processing_time = EXCLUDED.processing_time,
	payload = EXCLUDED.payload
`,
		result.RequestID, string(result.WorkflowStatus), decisionStatus, validationScore,
		result.ProcessingTime, payload, result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (r *ClaimRepository) GetResult(ctx context.Context, requestID string) (*domain.WorkflowResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload
FROM claims
WHERE request_id = $1
`, requestID)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClaimNotFound, "get claim", fmt.Errorf("request_id %s", requestID))
		}
		return nil, fmt.Errorf("scan claim: %w", err)
	}

	var result domain.WorkflowResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("unmarshal claim payload: %w", err)
	}
	return &result, nil
}

func (r *ClaimRepository) ListRecent(ctx context.Context, limit int) ([]domain.ClaimSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT request_id, workflow_status, decision_status, validation_score, processing_time, created_at
FROM claims
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ClaimSummary{}
	for rows.Next() {
		var s domain.ClaimSummary
		var workflowStatus string
		var decisionStatus sql.NullString
		var validationScore sql.NullFloat64
		if err := rows.Scan(&s.RequestID, &workflowStatus, &decisionStatus, &validationScore, &s.ProcessingTime, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan claim summary: %w", err)
		}
		s.WorkflowStatus = domain.WorkflowStatus(workflowStatus)
		s.DecisionStatus = decisionStatus.String
		s.ValidationScore = validationScore.Float64
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return summaries, nil
}
