package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/insurly/claim-processor/internal/core/domain"
	"github.com/insurly/claim-processor/internal/core/ports"
)

// Machine-readable error codes carried in the envelope's error field.
const (
	errCodeTimeout         = "timeout"
	errCodeTextExtraction  = "text_extraction"
	errCodeFieldExtraction = "field_extraction"
)

// Policy is the immutable per-process tuning handed to the orchestrator at
// construction.
type Policy struct {
	RequestTimeout           time.Duration
	MaxConcurrentExtractions int
}

// ProcessClaimUseCase sequences the claim pipeline: text extraction,
// classification, concurrent field extraction, validation, and decision.
// All intermediate state is request-scoped; the use case itself is safe for
// concurrent requests.
type ProcessClaimUseCase struct {
	texts      ports.TextExtractor
	classifier ports.DocumentClassifier
	fields     ports.FieldExtractor
	repo       ports.ClaimRepository
	events     ports.EventPublisher
	archive    ports.DocumentArchive
	observer   ports.PipelineObserver
	validator  Validator
	decider    Decider
	policy     Policy
	logger     *slog.Logger
}

func NewProcessClaimUseCase(
	texts ports.TextExtractor,
	classifier ports.DocumentClassifier,
	fields ports.FieldExtractor,
	repo ports.ClaimRepository,
	events ports.EventPublisher,
	archive ports.DocumentArchive,
	observer ports.PipelineObserver,
	validator Validator,
	decider Decider,
	policy Policy,
	logger *slog.Logger,
) *ProcessClaimUseCase {
	if policy.MaxConcurrentExtractions <= 0 {
		policy.MaxConcurrentExtractions = 1
	}
	return &ProcessClaimUseCase{
		texts:      texts,
		classifier: classifier,
		fields:     fields,
		repo:       repo,
		events:     events,
		archive:    archive,
		observer:   observer,
		validator:  validator,
		decider:    decider,
		policy:     policy,
		logger:     logger,
	}
}

// ProcessClaim runs the full pipeline for one uploaded document set. It never
// returns an error: every terminal path, including timeouts and collaborator
// outages, produces a well-formed envelope.
func (uc *ProcessClaimUseCase) ProcessClaim(ctx context.Context, uploads []domain.UploadedDocument) *domain.WorkflowResult {
	requestID := uuid.NewString()
	started := time.Now()
	session := map[string]any{}

	if uc.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.policy.RequestTimeout)
		defer cancel()
	}

	if uc.archive != nil && len(uploads) > 0 {
		if err := uc.archive.ArchiveDocuments(ctx, requestID, uploads); err != nil {
			uc.logger.Warn("archive uploads", "request_id", requestID, "error", err)
		}
	}

	result := uc.run(ctx, requestID, uploads, session)
	result.RequestID = requestID
	result.ProcessingTime = time.Since(started).Seconds()
	result.Timestamp = time.Now().UTC()
	result.SessionState = session

	uc.observer.ObserveWorkflow(result.WorkflowStatus, time.Since(started))
	uc.logger.Info("claim processed",
		"request_id", requestID,
		"workflow_status", string(result.WorkflowStatus),
		"documents", len(uploads),
		"duration_seconds", result.ProcessingTime,
	)

	uc.finalize(ctx, result)
	return result
}

func (uc *ProcessClaimUseCase) run(ctx context.Context, requestID string, uploads []domain.UploadedDocument, session map[string]any) *domain.WorkflowResult {
	if len(uploads) == 0 {
		return &domain.WorkflowResult{WorkflowStatus: domain.WorkflowNoOutputs}
	}

	notes := []string{}
	defer func() {
		if len(notes) > 0 {
			session["notes"] = notes
		}
	}()

	// extracting_text
	stageStart := time.Now()
	type extracted struct {
		filename string
		pages    []string
	}
	files := make([]extracted, 0, len(uploads))
	failedText := 0
	for _, up := range uploads {
		pages, err := uc.texts.ExtractPages(ctx, up.Filename, up.Data)
		if err != nil {
			if runAborted(ctx) {
				return uc.errorResult(errCodeTimeout)
			}
			failedText++
			notes = append(notes, fmt.Sprintf("text extraction failed for %s: %v", up.Filename, err))
			uc.logger.Warn("text extraction failed",
				"request_id", requestID, "filename", up.Filename, "error", err)
			files = append(files, extracted{filename: up.Filename})
			continue
		}
		files = append(files, extracted{filename: up.Filename, pages: pages})
	}
	uc.observeStage("extract_text", stageStart, session)
	if failedText == len(uploads) {
		return uc.errorResult(errCodeTextExtraction)
	}

	// classifying
	stageStart = time.Now()
	docs := make([]domain.ClassifiedDocument, 0, len(files))
	for _, f := range files {
		doc, note := uc.classifyDocument(ctx, f.filename, f.pages)
		if note != "" {
			notes = append(notes, note)
		}
		uc.observer.ObserveClassification(doc.Type)
		docs = append(docs, doc)
	}
	uc.observeStage("classify", stageStart, session)
	if runAborted(ctx) {
		return uc.errorResult(errCodeTimeout)
	}

	usable := make([]domain.ClassifiedDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.Type != domain.TypeUnknown {
			usable = append(usable, doc)
		}
	}
	if len(usable) == 0 {
		session["documents"] = docs
		return &domain.WorkflowResult{WorkflowStatus: domain.WorkflowNoOutputs}
	}

	// extracting_fields, fan-out with a bounded group and a join before
	// validation; per-document failures degrade, they never abort the run.
	stageStart = time.Now()
	outcomes := make([]domain.ExtractionOutcome, len(usable))
	group := new(errgroup.Group)
	group.SetLimit(uc.policy.MaxConcurrentExtractions)
	for i, doc := range usable {
		i, doc := i, doc
		group.Go(func() error {
			outcomes[i] = uc.extractFields(ctx, requestID, doc)
			return nil
		})
	}
	_ = group.Wait()
	uc.observeStage("extract_fields", stageStart, session)
	if runAborted(ctx) {
		return uc.errorResult(errCodeTimeout)
	}
	if allFailed(outcomes) {
		return uc.errorResult(errCodeFieldExtraction)
	}

	// validating and deciding
	stageStart = time.Now()
	validation := uc.validator.Validate(outcomes)
	decision := uc.decider.Decide(validation)
	uc.observeStage("validate_decide", stageStart, session)

	outputs := &domain.AgentOutputs{
		Documents:         docs,
		BillData:          []domain.BillData{},
		DischargeData:     []domain.DischargeData{},
		ClaimData:         []domain.ClaimAncillaryData{},
		ValidationResults: &validation,
		ClaimDecision:     &decision,
	}
	for _, o := range outcomes {
		switch {
		case o.Bill != nil:
			outputs.BillData = append(outputs.BillData, *o.Bill)
		case o.Discharge != nil:
			outputs.DischargeData = append(outputs.DischargeData, *o.Discharge)
		case o.Ancillary != nil:
			outputs.ClaimData = append(outputs.ClaimData, *o.Ancillary)
		}
	}

	return &domain.WorkflowResult{
		WorkflowStatus: domain.WorkflowCompleted,
		AgentOutputs:   outputs,
	}
}

// extractFields dispatches purely on the assigned type. A failed collaborator
// call yields a degraded outcome with a note for the validation stage.
func (uc *ProcessClaimUseCase) extractFields(ctx context.Context, requestID string, doc domain.ClassifiedDocument) domain.ExtractionOutcome {
	outcome := domain.ExtractionOutcome{Document: doc}

	var err error
	switch doc.Type {
	case domain.TypeBill:
		outcome.Bill, err = uc.fields.ExtractBill(ctx, doc)
	case domain.TypeDischargeSummary:
		outcome.Discharge, err = uc.fields.ExtractDischarge(ctx, doc)
	default:
		outcome.Ancillary, err = uc.fields.ExtractAncillary(ctx, doc)
	}
	if err != nil {
		outcome.Bill, outcome.Discharge, outcome.Ancillary = nil, nil, nil
		outcome.FailureNote = err.Error()
		uc.observer.ObserveExtractionFailure(doc.Type)
		uc.logger.Warn("field extraction failed",
			"request_id", requestID,
			"filename", doc.Filename,
			"document_type", string(doc.Type),
			"error", err,
		)
	}
	return outcome
}

// finalize persists and publishes the envelope. Both are best-effort: the
// caller already has the result, so storage or broker trouble is only logged.
func (uc *ProcessClaimUseCase) finalize(ctx context.Context, result *domain.WorkflowResult) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if uc.repo != nil {
		if err := uc.repo.SaveResult(saveCtx, result); err != nil {
			uc.logger.Error("persist claim result", "request_id", result.RequestID, "error", err)
		}
	}
	if uc.events != nil {
		if err := uc.events.PublishClaimProcessed(saveCtx, result); err != nil {
			uc.logger.Warn("publish claim event", "request_id", result.RequestID, "error", err)
		}
	}
}

func (uc *ProcessClaimUseCase) errorResult(code string) *domain.WorkflowResult {
	msg := code
	return &domain.WorkflowResult{
		WorkflowStatus:     domain.WorkflowError,
		Error:              &msg,
		RecommendedActions: recommendedActionsFor(code),
	}
}

func recommendedActionsFor(code string) []string {
	switch code {
	case errCodeTimeout:
		return []string{"Retry the request later", "Submit fewer documents per request"}
	case errCodeTextExtraction:
		return []string{"Verify the uploaded files are valid PDF documents", "Re-submit readable copies"}
	default:
		return []string{"Retry the request later", "Contact support if the problem persists"}
	}
}

func (uc *ProcessClaimUseCase) observeStage(stage string, started time.Time, session map[string]any) {
	elapsed := time.Since(started)
	uc.observer.ObserveStage(stage, elapsed)

	timings, _ := session["stage_timings_ms"].(map[string]int64)
	if timings == nil {
		timings = map[string]int64{}
		session["stage_timings_ms"] = timings
	}
	timings[stage] = elapsed.Milliseconds()
}

func allFailed(outcomes []domain.ExtractionOutcome) bool {
	for _, o := range outcomes {
		if !o.Failed() {
			return false
		}
	}
	return len(outcomes) > 0
}

// runAborted reports a done request context, whether the deadline expired or
// the client cancelled. Collaborator errors after that point reflect the dead
// context, not the documents, so the run stops with the timeout code instead
// of blaming extraction.
func runAborted(ctx context.Context) bool {
	return ctx.Err() != nil
}
