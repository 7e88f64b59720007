package domain

import "time"

// DocumentType is the closed set of claim document classifications.
type DocumentType string

const (
	TypeBill             DocumentType = "bill"
	TypeDischargeSummary DocumentType = "discharge_summary"
	TypeIDCard           DocumentType = "id_card"
	TypeClaimForm        DocumentType = "claim_form"
	TypeCorrespondence   DocumentType = "correspondence"
	TypePrescription     DocumentType = "prescription"
	TypeUnknown          DocumentType = "unknown"
)

// KnownDocumentTypes lists every valid classification except unknown.
var KnownDocumentTypes = []DocumentType{
	TypeBill,
	TypeDischargeSummary,
	TypeIDCard,
	TypeClaimForm,
	TypeCorrespondence,
	TypePrescription,
}

// ParseDocumentType normalizes a raw classification value. Anything outside
// the closed set maps to TypeUnknown.
func ParseDocumentType(raw string) DocumentType {
	t := DocumentType(raw)
	for _, known := range KnownDocumentTypes {
		if t == known {
			return known
		}
	}
	return TypeUnknown
}

// UploadedDocument is a raw file as received at request ingress. It is
// discarded once text extraction completes.
type UploadedDocument struct {
	Filename string
	Data     []byte
}

// ClassifiedDocument ties the extracted page text of one upload to its
// assigned type. Pages preserve source order; an empty Pages slice means the
// document had no extractable text, which is a valid degenerate result.
type ClassifiedDocument struct {
	Filename   string       `json:"filename"`
	Type       DocumentType `json:"type"`
	Confidence float64      `json:"confidence"`
	Pages      []string     `json:"-"`
}

// Text joins the page texts for prompt construction.
func (d ClassifiedDocument) Text() string {
	out := ""
	for i, page := range d.Pages {
		if i > 0 {
			out += "\n"
		}
		out += page
	}
	return out
}

// BillData holds structured fields extracted from a medical bill. Optional
// fields are pointers so "not found" marshals as null, never as an empty
// string or zero.
type BillData struct {
	HospitalName    *string  `json:"hospital_name"`
	PatientName     *string  `json:"patient_name"`
	DateOfService   *string  `json:"date_of_service"`
	TotalAmount     *float64 `json:"total_amount"`
	InsuranceAmount *float64 `json:"insurance_amount"`
	PatientAmount   *float64 `json:"patient_amount"`
	BillNumber      *string  `json:"bill_number"`
	DoctorName      *string  `json:"doctor_name"`
	Department      *string  `json:"department"`
	ServiceDetails  []string `json:"service_details"`
}

// DischargeData holds structured fields extracted from a hospital discharge
// summary.
type DischargeData struct {
	PatientName           *string  `json:"patient_name"`
	HospitalName          *string  `json:"hospital_name"`
	AdmissionDate         *string  `json:"admission_date"`
	DischargeDate         *string  `json:"discharge_date"`
	PrimaryDiagnosis      *string  `json:"primary_diagnosis"`
	SecondaryDiagnoses    []string `json:"secondary_diagnoses"`
	ProceduresPerformed   []string `json:"procedures_performed"`
	DoctorName            *string  `json:"doctor_name"`
	DischargeInstructions *string  `json:"discharge_instructions"`
	LengthOfStay          *int     `json:"length_of_stay"`
}

// ClaimAncillaryData covers the remaining claim document types: ID cards,
// claim forms, correspondence, and prescriptions.
type ClaimAncillaryData struct {
	DocumentType       DocumentType `json:"document_type"`
	PatientName        *string      `json:"patient_name"`
	PolicyNumber       *string      `json:"policy_number"`
	MemberID           *string      `json:"member_id"`
	InsuranceCompany   *string      `json:"insurance_company"`
	CoverageType       *string      `json:"coverage_type"`
	ReferenceNumber    *string      `json:"reference_number"`
	CorrespondenceDate *string      `json:"correspondence_date"`
	PrescribingDoctor  *string      `json:"prescribing_doctor"`
	Medications        []string     `json:"medications"`
	PrescriptionDate   *string      `json:"prescription_date"`
}

// ExtractionOutcome is the per-document result of the field extraction stage.
// Exactly one of Bill, Discharge, or Ancillary is set on success; on a
// collaborator failure all three are nil and FailureNote records why, so
// validation can surface it as a compliance issue instead of dropping the
// document silently.
type ExtractionOutcome struct {
	Document    ClassifiedDocument
	Bill        *BillData
	Discharge   *DischargeData
	Ancillary   *ClaimAncillaryData
	FailureNote string
}

// Failed reports whether the extraction call for this document degraded.
func (o ExtractionOutcome) Failed() bool {
	return o.FailureNote != ""
}

// ValidationResult is the deterministic cross-document consistency report.
type ValidationResult struct {
	MissingDocuments      []string `json:"missing_documents"`
	Discrepancies         []string `json:"discrepancies"`
	ValidationScore       float64  `json:"validation_score"`
	Recommendations       []string `json:"recommendations"`
	AgentComplianceIssues []string `json:"agent_compliance_issues"`
}

// DecisionStatus is the terminal claim determination.
type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
	DecisionPending  DecisionStatus = "pending"
)

// ClaimDecision is the final approve/reject/pending determination.
type ClaimDecision struct {
	Status             DecisionStatus `json:"status"`
	Reason             string         `json:"reason"`
	ConfidenceScore    float64        `json:"confidence_score"`
	RecommendedActions []string       `json:"recommended_actions"`
}

// WorkflowStatus describes how a pipeline run terminated.
type WorkflowStatus string

const (
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowNoOutputs WorkflowStatus = "no_outputs"
	WorkflowError     WorkflowStatus = "error"
)

// AgentOutputs groups the per-stage results assembled into the response
// envelope. The list fields are keyed by document type, mirroring the
// order-independent fan-out of the extraction stage.
type AgentOutputs struct {
	Documents         []ClassifiedDocument `json:"documents"`
	BillData          []BillData           `json:"bill_data"`
	DischargeData     []DischargeData      `json:"discharge_data"`
	ClaimData         []ClaimAncillaryData `json:"claim_data"`
	ValidationResults *ValidationResult    `json:"validation_results"`
	ClaimDecision     *ClaimDecision       `json:"claim_decision"`
}

// WorkflowResult is the immutable response envelope for one claim request.
// RecommendedActions is populated only on error envelopes to guide the
// caller (retry later, contact support).
type WorkflowResult struct {
	RequestID          string         `json:"request_id"`
	ProcessingTime     float64        `json:"processing_time"`
	Timestamp          time.Time      `json:"timestamp"`
	WorkflowStatus     WorkflowStatus `json:"workflow_status"`
	AgentOutputs       *AgentOutputs  `json:"agent_outputs"`
	Error              *string        `json:"error"`
	RecommendedActions []string       `json:"recommended_actions,omitempty"`
	SessionState       map[string]any `json:"raw_session_state"`
}

// ClaimSummary is the read model used for listing and export.
type ClaimSummary struct {
	RequestID       string
	WorkflowStatus  WorkflowStatus
	DecisionStatus  string
	ValidationScore float64
	ProcessingTime  float64
	CreatedAt       time.Time
}
