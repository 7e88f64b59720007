package usecase

import (
	"reflect"
	"strings"
	"testing"

	"github.com/insurly/claim-processor/internal/core/domain"
)

func testValidator() Validator {
	return Validator{MissingDocPenalty: 25, DiscrepancyPenalty: 15, CompliancePenalty: 5}
}

func billOutcome(patient, hospital, serviceDate string) domain.ExtractionOutcome {
	return domain.ExtractionOutcome{
		Document: domain.ClassifiedDocument{Filename: "bill.pdf", Type: domain.TypeBill},
		Bill: &domain.BillData{
			HospitalName:  strptr(hospital),
			PatientName:   strptr(patient),
			DateOfService: strptr(serviceDate),
			TotalAmount:   floatptr(12500),
			BillNumber:    strptr("B-42"),
		},
	}
}

func dischargeOutcome(patient, hospital, admitted, discharged string) domain.ExtractionOutcome {
	return domain.ExtractionOutcome{
		Document: domain.ClassifiedDocument{Filename: "discharge.pdf", Type: domain.TypeDischargeSummary},
		Discharge: &domain.DischargeData{
			PatientName:      strptr(patient),
			HospitalName:     strptr(hospital),
			AdmissionDate:    strptr(admitted),
			DischargeDate:    strptr(discharged),
			PrimaryDiagnosis: strptr("appendicitis"),
		},
	}
}

func TestValidateCleanClaimScoresFull(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		dischargeOutcome("John Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
	}

	result := testValidator().Validate(outcomes)

	if len(result.MissingDocuments) != 0 {
		t.Fatalf("unexpected missing documents: %v", result.MissingDocuments)
	}
	if len(result.Discrepancies) != 0 {
		t.Fatalf("unexpected discrepancies: %v", result.Discrepancies)
	}
	if result.ValidationScore != 100 {
		t.Fatalf("expected full score, got %v", result.ValidationScore)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		dischargeOutcome("Jon Doe", "XYZ Clinic", "2024-03-01", "2024-03-07"),
	}

	v := testValidator()
	first := v.Validate(outcomes)
	second := v.Validate(outcomes)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated runs disagree:\n%+v\n%+v", first, second)
	}
}

func TestValidateChecklist(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []domain.ExtractionOutcome
		want     []string
	}{
		{
			name:     "bill only misses supporting document",
			outcomes: []domain.ExtractionOutcome{billOutcome("John Doe", "ABC Hospital", "2024-03-05")},
			want:     []string{"discharge_summary"},
		},
		{
			name: "discharge only misses bill",
			outcomes: []domain.ExtractionOutcome{
				dischargeOutcome("John Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
			},
			want: []string{"bill"},
		},
		{
			name: "claim form satisfies the supporting slot",
			outcomes: []domain.ExtractionOutcome{
				billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
				{
					Document:  domain.ClassifiedDocument{Filename: "claim_form.pdf", Type: domain.TypeClaimForm},
					Ancillary: &domain.ClaimAncillaryData{DocumentType: domain.TypeClaimForm, PatientName: strptr("John Doe"), PolicyNumber: strptr("P-1"), ReferenceNumber: strptr("R-1")},
				},
			},
			want: []string{},
		},
		{
			name: "prescription alone misses both",
			outcomes: []domain.ExtractionOutcome{
				{
					Document:  domain.ClassifiedDocument{Filename: "prescription.pdf", Type: domain.TypePrescription},
					Ancillary: &domain.ClaimAncillaryData{DocumentType: domain.TypePrescription, PatientName: strptr("John Doe")},
				},
			},
			want: []string{"bill", "discharge_summary"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testValidator().Validate(tt.outcomes).MissingDocuments
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("missing documents = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateFlagsPatientNameMismatch(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		dischargeOutcome("Jon Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
	}

	result := testValidator().Validate(outcomes)

	if len(result.Discrepancies) == 0 {
		t.Fatal("expected a patient name discrepancy")
	}
	if result.ValidationScore >= 100 {
		t.Fatalf("discrepancy must lower the score, got %v", result.ValidationScore)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected a recommendation for the mismatch")
	}
}

func TestValidateComparesEveryPairOfNames(t *testing.T) {
	claimForm := domain.ExtractionOutcome{
		Document: domain.ClassifiedDocument{Filename: "claim_form.pdf", Type: domain.TypeClaimForm},
		Ancillary: &domain.ClaimAncillaryData{
			DocumentType: domain.TypeClaimForm,
			PatientName:  strptr("John Doe"),
			PolicyNumber: strptr("P-77"),
		},
	}
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		claimForm,
		dischargeOutcome("Jon Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
	}

	result := testValidator().Validate(outcomes)

	patientMismatches := 0
	for _, d := range result.Discrepancies {
		if strings.HasPrefix(d, "patient name") {
			patientMismatches++
		}
	}
	if patientMismatches != 2 {
		t.Fatalf("expected the discharge record to mismatch both matching records, got %d: %v",
			patientMismatches, result.Discrepancies)
	}
}

func TestValidateIgnoresCaseAndWhitespaceInNames(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("  JOHN   DOE ", "abc hospital", "2024-03-05"),
		dischargeOutcome("john doe", "ABC  Hospital", "2024-03-01", "2024-03-07"),
	}

	result := testValidator().Validate(outcomes)
	if len(result.Discrepancies) != 0 {
		t.Fatalf("normalized names must match, got %v", result.Discrepancies)
	}
}

func TestValidateFlagsServiceDateOutsideAdmission(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-04-20"),
		dischargeOutcome("John Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
	}

	result := testValidator().Validate(outcomes)

	found := false
	for _, d := range result.Discrepancies {
		if strings.Contains(d, "outside the admission period") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a date range discrepancy, got %v", result.Discrepancies)
	}
}

func TestValidateSkipsUnparseableDates(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "sometime in spring"),
		dischargeOutcome("John Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
	}

	result := testValidator().Validate(outcomes)
	if len(result.Discrepancies) != 0 {
		t.Fatalf("unparseable dates must be skipped, got %v", result.Discrepancies)
	}
}

func TestValidateMoreDiscrepanciesNeverRaiseScore(t *testing.T) {
	base := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		dischargeOutcome("Jon Doe", "ABC Hospital", "2024-03-01", "2024-03-07"),
	}
	worse := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		dischargeOutcome("Jon Doe", "XYZ Clinic", "2024-03-01", "2024-03-07"),
	}

	v := testValidator()
	if v.Validate(worse).ValidationScore > v.Validate(base).ValidationScore {
		t.Fatal("adding a discrepancy raised the score")
	}
}

func TestValidateScoreNeverGoesNegative(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{}
	for i := 0; i < 12; i++ {
		outcomes = append(outcomes, domain.ExtractionOutcome{
			Document:    domain.ClassifiedDocument{Filename: "doc.pdf", Type: domain.TypePrescription},
			FailureNote: "model refused",
		})
	}

	result := testValidator().Validate(outcomes)
	if result.ValidationScore != 0 {
		t.Fatalf("score must floor at zero, got %v", result.ValidationScore)
	}
}

func TestValidateFlagsSparseRecords(t *testing.T) {
	sparse := domain.ExtractionOutcome{
		Document: domain.ClassifiedDocument{Filename: "bill.pdf", Type: domain.TypeBill},
		Bill:     &domain.BillData{HospitalName: strptr("ABC Hospital")},
	}

	result := testValidator().Validate([]domain.ExtractionOutcome{sparse})
	if len(result.AgentComplianceIssues) == 0 {
		t.Fatal("expected a compliance issue for the sparse record")
	}
}

func TestValidateFlagsDegradedOutcomes(t *testing.T) {
	outcomes := []domain.ExtractionOutcome{
		billOutcome("John Doe", "ABC Hospital", "2024-03-05"),
		{
			Document:    domain.ClassifiedDocument{Filename: "discharge.pdf", Type: domain.TypeDischargeSummary},
			FailureNote: "completion timed out",
		},
	}

	result := testValidator().Validate(outcomes)

	if len(result.AgentComplianceIssues) != 1 {
		t.Fatalf("expected one compliance issue, got %v", result.AgentComplianceIssues)
	}
	if len(result.MissingDocuments) != 0 {
		t.Fatalf("a degraded document still counts as observed, got %v", result.MissingDocuments)
	}
}
