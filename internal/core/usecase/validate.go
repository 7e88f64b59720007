package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// Validator runs the deterministic cross-document consistency checks. It
// operates purely on already-extracted structured data; given identical
// outcomes it always produces an identical result.
type Validator struct {
	MissingDocPenalty  float64
	DiscrepancyPenalty float64
	CompliancePenalty  float64
}

// Validate builds the completeness, consistency, and field-quality report for
// one claim. The score starts at 100 and is reduced per missing document,
// per discrepancy, and per compliance issue, floored at zero.
func (v Validator) Validate(outcomes []domain.ExtractionOutcome) domain.ValidationResult {
	result := domain.ValidationResult{
		MissingDocuments:      v.missingDocuments(outcomes),
		Discrepancies:         v.discrepancies(outcomes),
		AgentComplianceIssues: v.complianceIssues(outcomes),
	}

	score := 100.0
	score -= float64(len(result.MissingDocuments)) * v.MissingDocPenalty
	score -= float64(len(result.Discrepancies)) * v.DiscrepancyPenalty
	score -= float64(len(result.AgentComplianceIssues)) * v.CompliancePenalty
	if score < 0 {
		score = 0
	}
	result.ValidationScore = score

	result.Recommendations = v.recommendations(result, outcomes)
	return result
}

// missingDocuments compares observed types against the claim-completeness
// checklist: a bill plus one supporting document, where either a discharge
// summary or a claim form fills the supporting slot. When neither is present
// the discharge summary is the one requested.
func (v Validator) missingDocuments(outcomes []domain.ExtractionOutcome) []string {
	observed := map[domain.DocumentType]bool{}
	for _, o := range outcomes {
		observed[o.Document.Type] = true
	}

	missing := []string{}
	if !observed[domain.TypeBill] {
		missing = append(missing, string(domain.TypeBill))
	}
	if !observed[domain.TypeDischargeSummary] && !observed[domain.TypeClaimForm] {
		missing = append(missing, string(domain.TypeDischargeSummary))
	}
	return missing
}

func (v Validator) discrepancies(outcomes []domain.ExtractionOutcome) []string {
	type named struct {
		filename string
		value    string
	}
	var patients, hospitals []named

	collect := func(list *[]named, filename string, field *string) {
		if norm := normalizeName(field); norm != "" {
			*list = append(*list, named{filename: filename, value: norm})
		}
	}

	for _, o := range outcomes {
		switch {
		case o.Bill != nil:
			collect(&patients, o.Document.Filename, o.Bill.PatientName)
			collect(&hospitals, o.Document.Filename, o.Bill.HospitalName)
		case o.Discharge != nil:
			collect(&patients, o.Document.Filename, o.Discharge.PatientName)
			collect(&hospitals, o.Document.Filename, o.Discharge.HospitalName)
		case o.Ancillary != nil:
			collect(&patients, o.Document.Filename, o.Ancillary.PatientName)
		}
	}

	// Every differing pair is a separate discrepancy.
	found := []string{}
	mismatch := func(kind string, list []named) {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[i].value != list[j].value {
					found = append(found, fmt.Sprintf(
						"%s mismatch between %s (%q) and %s (%q)",
						kind, list[i].filename, list[i].value, list[j].filename, list[j].value))
				}
			}
		}
	}
	mismatch("patient name", patients)
	mismatch("hospital name", hospitals)

	found = append(found, v.dateRangeDiscrepancies(outcomes)...)
	return found
}

// dateRangeDiscrepancies flags bills whose date of service falls outside the
// admission-to-discharge window of a discharge record from the same claim.
// Dates that cannot be parsed are skipped rather than flagged.
func (v Validator) dateRangeDiscrepancies(outcomes []domain.ExtractionOutcome) []string {
	found := []string{}
	for _, bo := range outcomes {
		if bo.Bill == nil {
			continue
		}
		service, ok := parseClaimDate(bo.Bill.DateOfService)
		if !ok {
			continue
		}
		for _, do := range outcomes {
			if do.Discharge == nil {
				continue
			}
			admitted, okA := parseClaimDate(do.Discharge.AdmissionDate)
			discharged, okD := parseClaimDate(do.Discharge.DischargeDate)
			if !okA || !okD {
				continue
			}
			if service.Before(admitted) || service.After(discharged) {
				found = append(found, fmt.Sprintf(
					"date of service in %s is outside the admission period in %s",
					bo.Document.Filename, do.Document.Filename))
			}
		}
	}
	return found
}

// complianceIssues reports degraded extraction calls and records where more
// than half of the expected fields came back absent.
func (v Validator) complianceIssues(outcomes []domain.ExtractionOutcome) []string {
	issues := []string{}
	for _, o := range outcomes {
		if o.Failed() {
			issues = append(issues, fmt.Sprintf(
				"field extraction degraded for %s: %s", o.Document.Filename, o.FailureNote))
			continue
		}
		expected, absent := countExpectedFields(o)
		if expected > 0 && absent*2 > expected {
			issues = append(issues, fmt.Sprintf(
				"sparse extraction for %s: %d of %d expected fields absent",
				o.Document.Filename, absent, expected))
		}
	}
	return issues
}

func countExpectedFields(o domain.ExtractionOutcome) (expected, absent int) {
	count := func(fields ...*string) {
		for _, f := range fields {
			expected++
			if f == nil || strings.TrimSpace(*f) == "" {
				absent++
			}
		}
	}

	switch {
	case o.Bill != nil:
		count(o.Bill.HospitalName, o.Bill.PatientName, o.Bill.DateOfService, o.Bill.BillNumber)
		expected++
		if o.Bill.TotalAmount == nil {
			absent++
		}
	case o.Discharge != nil:
		count(o.Discharge.PatientName, o.Discharge.HospitalName,
			o.Discharge.AdmissionDate, o.Discharge.DischargeDate, o.Discharge.PrimaryDiagnosis)
	case o.Ancillary != nil:
		switch o.Document.Type {
		case domain.TypeIDCard:
			count(o.Ancillary.PatientName, o.Ancillary.PolicyNumber,
				o.Ancillary.MemberID, o.Ancillary.InsuranceCompany)
		case domain.TypeClaimForm:
			count(o.Ancillary.PatientName, o.Ancillary.PolicyNumber, o.Ancillary.ReferenceNumber)
		case domain.TypeCorrespondence:
			count(o.Ancillary.PatientName, o.Ancillary.ReferenceNumber, o.Ancillary.CorrespondenceDate)
		case domain.TypePrescription:
			count(o.Ancillary.PatientName, o.Ancillary.PrescribingDoctor, o.Ancillary.PrescriptionDate)
			expected++
			if len(o.Ancillary.Medications) == 0 {
				absent++
			}
		}
	}
	return expected, absent
}

func (v Validator) recommendations(result domain.ValidationResult, outcomes []domain.ExtractionOutcome) []string {
	recs := []string{}
	seen := map[string]bool{}
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			recs = append(recs, r)
		}
	}

	for _, doc := range result.MissingDocuments {
		add(fmt.Sprintf("Request the missing %s document from the claimant", doc))
	}
	for _, d := range result.Discrepancies {
		switch {
		case strings.HasPrefix(d, "patient name"):
			add("Verify the patient name across the submitted documents")
		case strings.HasPrefix(d, "hospital name"):
			add("Verify the hospital name across the submitted documents")
		default:
			add("Verify that the billed service date falls within the admission period")
		}
	}
	for _, o := range outcomes {
		if o.Failed() {
			add(fmt.Sprintf("Re-submit a readable copy of %s", o.Document.Filename))
		}
	}
	return recs
}

var claimDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func parseClaimDate(raw *string) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	value := strings.TrimSpace(*raw)
	for _, layout := range claimDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeName(raw *string) string {
	if raw == nil {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(*raw)), " ")
}
